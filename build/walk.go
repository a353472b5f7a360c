package build

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gookit/slog"
	"github.com/ztrue/tracerr"
)

// sourceFile is one file discovered while walking a source tree, before
// it is turned into a torrent.FileEntry.
type sourceFile struct {
	AbsPath string
	RelPath []string // path components relative to the walked root
	Length  int64
}

// walkTree recursively enumerates the regular files under root, skipping
// symlinks, special files, and any entry whose basename starts with ".".
// The result is sorted component-wise, lexicographically on raw bytes, so
// builds are reproducible regardless of the filesystem's own iteration
// order.
func walkTree(root string) ([]sourceFile, error) {
	var files []sourceFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &IOError{Path: path, Cause: tracerr.Wrap(err)}
		}
		if path == root {
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") {
			if d.IsDir() {
				slog.Debug("build: skipping hidden directory", path)
				return filepath.SkipDir
			}
			slog.Debug("build: skipping hidden file", path)
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			slog.Warn("build: skipping symlink", path)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			slog.Debug("build: skipping special file", path)
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return &IOError{Path: path, Cause: tracerr.Wrap(err)}
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return &IOError{Path: path, Cause: tracerr.Wrap(err)}
		}

		files = append(files, sourceFile{
			AbsPath: path,
			RelPath: strings.Split(rel, string(filepath.Separator)),
			Length:  info.Size(),
		})
		return nil
	})
	if err != nil {
		var ioErr *IOError
		if errors.As(err, &ioErr) {
			return nil, ioErr
		}
		return nil, &IOError{Path: root, Cause: tracerr.Wrap(err)}
	}

	sort.Slice(files, func(i, j int) bool {
		return compareComponents(files[i].RelPath, files[j].RelPath) < 0
	})
	return files, nil
}

// compareComponents compares two path-component sequences component by
// component, lexicographically on raw bytes: the canonical file ordering
// a build must produce to stay reproducible.
func compareComponents(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := bytes.Compare([]byte(a[i]), []byte(b[i])); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}
