// Package build creates torrent.Torrent values from a filesystem path: it
// walks a source tree, computes piece-aligned SHA-1 digests over its
// content, and assembles a metainfo model ready to encode.
package build

import (
	"os"
	"path/filepath"

	"github.com/gookit/slog"
	"github.com/ztrue/tracerr"

	"github.com/sahnt/bencode-torrent/bencode"
	"github.com/sahnt/bencode-torrent/torrent"
)

// New builds a torrent.Torrent from the file or directory at path, using
// pieceLength as the fixed piece size. A single file at path produces a
// single-file torrent; a directory produces a multi-file torrent whose
// Files are ordered as walkTree defines.
func New(path string, pieceLength int64, opts Options) (*torrent.Torrent, error) {
	if pieceLength < 1 {
		return nil, &InvalidPieceLengthError{PieceLength: pieceLength}
	}
	if !isPowerOfTwo(pieceLength) || pieceLength < minRecommendedPieceLength {
		slog.Warn("build: piece length is not a power of two >= 16KiB", pieceLength)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &IOError{Path: path, Cause: tracerr.Wrap(err)}
	}

	var files []sourceFile
	var multiFile bool
	if info.IsDir() {
		multiFile = true
		files, err = walkTree(path)
		if err != nil {
			return nil, err
		}
	} else {
		files = []sourceFile{{AbsPath: path, RelPath: []string{info.Name()}, Length: info.Size()}}
	}

	var total int64
	for _, f := range files {
		total += f.Length
	}
	if total == 0 {
		return nil, &EmptyContentError{}
	}

	pieces, err := hashPieces(files, pieceLength, total, opts.MaxWorkers)
	if err != nil {
		return nil, err
	}
	slog.Debug("build: hashed pieces", len(files), len(pieces)/20)

	name := opts.Name
	if name == "" {
		name = filepath.Base(filepath.Clean(path))
	}

	infoDict := torrent.InfoDict{
		Name:        name,
		PieceLength: pieceLength,
		Pieces:      pieces,
		Private:     opts.Private,
		HasPrivate:  opts.Private,
		Source:      opts.Source,
		HasSource:   opts.Source != "",
	}
	if multiFile {
		infoDict.Files = make([]torrent.FileEntry, len(files))
		for i, f := range files {
			infoDict.Files[i] = torrent.FileEntry{Length: f.Length, Path: f.RelPath}
		}
	} else {
		infoDict.Length = total
	}

	extraInfo, err := extraTerms(opts.ExtraInfoFields, infoRecognizedKeysForBuild)
	if err != nil {
		return nil, err
	}
	infoDict.ExtraInfoFields = extraInfo

	extraTop, err := extraTerms(opts.ExtraFields, topLevelRecognizedKeysForBuild)
	if err != nil {
		return nil, err
	}

	t := &torrent.Torrent{
		Announce:     opts.Announce,
		AnnounceList: opts.AnnounceList,
		Info:         infoDict,
		Comment:      opts.Comment,
		CreatedBy:    opts.CreatedBy,
		CreationDate: opts.CreationDate,
		ExtraFields:  extraTop,
	}
	return t, nil
}

// infoRecognizedKeysForBuild and topLevelRecognizedKeysForBuild mirror the
// recognized-key sets the torrent package decodes against, duplicated here
// since they are not exported: a Builder-supplied extra field that shadows
// one of these must be rejected the same way a decoded one would never
// need to be (decoding never produces collisions because a key can only
// ever land in one place).
var infoRecognizedKeysForBuild = map[string]bool{
	"name": true, "piece length": true, "pieces": true,
	"length": true, "files": true, "private": true, "source": true,
}

var topLevelRecognizedKeysForBuild = map[string]bool{
	"announce": true, "announce-list": true, "info": true,
	"comment": true, "created by": true, "creation date": true,
}

func extraTerms(fields map[string]*bencode.Term, recognized map[string]bool) (*bencode.Dict, error) {
	dict := bencode.NewDict()
	for k, v := range fields {
		if recognized[k] {
			return nil, &KeyCollisionError{Key: k}
		}
		dict.SetString(k, v)
	}
	return dict, nil
}
