package torrent

import "github.com/sahnt/bencode-torrent/bencode"

// FileEntry describes one file inside a multi-file torrent's info
// dictionary. Path is the ordered sequence of path components, never
// joined with a separator: each component is validated individually
// (non-empty, no "/", no NUL, not "." or "..").
type FileEntry struct {
	Length int64
	Path   []string
	// MD5Sum is the deprecated optional per-file checksum (BEP-0003).
	// The Builder never computes it; it is only round-tripped when a
	// decoded torrent already carries one. HasMD5Sum distinguishes "no
	// md5sum key" from "md5sum key present with an empty value" so a
	// present-but-empty key round-trips instead of silently vanishing.
	// Keys of a decoded files entry other than length, path and md5sum
	// are not kept.
	MD5Sum    string
	HasMD5Sum bool
}

// InfoDict is the typed projection of a metainfo "info" sub-dictionary.
type InfoDict struct {
	Name        string
	PieceLength int64
	Pieces      []byte // concatenation of 20-byte SHA-1 digests

	// Single-file mode: Length is set and Files is nil.
	Length int64
	// Multi-file mode: Files is non-empty and Length is ignored.
	Files []FileEntry

	// Private and Source carry the values of the like-named optional
	// keys. HasPrivate/HasSource record whether the key was present in
	// the source dictionary at all, independent of its value: a key
	// present with its zero value (private = 0, source = 0:) must still
	// be re-emitted on encode, or the reconstructed info dictionary -
	// and therefore its info hash - diverges from the one decoded.
	// Private is true only for a decoded value of 1; any other present
	// value is held as false and re-encoded as 0.
	Private    bool
	HasPrivate bool
	Source     string
	HasSource  bool

	// ExtraInfoFields carries every key inside "info" that isn't one of
	// the recognized keys above, verbatim, keyed by raw key bytes.
	ExtraInfoFields *bencode.Dict
}

// IsMultiFile reports whether the info dictionary is in multi-file mode
// (it has a files list, which may hold a single entry).
func (i *InfoDict) IsMultiFile() bool {
	return i.Files != nil
}

// TotalLength returns the total content length: Length in single-file
// mode, or the sum of every file's Length in multi-file mode.
func (i *InfoDict) TotalLength() int64 {
	if !i.IsMultiFile() {
		return i.Length
	}
	var total int64
	for _, f := range i.Files {
		total += f.Length
	}
	return total
}

// PieceCount returns the number of 20-byte piece digests stored in
// Pieces.
func (i *InfoDict) PieceCount() int {
	return len(i.Pieces) / 20
}

var infoRecognizedKeys = map[string]bool{
	"name":         true,
	"piece length": true,
	"pieces":       true,
	"length":       true,
	"files":        true,
	"private":      true,
	"source":       true,
}

func infoFromTerm(t *bencode.Term) (*InfoDict, error) {
	dict, ok := t.Dict()
	if !ok {
		return nil, invalidMetainfo("info must be a dictionary")
	}

	info := &InfoDict{ExtraInfoFields: bencode.NewDict()}

	nameTerm, ok := dict.GetString("name")
	if !ok {
		return nil, invalidMetainfo("info.name is missing")
	}
	nameBytes, ok := nameTerm.Bytes()
	if !ok {
		return nil, invalidMetainfo("info.name must be a byte-string")
	}
	info.Name = string(nameBytes)

	plTerm, ok := dict.GetString("piece length")
	if !ok {
		return nil, invalidMetainfo("info.piece length is missing")
	}
	pl, ok := plTerm.Int()
	if !ok {
		return nil, invalidMetainfo("info.piece length must be an integer")
	}
	if pl < 1 {
		return nil, invalidMetainfo("info.piece length must be >= 1, got %d", pl)
	}
	info.PieceLength = pl

	piecesTerm, ok := dict.GetString("pieces")
	if !ok {
		return nil, invalidMetainfo("info.pieces is missing")
	}
	pieces, ok := piecesTerm.Bytes()
	if !ok {
		return nil, invalidMetainfo("info.pieces must be a byte-string")
	}
	if len(pieces)%20 != 0 {
		return nil, invalidMetainfo("info.pieces length %d is not a multiple of 20", len(pieces))
	}
	info.Pieces = pieces

	lengthTerm, hasLength := dict.GetString("length")
	filesTerm, hasFiles := dict.GetString("files")
	switch {
	case hasLength && hasFiles:
		return nil, invalidMetainfo("info must not have both length and files")
	case hasLength:
		l, ok := lengthTerm.Int()
		if !ok || l < 0 {
			return nil, invalidMetainfo("info.length must be a non-negative integer")
		}
		info.Length = l
	case hasFiles:
		files, err := filesFromTerm(filesTerm)
		if err != nil {
			return nil, err
		}
		info.Files = files
	default:
		return nil, invalidMetainfo("info must have exactly one of length or files")
	}

	if privTerm, ok := dict.GetString("private"); ok {
		p, ok := privTerm.Int()
		if !ok {
			return nil, invalidMetainfo("info.private must be an integer")
		}
		info.Private = p == 1
		info.HasPrivate = true
	}

	if srcTerm, ok := dict.GetString("source"); ok {
		src, ok := srcTerm.Bytes()
		if !ok {
			return nil, invalidMetainfo("info.source must be a byte-string")
		}
		info.Source = string(src)
		info.HasSource = true
	}

	dict.Range(func(key string, v *bencode.Term) bool {
		if !infoRecognizedKeys[key] {
			info.ExtraInfoFields.SetString(key, v)
		}
		return true
	})

	return info, nil
}

func filesFromTerm(t *bencode.Term) ([]FileEntry, error) {
	list, ok := t.List()
	if !ok {
		return nil, invalidMetainfo("info.files must be a list")
	}
	if len(list) == 0 {
		return nil, invalidMetainfo("info.files must not be empty")
	}
	files := make([]FileEntry, 0, len(list))
	for idx, item := range list {
		fd, ok := item.Dict()
		if !ok {
			return nil, invalidMetainfo("info.files[%d] must be a dictionary", idx)
		}
		var fe FileEntry

		lenTerm, ok := fd.GetString("length")
		if !ok {
			return nil, invalidMetainfo("info.files[%d].length is missing", idx)
		}
		l, ok := lenTerm.Int()
		if !ok || l < 0 {
			return nil, invalidMetainfo("info.files[%d].length must be a non-negative integer", idx)
		}
		fe.Length = l

		pathTerm, ok := fd.GetString("path")
		if !ok {
			return nil, invalidMetainfo("info.files[%d].path is missing", idx)
		}
		pathList, ok := pathTerm.List()
		if !ok || len(pathList) == 0 {
			return nil, invalidMetainfo("info.files[%d].path must be a non-empty list", idx)
		}
		components := make([]string, 0, len(pathList))
		for _, pc := range pathList {
			b, ok := pc.Bytes()
			if !ok {
				return nil, invalidMetainfo("info.files[%d].path component must be a byte-string", idx)
			}
			if err := validatePathComponent(string(b)); err != nil {
				return nil, invalidMetainfo("info.files[%d].path: %s", idx, err)
			}
			components = append(components, string(b))
		}
		fe.Path = components

		if md5Term, ok := fd.GetString("md5sum"); ok {
			b, ok := md5Term.Bytes()
			if !ok {
				return nil, invalidMetainfo("info.files[%d].md5sum must be a byte-string", idx)
			}
			fe.MD5Sum = string(b)
			fe.HasMD5Sum = true
		}

		files = append(files, fe)
	}
	return files, nil
}

func validatePathComponent(c string) error {
	if c == "" {
		return invalidMetainfo("path component must not be empty")
	}
	if c == "." || c == ".." {
		return invalidMetainfo("path component must not be %q", c)
	}
	for i := 0; i < len(c); i++ {
		if c[i] == '/' || c[i] == 0 {
			return invalidMetainfo("path component must not contain '/' or NUL")
		}
	}
	return nil
}

func (i *InfoDict) toTerm() *bencode.Term {
	dict := bencode.NewDict()
	if i.ExtraInfoFields != nil {
		dict = i.ExtraInfoFields.Clone()
	}
	dict.SetString("name", bencode.NewString([]byte(i.Name)))
	dict.SetString("piece length", bencode.NewInteger(i.PieceLength))
	dict.SetString("pieces", bencode.NewString(i.Pieces))
	if i.IsMultiFile() {
		items := make([]*bencode.Term, 0, len(i.Files))
		for _, f := range i.Files {
			fd := bencode.NewDict()
			fd.SetString("length", bencode.NewInteger(f.Length))
			comps := make([]*bencode.Term, len(f.Path))
			for j, c := range f.Path {
				comps[j] = bencode.NewString([]byte(c))
			}
			fd.SetString("path", bencode.NewList(comps))
			if f.HasMD5Sum {
				fd.SetString("md5sum", bencode.NewString([]byte(f.MD5Sum)))
			}
			items = append(items, bencode.NewDictionary(fd))
		}
		dict.SetString("files", bencode.NewList(items))
	} else {
		dict.SetString("length", bencode.NewInteger(i.Length))
	}
	if i.HasPrivate {
		v := int64(0)
		if i.Private {
			v = 1
		}
		dict.SetString("private", bencode.NewInteger(v))
	}
	if i.HasSource {
		dict.SetString("source", bencode.NewString([]byte(i.Source)))
	}
	return bencode.NewDictionary(dict)
}
