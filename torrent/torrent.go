// Package torrent models a BitTorrent v1 metainfo file: a typed
// projection of the top-level Bencode dictionary, info-hash computation,
// and canonical re-encoding.
package torrent

import (
	"bytes"
	"io"
	"os"

	"github.com/gookit/slog"

	"github.com/sahnt/bencode-torrent/bencode"
)

// Torrent is the typed view of a metainfo dictionary. Once constructed —
// whether by parsing or by the builder package — it is treated as an
// immutable value; nothing in this package mutates one in place.
type Torrent struct {
	Announce     string
	AnnounceList [][]string
	Info         InfoDict

	Comment      string
	CreatedBy    string
	CreationDate int64 // unix seconds; zero means absent

	// ExtraFields carries every top-level key that isn't one of the
	// recognized keys above, verbatim.
	ExtraFields *bencode.Dict
}

var topLevelRecognizedKeys = map[string]bool{
	"announce":      true,
	"announce-list": true,
	"info":          true,
	"comment":       true,
	"created by":    true,
	"creation date": true,
}

// FromBytes decodes exactly one top-level Bencode dictionary from b and
// projects it to a Torrent.
func FromBytes(b []byte) (*Torrent, error) {
	return FromReader(bytes.NewReader(b))
}

// FromReader decodes exactly one top-level Bencode dictionary from r and
// projects it to a Torrent.
func FromReader(r io.Reader) (*Torrent, error) {
	term, err := bencode.NewDecoder(r).Decode()
	if err != nil {
		return nil, err
	}
	return FromTerm(term)
}

// FromFile reads and decodes the metainfo dictionary stored at path.
func FromFile(path string) (*Torrent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return FromReader(f)
}

// FromTerm projects an already-decoded top-level term to a Torrent.
func FromTerm(term *bencode.Term) (*Torrent, error) {
	dict, ok := term.Dict()
	if !ok {
		return nil, invalidMetainfo("top-level term must be a dictionary")
	}

	infoTerm, ok := dict.GetString("info")
	if !ok {
		return nil, invalidMetainfo("missing info dictionary")
	}
	info, err := infoFromTerm(infoTerm)
	if err != nil {
		return nil, err
	}

	t := &Torrent{Info: *info, ExtraFields: bencode.NewDict()}

	if announceTerm, ok := dict.GetString("announce"); ok {
		b, ok := announceTerm.Bytes()
		if !ok {
			return nil, invalidMetainfo("announce must be a byte-string")
		}
		t.Announce = string(b)
	}

	if alTerm, ok := dict.GetString("announce-list"); ok {
		tiers, ok := alTerm.List()
		if !ok {
			return nil, invalidMetainfo("announce-list must be a list")
		}
		for _, tierTerm := range tiers {
			tierList, ok := tierTerm.List()
			if !ok {
				return nil, invalidMetainfo("announce-list tier must be a list")
			}
			var tier []string
			for _, urlTerm := range tierList {
				b, ok := urlTerm.Bytes()
				if !ok {
					return nil, invalidMetainfo("announce-list URL must be a byte-string")
				}
				tier = append(tier, string(b))
			}
			t.AnnounceList = append(t.AnnounceList, tier)
		}
	}

	if c, ok := dict.GetString("comment"); ok {
		b, ok := c.Bytes()
		if !ok {
			return nil, invalidMetainfo("comment must be a byte-string")
		}
		t.Comment = string(b)
	}
	if c, ok := dict.GetString("created by"); ok {
		b, ok := c.Bytes()
		if !ok {
			return nil, invalidMetainfo("created by must be a byte-string")
		}
		t.CreatedBy = string(b)
	}
	if c, ok := dict.GetString("creation date"); ok {
		v, ok := c.Int()
		if !ok {
			return nil, invalidMetainfo("creation date must be an integer")
		}
		t.CreationDate = v
	}

	dict.Range(func(key string, v *bencode.Term) bool {
		if !topLevelRecognizedKeys[key] {
			t.ExtraFields.SetString(key, v)
		}
		return true
	})

	if err := t.validate(); err != nil {
		return nil, err
	}

	if t.ExtraFields.Len() > 0 || t.Info.ExtraInfoFields.Len() > 0 {
		slog.Debug("torrent: preserving unrecognized metainfo keys",
			t.ExtraFields.Len(), t.Info.ExtraInfoFields.Len())
	}

	return t, nil
}

func (t *Torrent) validate() error {
	if t.Info.IsMultiFile() {
		for _, f := range t.Info.Files {
			if len(f.Path) == 0 {
				return invalidMetainfo("file path must have at least one component")
			}
		}
	}
	total := t.Info.TotalLength()
	if t.Info.PieceLength < 1 {
		return invalidMetainfo("piece length must be >= 1")
	}
	wantPieces := (total + t.Info.PieceLength - 1) / t.Info.PieceLength
	if total == 0 {
		wantPieces = 0
	}
	if int64(t.Info.PieceCount()) != wantPieces {
		return invalidMetainfo("pieces length implies %d pieces, want %d for total length %d at piece length %d",
			t.Info.PieceCount(), wantPieces, total, t.Info.PieceLength)
	}
	return nil
}

// ToTerm reconstructs the Bencode term for t, suitable for Encode.
func (t *Torrent) ToTerm() *bencode.Term {
	dict := bencode.NewDict()
	if t.ExtraFields != nil {
		dict = t.ExtraFields.Clone()
	}
	if t.Announce != "" {
		dict.SetString("announce", bencode.NewString([]byte(t.Announce)))
	}
	if len(t.AnnounceList) > 0 {
		tiers := make([]*bencode.Term, len(t.AnnounceList))
		for i, tier := range t.AnnounceList {
			urls := make([]*bencode.Term, len(tier))
			for j, u := range tier {
				urls[j] = bencode.NewString([]byte(u))
			}
			tiers[i] = bencode.NewList(urls)
		}
		dict.SetString("announce-list", bencode.NewList(tiers))
	}
	if t.Comment != "" {
		dict.SetString("comment", bencode.NewString([]byte(t.Comment)))
	}
	if t.CreatedBy != "" {
		dict.SetString("created by", bencode.NewString([]byte(t.CreatedBy)))
	}
	if t.CreationDate != 0 {
		dict.SetString("creation date", bencode.NewInteger(t.CreationDate))
	}
	dict.SetString("info", t.Info.toTerm())
	return bencode.NewDictionary(dict)
}

// WriteInto encodes t canonically into w.
func (t *Torrent) WriteInto(w io.Writer) error {
	return bencode.Encode(w, t.ToTerm())
}

// WriteIntoFile encodes t canonically and writes it to the file at path,
// creating or truncating it.
func (t *Torrent) WriteIntoFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return t.WriteInto(f)
}

// IsPrivate reports whether info.private equals 1.
func (t *Torrent) IsPrivate() bool {
	return t.Info.Private
}

// TotalLength returns the torrent's total content length in bytes.
func (t *Torrent) TotalLength() int64 {
	return t.Info.TotalLength()
}

// IsMultiFile reports whether this torrent is in multi-file mode (its info
// dictionary has a files list, which may hold a single entry).
func (t *Torrent) IsMultiFile() bool {
	return t.Info.IsMultiFile()
}
