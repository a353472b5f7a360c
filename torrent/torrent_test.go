package torrent

import (
	"bytes"
	"crypto/sha1"
	"testing"

	"github.com/sahnt/bencode-torrent/bencode"
)

// singleFileTerm builds a minimal, valid single-file metainfo term (an
// optional announce plus the info dictionary) with the given piece bytes;
// callers encode it with the bencode encoder so that length prefixes are
// always correct.
func singleFileTerm(announce, name string, length int64, pieces []byte, private bool) *bencode.Term {
	info := bencode.NewDict()
	info.SetString("name", bencode.NewString([]byte(name)))
	info.SetString("piece length", bencode.NewInteger(16384))
	info.SetString("pieces", bencode.NewString(pieces))
	info.SetString("length", bencode.NewInteger(length))
	if private {
		info.SetString("private", bencode.NewInteger(1))
	}

	top := bencode.NewDict()
	if announce != "" {
		top.SetString("announce", bencode.NewString([]byte(announce)))
	}
	top.SetString("info", bencode.NewDictionary(info))
	return bencode.NewDictionary(top)
}

func buildSimple(t *testing.T) []byte {
	t.Helper()
	pieces := sha1.Sum([]byte("hello"))
	term := singleFileTerm("http://tr/", "test", 5, pieces[:], false)
	b, err := bencode.EncodeToBytes(term)
	if err != nil {
		t.Fatalf("EncodeToBytes error: %v", err)
	}
	return b
}

func TestFromBytesSingleFile(t *testing.T) {
	tr, err := FromBytes(buildSimple(t))
	if err != nil {
		t.Fatalf("FromBytes error: %v", err)
	}
	if tr.Announce != "http://tr/" {
		t.Errorf("Announce = %q", tr.Announce)
	}
	if tr.Info.Name != "test" {
		t.Errorf("Name = %q", tr.Info.Name)
	}
	if tr.IsMultiFile() {
		t.Errorf("expected single-file mode")
	}
	if tr.TotalLength() != 5 {
		t.Errorf("TotalLength = %d, want 5", tr.TotalLength())
	}
}

func TestInfoHashStability(t *testing.T) {
	raw := buildSimple(t)
	tr, err := FromBytes(raw)
	if err != nil {
		t.Fatalf("FromBytes error: %v", err)
	}

	// sha1 over the literal info sub-dictionary slice of raw: everything
	// between the "4:info" key and the outer dict's closing 'e'.
	marker := []byte("4:info")
	start := bytes.Index(raw, marker) + len(marker)
	want := sha1.Sum(raw[start : len(raw)-1])

	got := tr.InfoHashBytes()
	if got != want {
		t.Errorf("InfoHashBytes = %x, want %x", got, want)
	}
}

func TestWriteThenReadIsIdempotent(t *testing.T) {
	tr, err := FromBytes(buildSimple(t))
	if err != nil {
		t.Fatalf("FromBytes error: %v", err)
	}
	var buf bytes.Buffer
	if err := tr.WriteInto(&buf); err != nil {
		t.Fatalf("WriteInto error: %v", err)
	}
	tr2, err := FromBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("re-read error: %v", err)
	}
	if tr2.InfoHash() != tr.InfoHash() {
		t.Errorf("info hash changed across write/read: %s != %s", tr2.InfoHash(), tr.InfoHash())
	}
	if tr2.Announce != tr.Announce || tr2.Info.Name != tr.Info.Name {
		t.Errorf("round trip changed fields: %+v vs %+v", tr2, tr)
	}
}

func TestPrivateFlag(t *testing.T) {
	pieces := sha1.Sum([]byte("hello"))
	privateTerm := singleFileTerm("http://tr/", "test", 5, pieces[:], true)
	privateBytes, err := bencode.EncodeToBytes(privateTerm)
	if err != nil {
		t.Fatalf("EncodeToBytes error: %v", err)
	}

	tr, err := FromBytes(privateBytes)
	if err != nil {
		t.Fatalf("FromBytes error: %v", err)
	}
	if !tr.IsPrivate() {
		t.Errorf("expected IsPrivate() == true")
	}

	tr2, err := FromBytes(buildSimple(t))
	if err != nil {
		t.Fatalf("FromBytes error: %v", err)
	}
	if tr2.IsPrivate() {
		t.Errorf("expected IsPrivate() == false for non-private torrent")
	}
	if tr.InfoHash() == tr2.InfoHash() {
		t.Errorf("toggling private bit should change info hash")
	}
}

func TestRejectsBothLengthAndFiles(t *testing.T) {
	info := bencode.NewDict()
	info.SetString("name", bencode.NewString([]byte("test")))
	info.SetString("piece length", bencode.NewInteger(16384))
	info.SetString("pieces", bencode.NewString(nil))
	info.SetString("length", bencode.NewInteger(5))
	fileDict := bencode.NewDict()
	fileDict.SetString("length", bencode.NewInteger(1))
	fileDict.SetString("path", bencode.NewList([]*bencode.Term{bencode.NewString([]byte("a"))}))
	info.SetString("files", bencode.NewList([]*bencode.Term{bencode.NewDictionary(fileDict)}))

	top := bencode.NewDict()
	top.SetString("info", bencode.NewDictionary(info))
	b, err := bencode.EncodeToBytes(bencode.NewDictionary(top))
	if err != nil {
		t.Fatalf("EncodeToBytes error: %v", err)
	}

	if _, err := FromBytes(b); err == nil {
		t.Fatalf("expected error for info with both length and files")
	}
}

func TestMagnetLink(t *testing.T) {
	tr, err := FromBytes(buildSimple(t))
	if err != nil {
		t.Fatalf("FromBytes error: %v", err)
	}
	link := tr.MagnetLink()
	want := "magnet:?xt=urn:btih:" + tr.InfoHash() + "&dn=test&tr=http%3A%2F%2Ftr%2F"
	if link != want {
		t.Errorf("MagnetLink = %q, want %q", link, want)
	}
}

func TestPieceCountLaw(t *testing.T) {
	tr := &Torrent{
		Info: InfoDict{
			Name:            "zeros",
			PieceLength:     1048576,
			Pieces:          make([]byte, 40), // 2 pieces
			Length:          1048577,
			ExtraInfoFields: bencode.NewDict(),
		},
		ExtraFields: bencode.NewDict(),
	}
	if err := tr.validate(); err != nil {
		t.Fatalf("validate() error: %v", err)
	}
}

func TestPieceCountLawViolation(t *testing.T) {
	tr := &Torrent{
		Info: InfoDict{
			Name:            "zeros",
			PieceLength:     1048576,
			Pieces:          make([]byte, 20), // only 1 piece, needs 2
			Length:          1048577,
			ExtraInfoFields: bencode.NewDict(),
		},
		ExtraFields: bencode.NewDict(),
	}
	if err := tr.validate(); err == nil {
		t.Fatalf("expected piece-count-law violation to be rejected")
	}
}
