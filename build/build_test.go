package build

import (
	"crypto/sha1"
	"os"
	"path/filepath"
	"testing"

	"github.com/sahnt/bencode-torrent/bencode"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestBuildSingleFileExactPieceBoundary(t *testing.T) {
	dir := t.TempDir()
	content := make([]byte, 1048577)
	for i := range content {
		content[i] = byte(i)
	}
	path := filepath.Join(dir, "payload.bin")
	writeFile(t, path, content)

	tr, err := New(path, 1048576, Options{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if tr.IsMultiFile() {
		t.Fatalf("expected single-file torrent")
	}
	if tr.Info.PieceCount() != 2 {
		t.Fatalf("PieceCount = %d, want 2", tr.Info.PieceCount())
	}

	want1 := sha1.Sum(content[:1048576])
	want2 := sha1.Sum(content[1048576:])
	if string(tr.Info.Pieces[:20]) != string(want1[:]) {
		t.Errorf("piece 0 mismatch")
	}
	if string(tr.Info.Pieces[20:40]) != string(want2[:]) {
		t.Errorf("piece 1 mismatch")
	}
}

func TestBuildMultiFileOrderingAndHash(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "d", "a.txt"), []byte("hello"))
	writeFile(t, filepath.Join(dir, "d", "b.txt"), []byte("hi"))

	tr, err := New(filepath.Join(dir, "d"), 16384, Options{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if !tr.IsMultiFile() {
		t.Fatalf("expected multi-file torrent")
	}
	if len(tr.Info.Files) != 2 {
		t.Fatalf("Files len = %d, want 2", len(tr.Info.Files))
	}
	if tr.Info.Files[0].Path[0] != "a.txt" || tr.Info.Files[1].Path[0] != "b.txt" {
		t.Fatalf("unexpected file order: %+v", tr.Info.Files)
	}

	want := sha1.Sum([]byte("hellohi"))
	if tr.Info.PieceCount() != 1 {
		t.Fatalf("PieceCount = %d, want 1", tr.Info.PieceCount())
	}
	if string(tr.Info.Pieces) != string(want[:]) {
		t.Errorf("piece hash mismatch")
	}
}

func TestBuildSkipsHiddenAndSymlinkEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "visible.txt"), []byte("abc"))
	writeFile(t, filepath.Join(dir, ".hidden.txt"), []byte("xyz"))
	if err := os.Mkdir(filepath.Join(dir, ".hiddendir"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	writeFile(t, filepath.Join(dir, ".hiddendir", "inner.txt"), []byte("nope"))
	if err := os.Symlink(filepath.Join(dir, "visible.txt"), filepath.Join(dir, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	tr, err := New(dir, 16384, Options{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if len(tr.Info.Files) != 1 {
		t.Fatalf("Files len = %d, want 1: %+v", len(tr.Info.Files), tr.Info.Files)
	}
	if tr.Info.Files[0].Path[0] != "visible.txt" {
		t.Fatalf("unexpected surviving file: %+v", tr.Info.Files[0])
	}
}

func TestBuildRejectsInvalidPieceLength(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	writeFile(t, path, []byte("data"))

	if _, err := New(path, 0, Options{}); err == nil {
		t.Fatalf("expected InvalidPieceLengthError")
	}
}

func TestBuildRejectsEmptyContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	writeFile(t, path, nil)

	if _, err := New(path, 16384, Options{}); err == nil {
		t.Fatalf("expected EmptyContentError")
	}
}

func TestBuildRejectsExtraFieldCollision(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	writeFile(t, path, []byte("data"))

	opts := Options{ExtraFields: map[string]*bencode.Term{
		"announce": bencode.NewString([]byte("http://collide/")),
	}}
	if _, err := New(path, 16384, opts); err == nil {
		t.Fatalf("expected KeyCollisionError")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), []byte("one"))
	writeFile(t, filepath.Join(dir, "b.txt"), []byte("two"))

	opts := Options{Announce: "http://tr/", CreatedBy: "test-suite"}
	tr1, err := New(dir, 16384, opts)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	tr2, err := New(dir, 16384, opts)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if tr1.InfoHash() != tr2.InfoHash() {
		t.Errorf("builds of the same tree produced different info hashes")
	}
}

func TestBuildWithMultipleWorkersMatchesSingleWorker(t *testing.T) {
	dir := t.TempDir()
	content := make([]byte, 200000)
	for i := range content {
		content[i] = byte(i * 7)
	}
	path := filepath.Join(dir, "payload.bin")
	writeFile(t, path, content)

	one, err := New(path, 16384, Options{MaxWorkers: 1})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	many, err := New(path, 16384, Options{MaxWorkers: 8})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if string(one.Info.Pieces) != string(many.Info.Pieces) {
		t.Errorf("piece hashes differ across worker counts")
	}
}
