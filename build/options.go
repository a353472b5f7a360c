package build

import "github.com/sahnt/bencode-torrent/bencode"

// Options configures New. Every field is optional; the piece length is
// not part of Options but a required parameter of New.
type Options struct {
	Announce     string
	AnnounceList [][]string

	// Name overrides the default (the final component of the source
	// path).
	Name string

	Comment      string
	CreatedBy    string
	CreationDate int64

	Private bool
	Source  string

	// ExtraFields and ExtraInfoFields are merged into the resulting
	// Torrent's top-level and info dictionaries respectively, after every
	// recognized key has been populated. New returns a KeyCollisionError
	// if a key here names a recognized key.
	ExtraFields     map[string]*bencode.Term
	ExtraInfoFields map[string]*bencode.Term

	// MaxWorkers bounds how many goroutines the piece hasher runs
	// concurrently; it doubles as the bounded read-ahead budget. Zero
	// means "choose a sensible default."
	MaxWorkers int
}
