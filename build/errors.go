package build

import "fmt"

// IOError reports a filesystem read failure encountered while walking a
// source tree or hashing its content, with the offending path attached.
type IOError struct {
	Path  string
	Cause error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("build: %s: %v", e.Path, e.Cause)
}

func (e *IOError) Unwrap() error { return e.Cause }

// EmptyContentError is returned when the resolved file set has zero total
// length.
type EmptyContentError struct{}

func (e *EmptyContentError) Error() string {
	return "build: resolved content has zero total length"
}

// KeyCollisionError is returned when an extra field collides with a
// recognized metainfo key.
type KeyCollisionError struct {
	Key string
}

func (e *KeyCollisionError) Error() string {
	return fmt.Sprintf("build: extra field %q collides with a recognized key", e.Key)
}

// InvalidPieceLengthError is returned when the requested piece length is
// not positive.
type InvalidPieceLengthError struct {
	PieceLength int64
}

func (e *InvalidPieceLengthError) Error() string {
	return fmt.Sprintf("build: invalid piece length %d", e.PieceLength)
}
