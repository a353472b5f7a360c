package torrent

import "fmt"

// ModelError reports a violated structural invariant of the Torrent v1
// schema: a missing required key, a wrong type for a recognized key, or
// one of the invariants from the data model (piece-count law, path
// component rules, single/multi-file exclusivity, ...).
type ModelError struct {
	Reason string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("torrent: invalid metainfo: %s", e.Reason)
}

func invalidMetainfo(format string, args ...any) *ModelError {
	return &ModelError{Reason: fmt.Sprintf(format, args...)}
}
