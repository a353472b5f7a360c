package bencode

import "sort"

// Dict is an ordered-by-key mapping from byte-string keys to terms. Keys
// are unique by construction: Dict is backed by a Go map, so a duplicate
// Set simply overwrites. Canonical key order is produced on demand by
// Keys/Range rather than maintained incrementally.
type Dict struct {
	entries map[string]*Term
}

// NewDict creates an empty dictionary.
func NewDict() *Dict {
	return &Dict{entries: make(map[string]*Term)}
}

// Len reports the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Set inserts or overwrites the value for key.
func (d *Dict) Set(key []byte, v *Term) {
	d.entries[string(key)] = v
}

// SetString is a convenience wrapper over Set for string keys.
func (d *Dict) SetString(key string, v *Term) {
	d.entries[key] = v
}

// Get returns the term stored under key, if any.
func (d *Dict) Get(key []byte) (*Term, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.entries[string(key)]
	return v, ok
}

// GetString is a convenience wrapper over Get for string keys.
func (d *Dict) GetString(key string) (*Term, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.entries[key]
	return v, ok
}

// Delete removes key, if present.
func (d *Dict) Delete(key string) {
	if d == nil {
		return
	}
	delete(d.entries, key)
}

// Keys returns every key in strict lexicographic byte order — the
// canonical dictionary order required before encoding.
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, 0, len(d.entries))
	for k := range d.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Range calls fn for every entry in canonical key order, stopping early if
// fn returns false.
func (d *Dict) Range(fn func(key string, v *Term) bool) {
	if d == nil {
		return
	}
	for _, k := range d.Keys() {
		if !fn(k, d.entries[k]) {
			return
		}
	}
}

// Equal reports whether d and other hold the same keys and values.
func (d *Dict) Equal(other *Dict) bool {
	if d == nil || other == nil {
		return d.Len() == 0 && other.Len() == 0
	}
	if len(d.entries) != len(other.entries) {
		return false
	}
	for k, v := range d.entries {
		ov, ok := other.entries[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy of d whose entry map is independent of the
// original (the *Term values themselves are shared, since Terms are
// treated as immutable after construction).
func (d *Dict) Clone() *Dict {
	c := NewDict()
	if d == nil {
		return c
	}
	for k, v := range d.entries {
		c.entries[k] = v
	}
	return c
}
