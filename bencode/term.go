// Package bencode implements a streaming decoder and canonical encoder for
// the Bencode data format used by BitTorrent metainfo files.
package bencode

import "bytes"

// Kind discriminates the four Bencode term variants.
type Kind uint8

const (
	KindString Kind = iota
	KindInteger
	KindList
	KindDictionary
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindList:
		return "list"
	case KindDictionary:
		return "dictionary"
	default:
		return "unknown"
	}
}

// Term is a closed sum over the four Bencode term kinds. Dynamic dispatch
// isn't needed here: callers discriminate on Kind and use the matching
// accessor.
type Term struct {
	kind Kind
	str  []byte
	i    int64
	list []*Term
	dict *Dict
}

// NewString wraps an opaque byte string. The bytes are never interpreted
// as text by the codec.
func NewString(b []byte) *Term {
	return &Term{kind: KindString, str: b}
}

// NewInteger wraps a signed integer term.
func NewInteger(i int64) *Term {
	return &Term{kind: KindInteger, i: i}
}

// NewList wraps an ordered sequence of terms. The slice is stored by
// reference; callers must not mutate it afterwards.
func NewList(items []*Term) *Term {
	return &Term{kind: KindList, list: items}
}

// NewDictionary wraps an already-built Dict.
func NewDictionary(d *Dict) *Term {
	if d == nil {
		d = NewDict()
	}
	return &Term{kind: KindDictionary, dict: d}
}

// Kind reports which of the four variants t is.
func (t *Term) Kind() Kind { return t.kind }

// Bytes returns the payload of a string term. ok is false for any other
// kind.
func (t *Term) Bytes() (b []byte, ok bool) {
	if t.kind != KindString {
		return nil, false
	}
	return t.str, true
}

// Int returns the value of an integer term. ok is false for any other
// kind.
func (t *Term) Int() (i int64, ok bool) {
	if t.kind != KindInteger {
		return 0, false
	}
	return t.i, true
}

// List returns the elements of a list term, in order. ok is false for any
// other kind.
func (t *Term) List() (items []*Term, ok bool) {
	if t.kind != KindList {
		return nil, false
	}
	return t.list, true
}

// Dict returns the dictionary backing a dictionary term. ok is false for
// any other kind.
func (t *Term) Dict() (d *Dict, ok bool) {
	if t.kind != KindDictionary {
		return nil, false
	}
	return t.dict, true
}

// Equal reports whether t and other describe the same value, recursively.
func (t *Term) Equal(other *Term) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.kind != other.kind {
		return false
	}
	switch t.kind {
	case KindString:
		return bytes.Equal(t.str, other.str)
	case KindInteger:
		return t.i == other.i
	case KindList:
		if len(t.list) != len(other.list) {
			return false
		}
		for i := range t.list {
			if !t.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindDictionary:
		return t.dict.Equal(other.dict)
	default:
		return false
	}
}
