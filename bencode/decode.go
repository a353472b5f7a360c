package bencode

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
)

// DefaultMaxDepth bounds nested list/dictionary recursion to guard against
// pathological input. It can be raised or lowered per-Decoder.
const DefaultMaxDepth = 100

// Decoder parses a byte stream into a sequence of Bencode terms, enforcing
// canonical form on every term it produces. It is single-pass and never
// backtracks.
type Decoder struct {
	r        *bufio.Reader
	offset   int64
	maxDepth int
}

// NewDecoder wraps r for decoding. The returned Decoder buffers reads
// internally; callers should not read from r directly afterwards.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r), maxDepth: DefaultMaxDepth}
}

// SetMaxDepth overrides the nesting-depth limit. A value <= 0 disables the
// check entirely.
func (d *Decoder) SetMaxDepth(n int) {
	d.maxDepth = n
}

// Decode parses and returns the next top-level term. It returns io.EOF
// (unwrapped, so callers can compare with ==) once the input is exhausted
// with no partial term pending.
func (d *Decoder) Decode() (*Term, error) {
	return d.decodeTerm(0)
}

// DecodeAll decodes every top-level term in r, in order, until EOF.
func DecodeAll(r io.Reader) ([]*Term, error) {
	dec := NewDecoder(r)
	var terms []*Term
	for {
		t, err := dec.Decode()
		if err == io.EOF {
			return terms, nil
		}
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
}

// Decode is a convenience wrapper that decodes exactly one top-level term
// from a fully materialized byte slice.
func Decode(b []byte) (*Term, error) {
	return NewDecoder(bytes.NewReader(b)).Decode()
}

func (d *Decoder) peekByte() (byte, error) {
	b, err := d.r.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err == nil {
		d.offset++
	}
	return b, err
}

func (d *Decoder) truncated() error {
	return newDecodeError(ErrTruncated, d.offset, "unexpected end of input")
}

func (d *Decoder) decodeTerm(depth int) (*Term, error) {
	if d.maxDepth > 0 && depth > d.maxDepth {
		return nil, newDecodeError(ErrNestingTooDeep, d.offset, "")
	}
	b, err := d.peekByte()
	if err != nil {
		if depth == 0 {
			return nil, io.EOF
		}
		return nil, d.truncated()
	}
	switch {
	case b == 'i':
		return d.decodeInteger()
	case b == 'l':
		d.readByte()
		return d.decodeList(depth + 1)
	case b == 'd':
		d.readByte()
		return d.decodeDict(depth + 1)
	case b >= '0' && b <= '9':
		return d.decodeString()
	default:
		return nil, newDecodeError(ErrUnexpectedByte, d.offset, "unrecognized type tag '"+string(b)+"'")
	}
}

// decodeInteger consumes "i" ('0' | '-'?[1-9][0-9]*) "e".
func (d *Decoder) decodeInteger() (*Term, error) {
	start := d.offset
	if _, err := d.readByte(); err != nil { // 'i'
		return nil, d.truncated()
	}

	var digits []byte
	negative := false
	if b, err := d.peekByte(); err == nil && b == '-' {
		negative = true
		d.readByte()
	}

	for {
		b, err := d.peekByte()
		if err != nil {
			return nil, d.truncated()
		}
		if b == 'e' {
			break
		}
		if b < '0' || b > '9' {
			return nil, newDecodeError(ErrInvalidInteger, start, "non-digit in integer")
		}
		d.readByte()
		digits = append(digits, b)
	}
	d.readByte() // consume 'e'

	if len(digits) == 0 {
		return nil, newDecodeError(ErrInvalidInteger, start, "empty digit sequence")
	}
	if digits[0] == '0' && len(digits) > 1 {
		return nil, newDecodeError(ErrInvalidInteger, start, "leading zero")
	}
	if negative && digits[0] == '0' {
		return nil, newDecodeError(ErrInvalidInteger, start, "negative zero")
	}

	s := string(digits)
	if negative {
		s = "-" + s
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, newDecodeError(ErrInvalidInteger, start, "out of range")
	}
	return NewInteger(i), nil
}

// decodeString consumes ('0' | [1-9][0-9]*) ":" <N bytes verbatim>.
func (d *Decoder) decodeString() (*Term, error) {
	start := d.offset
	var digits []byte
	for {
		b, err := d.peekByte()
		if err != nil {
			return nil, d.truncated()
		}
		if b == ':' {
			d.readByte()
			break
		}
		if b < '0' || b > '9' {
			return nil, newDecodeError(ErrInvalidByteStringLength, start, "non-digit in length prefix")
		}
		d.readByte()
		digits = append(digits, b)
	}
	if len(digits) == 0 {
		return nil, newDecodeError(ErrInvalidByteStringLength, start, "empty length prefix")
	}
	if digits[0] == '0' && len(digits) > 1 {
		return nil, newDecodeError(ErrInvalidByteStringLength, start, "leading zero in length prefix")
	}

	length, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil || length < 0 {
		return nil, newDecodeError(ErrInvalidByteStringLength, start, "length overflow")
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return nil, newDecodeError(ErrInvalidByteStringLength, start, "length exceeds remaining input")
	}
	d.offset += length
	return NewString(buf), nil
}

func (d *Decoder) decodeList(depth int) (*Term, error) {
	var items []*Term
	for {
		b, err := d.peekByte()
		if err != nil {
			return nil, d.truncated()
		}
		if b == 'e' {
			d.readByte()
			return NewList(items), nil
		}
		item, err := d.decodeTerm(depth)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

func (d *Decoder) decodeDict(depth int) (*Term, error) {
	dict := NewDict()
	var lastKey []byte
	first := true
	for {
		b, err := d.peekByte()
		if err != nil {
			return nil, d.truncated()
		}
		if b == 'e' {
			d.readByte()
			return NewDictionary(dict), nil
		}
		if b < '0' || b > '9' {
			return nil, newDecodeError(ErrInvalidTypeForDictKey, d.offset, "dictionary key must be a byte-string")
		}
		keyOffset := d.offset
		keyTerm, err := d.decodeString()
		if err != nil {
			return nil, err
		}
		key, _ := keyTerm.Bytes()

		if !first {
			switch bytes.Compare(key, lastKey) {
			case 0:
				return nil, newDecodeError(ErrInvalidDictDuplicateKey, keyOffset, string(key))
			case -1:
				return nil, newDecodeError(ErrInvalidDictKeyOrder, keyOffset, string(key))
			}
		}

		valueTerm, err := d.decodeTerm(depth)
		if err != nil {
			return nil, err
		}
		dict.Set(key, valueTerm)
		lastKey = key
		first = false
	}
}
