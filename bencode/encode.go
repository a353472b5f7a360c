package bencode

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
)

// Encode writes t to w in canonical Bencode form: minimal-digit integers,
// length-prefixed byte-strings, and dictionary entries emitted in sorted
// key order. It never buffers more than the current recursion path.
func Encode(w io.Writer, t *Term) error {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	if err := encodeTerm(bw, t); err != nil {
		return err
	}
	return bw.Flush()
}

// EncodeToBytes is a convenience wrapper returning the canonical encoding
// of t as a byte slice.
func EncodeToBytes(t *Term) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeTerm(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeTerm(w io.Writer, t *Term) error {
	switch t.kind {
	case KindString:
		return encodeString(w, t.str)
	case KindInteger:
		return encodeInteger(w, t.i)
	case KindList:
		return encodeList(w, t.list)
	case KindDictionary:
		return encodeDict(w, t.dict)
	default:
		return newDecodeError(ErrUnexpectedByte, 0, "cannot encode term of unknown kind")
	}
}

func encodeString(w io.Writer, b []byte) error {
	if _, err := io.WriteString(w, strconv.Itoa(len(b))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, ":"); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func encodeInteger(w io.Writer, i int64) error {
	if _, err := io.WriteString(w, "i"); err != nil {
		return err
	}
	if _, err := io.WriteString(w, strconv.FormatInt(i, 10)); err != nil {
		return err
	}
	_, err := io.WriteString(w, "e")
	return err
}

func encodeList(w io.Writer, items []*Term) error {
	if _, err := io.WriteString(w, "l"); err != nil {
		return err
	}
	for _, item := range items {
		if err := encodeTerm(w, item); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "e")
	return err
}

func encodeDict(w io.Writer, d *Dict) error {
	if _, err := io.WriteString(w, "d"); err != nil {
		return err
	}
	var rangeErr error
	d.Range(func(key string, v *Term) bool {
		if err := encodeString(w, []byte(key)); err != nil {
			rangeErr = err
			return false
		}
		if err := encodeTerm(w, v); err != nil {
			rangeErr = err
			return false
		}
		return true
	})
	if rangeErr != nil {
		return rangeErr
	}
	_, err := io.WriteString(w, "e")
	return err
}
