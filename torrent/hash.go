package torrent

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/sahnt/bencode-torrent/bencode"
)

// InfoHashBytes returns the 20-byte SHA-1 digest of the canonical encoding
// of the info sub-dictionary as the model holds it. Because extras inside
// info are preserved verbatim under their original key bytes, and because
// the encoder is canonical, this equals the SHA-1 of the original raw
// info-dictionary bytes for a torrent produced by FromBytes/FromReader/
// FromFile, except where decoding dropped or changed a value: keys of an
// info.files entry other than length, path and md5sum are not kept, and an
// info.private value other than 0 or 1 is re-encoded as 0. For such input
// the digest differs from the SHA-1 of the original bytes.
func (t *Torrent) InfoHashBytes() [20]byte {
	b, err := bencode.EncodeToBytes(t.Info.toTerm())
	if err != nil {
		// Info was built from typed fields we control; it is always
		// encodable. A failure here would be a library bug, not a
		// caller error, so there's no useful typed error to return.
		panic("torrent: info dictionary failed to encode: " + err.Error())
	}
	return sha1.Sum(b)
}

// InfoHash returns the 40-character lowercase hex info-hash.
func (t *Torrent) InfoHash() string {
	h := t.InfoHashBytes()
	return hex.EncodeToString(h[:])
}

// rfc3986Unreserved reports whether b is in RFC 3986's unreserved set.
func rfc3986Unreserved(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') ||
		b == '-' || b == '_' || b == '.' || b == '~'
}

// percentEncode percent-encodes every byte of s outside RFC 3986's
// unreserved set.
func percentEncode(s string) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		if rfc3986Unreserved(b) {
			out.WriteByte(b)
		} else {
			out.WriteByte('%')
			const hex = "0123456789ABCDEF"
			out.WriteByte(hex[b>>4])
			out.WriteByte(hex[b&0xF])
		}
	}
	return out.String()
}

// MagnetLink formats a magnet URI for t: xt=urn:btih:<info-hash>, plus
// dn=<name> and one tr=<url> per tracker: Announce first, then every
// announce-list URL in order, each URL emitted once.
func (t *Torrent) MagnetLink() string {
	var b strings.Builder
	b.WriteString("magnet:?xt=urn:btih:")
	b.WriteString(t.InfoHash())
	if t.Info.Name != "" {
		b.WriteString("&dn=")
		b.WriteString(percentEncode(t.Info.Name))
	}
	for _, url := range t.trackerURLs() {
		b.WriteString("&tr=")
		b.WriteString(percentEncode(url))
	}
	return b.String()
}

// trackerURLs flattens Announce and AnnounceList into a deduplicated,
// order-preserving list of tracker URLs.
func (t *Torrent) trackerURLs() []string {
	seen := make(map[string]bool)
	var urls []string
	add := func(u string) {
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		urls = append(urls, u)
	}
	add(t.Announce)
	for _, tier := range t.AnnounceList {
		for _, u := range tier {
			add(u)
		}
	}
	return urls
}
