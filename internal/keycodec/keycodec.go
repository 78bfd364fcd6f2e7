// Package keycodec encodes composite join keys into comparable byte strings.
//
// An encoded key is a concatenation of its fields. Every field encoding is
// self-delimiting and order-preserving, so comparing two encoded keys byte by
// byte gives the same result as comparing their fields one after another,
// provided both keys have the same field types in the same positions. The
// encoding is a plain Go string, which makes it usable both as a merge-join
// sort key and as a hash-join map key.
package keycodec

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/zeebo/xxh3"
)

const (
	escape     = 0x00
	escapedNul = 0xFF
	terminator = 0x01
)

// AppendUint64 appends v as 8 big-endian bytes.
func AppendUint64(dst []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(dst, v)
}

// AppendInt64 appends v with its sign bit flipped as 8 big-endian bytes, so
// negative numbers order before positive ones.
func AppendInt64(dst []byte, v int64) []byte {
	return binary.BigEndian.AppendUint64(dst, uint64(v)^(1<<63))
}

// AppendBytes appends b followed by a terminator. A NUL byte inside b is
// written as 0x00 0xFF and the terminator is 0x00 0x01, so a value orders
// before every longer value it is a prefix of.
func AppendBytes(dst, b []byte) []byte {
	for {
		i := bytes.IndexByte(b, escape)
		if i < 0 {
			break
		}
		dst = append(dst, b[:i]...)
		dst = append(dst, escape, escapedNul)
		b = b[i+1:]
	}
	dst = append(dst, b...)
	return append(dst, escape, terminator)
}

// AppendString is AppendBytes for a string value.
func AppendString(dst []byte, s string) []byte {
	for {
		i := strings.IndexByte(s, escape)
		if i < 0 {
			break
		}
		dst = append(dst, s[:i]...)
		dst = append(dst, escape, escapedNul)
		s = s[i+1:]
	}
	dst = append(dst, s...)
	return append(dst, escape, terminator)
}

// Compare orders two encoded keys.
func Compare(a, b string) int {
	return strings.Compare(a, b)
}

// Digest is a 128-bit fingerprint of an encoded key.
type Digest [16]byte

// Sum returns the xxHash3-128 digest of an encoded key. Hash joins over long
// composite keys can index their lookup table by digest instead of by the
// full key. Distinct keys collide with negligible probability (about 2^-64
// for four billion distinct keys).
func Sum(key string) Digest {
	h := xxh3.HashString128(key)
	var d Digest
	binary.LittleEndian.PutUint64(d[0:8], h.Lo)
	binary.LittleEndian.PutUint64(d[8:16], h.Hi)
	return d
}
