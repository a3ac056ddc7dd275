package paths

import (
	"fmt"
	"strings"
)

// Segment encoding
// ================
//
// Every path segment derived from a user-supplied name passes through this
// percent encoding before it becomes a directory or file name. The encoding
// is deliberately stricter than net/url escaping: the storage layout gives
// structural meaning to '~' (the reserved document segment and the ~tmp/~bak
// operation suffixes) and '-' (the deleted-attachment name/date separator),
// so both must be escaped in user data or a filename could collide with a
// structural segment or split ambiguously.
//
// Only [A-Za-z0-9], '.' and '_' pass through verbatim. Every other byte of
// the UTF-8 representation is written as %XX with uppercase hex. Decoding is
// the exact inverse, so EncodeSegment is reversible for any input.

const upperhex = "0123456789ABCDEF"

func isSafeByte(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '.' || c == '_'
}

// EncodeSegment escapes a logical name into a filesystem-safe path segment.
func EncodeSegment(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isSafeByte(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

// DecodeSegment recovers the logical name from an encoded path segment.
// It is the exact inverse of EncodeSegment.
func DecodeSegment(segment string) (string, error) {
	var b strings.Builder
	b.Grow(len(segment))
	for i := 0; i < len(segment); i++ {
		c := segment[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(segment) {
			return "", fmt.Errorf("%w: truncated escape in %q", ErrMalformedSegment, segment)
		}
		hi, ok1 := unhex(segment[i+1])
		lo, ok2 := unhex(segment[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("%w: bad escape %q in %q", ErrMalformedSegment, segment[i:i+3], segment)
		}
		b.WriteByte(hi<<4 | lo)
		i += 2
	}
	return b.String(), nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
