// Package text implements the small set of JSON scanning/escaping helpers
// the wire encoders need: quoted-string escaping per NIP-01 and minimal
// hand-rolled tokenizing, following the style of orly's encoders.orly/text.
package text

import (
	"bytes"
	"strconv"

	"lol.mleku.dev/errorf"
)

// NostrEscape escapes a content/tag string per NIP-01 (only the characters
// that must be escaped in a minified JSON string: quote, backslash, and the
// control characters \n \r \t \b \f, plus U+2028/U+2029).
func NostrEscape(dst, s []byte) []byte {
	for _, r := range string(s) {
		switch r {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		case ' ':
			dst = append(dst, '\\', 'u', '2', '0', '2', '8')
		case ' ':
			dst = append(dst, '\\', 'u', '2', '0', '2', '9')
		default:
			dst = utf8Append(dst, r)
		}
	}
	return dst
}

func utf8Append(dst []byte, r rune) []byte {
	var buf [4]byte
	n := encodeRune(buf[:], r)
	return append(dst, buf[:n]...)
}

func encodeRune(p []byte, r rune) int {
	return copy(p, string(r))
}

// NostrUnescape reverses NostrEscape for a quoted JSON string body (the bytes
// between the quotes, already stripped of surrounding quotes).
func NostrUnescape(s []byte) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '"':
				out = append(out, '"')
			case '\\':
				out = append(out, '\\')
			case '/':
				out = append(out, '/')
			case 'u':
				if i+4 < len(s) {
					// decode the four hex digits of the \u escape
					var r rune
					for j := 1; j <= 4; j++ {
						r = r << 4
						c := s[i+j]
						switch {
						case c >= '0' && c <= '9':
							r |= rune(c - '0')
						case c >= 'a' && c <= 'f':
							r |= rune(c-'a') + 10
						case c >= 'A' && c <= 'F':
							r |= rune(c-'A') + 10
						}
					}
					out = utf8Append(out, r)
					i += 4
				}
			default:
				out = append(out, s[i])
			}
			continue
		}
		out = append(out, s[i])
	}
	return out
}

// AppendQuote appends s as a quoted, escaped JSON string to dst using the
// provided escape function.
func AppendQuote(dst, s []byte, escape func(dst, s []byte) []byte) []byte {
	dst = append(dst, '"')
	dst = escape(dst, s)
	dst = append(dst, '"')
	return dst
}

// JSONKey appends `"key":` to dst.
func JSONKey(dst, key []byte) []byte {
	dst = append(dst, '"')
	dst = append(dst, key...)
	dst = append(dst, '"', ':')
	return dst
}

// Comma skips a single leading comma, erroring if one isn't present.
func Comma(b []byte) (r []byte, err error) {
	if len(b) == 0 || b[0] != ',' {
		err = errorf.E("text: expected comma, got '%s'", b)
		return
	}
	return b[1:], nil
}

// UnmarshalQuoted reads a quoted JSON string starting at the opening quote
// and returns its unescaped content and the remainder after the closing quote.
func UnmarshalQuoted(b []byte) (out, rem []byte, err error) {
	if len(b) == 0 || b[0] != '"' {
		err = errorf.E("text: expected quoted string, got '%s'", b)
		return
	}
	i := 1
	for i < len(b) {
		if b[i] == '\\' && i+1 < len(b) {
			i += 2
			continue
		}
		if b[i] == '"' {
			out = NostrUnescape(b[1:i])
			rem = b[i+1:]
			return
		}
		i++
	}
	err = errorf.E("text: unterminated quoted string")
	return
}

// UnmarshalStringArray reads a JSON array of quoted strings, returning the
// decoded byte-slices and the remainder after the closing bracket.
func UnmarshalStringArray(b []byte) (out [][]byte, rem []byte, err error) {
	r := bytes.TrimLeft(b, " \t\r\n")
	if len(r) == 0 || r[0] != '[' {
		err = errorf.E("text: expected array, got '%s'", b)
		return
	}
	r = r[1:]
	for {
		r = bytes.TrimLeft(r, " \t\r\n")
		if len(r) == 0 {
			err = errorf.E("text: unterminated array")
			return
		}
		if r[0] == ']' {
			rem = r[1:]
			return
		}
		if r[0] == ',' {
			r = r[1:]
			continue
		}
		var s []byte
		if s, r, err = UnmarshalQuoted(r); err != nil {
			return
		}
		out = append(out, s)
	}
}

// UnmarshalHexArray reads a JSON array of quoted hex strings of the given
// decoded byte length (0 = any length), returning the decoded bytes.
func UnmarshalHexArray(b []byte, byteLen int) (out [][]byte, rem []byte, err error) {
	var strs [][]byte
	if strs, rem, err = UnmarshalStringArray(b); err != nil {
		return
	}
	for _, s := range strs {
		var decoded []byte
		if decoded, err = decodeHex(s); err != nil {
			return
		}
		if byteLen > 0 && len(decoded) != byteLen {
			err = errorf.E("text: hex field wrong length: got %d want %d", len(decoded), byteLen)
			return
		}
		out = append(out, decoded)
	}
	return
}

func decodeHex(s []byte) ([]byte, error) {
	out := make([]byte, len(s)/2)
	_, err := hexDecode(out, s)
	return out, err
}

func hexDecode(dst, src []byte) (int, error) {
	return hexDecodeString(dst, src)
}

func hexDecodeString(dst, src []byte) (int, error) {
	n, err := decodeHexInto(dst, src)
	return n, err
}

func decodeHexInto(dst, src []byte) (int, error) {
	if len(src)%2 != 0 {
		return 0, errorf.E("text: odd-length hex string")
	}
	for i := 0; i < len(dst); i++ {
		hi, err := hexVal(src[i*2])
		if err != nil {
			return i, err
		}
		lo, err := hexVal(src[i*2+1])
		if err != nil {
			return i, err
		}
		dst[i] = hi<<4 | lo
	}
	return len(dst), nil
}

func hexVal(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	}
	return 0, errorf.E("text: invalid hex char %q", c)
}

// MarshalHexArray renders a list of byte-slices as a JSON array of quoted
// hex strings.
func MarshalHexArray(dst []byte, vals [][]byte) []byte {
	dst = append(dst, '[')
	for i, v := range vals {
		dst = append(dst, '"')
		dst = append(dst, []byte(hexEncode(v))...)
		dst = append(dst, '"')
		if i < len(vals)-1 {
			dst = append(dst, ',')
		}
	}
	dst = append(dst, ']')
	return dst
}

func hexEncode(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hextable[c>>4]
		out[i*2+1] = hextable[c&0x0f]
	}
	return string(out)
}

// Itoa is a small helper retained for callers that want to format integers
// without pulling in strconv directly (mirrors text helpers elsewhere in
// the encoders package).
func Itoa(n int64) string { return strconv.FormatInt(n, 10) }
