// Package hex provides the hex encode/decode helpers used throughout the
// wire encoders, matching the calling convention of orly's encoders.orly/hex.
package hex

import "encoding/hex"

// Enc renders b as a lowercase hex string.
func Enc(b []byte) string { return hex.EncodeToString(b) }

// Dec parses a hex string into bytes.
func Dec(s string) ([]byte, error) { return hex.DecodeString(s) }

// MustDec panics on malformed hex; used only for compile-time-known constants.
func MustDec(s string) []byte {
	b, err := Dec(s)
	if err != nil {
		panic(err)
	}
	return b
}

// EncAppend appends the lowercase hex encoding of b to dst.
func EncAppend(dst, b []byte) []byte {
	return hex.AppendEncode(dst, b)
}
