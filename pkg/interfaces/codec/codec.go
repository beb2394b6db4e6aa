// Package codec declares the common interface every NIP-01 envelope type
// implements, so generic envelope plumbing (dispatch by label, writers)
// can operate on any of them uniformly.
package codec

import "io"

// Envelope is satisfied by every envelope type in pkg/encoders/envelopes/*.
// Label identifies the JSON array's first element ("EVENT", "REQ", "OK", ...).
type Envelope interface {
	Label() string
	Write(w io.Writer) error
	Marshal(dst []byte) []byte
	Unmarshal(b []byte) (rem []byte, err error)
}
