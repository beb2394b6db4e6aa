// Package envelopes provides the shared minified-JSON array framing every
// NIP-01 envelope type (EVENT, REQ, CLOSE, OK, EOSE, NOTICE, AUTH, COUNT,
// CLOSED) is wrapped in, plus the label-sniffing dispatcher used to route
// an incoming frame to its concrete decoder.
package envelopes

import (
	"lol.mleku.dev/errorf"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/text"
)

// Marshal renders a `["LABEL",...body]` minified JSON array, calling body
// to append the remainder after the label.
func Marshal(dst []byte, label string, body func(dst []byte) []byte) (b []byte) {
	b = dst
	b = append(b, '[')
	b = append(b, '"')
	b = append(b, label...)
	b = append(b, '"')
	b = append(b, ',')
	b = body(b)
	b = append(b, ']')
	return
}

// Identify reads the label from the first element of a `["LABEL",...]`
// envelope and returns it along with the remainder starting just after the
// label's trailing comma, ready to be handed to that label's Unmarshal.
func Identify(b []byte) (label string, rem []byte, err error) {
	r := b
	i := 0
	for i < len(r) && r[i] != '[' {
		i++
	}
	if i >= len(r) {
		err = errorf.E("envelopes: missing opening '['")
		return
	}
	r = r[i+1:]
	var lbl []byte
	if lbl, r, err = text.UnmarshalQuoted(r); err != nil {
		return
	}
	label = string(lbl)
	if r, err = text.Comma(r); err != nil {
		return
	}
	rem = r
	return
}

// SkipToTheEnd consumes bytes up to and including the envelope's closing
// `]`, returning whatever (if anything) follows it. It tolerates a leading
// comma before the close, the shape left behind by envelope decoders after
// consuming their own trailing fields.
func SkipToTheEnd(b []byte) (rem []byte, err error) {
	r := b
	for len(r) > 0 {
		switch r[0] {
		case ']':
			rem = r[1:]
			return
		case ',', ' ', '\t', '\r', '\n':
			r = r[1:]
		default:
			r = r[1:]
		}
	}
	err = errorf.E("envelopes: missing closing ']'")
	return
}
