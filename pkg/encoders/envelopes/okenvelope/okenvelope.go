// Package okenvelope provides the encoder for the relay message OK, sent in
// response to an EVENT submission to report acceptance or rejection.
package okenvelope

import (
	"bytes"
	"io"

	"lol.mleku.dev/chk"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/envelopes"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/hex"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/text"
	"github.com/mikedilger/gossip-sub003/pkg/interfaces/codec"
)

// L is the label associated with this type of codec.Envelope.
const L = "OK"

// T is an OK envelope: `["OK",<event id>,<true|false>,<message>]`.
type T struct {
	EventID []byte
	OK      bool
	Message []byte
}

var _ codec.Envelope = (*T)(nil)

// New creates an empty okenvelope.T.
func New() *T { return new(T) }

// NewFrom creates a new okenvelope.T populated with an event ID, accept
// flag and reason message.
func NewFrom(id []byte, ok bool, message []byte) *T {
	return &T{EventID: id, OK: ok, Message: message}
}

// Label returns the label of an okenvelope.T.
func (en *T) Label() string { return L }

// Write the okenvelope.T to a provided io.Writer.
func (en *T) Write(w io.Writer) (err error) {
	_, err = w.Write(en.Marshal(nil))
	return
}

// Marshal an okenvelope.T envelope in minified JSON, appending to dst.
func (en *T) Marshal(dst []byte) (b []byte) {
	b = dst
	b = envelopes.Marshal(
		b, L,
		func(bst []byte) (o []byte) {
			o = bst
			o = append(o, '"')
			o = append(o, []byte(hex.Enc(en.EventID))...)
			o = append(o, '"', ',')
			if en.OK {
				o = append(o, "true"...)
			} else {
				o = append(o, "false"...)
			}
			o = append(o, ',')
			o = text.AppendQuote(o, en.Message, text.NostrEscape)
			return
		},
	)
	return
}

// Unmarshal an okenvelope.T from minified JSON, returning the remainder
// after the end of the envelope.
func (en *T) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	var idHex []byte
	if idHex, r, err = text.UnmarshalQuoted(r); chk.E(err) {
		return
	}
	if en.EventID, err = hex.Dec(string(idHex)); chk.E(err) {
		return
	}
	if r, err = text.Comma(r); chk.E(err) {
		return
	}
	if bytes.HasPrefix(r, []byte("true")) {
		en.OK = true
		r = r[len("true"):]
	} else if bytes.HasPrefix(r, []byte("false")) {
		en.OK = false
		r = r[len("false"):]
	}
	if r, err = text.Comma(r); chk.E(err) {
		return
	}
	if en.Message, r, err = text.UnmarshalQuoted(r); chk.E(err) {
		return
	}
	if r, err = envelopes.SkipToTheEnd(r); chk.E(err) {
		return
	}
	return
}

// Parse reads an OK envelope from minified JSON into a newly allocated
// okenvelope.T.
func Parse(b []byte) (t *T, rem []byte, err error) {
	t = New()
	if rem, err = t.Unmarshal(b); chk.E(err) {
		return
	}
	return
}
