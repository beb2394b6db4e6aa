// Package closedenvelope provides the encoder for the relay message CLOSED,
// sent to tell a client a subscription has been terminated by the relay
// (as opposed to CLOSE, which a client sends to ask the relay to do so).
package closedenvelope

import (
	"io"

	"lol.mleku.dev/chk"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/envelopes"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/text"
	"github.com/mikedilger/gossip-sub003/pkg/interfaces/codec"
)

// L is the label associated with this type of codec.Envelope.
const L = "CLOSED"

// T is a CLOSED envelope: a subscription ID and a machine-readable reason
// message, often prefixed with one of the standard NIP-01 machine-readable
// prefixes (e.g. "pow:", "duplicate:", "blocked:", "rate-limited:",
// "invalid:", "error:").
type T struct {
	ID      []byte
	Message []byte
}

var _ codec.Envelope = (*T)(nil)

// New creates an empty closedenvelope.T.
func New() *T { return new(T) }

// NewFrom creates a new closedenvelope.T populated with subscription ID and
// reason message.
func NewFrom(id, message []byte) *T { return &T{ID: id, Message: message} }

// Label returns the label of a closedenvelope.T.
func (en *T) Label() string { return L }

// Write the closedenvelope.T to a provided io.Writer.
func (en *T) Write(w io.Writer) (err error) {
	_, err = w.Write(en.Marshal(nil))
	return
}

// Marshal a closedenvelope.T envelope in minified JSON, appending to a
// provided destination slice.
func (en *T) Marshal(dst []byte) (b []byte) {
	b = dst
	b = envelopes.Marshal(
		b, L,
		func(bst []byte) (o []byte) {
			o = bst
			o = append(o, '"')
			o = append(o, en.ID...)
			o = append(o, '"', ',')
			o = text.AppendQuote(o, en.Message, text.NostrEscape)
			return
		},
	)
	return
}

// Unmarshal a closedenvelope.T from minified JSON, returning the remainder
// after the end of the envelope.
func (en *T) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	if en.ID, r, err = text.UnmarshalQuoted(r); chk.E(err) {
		return
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

// Parse reads a CLOSED envelope from minified JSON into a newly allocated
// closedenvelope.T.
func Parse(b []byte) (t *T, rem []byte, err error) {
	t = New()
	if rem, err = t.Unmarshal(b); chk.E(err) {
		return
	}
	return
}
