// Package noticeenvelope provides the encoder for the relay message NOTICE,
// a free-form human-readable message sent to a client (errors, warnings).
package noticeenvelope

import (
	"io"

	"lol.mleku.dev/chk"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/envelopes"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/text"
	"github.com/mikedilger/gossip-sub003/pkg/interfaces/codec"
)

// L is the label associated with this type of codec.Envelope.
const L = "NOTICE"

// T is a NOTICE envelope: `["NOTICE",<message>]`.
type T struct {
	Message []byte
}

var _ codec.Envelope = (*T)(nil)

// New creates an empty noticeenvelope.T.
func New() *T { return new(T) }

// NewFrom creates a new noticeenvelope.T populated with a message, accepting
// either a string or a []byte.
func NewFrom[V string | []byte](message V) *T { return &T{Message: []byte(message)} }

// Label returns the label of a noticeenvelope.T.
func (en *T) Label() string { return L }

// Write the noticeenvelope.T to a provided io.Writer.
func (en *T) Write(w io.Writer) (err error) {
	_, err = w.Write(en.Marshal(nil))
	return
}

// Marshal a noticeenvelope.T envelope in minified JSON, appending to dst.
func (en *T) Marshal(dst []byte) (b []byte) {
	b = dst
	b = envelopes.Marshal(
		b, L,
		func(bst []byte) (o []byte) {
			return text.AppendQuote(bst, en.Message, text.NostrEscape)
		},
	)
	return
}

// Unmarshal a noticeenvelope.T from minified JSON, returning the remainder
// after the end of the envelope.
func (en *T) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	if en.Message, r, err = text.UnmarshalQuoted(r); chk.E(err) {
		return
	}
	if r, err = envelopes.SkipToTheEnd(r); chk.E(err) {
		return
	}
	return
}

// Parse reads a NOTICE envelope from minified JSON into a newly allocated
// noticeenvelope.T.
func Parse(b []byte) (t *T, rem []byte, err error) {
	t = New()
	if rem, err = t.Unmarshal(b); chk.E(err) {
		return
	}
	return
}
