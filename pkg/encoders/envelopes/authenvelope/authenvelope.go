// Package authenvelope provides the encoder for the AUTH message defined
// in NIP-42, used in both directions: a relay sends a Challenge string to
// prompt authentication, and a client responds with a Response wrapping a
// signed kind-22242 event.
package authenvelope

import (
	"io"

	"lol.mleku.dev/chk"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/envelopes"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/text"
	"github.com/mikedilger/gossip-sub003/pkg/interfaces/codec"
)

// L is the label associated with this type of codec.Envelope.
const L = "AUTH"

// Challenge is a relay->client AUTH envelope: `["AUTH",<challenge string>]`.
type Challenge struct {
	Challenge []byte
}

var _ codec.Envelope = (*Challenge)(nil)

// NewChallenge creates an empty Challenge.
func NewChallenge() *Challenge { return new(Challenge) }

// NewChallengeFrom creates a new Challenge populated with the provided
// challenge string.
func NewChallengeFrom[V string | []byte](challenge V) *Challenge {
	return &Challenge{Challenge: []byte(challenge)}
}

// Label returns the label of a Challenge.
func (en *Challenge) Label() string { return L }

// Write the Challenge to a provided io.Writer.
func (en *Challenge) Write(w io.Writer) (err error) {
	_, err = w.Write(en.Marshal(nil))
	return
}

// Marshal a Challenge envelope in minified JSON, appending to dst.
func (en *Challenge) Marshal(dst []byte) (b []byte) {
	b = dst
	b = envelopes.Marshal(
		b, L,
		func(bst []byte) (o []byte) {
			return text.AppendQuote(bst, en.Challenge, text.NostrEscape)
		},
	)
	return
}

// Unmarshal a Challenge from minified JSON, returning the remainder after
// the end of the envelope.
func (en *Challenge) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	if en.Challenge, r, err = text.UnmarshalQuoted(r); chk.E(err) {
		return
	}
	if r, err = envelopes.SkipToTheEnd(r); chk.E(err) {
		return
	}
	return
}

// Response is a client->relay AUTH envelope: `["AUTH",<event JSON>]`
// wrapping a signed kind-22242 ClientAuthentication event.
type Response struct {
	Event *event.E
}

var _ codec.Envelope = (*Response)(nil)

// NewResponse creates an empty Response.
func NewResponse() *Response { return new(Response) }

// NewResponseWith wraps an existing event.E in a Response.
func NewResponseWith(ev *event.E) *Response { return &Response{Event: ev} }

// Label returns the label of a Response.
func (en *Response) Label() string { return L }

// Write the Response to a provided io.Writer.
func (en *Response) Write(w io.Writer) (err error) {
	_, err = w.Write(en.Marshal(nil))
	return
}

// Marshal a Response envelope in minified JSON, appending to dst.
func (en *Response) Marshal(dst []byte) (b []byte) {
	b = dst
	b = envelopes.Marshal(
		b, L,
		func(bst []byte) (o []byte) {
			return en.Event.Marshal(bst)
		},
	)
	return
}

// Unmarshal a Response from minified JSON, returning the remainder after
// the end of the envelope.
func (en *Response) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	if en.Event == nil {
		en.Event = event.New()
	}
	if r, err = en.Event.Unmarshal(r); chk.E(err) {
		return
	}
	if r, err = envelopes.SkipToTheEnd(r); chk.E(err) {
		return
	}
	return
}

// Parse reads a Response in minified JSON into a newly allocated Response.
func Parse(b []byte) (t *Response, rem []byte, err error) {
	t = NewResponse()
	if rem, err = t.Unmarshal(b); chk.E(err) {
		return
	}
	return
}
