// Package eventenvelope provides the encoder for the EVENT message, used in
// both directions: a client submits an event for storage (Submission), and
// a relay delivers a matching stored event to a subscription (Result).
package eventenvelope

import (
	"io"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/errorf"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/envelopes"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/text"
	"github.com/mikedilger/gossip-sub003/pkg/interfaces/codec"
)

// L is the label associated with this type of codec.Envelope.
const L = "EVENT"

// Submission is a client->relay EVENT envelope: `["EVENT",<event JSON>]`.
type Submission struct {
	Event *event.E
}

var _ codec.Envelope = (*Submission)(nil)

// NewSubmission creates an empty Submission.
func NewSubmission() *Submission { return new(Submission) }

// NewSubmissionWith wraps an existing event.E in a Submission.
func NewSubmissionWith(ev *event.E) *Submission { return &Submission{Event: ev} }

// Label returns the label of a Submission.
func (en *Submission) Label() string { return L }

// Write the Submission to a provided io.Writer.
func (en *Submission) Write(w io.Writer) (err error) {
	_, err = w.Write(en.Marshal(nil))
	return
}

// Marshal a Submission envelope in minified JSON, appending to dst.
func (en *Submission) Marshal(dst []byte) (b []byte) {
	b = dst
	b = envelopes.Marshal(
		b, L,
		func(bst []byte) (o []byte) {
			return en.Event.Marshal(bst)
		},
	)
	return
}

// Unmarshal a Submission from minified JSON, returning the remainder after
// the end of the envelope.
func (en *Submission) Unmarshal(b []byte) (r []byte, err error) {
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

// ParseSubmission reads a Submission in minified JSON into a newly
// allocated Submission.
func ParseSubmission(b []byte) (t *Submission, rem []byte, err error) {
	t = NewSubmission()
	if rem, err = t.Unmarshal(b); chk.E(err) {
		return
	}
	return
}

// Result is a relay->client EVENT envelope:
// `["EVENT",<subscription id>,<event JSON>]`.
type Result struct {
	Subscription []byte
	Event        *event.E
}

var _ codec.Envelope = (*Result)(nil)

// NewResult creates an empty Result.
func NewResult() *Result { return new(Result) }

// NewResultWith creates a Result with a given subscription ID and event.E.
func NewResultWith[V string | []byte](
	sub V, ev *event.E,
) (res *Result, err error) {
	if len(sub) == 0 || len(sub) > 64 {
		err = errorf.E("subscription id must be length > 0 and <= 64")
		return
	}
	return &Result{Subscription: []byte(sub), Event: ev}, nil
}

// Label returns the label of a Result.
func (en *Result) Label() string { return L }

// Write the Result to a provided io.Writer.
func (en *Result) Write(w io.Writer) (err error) {
	_, err = w.Write(en.Marshal(nil))
	return
}

// Marshal a Result envelope in minified JSON, appending to dst.
func (en *Result) Marshal(dst []byte) (b []byte) {
	b = dst
	b = envelopes.Marshal(
		b, L,
		func(bst []byte) (o []byte) {
			o = bst
			o = append(o, '"')
			o = append(o, en.Subscription...)
			o = append(o, '"', ',')
			o = en.Event.Marshal(o)
			return
		},
	)
	return
}

// Unmarshal a Result from minified JSON, returning the remainder after the
// end of the envelope.
func (en *Result) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	if en.Subscription, r, err = text.UnmarshalQuoted(r); chk.E(err) {
		return
	}
	if r, err = text.Comma(r); chk.E(err) {
		return
	}
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

// ParseResult reads a Result in minified JSON into a newly allocated Result.
func ParseResult(b []byte) (t *Result, rem []byte, err error) {
	t = NewResult()
	if rem, err = t.Unmarshal(b); chk.E(err) {
		return
	}
	return
}
