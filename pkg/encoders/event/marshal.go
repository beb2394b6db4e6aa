package event

import (
	"github.com/mikedilger/gossip-sub003/pkg/encoders/hex"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/ints"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/tag"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/text"
	"lol.mleku.dev/chk"
	"lol.mleku.dev/errorf"
)

// New creates an empty event.E with its Tags initialized, ready to be
// populated field by field.
func New() (ev *E) {
	return &E{Tags: tag.NewSWithCap(8)}
}

// Free releases the bufpool buffers held by the event's tags back to the
// pool. Call after the event is no longer needed.
func (ev *E) Free() {
	if ev == nil || ev.Tags == nil {
		return
	}
	for _, t := range *ev.Tags {
		if t != nil {
			t.Free()
		}
	}
}

// Serialize renders ev as minified JSON.
func (ev *E) Serialize() []byte { return ev.Marshal(nil) }

// Marshal renders ev as minified JSON, appending to dst.
func (ev *E) Marshal(dst []byte) (b []byte) {
	b = dst
	b = append(b, '{')
	b = text.JSONKey(b, []byte("id"))
	b = text.AppendQuote(b, []byte(hex.Enc(ev.ID)), text.NostrEscape)
	b = append(b, ',')
	b = text.JSONKey(b, []byte("pubkey"))
	b = text.AppendQuote(b, []byte(hex.Enc(ev.Pubkey)), text.NostrEscape)
	b = append(b, ',')
	b = text.JSONKey(b, []byte("created_at"))
	b = ints.New(ev.CreatedAt).Marshal(b)
	b = append(b, ',')
	b = text.JSONKey(b, []byte("kind"))
	b = ints.New(ev.Kind).Marshal(b)
	b = append(b, ',')
	b = text.JSONKey(b, []byte("tags"))
	if ev.Tags != nil {
		b = ev.Tags.Marshal(b)
	} else {
		b = append(b, '[', ']')
	}
	b = append(b, ',')
	b = text.JSONKey(b, []byte("content"))
	b = text.AppendQuote(b, ev.Content, text.NostrEscape)
	b = append(b, ',')
	b = text.JSONKey(b, []byte("sig"))
	b = text.AppendQuote(b, []byte(hex.Enc(ev.Sig)), text.NostrEscape)
	b = append(b, '}')
	return
}

// MarshalJSON implements json.Marshaler.
func (ev *E) MarshalJSON() ([]byte, error) { return ev.Marshal(nil), nil }

// Unmarshal decodes ev from minified JSON, returning the remainder after
// the closing brace.
func (ev *E) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	if ev.Tags == nil {
		ev.Tags = tag.NewSWithCap(8)
	}
	var openedBrace bool
	var key []byte
	const (
		beforeOpen = iota
		inKey
		afterKey
		inVal
		betweenKV
	)
	state := beforeOpen
	for len(r) > 0 {
		switch state {
		case beforeOpen:
			if r[0] == '{' {
				openedBrace = true
				r = r[1:]
				state = betweenKV
				continue
			}
			r = r[1:]
		case betweenKV:
			switch r[0] {
			case '}':
				r = r[1:]
				return
			case ',':
				r = r[1:]
			case '"':
				state = inKey
			default:
				r = r[1:]
			}
		case inKey:
			if key, r, err = text.UnmarshalQuoted(r); chk.E(err) {
				return
			}
			state = afterKey
		case afterKey:
			if len(r) == 0 || r[0] != ':' {
				err = errorf.E("event: expected ':' after key %q", key)
				return
			}
			r = r[1:]
			state = inVal
		case inVal:
			switch string(key) {
			case "id":
				var h []byte
				if h, r, err = text.UnmarshalQuoted(r); chk.E(err) {
					return
				}
				if ev.ID, err = hex.Dec(string(h)); chk.E(err) {
					return
				}
			case "pubkey":
				var h []byte
				if h, r, err = text.UnmarshalQuoted(r); chk.E(err) {
					return
				}
				if ev.Pubkey, err = hex.Dec(string(h)); chk.E(err) {
					return
				}
			case "sig":
				var h []byte
				if h, r, err = text.UnmarshalQuoted(r); chk.E(err) {
					return
				}
				if ev.Sig, err = hex.Dec(string(h)); chk.E(err) {
					return
				}
			case "content":
				if ev.Content, r, err = text.UnmarshalQuoted(r); chk.E(err) {
					return
				}
			case "created_at":
				n := ints.New(0)
				if r, err = n.Unmarshal(r); chk.E(err) {
					return
				}
				ev.CreatedAt = int64(n.N)
			case "kind":
				n := ints.New(0)
				if r, err = n.Unmarshal(r); chk.E(err) {
					return
				}
				ev.Kind = n.Uint16()
			case "tags":
				if r, err = ev.Tags.Unmarshal(r); chk.E(err) {
					return
				}
			default:
				err = errorf.E("event: unknown key %q", key)
				return
			}
			state = betweenKV
		}
	}
	if !openedBrace {
		err = errorf.E("event: expected '{'")
	}
	return
}

// UnmarshalJSON implements json.Unmarshaler.
func (ev *E) UnmarshalJSON(b []byte) (err error) {
	_, err = ev.Unmarshal(b)
	return
}
