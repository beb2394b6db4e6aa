package identity

import (
	"encoding/json"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/errorf"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
)

// KindGiftwrap and KindSeal are the two wrapper event kinds used by the
// giftwrap construction (NIP-59).
const (
	KindGiftwrap = 1059
	KindSeal     = 13
)

// UnwrapGiftwrap opens a kind-1059 giftwrap addressed to us, yielding the
// rumor it conceals. The rumor's author, created_at, kind and content are
// only trustworthy within the wrap: its id/signature are synthetic and are
// not verified.
func (id *I) UnwrapGiftwrap(outer *event.E) (rumor *event.E, err error) {
	if outer.Kind != KindGiftwrap {
		err = errorf.E(
			"identity: expected kind %d giftwrap, got %d", KindGiftwrap, outer.Kind,
		)
		return
	}
	var sealJSON string
	if sealJSON, err = id.Nip44Decrypt(string(outer.Content), outer.Pubkey); chk.E(err) {
		return
	}
	seal := event.New()
	if err = json.Unmarshal([]byte(sealJSON), seal); chk.E(err) {
		return
	}
	if seal.Kind != KindSeal {
		err = errorf.E("identity: expected kind %d seal, got %d", KindSeal, seal.Kind)
		return
	}
	var rumorJSON string
	if rumorJSON, err = id.Nip44Decrypt(string(seal.Content), seal.Pubkey); chk.E(err) {
		return
	}
	rumor = event.New()
	if err = json.Unmarshal([]byte(rumorJSON), rumor); chk.E(err) {
		return
	}
	return
}
