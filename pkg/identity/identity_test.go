package identity

import (
	"testing"

	"lol.mleku.dev/chk"

	"github.com/mikedilger/gossip-sub003/pkg/crypto/keys"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/tag"
)

func newTestIdentity(t *testing.T) (id *I, sk []byte) {
	t.Helper()
	sk, _, err := keys.Generate()
	if chk.E(err) {
		t.Fatal(err)
	}
	id = New()
	if err = id.SetEncryptedPrivateKey("hunter2", sk); chk.E(err) {
		t.Fatal(err)
	}
	return
}

func TestLockUnlock(t *testing.T) {
	id, _ := newTestIdentity(t)
	if !id.IsUnlocked() {
		t.Fatal("expected identity to be unlocked right after SetEncryptedPrivateKey")
	}
	id.Lock()
	if id.IsUnlocked() {
		t.Fatal("expected identity to be locked after Lock")
	}
	if _, err := id.Unlock("wrong"); err == nil {
		t.Fatal("expected wrong password to fail")
	}
	if _, err := id.Unlock("hunter2"); chk.E(err) {
		t.Fatal(err)
	}
	if !id.IsUnlocked() {
		t.Fatal("expected identity to be unlocked")
	}
}

func TestSignEvent(t *testing.T) {
	id, _ := newTestIdentity(t)
	pre := event.New()
	pre.Kind = 1
	pre.Content = []byte("hello")
	pre.Tags = tag.NewSWithCap(0)
	pre.CreatedAt = 1700000000
	if err := id.SignEvent(pre); chk.E(err) {
		t.Fatal(err)
	}
	ok, err := keys.Verify(pre.Sig, pre.ID, id.PublicKey())
	if chk.E(err) {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected signature to verify")
	}
}

func TestSignEventWithPow(t *testing.T) {
	id, _ := newTestIdentity(t)
	pre := event.New()
	pre.Kind = 1
	pre.Content = []byte("gm")
	pre.Tags = tag.NewSWithCap(0)
	pre.CreatedAt = 1700000000
	const bits = 8
	if err := id.SignEventWithPow(pre, bits, nil); chk.E(err) {
		t.Fatal(err)
	}
	if leadingZeroBits(pre.ID) < bits {
		t.Fatalf("expected at least %d leading zero bits, got %d", bits, leadingZeroBits(pre.ID))
	}
}

func TestDeferGiftwrapDrainedOnUnlock(t *testing.T) {
	id, _ := newTestIdentity(t)
	id.Lock()
	id.DeferGiftwrap([]byte("abc"))
	id.DeferGiftwrap([]byte("def"))
	effects, err := id.Unlock("hunter2")
	if chk.E(err) {
		t.Fatal(err)
	}
	if len(effects.ReindexGiftwraps) != 2 {
		t.Fatalf("expected 2 deferred giftwraps, got %d", len(effects.ReindexGiftwraps))
	}
}
