package store

import (
	"context"
	"testing"

	"lol.mleku.dev/chk"

	"github.com/mikedilger/gossip-sub003/pkg/crypto/keys"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/filter"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/kind"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/tag"
)

func newTestStore(t *testing.T) *D {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	d, err := New(ctx, cancel, t.TempDir(), "error")
	if chk.E(err) {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func signedEvent(t *testing.T, sk []byte, kindNum uint16, createdAt int64, tags *tag.S, content string) *event.E {
	t.Helper()
	pk, err := keys.SecretToPublic(sk)
	if chk.E(err) {
		t.Fatal(err)
	}
	ev := event.New()
	ev.Pubkey = pk
	ev.Kind = kindNum
	ev.CreatedAt = createdAt
	ev.Content = []byte(content)
	if tags != nil {
		ev.Tags = tags
	}
	ev.ID = ev.GetIDBytes()
	sig, err := keys.Sign(ev.ID, sk)
	if chk.E(err) {
		t.Fatal(err)
	}
	ev.Sig = sig
	return ev
}

// scenario 1 (spec.md §8): publish-and-receive loop.
func TestWriteEventThenQueryByAuthorKind(t *testing.T) {
	d := newTestStore(t)
	sk, _, err := keys.Generate()
	if chk.E(err) {
		t.Fatal(err)
	}
	ev := signedEvent(t, sk, 1, 1000, nil, "hello")
	wrote, err := d.WriteEvent(ev, nil, true, nil)
	if chk.E(err) {
		t.Fatal(err)
	}
	if !wrote {
		t.Fatal("expected first write to succeed")
	}
	// dedupe
	wrote, err = d.WriteEvent(ev, nil, true, nil)
	if chk.E(err) {
		t.Fatal(err)
	}
	if wrote {
		t.Fatal("expected duplicate write to be a no-op")
	}

	pk, _ := keys.SecretToPublic(sk)
	f := filter.New()
	f.Authors.T = [][]byte{pk}
	out, err := d.FindEventsByFilter(f, nil)
	if chk.E(err) {
		t.Fatal(err)
	}
	if len(out) != 1 || string(out[0].ID) != string(ev.ID) {
		t.Fatalf("expected to find the written event, got %d results", len(out))
	}
}

// scenario 2 (spec.md §8): replaceable metadata newest-wins.
func TestReplaceableNewestWins(t *testing.T) {
	d := newTestStore(t)
	sk, _, err := keys.Generate()
	if chk.E(err) {
		t.Fatal(err)
	}
	e100 := signedEvent(t, sk, 0, 100, nil, "v1")
	e200 := signedEvent(t, sk, 0, 200, nil, "v2")
	e150 := signedEvent(t, sk, 0, 150, nil, "v3")

	for _, ev := range []*event.E{e100, e200, e150} {
		if _, err = d.WriteEvent(ev, nil, true, nil); chk.E(err) {
			t.Fatal(err)
		}
	}

	pk, _ := keys.SecretToPublic(sk)
	f := filter.New()
	f.Authors.T = [][]byte{pk}
	f.Kinds.K = append(f.Kinds.K, kind.New(0))
	out, err := d.FindEventsByFilter(f, nil)
	if chk.E(err) {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("expected exactly one kind-0 row, got %d", len(out))
	}
	if out[0].CreatedAt != 200 {
		t.Fatalf("expected created_at 200 to win, got %d", out[0].CreatedAt)
	}
}

func TestFilterLimitZeroReturnsEmpty(t *testing.T) {
	d := newTestStore(t)
	sk, _, _ := keys.Generate()
	ev := signedEvent(t, sk, 1, 1000, nil, "hi")
	if _, err := d.WriteEvent(ev, nil, true, nil); chk.E(err) {
		t.Fatal(err)
	}
	zero := uint(0)
	f := filter.New()
	f.Limit = &zero
	out, err := d.FindEventsByFilter(f, nil)
	if chk.E(err) {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty result for limit:0, got %d", len(out))
	}
}

func TestFutureAllowanceBoundary(t *testing.T) {
	d := newTestStore(t)
	sk, _, _ := keys.Generate()
	now := nowUnix()
	okEv := signedEvent(t, sk, 1, now+900, nil, "edge")
	if _, err := d.WriteEvent(okEv, nil, true, nil); chk.E(err) {
		t.Fatal("expected now+15min to be accepted:", err)
	}
	tooFar := signedEvent(t, sk, 1, now+901, nil, "over")
	if _, err := d.WriteEvent(tooFar, nil, true, nil); err == nil {
		t.Fatal("expected now+15min+1s to be rejected")
	}
}
