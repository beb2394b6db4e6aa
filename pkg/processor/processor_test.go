package processor

import (
	"testing"

	"github.com/dgraph-io/badger/v4"

	"lol.mleku.dev/chk"

	"github.com/mikedilger/gossip-sub003/pkg/crypto/keys"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/tag"
	"github.com/mikedilger/gossip-sub003/pkg/store"
)

type fakeStore struct {
	written      []*event.E
	byID         map[string]*store.RelationshipByID
	relayLists   int
	mutedAuthors [][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string]*store.RelationshipByID{}}
}

func (f *fakeStore) WriteEvent(ev *event.E, _ store.GiftUnwrapper, _ bool, _ *badger.Txn) (bool, error) {
	for _, e := range f.written {
		if string(e.ID) == string(ev.ID) {
			return false, nil
		}
	}
	f.written = append(f.written, ev)
	return true, nil
}

func (f *fakeStore) ProcessRelayList(ev *event.E, isUs bool, force bool) error {
	f.relayLists++
	return nil
}

func (f *fakeStore) ProcessDMRelayList(ev *event.E) error { return nil }

func (f *fakeStore) WriteRelationshipByID(_ *badger.Txn, targetID, relatedID []byte, rel *store.RelationshipByID) error {
	f.byID[string(targetID)+":"+string(relatedID)] = rel
	return nil
}

func (f *fakeStore) WriteRelationshipByAddr(_ *badger.Txn, targetAddr string, relatedID []byte, rel *store.RelationshipByAddr) error {
	return nil
}

func (f *fakeStore) AddMutedAuthor(owner, pubkey []byte) error {
	f.mutedAuthors = append(f.mutedAuthors, pubkey)
	return nil
}

func signed(t *testing.T, sk []byte, kindNum uint16, tags *tag.S, content string) *event.E {
	t.Helper()
	pk, err := keys.SecretToPublic(sk)
	if chk.E(err) {
		t.Fatal(err)
	}
	ev := event.New()
	ev.Pubkey = pk
	ev.Kind = kindNum
	ev.CreatedAt = 1000
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

// scenario 5 (spec.md §8): a reply's e-tag becomes a RelRepliesTo row.
func TestIngestReplyRecordsRelationship(t *testing.T) {
	sk, _, err := keys.Generate()
	if chk.E(err) {
		t.Fatal(err)
	}
	root := signed(t, sk, 1, nil, "root")
	tags := &tag.S{&tag.T{T: [][]byte{[]byte("e"), root.ID}}}
	reply := signed(t, sk, 1, tags, "reply")

	fs := newFakeStore()
	p := New(fs, nil, nil, nil)
	if _, err = p.Ingest(root); chk.E(err) {
		t.Fatal(err)
	}
	if _, err = p.Ingest(reply); chk.E(err) {
		t.Fatal(err)
	}
	key := string(root.ID) + ":" + string(reply.ID)
	rel, ok := fs.byID[key]
	if !ok {
		t.Fatal("expected a RelRepliesTo row keyed by root id")
	}
	if rel.Kind != store.RelRepliesTo {
		t.Fatalf("expected RelRepliesTo, got %v", rel.Kind)
	}
}

func TestIngestDuplicateIsNoop(t *testing.T) {
	sk, _, _ := keys.Generate()
	ev := signed(t, sk, 1, nil, "hi")
	fs := newFakeStore()
	p := New(fs, nil, nil, nil)
	wrote, err := p.Ingest(ev)
	if chk.E(err) || !wrote {
		t.Fatal("expected first ingest to write")
	}
	wrote, err = p.Ingest(ev)
	if chk.E(err) || wrote {
		t.Fatal("expected duplicate ingest to be a no-op")
	}
}

type denyAllHook struct{}

func (denyAllHook) Allow(ev *event.E) bool        { return false }
func (denyAllHook) MuteAuthor(pubkey []byte) bool { return false }

type muteAllHook struct{}

func (muteAllHook) Allow(ev *event.E) bool        { return true }
func (muteAllHook) MuteAuthor(pubkey []byte) bool { return true }

// spec.md §4.3: MuteAuthor adds the author to the mute list and denies.
func TestFilterHookMuteAuthorDeniesAndMutes(t *testing.T) {
	sk, _, _ := keys.Generate()
	ev := signed(t, sk, 1, nil, "spam")
	fs := newFakeStore()
	owner := []byte("owner-pubkey")
	p := New(fs, nil, muteAllHook{}, owner)
	wrote, err := p.Ingest(ev)
	if chk.E(err) {
		t.Fatal(err)
	}
	if wrote {
		t.Fatal("expected muted author's event to be denied")
	}
	if len(fs.written) != 0 {
		t.Fatal("expected nothing written to the store")
	}
	if len(fs.mutedAuthors) != 1 || string(fs.mutedAuthors[0]) != string(ev.Pubkey) {
		t.Fatal("expected the event's author to be added to the mute list")
	}
}

// spec.md §4.3: a reaction's ReactsTo lands on the last e-tag only.
func TestIngestReactionUsesLastETagOnly(t *testing.T) {
	sk, _, _ := keys.Generate()
	root := signed(t, sk, 1, nil, "root")
	reacted := signed(t, sk, 1, nil, "reacted-to")
	tags := &tag.S{
		&tag.T{T: [][]byte{[]byte("e"), root.ID}},
		&tag.T{T: [][]byte{[]byte("e"), reacted.ID}},
	}
	reaction := signed(t, sk, 7, tags, "+")

	fs := newFakeStore()
	p := New(fs, nil, nil, nil)
	if _, err := p.Ingest(reaction); chk.E(err) {
		t.Fatal(err)
	}
	if _, ok := fs.byID[string(root.ID)+":"+string(reaction.ID)]; ok {
		t.Fatal("did not expect a ReactsTo row against the root e-tag")
	}
	rel, ok := fs.byID[string(reacted.ID)+":"+string(reaction.ID)]
	if !ok {
		t.Fatal("expected a ReactsTo row against the last e-tag")
	}
	if rel.Kind != store.RelReactsTo {
		t.Fatalf("expected RelReactsTo, got %v", rel.Kind)
	}
}

// spec.md §4.3: a "root" marker only counts when no "reply" marker exists.
func TestIngestReplyPrefersReplyMarkerOverRoot(t *testing.T) {
	sk, _, _ := keys.Generate()
	root := signed(t, sk, 1, nil, "root")
	parent := signed(t, sk, 1, nil, "parent")
	tags := &tag.S{
		&tag.T{T: [][]byte{[]byte("e"), root.ID, []byte(""), []byte("root")}},
		&tag.T{T: [][]byte{[]byte("e"), parent.ID, []byte(""), []byte("reply")}},
	}
	reply := signed(t, sk, 1, tags, "reply")

	fs := newFakeStore()
	p := New(fs, nil, nil, nil)
	if _, err := p.Ingest(reply); chk.E(err) {
		t.Fatal(err)
	}
	if _, ok := fs.byID[string(root.ID)+":"+string(reply.ID)]; ok {
		t.Fatal("did not expect a RepliesTo row against the root when a reply marker exists")
	}
	rel, ok := fs.byID[string(parent.ID)+":"+string(reply.ID)]
	if !ok {
		t.Fatal("expected a RepliesTo row against the reply-marked e-tag")
	}
	if rel.Kind != store.RelRepliesTo {
		t.Fatalf("expected RelRepliesTo, got %v", rel.Kind)
	}
}

// spec.md §3/§4.3: kind 1111 (comment) records an Annotates row.
func TestIngestCommentRecordsAnnotates(t *testing.T) {
	sk, _, _ := keys.Generate()
	root := signed(t, sk, 1, nil, "root")
	tags := &tag.S{&tag.T{T: [][]byte{[]byte("e"), root.ID}}}
	comment := signed(t, sk, 1111, tags, "nice post")

	fs := newFakeStore()
	p := New(fs, nil, nil, nil)
	if _, err := p.Ingest(comment); chk.E(err) {
		t.Fatal(err)
	}
	rel, ok := fs.byID[string(root.ID)+":"+string(comment.ID)]
	if !ok {
		t.Fatal("expected an Annotates row for the comment's e-tag")
	}
	if rel.Kind != store.RelAnnotates {
		t.Fatalf("expected RelAnnotates, got %v", rel.Kind)
	}
}

func TestFilterHookBlocksIngest(t *testing.T) {
	sk, _, _ := keys.Generate()
	ev := signed(t, sk, 1, nil, "blocked")
	fs := newFakeStore()
	p := New(fs, nil, denyAllHook{}, nil)
	wrote, err := p.Ingest(ev)
	if chk.E(err) {
		t.Fatal(err)
	}
	if wrote {
		t.Fatal("expected hook to block ingest")
	}
	if len(fs.written) != 0 {
		t.Fatal("expected nothing written to the store")
	}
}

func TestRelayListDispatch(t *testing.T) {
	sk, _, _ := keys.Generate()
	tags := &tag.S{&tag.T{T: [][]byte{[]byte("r"), []byte("wss://relay.example")}}}
	ev := signed(t, sk, 10002, tags, "")
	fs := newFakeStore()
	p := New(fs, nil, nil, nil)
	if _, err := p.Ingest(ev); chk.E(err) {
		t.Fatal(err)
	}
	if fs.relayLists != 1 {
		t.Fatalf("expected ProcessRelayList to run once, got %d", fs.relayLists)
	}
}
