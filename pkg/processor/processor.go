// Package processor is the ingest pipeline sitting between the minion's
// wire decoder and the store: it verifies, writes and then derives
// relationships for every incoming event (spec.md §4.3). It never talks to
// a relay directly and never blocks on a round trip; callers pass already
// unmarshaled events.
package processor

import (
	"github.com/dgraph-io/badger/v4"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
	"github.com/mikedilger/gossip-sub003/pkg/store"
)

// Store is the slice of store.D the processor needs: accept interfaces so
// tests can substitute a fake without spinning up badger.
type Store interface {
	WriteEvent(ev *event.E, unwrapper store.GiftUnwrapper, verify bool, txn *badger.Txn) (wrote bool, err error)
	ProcessRelayList(ev *event.E, isUs bool, force bool) error
	ProcessDMRelayList(ev *event.E) error
	WriteRelationshipByID(txn *badger.Txn, targetID, relatedID []byte, rel *store.RelationshipByID) error
	WriteRelationshipByAddr(txn *badger.Txn, targetAddr string, relatedID []byte, rel *store.RelationshipByAddr) error
	AddMutedAuthor(owner, pubkey []byte) error
}

// FilterHook lets the UI or a moderation layer veto events before they are
// persisted (spec.md §4.3 optional hook). A nil Hook accepts everything.
type FilterHook interface {
	// Allow reports whether ev should be ingested at all.
	Allow(ev *event.E) bool
	// MuteAuthor reports whether ev's author should be muted. true adds the
	// author to the user's mute list and denies the event outright (spec.md
	// §4.3: "MuteAuthor adds the author to a mute list and Denies").
	MuteAuthor(pubkey []byte) bool
}

// P is the event-ingest pipeline (spec.md §4.3).
type P struct {
	store     Store
	unwrapper store.GiftUnwrapper
	hook      FilterHook
	us        []byte // our own pubkey, for process_relay_list's "is this us" check
}

// New builds a processor writing into st. unwrapper may be nil (no
// giftwraps will unwrap until identity is unlocked); hook may be nil.
func New(st Store, unwrapper store.GiftUnwrapper, hook FilterHook, ownPubkey []byte) *P {
	return &P{store: st, unwrapper: unwrapper, hook: hook, us: ownPubkey}
}

// SetUnwrapper updates the identity used to open giftwraps, called after
// Identity.Unlock (spec.md §4.2).
func (p *P) SetUnwrapper(u store.GiftUnwrapper) { p.unwrapper = u }

// Ingest validates and writes ev, then relationship-indexes it (spec.md
// §4.1 steps 1-5, §4.3). The event and its index rows are written in one
// store transaction; each relationship row commits in its own. It returns wrote=false,
// err=nil for a duplicate or a filtered-out event — neither is an error
// condition a caller need surface.
func (p *P) Ingest(ev *event.E) (wrote bool, err error) {
	if p.hook != nil {
		if !p.hook.Allow(ev) {
			return false, nil
		}
		if p.hook.MuteAuthor(ev.Pubkey) {
			if err = p.store.AddMutedAuthor(p.us, ev.Pubkey); chk.E(err) {
				return
			}
			return false, nil
		}
	}
	if wrote, err = p.store.WriteEvent(ev, p.unwrapper, true, nil); chk.E(err) {
		return
	}
	if !wrote {
		return
	}
	if err = p.extractRelationships(ev); chk.E(err) {
		log.W.F("processor: relationship extraction failed for %x: %v", ev.ID, err)
		err = nil
	}
	p.dispatchSideEffects(ev)
	return
}

// IngestForce writes ev unconditionally, skipping the FilterHook, for bulk
// imports from a trusted source (spec.md §6 `import-lmdb-events`).
func (p *P) IngestForce(ev *event.E) (wrote bool, err error) {
	if wrote, err = p.store.WriteEvent(ev, p.unwrapper, true, nil); chk.E(err) {
		return
	}
	if !wrote {
		return
	}
	if err = p.extractRelationships(ev); chk.E(err) {
		log.W.F("processor: relationship extraction failed for %x: %v", ev.ID, err)
		err = nil
	}
	p.dispatchSideEffects(ev)
	return
}

// Extractor adapts P into a store.RelationshipExtractor for
// store.RebuildRelationships (spec.md §4.1/§8 invariant 5), reusing the
// same per-kind logic Ingest runs at write time but against a shared txn.
func (p *P) Extractor() store.RelationshipExtractor {
	return func(txn *badger.Txn, ev *event.E) error {
		if !hasRelationshipSemantics(ev.Kind) {
			return nil
		}
		return write(p.store, txn, ev)
	}
}

// dispatchSideEffects runs the kind-specific post-write hooks named in
// spec.md §4.1 (relay lists) that aren't relationship rows.
func (p *P) dispatchSideEffects(ev *event.E) {
	switch ev.Kind {
	case 10002:
		isUs := fastEqual(ev.Pubkey, p.us)
		if err := p.store.ProcessRelayList(ev, isUs, false); chk.E(err) {
			log.W.F("processor: process_relay_list failed: %v", err)
		}
	case 10050:
		if err := p.store.ProcessDMRelayList(ev); chk.E(err) {
			log.W.F("processor: process_dm_relay_list failed: %v", err)
		}
	}
}

func fastEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
