package store

import (
	"encoding/binary"

	"github.com/dgraph-io/badger/v4"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
)

// clearPrefix deletes every key under prefix in its own transaction,
// batching commits so a large index doesn't overflow a single badger txn.
func (d *D) clearPrefix(prefix []byte) (err error) {
	for {
		var keys [][]byte
		err = d.DB.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
			defer it.Close()
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
				if len(keys) >= 10000 {
					return nil
				}
			}
			return nil
		})
		if chk.E(err) {
			return
		}
		if len(keys) == 0 {
			return nil
		}
		if err = d.DB.Update(func(txn *badger.Txn) error {
			for _, k := range keys {
				if derr := txn.Delete(k); derr != nil {
					return derr
				}
			}
			return nil
		}); chk.E(err) {
			return
		}
	}
}

// ForEachEvent walks the event table in serial order, invoking fn per
// event. Used by import-lmdb-events to stream every row out of a source
// environment (spec.md §6).
func (d *D) ForEachEvent(fn func(ev *event.E) error) (err error) {
	return d.allEvents(func(_ uint64, ev *event.E) error {
		return fn(ev)
	})
}

// allEvents walks the event table in serial order, invoking fn per row.
func (d *D) allEvents(fn func(serial uint64, ev *event.E) error) (err error) {
	var serials []uint64
	err = d.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte{prefixEvent}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			serials = append(serials, binary.BigEndian.Uint64(key[1:]))
		}
		return nil
	})
	if chk.E(err) {
		return
	}
	for _, serial := range serials {
		var ev *event.E
		if err = d.DB.View(func(txn *badger.Txn) error {
			var rerr error
			ev, rerr = d.readEventBySerial(txn, serial)
			return rerr
		}); chk.E(err) {
			err = nil
			continue
		}
		if err = fn(serial, ev); chk.E(err) {
			return
		}
	}
	return nil
}

// RebuildEventIndices clears and re-derives AKCI, KCI, TCI and hashtag from
// the event table (spec.md §4.1). Giftwraps that cannot be unwrapped (nil
// unwrapper, or still locked) fall back to indexing under the outer
// event's own author/created_at rather than being skipped outright, since
// a full rebuild has no "ingest-time" moment to defer to — callers that
// want the unindexed-giftwraps behavior should unlock identity first.
func (d *D) RebuildEventIndices(unwrapper GiftUnwrapper) (err error) {
	for _, p := range [][]byte{{prefixAKCI}, {prefixKCI}, {prefixTCI}, {prefixHashtag}} {
		if err = d.clearPrefix(p); chk.E(err) {
			return
		}
	}
	err = d.allEvents(func(serial uint64, ev *event.E) error {
		author := ev.Pubkey
		createdAt := ev.CreatedAt
		if ev.Kind == kindGiftwrap && unwrapper != nil {
			if rumor, uerr := unwrapper.UnwrapGiftwrap(ev); uerr == nil {
				author = rumor.Pubkey
				createdAt = rumor.CreatedAt
				d.cacheVolatileRumor(ev.ID, rumor)
			}
		}
		return d.DB.Update(func(txn *badger.Txn) error {
			return d.writeIndicesForEvent(txn, ev, serial, author, createdAt)
		})
	})
	if chk.E(err) {
		return
	}
	d.rebuildIndexesNeeded.Store(false)
	log.I.F("store: rebuilt event indices")
	return
}

// RebuildEventTagsIndex clears and re-derives TCI and hashtag only.
func (d *D) RebuildEventTagsIndex() (err error) {
	for _, p := range [][]byte{{prefixTCI}, {prefixHashtag}} {
		if err = d.clearPrefix(p); chk.E(err) {
			return
		}
	}
	err = d.allEvents(func(serial uint64, ev *event.E) error {
		return d.DB.Update(func(txn *badger.Txn) error {
			if ev.Tags == nil {
				return nil
			}
			for _, t := range *ev.Tags {
				if t == nil || t.Len() < 2 || len(t.T[0]) != 1 {
					continue
				}
				letter := t.T[0][0]
				value := t.Value()
				if IsIndexedTag(letter) {
					if e := txn.Set(tciKey(letter, value, ev.CreatedAt, serial), nil); e != nil {
						return e
					}
				}
				if letter == 't' {
					if e := txn.Set(hashtagKey(value, ev.CreatedAt, serial), nil); e != nil {
						return e
					}
				}
			}
			return nil
		})
	})
	if chk.E(err) {
		return
	}
	log.I.F("store: rebuilt event tags index")
	return
}

// RelationshipExtractor is supplied by the processor (spec.md §4.3) so
// RebuildRelationships can stay in pkg/store without importing pkg/processor.
type RelationshipExtractor func(txn *badger.Txn, ev *event.E) error

// RebuildRelationships clears by_id/by_addr and re-derives them by running
// extract over every stored event (spec.md §4.1/§8 invariant 5).
func (d *D) RebuildRelationships(extract RelationshipExtractor) (err error) {
	for _, p := range [][]byte{{prefixRelByID}, {prefixRelByAddr}} {
		if err = d.clearPrefix(p); chk.E(err) {
			return
		}
	}
	err = d.allEvents(func(serial uint64, ev *event.E) error {
		return d.DB.Update(func(txn *badger.Txn) error {
			return extract(txn, ev)
		})
	})
	if chk.E(err) {
		return
	}
	log.I.F("store: rebuilt relationships")
	return
}

// MarkRebuildNeeded sets the rebuild_indexes_needed flag (spec.md §3),
// e.g. after a schema or identity change.
func (d *D) MarkRebuildNeeded() { d.rebuildIndexesNeeded.Store(true) }

// RebuildNeeded reports the current rebuild_indexes_needed flag.
func (d *D) RebuildNeeded() bool { return d.rebuildIndexesNeeded.Load() }

// UnindexedGiftwrapIDs returns every id currently deferred in the
// unindexed-giftwraps side table.
func (d *D) UnindexedGiftwrapIDs() (ids [][]byte, err error) {
	err = d.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte{prefixUnindexedGW}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			ids = append(ids, append([]byte{}, key[1:]...))
		}
		return nil
	})
	return
}

// ReindexUnindexedGiftwraps re-attempts indexing for every id the identity
// just unlocked (spec.md §4.2 Unlock side effect #3, §8 invariant 9): on
// success the rumor is indexed and cached, and the id leaves the
// unindexed-giftwraps table; ids that still fail to unwrap are left in
// place.
func (d *D) ReindexUnindexedGiftwraps(ids [][]byte, unwrapper GiftUnwrapper) (err error) {
	for _, id := range ids {
		ev, rerr := d.readEventByIDNoVolatile(id)
		if rerr != nil {
			continue
		}
		rumor, uerr := unwrapper.UnwrapGiftwrap(ev)
		if uerr != nil {
			continue
		}
		if err = d.DB.Update(func(txn *badger.Txn) error {
			item, gerr := txn.Get(idIndexKey(id))
			if gerr != nil {
				return gerr
			}
			var serial uint64
			if verr := item.Value(func(val []byte) error {
				serial = binary.BigEndian.Uint64(val)
				return nil
			}); verr != nil {
				return verr
			}
			if e := d.writeIndicesForEvent(txn, ev, serial, rumor.Pubkey, rumor.CreatedAt); e != nil {
				return e
			}
			return txn.Delete(unindexedGWKey(id))
		}); chk.E(err) {
			err = nil
			continue
		}
		d.cacheVolatileRumor(id, rumor)
	}
	return nil
}

func (d *D) readEventByIDNoVolatile(id []byte) (ev *event.E, err error) {
	err = d.DB.View(func(txn *badger.Txn) error {
		item, gerr := txn.Get(idIndexKey(id))
		if gerr != nil {
			return gerr
		}
		var serial uint64
		if verr := item.Value(func(val []byte) error {
			serial = binary.BigEndian.Uint64(val)
			return nil
		}); verr != nil {
			return verr
		}
		var rerr error
		ev, rerr = d.readEventBySerial(txn, serial)
		return rerr
	})
	return
}
