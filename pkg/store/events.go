package store

import (
	"encoding/binary"
	"time"

	"github.com/dgraph-io/badger/v4"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"github.com/mikedilger/gossip-sub003/pkg/crypto/keys"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/hex"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/kind"
)

// GiftUnwrapper is the slice of identity.I that WriteEvent needs to open a
// giftwrap: accept-interfaces keeps pkg/store from importing pkg/identity.
type GiftUnwrapper interface {
	UnwrapGiftwrap(outer *event.E) (rumor *event.E, err error)
}

const kindGiftwrap = 1059

// WriteEvent validates, dedupes and ingests ev (spec.md §4.1). If txn is
// nil a transaction is created and committed locally; otherwise the caller
// owns commit/discard, allowing bundling with other writes. verify selects
// whether canonical-hash and signature checks run (import-lmdb-events
// passes verify=true per spec.md §6; internal replays of already-verified
// events may skip it).
func (d *D) WriteEvent(
	ev *event.E, unwrapper GiftUnwrapper, verify bool, txn *badger.Txn,
) (wrote bool, err error) {
	if ev == nil || ev.ID == nil {
		err = ErrBadID
		return
	}
	if verify {
		if !fastEqualBytes(ev.GetIDBytes(), ev.ID) {
			err = ErrBadID
			return
		}
		var ok bool
		if ok, err = keys.Verify(ev.Sig, ev.ID, ev.Pubkey); chk.E(err) || !ok {
			if err == nil {
				err = ErrBadSignature
			}
			return
		}
	}
	if ev.CreatedAt > time.Now().Unix()+d.futureAllowance {
		err = ErrFutureEvent
		return
	}

	own := txn == nil
	if own {
		txn = d.DB.NewTransaction(true)
		defer txn.Discard()
	}

	// dedupe by id
	if _, gerr := txn.Get(idIndexKey(ev.ID)); gerr == nil {
		wrote = false
		if own {
			err = nil
		}
		return
	} else if gerr != badger.ErrKeyNotFound {
		err = gerr
		return
	}

	// replaceable-kind pre-check: reject if a newer instance already exists
	var dTag []byte
	if kind.IsParameterizedReplaceable(ev.Kind) {
		dt := ev.Tags.GetFirst([]byte("d"))
		if dt == nil || dt.Len() < 2 {
			err = ErrMissingDTag
			return
		}
		dTag = dt.Value()
	}
	replaceable := kind.IsReplaceable(ev.Kind) || kind.IsParameterizedReplaceable(ev.Kind)
	var oldSerials []uint64
	if replaceable {
		var newerExists bool
		if oldSerials, newerExists, err = d.findReplaceableSerials(
			txn, ev.Pubkey, ev.Kind, dTag, ev.CreatedAt,
		); chk.E(err) {
			return
		}
		if newerExists {
			wrote = false
			return
		}
	}

	var serial uint64
	if serial, err = d.nextSerial(); chk.E(err) {
		return
	}

	indexAuthor := ev.Pubkey
	indexCreatedAt := ev.CreatedAt
	skipIndex := false

	if ev.Kind == kindGiftwrap {
		var rumor *event.E
		var uerr error
		if unwrapper != nil {
			rumor, uerr = unwrapper.UnwrapGiftwrap(ev)
		} else {
			uerr = ErrNotFound
		}
		if uerr != nil {
			if txerr := txn.Set(unindexedGWKey(ev.ID), nil); chk.E(txerr) {
				err = txerr
				return
			}
			skipIndex = true
		} else {
			indexAuthor = rumor.Pubkey
			indexCreatedAt = rumor.CreatedAt
			d.cacheVolatileRumor(ev.ID, rumor)
		}
	}

	if err = txn.Set(eventKey(serial), ev.Marshal(nil)); chk.E(err) {
		return
	}
	if err = txn.Set(idIndexKey(ev.ID), beU64(serial)); chk.E(err) {
		return
	}

	if !skipIndex {
		if err = d.writeIndicesForEvent(
			txn, ev, serial, indexAuthor, indexCreatedAt,
		); chk.E(err) {
			return
		}
	}

	if replaceable {
		for _, os := range oldSerials {
			if err = d.deleteEventBySerialTxn(txn, os); chk.E(err) {
				log.W.F("store: failed deleting superseded replaceable event serial %d: %v", os, err)
				err = nil
			}
		}
	}

	if own {
		if err = txn.Commit(); chk.E(err) {
			return
		}
	}
	wrote = true
	return
}

// writeIndicesForEvent writes AKCI/KCI/TCI/hashtag rows for ev, blending in
// an explicit author/created_at pair (the rumor's, for giftwraps; ev's own
// otherwise) while always keying on the outer event's id and kind.
func (d *D) writeIndicesForEvent(
	txn *badger.Txn, ev *event.E, serial uint64, author []byte, createdAt int64,
) (err error) {
	if err = txn.Set(akciKey(author, ev.Kind, createdAt, serial), nil); chk.E(err) {
		return
	}
	if IsIndexedKind(ev.Kind) {
		if err = txn.Set(kciKey(ev.Kind, createdAt, serial), nil); chk.E(err) {
			return
		}
	}
	if ev.Tags != nil {
		for _, t := range *ev.Tags {
			if t == nil || t.Len() < 2 {
				continue
			}
			letter := t.T[0]
			if len(letter) != 1 {
				continue
			}
			value := t.Value()
			if IsIndexedTag(letter[0]) {
				if err = txn.Set(
					tciKey(letter[0], value, createdAt, serial), nil,
				); chk.E(err) {
					return
				}
			}
			if letter[0] == 't' {
				if err = txn.Set(
					hashtagKey(value, createdAt, serial), nil,
				); chk.E(err) {
					return
				}
			}
		}
	}
	return
}

// ReadEvent returns the event for id, preferring the volatile cache (a
// giftwrap rumor keyed by its wrapper's id) over the persisted table.
func (d *D) ReadEvent(id []byte) (ev *event.E, err error) {
	if rec := d.getVolatileRumor(id); rec != nil {
		ev = rec.Event
		return
	}
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
		eitem, gerr := txn.Get(eventKey(serial))
		if gerr != nil {
			return gerr
		}
		return eitem.Value(func(val []byte) error {
			ev = event.New()
			_, uerr := ev.Unmarshal(val)
			return uerr
		})
	})
	if err == badger.ErrKeyNotFound {
		err = ErrNotFound
	}
	return
}

// readEventBySerial fetches the raw event row without consulting the
// volatile cache (used by the query planner and rebuild sweeps, which
// iterate serials directly).
func (d *D) readEventBySerial(txn *badger.Txn, serial uint64) (ev *event.E, err error) {
	item, err := txn.Get(eventKey(serial))
	if err != nil {
		return
	}
	err = item.Value(func(val []byte) error {
		ev = event.New()
		_, uerr := ev.Unmarshal(val)
		return uerr
	})
	return
}

// DeleteEvent removes id from the event table, event_seen_on_relay and
// event_viewed. Relationship and index rows are left for the next rebuild
// (spec.md §4.1).
func (d *D) DeleteEvent(id []byte) (err error) {
	return d.DB.Update(func(txn *badger.Txn) error {
		item, gerr := txn.Get(idIndexKey(id))
		if gerr != nil {
			if gerr == badger.ErrKeyNotFound {
				return nil
			}
			return gerr
		}
		var serial uint64
		if verr := item.Value(func(val []byte) error {
			serial = binary.BigEndian.Uint64(val)
			return nil
		}); verr != nil {
			return verr
		}
		return d.deleteEventBySerialTxn(txn, serial)
	})
}

// DeleteEventBySerial is the public, standalone-transaction counterpart
// used by the expiry sweep.
func (d *D) DeleteEventBySerial(serial uint64) (err error) {
	return d.DB.Update(func(txn *badger.Txn) error {
		return d.deleteEventBySerialTxn(txn, serial)
	})
}

func (d *D) deleteEventBySerialTxn(txn *badger.Txn, serial uint64) (err error) {
	item, gerr := txn.Get(eventKey(serial))
	if gerr != nil {
		if gerr == badger.ErrKeyNotFound {
			return nil
		}
		return gerr
	}
	var id []byte
	if verr := item.Value(func(val []byte) error {
		ev := event.New()
		_, uerr := ev.Unmarshal(val)
		if uerr == nil {
			id = append([]byte{}, ev.ID...)
		}
		return uerr
	}); verr != nil {
		return verr
	}
	if err = txn.Delete(eventKey(serial)); chk.E(err) {
		return
	}
	if id != nil {
		if err = txn.Delete(idIndexKey(id)); chk.E(err) {
			return
		}
	}
	if err = txn.Delete(eventViewedKey(serial)); err != nil && err != badger.ErrKeyNotFound {
		return
	}
	err = nil
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	prefix := eventSeenOnPrefix(serial)
	var toDelete [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		toDelete = append(toDelete, it.Item().KeyCopy(nil))
	}
	for _, k := range toDelete {
		if err = txn.Delete(k); chk.E(err) {
			return
		}
	}
	return
}

func (d *D) cacheVolatileRumor(outerID []byte, rumor *event.E) {
	d.volatileMu.Lock()
	defer d.volatileMu.Unlock()
	d.volatileEvents[hex.Enc(outerID)] = &volatileRecord{Event: rumor}
}

func (d *D) getVolatileRumor(outerID []byte) *volatileRecord {
	d.volatileMu.RLock()
	defer d.volatileMu.RUnlock()
	return d.volatileEvents[hex.Enc(outerID)]
}

func fastEqualBytes(a, b []byte) bool {
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
