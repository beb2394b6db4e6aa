package store

import (
	"bytes"
	"encoding/binary"

	"github.com/dgraph-io/badger/v4"

	"lol.mleku.dev/chk"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
)

// findReplaceableSerials scans the AKCI range for (pubkey, kind) — and, for
// parameterized-replaceable kinds, filters by the "d" tag value — to decide
// whether newEventCreatedAt would win. It returns the serials of every
// existing, now-superseded instance, and whether a strictly newer (or
// tied) instance already exists, in which case the caller must reject the
// incoming event rather than flip-flop on replay order.
func (d *D) findReplaceableSerials(
	txn *badger.Txn, pubkey []byte, k uint16, dTag []byte, newEventCreatedAt int64,
) (oldSerials []uint64, newerExists bool, err error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	prefix := akciPrefix(pubkey, k, true)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().KeyCopy(nil)
		serial := binary.BigEndian.Uint64(key[len(key)-8:])
		var ev *event.E
		if ev, err = d.readEventBySerial(txn, serial); chk.E(err) {
			err = nil
			continue
		}
		if dTag != nil {
			dt := ev.Tags.GetFirst([]byte("d"))
			if dt == nil || !bytes.Equal(dt.Value(), dTag) {
				continue
			}
		}
		if ev.CreatedAt > newEventCreatedAt {
			newerExists = true
			return
		}
		if ev.CreatedAt == newEventCreatedAt {
			newerExists = true
			return
		}
		oldSerials = append(oldSerials, serial)
	}
	return
}

// ReplaceEvent applies the replaceable-event rule for ev standalone (spec.md
// §4.1 replace_event): find the existing set by (kind, author[, d]), delete
// those with older created_at, and insert if none are newer. It is a thin
// wrapper over WriteEvent's own replace handling, returning whether ev won.
func (d *D) ReplaceEvent(ev *event.E, unwrapper GiftUnwrapper, verify bool) (won bool, err error) {
	return d.WriteEvent(ev, unwrapper, verify, nil)
}
