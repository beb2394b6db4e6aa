package store

import (
	"encoding/binary"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/filter"
)

// ScreenFunc is the caller-supplied predicate applied alongside the
// filter's own event_matches check (spec.md §4.1 "screen").
type ScreenFunc func(ev *event.E) bool

// FindEventsByFilter implements the five-strategy query planner of
// spec.md §4.1: by-ids, by-tag, by-author×kind, by-kind, or a logged
// fallback scrape. Results are always returned in (created_at desc, id
// desc) order, honoring the filter's limit.
func (d *D) FindEventsByFilter(f *filter.F, screen ScreenFunc) (out event.S, err error) {
	limit := -1
	if f.Limit != nil {
		limit = int(*f.Limit)
		if limit == 0 {
			return
		}
	}

	var candidates []uint64
	err = d.DB.View(func(txn *badger.Txn) error {
		var ierr error
		candidates, ierr = d.planQuery(txn, f, limit)
		return ierr
	})
	if chk.E(err) {
		return
	}

	seen := make(map[uint64]bool, len(candidates))
	var evs event.S
	err = d.DB.View(func(txn *badger.Txn) error {
		for _, serial := range candidates {
			if seen[serial] {
				continue
			}
			seen[serial] = true
			ev, rerr := d.readEventBySerial(txn, serial)
			if rerr != nil {
				continue
			}
			if !f.Matches(ev) {
				continue
			}
			if screen != nil && !screen(ev) {
				continue
			}
			evs = append(evs, ev)
		}
		return nil
	})
	if chk.E(err) {
		return
	}

	sort.Slice(evs, func(i, j int) bool {
		if evs[i].CreatedAt != evs[j].CreatedAt {
			return evs[i].CreatedAt > evs[j].CreatedAt
		}
		return compareBytesDesc(evs[i].ID, evs[j].ID)
	})
	if limit >= 0 && len(evs) > limit {
		evs = evs[:limit]
	}
	out = evs
	return
}

func compareBytesDesc(a, b []byte) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return len(a) > len(b)
}

// planQuery picks one of the five strategies and returns candidate serials.
func (d *D) planQuery(txn *badger.Txn, f *filter.F, limit int) (serials []uint64, err error) {
	if f.Ids != nil && f.Ids.Len() > 0 {
		return d.scanByIDs(txn, f.Ids.T)
	}
	if f.Tags != nil && allTagsIndexed(f) {
		return d.scanByTags(txn, f, limit)
	}
	if f.Authors != nil && f.Authors.Len() > 0 {
		return d.scanByAuthorKind(txn, f, limit)
	}
	if f.Kinds != nil && f.Kinds.Len() > 0 && allKindsIndexed(f) {
		return d.scanByKind(txn, f, limit)
	}
	log.W.F("store: query fell through to unindexed scrape: %s", f.Serialize())
	return d.scrapeAll(txn, f, limit)
}

func allTagsIndexed(f *filter.F) bool {
	if f.Tags == nil || f.Tags.Len() == 0 {
		return false
	}
	for _, t := range *f.Tags {
		if t == nil || t.Len() < 2 || len(t.T[0]) != 1 || !IsIndexedTag(t.T[0][0]) {
			return false
		}
	}
	return true
}

func allKindsIndexed(f *filter.F) bool {
	for _, k := range f.Kinds.K {
		if !IsIndexedKind(k.ToU16()) {
			return false
		}
	}
	return true
}

func (d *D) scanByIDs(txn *badger.Txn, ids [][]byte) (serials []uint64, err error) {
	for _, id := range ids {
		item, gerr := txn.Get(idIndexKey(id))
		if gerr != nil {
			continue
		}
		var serial uint64
		if verr := item.Value(func(val []byte) error {
			serial = binary.BigEndian.Uint64(val)
			return nil
		}); verr == nil {
			serials = append(serials, serial)
		}
	}
	return
}

// scanByTags scans the TCI range per (tag, value) pair within the filter's
// since/until window, per spec.md §4.1 strategy 2.
func (d *D) scanByTags(txn *badger.Txn, f *filter.F, limit int) (serials []uint64, err error) {
	for _, t := range *f.Tags {
		letter := t.T[0][0]
		for _, value := range t.T[1:] {
			opts := badger.DefaultIteratorOptions
			it := txn.NewIterator(opts)
			prefix := tciPrefix(letter, value)
			until := f.Until
			since := f.Since
			count := 0
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				key := it.Item().KeyCopy(nil)
				createdAt, serial := decodeTCITail(key)
				if until != nil && until.I64() > 0 && createdAt > until.I64() {
					continue
				}
				if since != nil && since.I64() > 0 && createdAt < since.I64() {
					break
				}
				serials = append(serials, serial)
				count++
				if limit > 0 && count >= limit {
					break
				}
			}
			it.Close()
		}
	}
	return
}

func decodeTCITail(key []byte) (createdAt int64, serial uint64) {
	serial = binary.BigEndian.Uint64(key[len(key)-8:])
	inv := binary.BigEndian.Uint64(key[len(key)-16 : len(key)-8])
	createdAt = int64(^inv)
	return
}

// scanByAuthorKind scans AKCI per (author, kind) pair (spec.md §4.1
// strategy 3). For replaceable kinds the scan may stop after the first hit
// per pair, since AKCI order already yields the newest first.
func (d *D) scanByAuthorKind(txn *badger.Txn, f *filter.F, limit int) (serials []uint64, err error) {
	kinds := []uint16{0}
	hasKinds := f.Kinds != nil && f.Kinds.Len() > 0
	if hasKinds {
		kinds = f.Kinds.ToUint16()
	}
	for _, author := range f.Authors.T {
		for _, k := range kinds {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			var prefix []byte
			if hasKinds {
				prefix = akciPrefix(author, k, true)
			} else {
				prefix = akciPrefix(author, 0, false)
			}
			count := 0
			stopAfterFirst := hasKinds && isReplaceableK(k)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				key := it.Item().KeyCopy(nil)
				createdAt, serial := decodeAKCITail(key, len(author))
				if f.Until != nil && f.Until.I64() > 0 && createdAt > f.Until.I64() {
					continue
				}
				if f.Since != nil && f.Since.I64() > 0 && createdAt < f.Since.I64() {
					break
				}
				serials = append(serials, serial)
				count++
				if stopAfterFirst {
					break
				}
				if limit > 0 && count >= limit {
					break
				}
			}
			it.Close()
		}
	}
	return
}

func decodeAKCITail(key []byte, pubkeyLen int) (createdAt int64, serial uint64) {
	serial = binary.BigEndian.Uint64(key[len(key)-8:])
	inv := binary.BigEndian.Uint64(key[len(key)-16 : len(key)-8])
	createdAt = int64(^inv)
	return
}

func isReplaceableK(k uint16) bool {
	return k == 0 || k == 3 || (k >= 10000 && k < 20000)
}

// scanByKind scans KCI for every requested kind (spec.md §4.1 strategy 4),
// only reachable when every requested kind is in the indexed set.
func (d *D) scanByKind(txn *badger.Txn, f *filter.F, limit int) (serials []uint64, err error) {
	for _, kk := range f.Kinds.K {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		prefix := kciPrefix(kk.ToU16())
		count := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			createdAt, serial := decodeKCITail(key)
			if f.Until != nil && f.Until.I64() > 0 && createdAt > f.Until.I64() {
				continue
			}
			if f.Since != nil && f.Since.I64() > 0 && createdAt < f.Since.I64() {
				break
			}
			serials = append(serials, serial)
			count++
			if limit > 0 && count >= limit {
				break
			}
		}
		it.Close()
	}
	return
}

func decodeKCITail(key []byte) (createdAt int64, serial uint64) {
	serial = binary.BigEndian.Uint64(key[len(key)-8:])
	inv := binary.BigEndian.Uint64(key[len(key)-16 : len(key)-8])
	createdAt = int64(^inv)
	return
}

// scrapeAll is strategy 5: a full event-table scan. Reachable only when no
// index can answer the filter; the caller is told via the warning log that
// the query was un-indexed (spec.md §4.1).
func (d *D) scrapeAll(txn *badger.Txn, f *filter.F, limit int) (serials []uint64, err error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	prefix := []byte{prefixEvent}
	count := 0
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().KeyCopy(nil)
		serial := binary.BigEndian.Uint64(key[1:])
		serials = append(serials, serial)
		count++
		if limit > 0 && count >= limit*4 {
			// scrape bucket is generously over-provisioned since
			// Matches() still has to narrow it down post-hoc.
			break
		}
	}
	return
}
