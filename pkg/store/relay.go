package store

import (
	"encoding/json"

	"github.com/dgraph-io/badger/v4"

	"lol.mleku.dev/chk"

	"github.com/mikedilger/gossip-sub003/pkg/relayurl"
)

// GetRelay returns the RelayRecord for url, or ErrNotFound.
func (d *D) GetRelay(url string) (r *RelayRecord, err error) {
	err = d.DB.View(func(txn *badger.Txn) error {
		item, gerr := txn.Get(relayKey(url))
		if gerr != nil {
			return gerr
		}
		return item.Value(func(val []byte) error {
			r = &RelayRecord{}
			return json.Unmarshal(val, r)
		})
	})
	if err == badger.ErrKeyNotFound {
		err = ErrNotFound
	}
	return
}

// UpsertRelay normalizes r.URL and writes the record, rejecting banned or
// malformed URLs (spec.md §3 RelayUrl).
func (d *D) UpsertRelay(r *RelayRecord) (err error) {
	var norm string
	if norm, err = relayurl.Normalize(r.URL); chk.E(err) {
		err = ErrBannedRelay
		return
	}
	r.URL = norm
	r.Usage = r.Usage.StripLegacy()
	var b []byte
	if b, err = json.Marshal(r); chk.E(err) {
		return
	}
	return d.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(relayKey(norm), b)
	})
}

// GetOrNewRelay returns the existing RelayRecord for url (after
// normalization), or spec.md defaults if none exists yet.
func (d *D) GetOrNewRelay(url string) (r *RelayRecord, err error) {
	var norm string
	if norm, err = relayurl.Normalize(url); chk.E(err) {
		err = ErrBannedRelay
		return
	}
	r, err = d.GetRelay(norm)
	if err == ErrNotFound {
		r = NewRelayRecord(norm)
		err = nil
	}
	return
}

// ListRelays returns every RelayRecord.
func (d *D) ListRelays() (out []*RelayRecord, err error) {
	err = d.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := relayPrefix()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var r RelayRecord
			if verr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); verr != nil {
				continue
			}
			out = append(out, &r)
		}
		return nil
	})
	return
}
