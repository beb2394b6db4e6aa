package store

import (
	"encoding/json"

	"github.com/dgraph-io/badger/v4"

	"lol.mleku.dev/chk"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/hex"
)

// GetPersonRelay returns the edge record for (pubkey, url), or ErrNotFound.
func (d *D) GetPersonRelay(pubkey []byte, url string) (pr *PersonRelayRecord, err error) {
	err = d.DB.View(func(txn *badger.Txn) error {
		item, gerr := txn.Get(personRelayKey(pubkey, url))
		if gerr != nil {
			return gerr
		}
		return item.Value(func(val []byte) error {
			pr = &PersonRelayRecord{}
			return json.Unmarshal(val, pr)
		})
	})
	if err == badger.ErrKeyNotFound {
		err = ErrNotFound
	}
	return
}

// GetPersonRelays returns every (pubkey, *) edge row, used by the picker to
// build its candidate list for a followed key.
func (d *D) GetPersonRelays(pubkey []byte) (out []*PersonRelayRecord, err error) {
	err = d.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := personRelayPrefix(pubkey)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var pr PersonRelayRecord
			if verr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &pr)
			}); verr != nil {
				continue
			}
			out = append(out, &pr)
		}
		return nil
	})
	return
}

// UpsertPersonRelay writes pr, keyed by (pr.Pubkey, pr.URL).
func (d *D) UpsertPersonRelay(pr *PersonRelayRecord) (err error) {
	var b []byte
	if b, err = json.Marshal(pr); chk.E(err) {
		return
	}
	pk, derr := hex.Dec(pr.Pubkey)
	if derr != nil {
		err = derr
		return
	}
	return d.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(personRelayKey(pk, pr.URL), b)
	})
}

// GetOrNewPersonRelay returns the existing edge or a fresh zero-value one.
func (d *D) GetOrNewPersonRelay(pubkey []byte, url string) (pr *PersonRelayRecord, err error) {
	pr, err = d.GetPersonRelay(pubkey, url)
	if err == ErrNotFound {
		pr = &PersonRelayRecord{Pubkey: hex.Enc(pubkey), URL: url}
		err = nil
	}
	return
}

// clearReadWrite zeroes the read/write bits on every existing PersonRelay
// row for author — the first half of process_relay_list (spec.md §4.1).
func (d *D) clearReadWrite(pubkey []byte) (err error) {
	rows, err := d.GetPersonRelays(pubkey)
	if chk.E(err) {
		return
	}
	for _, r := range rows {
		if !r.Read && !r.Write {
			continue
		}
		r.Read = false
		r.Write = false
		if err = d.UpsertPersonRelay(r); chk.E(err) {
			return
		}
	}
	return
}
