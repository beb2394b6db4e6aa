package store

import (
	"encoding/json"

	"github.com/dgraph-io/badger/v4"

	"lol.mleku.dev/chk"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/hex"
)

// GetPerson returns the PersonRecord for pubkey, or ErrNotFound.
func (d *D) GetPerson(pubkey []byte) (p *PersonRecord, err error) {
	err = d.DB.View(func(txn *badger.Txn) error {
		item, gerr := txn.Get(personKey(pubkey))
		if gerr != nil {
			return gerr
		}
		return item.Value(func(val []byte) error {
			p = &PersonRecord{}
			return json.Unmarshal(val, p)
		})
	})
	if err == badger.ErrKeyNotFound {
		err = ErrNotFound
	}
	return
}

// UpsertPerson writes p, keyed by p.Pubkey (hex).
func (d *D) UpsertPerson(p *PersonRecord) (err error) {
	var b []byte
	if b, err = json.Marshal(p); chk.E(err) {
		return
	}
	pk, derr := hex.Dec(p.Pubkey)
	if derr != nil {
		err = derr
		return
	}
	return d.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(personKey(pk), b)
	})
}

// GetOrNewPerson returns the existing PersonRecord for pubkey, or a fresh
// zero-value one keyed to it if none exists yet.
func (d *D) GetOrNewPerson(pubkey []byte) (p *PersonRecord, err error) {
	p, err = d.GetPerson(pubkey)
	if err == ErrNotFound {
		p = &PersonRecord{Pubkey: hex.Enc(pubkey)}
		err = nil
	}
	return
}
