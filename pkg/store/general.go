package store

import "github.com/dgraph-io/badger/v4"

// GeneralGet reads a raw value from the general-purpose settings table.
func (d *D) GeneralGet(key string) (val []byte, err error) {
	err = d.DB.View(func(txn *badger.Txn) error {
		item, gerr := txn.Get(generalKey(key))
		if gerr != nil {
			return gerr
		}
		return item.Value(func(v []byte) error {
			val = append([]byte{}, v...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		err = ErrNotFound
	}
	return
}

// GeneralSet writes a raw value into the general-purpose settings table.
func (d *D) GeneralSet(key string, val []byte) (err error) {
	return d.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(generalKey(key), val)
	})
}
