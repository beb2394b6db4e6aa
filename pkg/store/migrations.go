package store

import (
	"encoding/binary"

	"github.com/dgraph-io/badger/v4"

	"lol.mleku.dev/chk"
)

// schemaVersion is bumped whenever the key encodings below change shape.
// Migrations themselves are pass-through: the current schema is what this
// package implements, there is no ladder of historical formats to replay.
const schemaVersion = 1

var schemaVersionKey = []byte{prefixMarker, 's', 'c', 'h', 'e', 'm', 'a'}

func (d *D) runMigrations() (err error) {
	var stored uint32
	err = d.DB.View(func(txn *badger.Txn) error {
		item, e := txn.Get(schemaVersionKey)
		if e != nil {
			return e
		}
		return item.Value(func(val []byte) error {
			if len(val) == 4 {
				stored = binary.BigEndian.Uint32(val)
			}
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		err = nil
	} else if chk.E(err) {
		return
	}
	if stored == schemaVersion {
		return
	}
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, schemaVersion)
	err = d.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(schemaVersionKey, buf)
	})
	return
}

// deleteExpired deletes the events listed in the expiration table whose
// expiry time (NIP-40) has passed. WriteEvent adds no rows to that table,
// and no scan of events' "expiration" tags is made here or elsewhere.
func (d *D) deleteExpired() (err error) {
	var expired [][]byte
	now := nowUnix()
	err = d.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte{prefixExpiration}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			exp := int64(binary.BigEndian.Uint64(key[1:9]))
			if exp > now {
				break
			}
			serial := key[9:]
			expired = append(expired, append([]byte{}, serial...))
		}
		return nil
	})
	if chk.E(err) {
		return
	}
	for _, serial := range expired {
		if err = d.DeleteEventBySerial(binary.BigEndian.Uint64(serial)); chk.E(err) {
			continue
		}
	}
	return nil
}
