package store

import (
	"encoding/json"

	"github.com/dgraph-io/badger/v4"

	"lol.mleku.dev/chk"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/hex"
)

// WriteRelationshipByID upserts a (targetID, relatedID) -> rel row into the
// by_id relationship table (spec.md §3). Called by the processor after it
// has decided the variant from the ingested event's tags.
func (d *D) WriteRelationshipByID(txn *badger.Txn, targetID, relatedID []byte, rel *RelationshipByID) (err error) {
	var b []byte
	if b, err = json.Marshal(rel); chk.E(err) {
		return
	}
	key := relByIDKey(targetID, relatedID)
	if txn != nil {
		return txn.Set(key, b)
	}
	return d.DB.Update(func(t *badger.Txn) error { return t.Set(key, b) })
}

// WriteRelationshipByAddr is the addressable-target counterpart, keyed by
// "kind:pubkey:d".
func (d *D) WriteRelationshipByAddr(txn *badger.Txn, targetAddr string, relatedID []byte, rel *RelationshipByAddr) (err error) {
	var b []byte
	if b, err = json.Marshal(rel); chk.E(err) {
		return
	}
	key := relByAddrKey(targetAddr, relatedID)
	if txn != nil {
		return txn.Set(key, b)
	}
	return d.DB.Update(func(t *badger.Txn) error { return t.Set(key, b) })
}

// RelatedByID is one row of GetRelationshipsByID: the related event's id
// plus the decoded relationship variant.
type RelatedByID struct {
	RelatedID []byte
	Rel       *RelationshipByID
}

// GetRelationshipsByID returns every by_id relationship row for targetID.
func (d *D) GetRelationshipsByID(targetID []byte) (out []RelatedByID, err error) {
	err = d.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := relByIDPrefix(targetID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			related := append([]byte{}, key[len(prefix):]...)
			var rel RelationshipByID
			if verr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rel)
			}); verr != nil {
				continue
			}
			out = append(out, RelatedByID{RelatedID: related, Rel: &rel})
		}
		return nil
	})
	return
}

// RelatedByAddr mirrors RelatedByID for the addressable-target table.
type RelatedByAddr struct {
	RelatedID []byte
	Rel       *RelationshipByAddr
}

// GetRelationshipsByAddr returns every by_addr relationship row for
// targetAddr ("kind:pubkey:d").
func (d *D) GetRelationshipsByAddr(targetAddr string) (out []RelatedByAddr, err error) {
	err = d.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := relByAddrPrefix(targetAddr)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			related := append([]byte{}, key[len(prefix):]...)
			var rel RelationshipByAddr
			if verr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rel)
			}); verr != nil {
				continue
			}
			out = append(out, RelatedByAddr{RelatedID: related, Rel: &rel})
		}
		return nil
	})
	return
}

// GetReplies returns the ids of events whose RelRepliesTo relationship
// points at targetID (spec.md §8 scenario 5).
func (d *D) GetReplies(targetID []byte) (ids [][]byte, err error) {
	var rows []RelatedByID
	if rows, err = d.GetRelationshipsByID(targetID); chk.E(err) {
		return
	}
	for _, r := range rows {
		if r.Rel.Kind == RelRepliesTo {
			ids = append(ids, r.RelatedID)
		}
	}
	return
}

// GetDeletions returns the RelDeletes rows for targetID, carrying the
// deleting author and reason (spec.md §8 scenario 5).
func (d *D) GetDeletions(targetID []byte) (rows []RelatedByID, err error) {
	var all []RelatedByID
	if all, err = d.GetRelationshipsByID(targetID); chk.E(err) {
		return
	}
	for _, r := range all {
		if r.Rel.Kind == RelDeletes {
			rows = append(rows, r)
		}
	}
	return
}

func relAddr(kindNum uint16, pubkey []byte, dTag string) string {
	return hex.Enc([]byte{byte(kindNum >> 8), byte(kindNum)}) + ":" + hex.Enc(pubkey) + ":" + dTag
}

// RelAddr builds the "kind:pubkey:d" addressable-target key used by
// by_addr rows and `a`-tag references.
func RelAddr(kindNum uint16, pubkey []byte, dTag string) string { return relAddr(kindNum, pubkey, dTag) }
