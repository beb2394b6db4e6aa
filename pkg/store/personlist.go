package store

import (
	"encoding/json"

	"github.com/dgraph-io/badger/v4"

	"lol.mleku.dev/chk"
)

// GetPersonListMetadata returns the metadata row for (owner, kind).
func (d *D) GetPersonListMetadata(owner []byte, k PersonListKind) (md *PersonListMetadata, err error) {
	err = d.DB.View(func(txn *badger.Txn) error {
		item, gerr := txn.Get(personListMetaKey(owner, uint16(k)))
		if gerr != nil {
			return gerr
		}
		return item.Value(func(val []byte) error {
			md = &PersonListMetadata{}
			return json.Unmarshal(val, md)
		})
	})
	if err == badger.ErrKeyNotFound {
		err = ErrNotFound
	}
	return
}

// UpsertPersonListMetadata writes md for (owner, md.Kind).
func (d *D) UpsertPersonListMetadata(owner []byte, md *PersonListMetadata) (err error) {
	var b []byte
	if b, err = json.Marshal(md); chk.E(err) {
		return
	}
	return d.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(personListMetaKey(owner, uint16(md.Kind)), b)
	})
}

// personListMembers is the persisted member map: pubkey(hex) -> private flag.
type personListMembers map[string]bool

// GetPersonListMembers returns the pubkey -> private-flag map for (owner, kind).
func (d *D) GetPersonListMembers(owner []byte, k PersonListKind) (members map[string]bool, err error) {
	err = d.DB.View(func(txn *badger.Txn) error {
		item, gerr := txn.Get(personListKey(owner, uint16(k)))
		if gerr != nil {
			if gerr == badger.ErrKeyNotFound {
				members = map[string]bool{}
				return nil
			}
			return gerr
		}
		return item.Value(func(val []byte) error {
			var m personListMembers
			if jerr := json.Unmarshal(val, &m); jerr != nil {
				return jerr
			}
			members = map[string]bool(m)
			return nil
		})
	})
	return
}

// SetPersonListMembers overwrites the full membership map for (owner, kind)
// and refreshes its metadata counts, matching a contact-list or mute-list
// replacement event (kind 3 / NIP-51 lists).
func (d *D) SetPersonListMembers(owner []byte, k PersonListKind, members map[string]bool, eventCreatedAt int64) (err error) {
	var b []byte
	if b, err = json.Marshal(personListMembers(members)); chk.E(err) {
		return
	}
	if err = d.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(personListKey(owner, uint16(k)), b)
	}); chk.E(err) {
		return
	}
	md, gerr := d.GetPersonListMetadata(owner, k)
	if gerr != nil {
		md = &PersonListMetadata{Kind: k}
	}
	md.EventCreatedAt = eventCreatedAt
	md.LastEditTime = nowUnix()
	md.TotalCount = len(members)
	private := 0
	for _, isPrivate := range members {
		if isPrivate {
			private++
		}
	}
	md.PrivateCount = private
	return d.UpsertPersonListMetadata(owner, md)
}

// AddMutedAuthor adds pubkey to owner's Muted list as a local action (not a
// published list replacement), preserving the list's last-published
// EventCreatedAt so a later kind-10000 publish doesn't look falsely stale
// (spec.md §4.3 FilterHook MuteAuthor outcome).
func (d *D) AddMutedAuthor(owner, pubkey []byte) (err error) {
	members, err := d.GetPersonListMembers(owner, ListMuted)
	if chk.E(err) {
		return
	}
	key := hexOf(pubkey)
	if _, already := members[key]; already {
		return nil
	}
	members[key] = false
	var eventCreatedAt int64
	if md, merr := d.GetPersonListMetadata(owner, ListMuted); merr == nil && md != nil {
		eventCreatedAt = md.EventCreatedAt
	}
	return d.SetPersonListMembers(owner, ListMuted, members, eventCreatedAt)
}

// IsFollowed reports whether pubkey is a member of owner's Followed list.
func (d *D) IsFollowed(owner, pubkey []byte) (yes bool, err error) {
	members, err := d.GetPersonListMembers(owner, ListFollowed)
	if chk.E(err) {
		return
	}
	_, yes = members[hexOf(pubkey)]
	return
}
