package identity

import (
	"encoding/json"

	"lol.mleku.dev/chk"
)

// generalStore is the slice of store.D this package needs: accept an
// interface, so pkg/identity never imports pkg/store.
type generalStore interface {
	GeneralGet(key string) ([]byte, error)
	GeneralSet(key string, val []byte) error
}

const identityKey = "identity"

type persisted struct {
	PublicKey []byte         `json:"public_key"`
	Blob      *EncryptedBlob `json:"blob,omitempty"`
}

// LoadFromStore restores whatever identity state (none, public-only, or a
// locked private blob) was last saved under gs, leaving id untouched if
// nothing has been persisted yet.
func LoadFromStore(id *I, gs generalStore) (err error) {
	raw, err := gs.GeneralGet(identityKey)
	if chk.E(err) || raw == nil {
		return nil
	}
	var p persisted
	if err = json.Unmarshal(raw, &p); chk.E(err) {
		return
	}
	if p.Blob != nil {
		id.LoadEncryptedBlob(p.PublicKey, p.Blob)
	} else if len(p.PublicKey) > 0 {
		err = id.SetPublicKey(p.PublicKey)
	}
	return
}

// SaveToStore persists id's current public key and, if present, its
// encrypted private key blob into gs.
func SaveToStore(id *I, gs generalStore) (err error) {
	id.mu.RLock()
	p := persisted{PublicKey: id.publicKey, Blob: id.blob}
	id.mu.RUnlock()
	raw, err := json.Marshal(p)
	if chk.E(err) {
		return
	}
	return gs.GeneralSet(identityKey, raw)
}
