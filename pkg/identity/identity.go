// Package identity owns the user's public key and, when private,
// optionally an encrypted private key. It exposes the locked/unlocked
// state machine, event signing, NIP-04/NIP-44 encryption and giftwrap
// unwrapping described by the core engine spec.
package identity

import (
	"sync"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/errorf"
	"lol.mleku.dev/log"

	"github.com/mikedilger/gossip-sub003/pkg/crypto/keys"
	"github.com/mikedilger/gossip-sub003/pkg/crypto/nip04"
	"github.com/mikedilger/gossip-sub003/pkg/crypto/nip44"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
)

// Kind enumerates the three identity states.
type Kind int

const (
	// None means no public key has been set.
	None Kind = iota
	// PublicOnly means a public key is known but no signer is available.
	PublicOnly
	// Private means a (possibly locked) private key blob is present.
	Private
)

var (
	// ErrLocked is returned by signing/decryption operations when the
	// private key blob has not yet been unlocked.
	ErrLocked = errorf.E("identity: locked")
	// ErrWrongPassword is returned by unlock when the passphrase does not
	// decrypt the stored blob.
	ErrWrongPassword = errorf.E("identity: wrong password")
	// ErrNoPrivateKey is returned by SignEventWithPow when no key is
	// present; the other private-key operations report ErrLocked instead.
	ErrNoPrivateKey = errorf.E("identity: no private key present")
	// ErrHasPrivateKey is returned by set_public_key/clear_public_key while
	// a private key is present.
	ErrHasPrivateKey = errorf.E("identity: private key already present")
)

// UnlockSideEffects are the three things that must happen after a
// successful unlock: callers observe them via the channel returned from
// Unlock and react (re-render DM feed, re-evaluate bookmarks, re-index
// pending giftwraps).
type UnlockSideEffects struct {
	// ReindexGiftwraps carries ids previously deferred to the
	// unindexed-giftwraps side table, now unlockable.
	ReindexGiftwraps [][]byte
}

// I is the identity state machine. All exported methods are safe for
// concurrent use.
type I struct {
	mu sync.RWMutex

	kind Kind

	publicKey []byte

	blob      *EncryptedBlob
	secretKey []byte // resident only while unlocked

	// pendingGiftwraps holds ids ingested while locked; drained on Unlock.
	pendingGiftwraps [][]byte
}

// New creates an empty identity in the None state.
func New() *I { return &I{kind: None} }

// State reports the current identity state.
func (id *I) State() Kind {
	id.mu.RLock()
	defer id.mu.RUnlock()
	return id.kind
}

// PublicKey returns the current public key, or nil if None.
func (id *I) PublicKey() []byte {
	id.mu.RLock()
	defer id.mu.RUnlock()
	return id.publicKey
}

// IsUnlocked reports whether private key material is currently resident.
func (id *I) IsUnlocked() bool {
	id.mu.RLock()
	defer id.mu.RUnlock()
	return id.secretKey != nil
}

// SetPublicKey sets a bare public key (PublicOnly state). It is rejected
// while a private key blob is present.
func (id *I) SetPublicKey(pk []byte) (err error) {
	id.mu.Lock()
	defer id.mu.Unlock()
	if id.blob != nil {
		err = ErrHasPrivateKey
		return
	}
	id.publicKey = pk
	id.kind = PublicOnly
	return
}

// ClearPublicKey reverts the identity to None. Rejected while a private
// key blob is present.
func (id *I) ClearPublicKey() (err error) {
	id.mu.Lock()
	defer id.mu.Unlock()
	if id.blob != nil {
		err = ErrHasPrivateKey
		return
	}
	id.publicKey = nil
	id.kind = None
	return
}

// SetEncryptedPrivateKey encrypts sk under pass and installs the blob,
// deriving the public key immediately. The plaintext key also stays
// resident, so the identity is unlocked on return until Lock is called.
// Older-format blobs are silently re-encrypted with current parameters the
// first time they are unlocked.
func (id *I) SetEncryptedPrivateKey(pass string, sk []byte) (err error) {
	id.mu.Lock()
	defer id.mu.Unlock()
	var pk []byte
	if pk, err = keys.SecretToPublic(sk); chk.E(err) {
		return
	}
	var blob *EncryptedBlob
	if blob, err = Encrypt(sk, pass, DefaultLogN); chk.E(err) {
		return
	}
	id.blob = blob
	id.publicKey = pk
	id.secretKey = sk
	id.kind = Private
	return
}

// LoadEncryptedBlob installs a previously-persisted encrypted blob (e.g.
// loaded from the store at startup) in the locked state.
func (id *I) LoadEncryptedBlob(pk []byte, blob *EncryptedBlob) {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.publicKey = pk
	id.blob = blob
	id.secretKey = nil
	id.kind = Private
}

// Unlock decrypts the stored blob with pass, making signing/decryption
// operations available. On success it drains and returns the set of
// giftwrap ids that were deferred while locked.
func (id *I) Unlock(pass string) (effects UnlockSideEffects, err error) {
	id.mu.Lock()
	defer id.mu.Unlock()
	if id.blob == nil {
		err = ErrLocked
		return
	}
	var sk []byte
	if sk, err = Decrypt(id.blob, pass); err != nil {
		err = ErrWrongPassword
		return
	}
	if id.blob.LogN != DefaultLogN {
		var reblob *EncryptedBlob
		if reblob, err = Encrypt(sk, pass, DefaultLogN); chk.E(err) {
			err = nil // re-encryption failure is not fatal to unlock
		} else {
			id.blob = reblob
		}
	}
	id.secretKey = sk
	effects.ReindexGiftwraps = id.pendingGiftwraps
	id.pendingGiftwraps = nil
	log.I.F("identity: unlocked")
	return
}

// Lock discards resident key material, returning to the locked state.
func (id *I) Lock() {
	id.mu.Lock()
	defer id.mu.Unlock()
	zero(id.secretKey)
	id.secretKey = nil
}

// ChangePassphrase re-encrypts the resident private key under a new
// passphrase in place.
func (id *I) ChangePassphrase(oldPass, newPass string) (err error) {
	id.mu.Lock()
	defer id.mu.Unlock()
	if id.secretKey == nil {
		err = ErrLocked
		return
	}
	if _, err = Decrypt(id.blob, oldPass); err != nil {
		err = ErrWrongPassword
		return
	}
	var blob *EncryptedBlob
	if blob, err = Encrypt(id.secretKey, newPass, DefaultLogN); chk.E(err) {
		return
	}
	id.blob = blob
	return
}

// DeleteIdentity zeroizes all key material and resets to None.
func (id *I) DeleteIdentity() {
	id.mu.Lock()
	defer id.mu.Unlock()
	zero(id.secretKey)
	if id.blob != nil {
		zero(id.blob.Ciphertext)
	}
	id.secretKey = nil
	id.blob = nil
	id.publicKey = nil
	id.kind = None
}

// DeferGiftwrap records an id in the unindexed-giftwraps side table
// because the identity is currently locked; it is returned by the next
// successful Unlock.
func (id *I) DeferGiftwrap(eventID []byte) {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.pendingGiftwraps = append(id.pendingGiftwraps, eventID)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// SignEvent signs pre (already populated except ID/Sig) with the resident
// private key, computing the id hash and BIP-340 signature.
func (id *I) SignEvent(pre *event.E) (err error) {
	id.mu.RLock()
	sk := id.secretKey
	pk := id.publicKey
	id.mu.RUnlock()
	if sk == nil {
		err = ErrLocked
		return
	}
	pre.Pubkey = pk
	hash := pre.GetIDBytes()
	pre.ID = hash
	var sig []byte
	if sig, err = keys.Sign(hash, sk); chk.E(err) {
		return
	}
	pre.Sig = sig
	return
}

// SignEventWithPow grinds a "nonce" tag into pre until the resulting id has
// at least zeroBits leading zero bits, reporting progress (bits achieved so
// far) on the optional progress channel, then signs the result.
func (id *I) SignEventWithPow(pre *event.E, zeroBits int, progress chan<- int) (err error) {
	if zeroBits <= 0 {
		return id.SignEvent(pre)
	}
	id.mu.RLock()
	pk := id.publicKey
	id.mu.RUnlock()
	if pk == nil {
		err = ErrNoPrivateKey
		return
	}
	pre.Pubkey = pk
	var nonce uint64
	for {
		setNonceTag(pre, nonce, zeroBits)
		hash := pre.GetIDBytes()
		bits := leadingZeroBits(hash)
		if progress != nil {
			select {
			case progress <- bits:
			default:
			}
		}
		if bits >= zeroBits {
			pre.ID = hash
			break
		}
		nonce++
	}
	id.mu.RLock()
	sk := id.secretKey
	id.mu.RUnlock()
	if sk == nil {
		err = ErrLocked
		return
	}
	var sig []byte
	if sig, err = keys.Sign(pre.ID, sk); chk.E(err) {
		return
	}
	pre.Sig = sig
	return
}

func leadingZeroBits(hash []byte) (n int) {
	for _, b := range hash {
		if b == 0 {
			n += 8
			continue
		}
		for mask := byte(0x80); mask != 0; mask >>= 1 {
			if b&mask != 0 {
				return
			}
			n++
		}
		return
	}
	return
}

// Nip04Encrypt encrypts plaintext to other using NIP-04.
func (id *I) Nip04Encrypt(plaintext string, other []byte) (ct string, err error) {
	id.mu.RLock()
	sk := id.secretKey
	id.mu.RUnlock()
	if sk == nil {
		err = ErrLocked
		return
	}
	return nip04.Encrypt(plaintext, sk, other)
}

// Nip04Decrypt decrypts ciphertext from other using NIP-04.
func (id *I) Nip04Decrypt(ciphertext string, other []byte) (pt string, err error) {
	id.mu.RLock()
	sk := id.secretKey
	id.mu.RUnlock()
	if sk == nil {
		err = ErrLocked
		return
	}
	return nip04.Decrypt(ciphertext, sk, other)
}

// Nip44ConversationKey exposes the intermediate HKDF conversation key with
// other for reuse across multiple messages.
func (id *I) Nip44ConversationKey(other []byte) (key []byte, err error) {
	id.mu.RLock()
	sk := id.secretKey
	id.mu.RUnlock()
	if sk == nil {
		err = ErrLocked
		return
	}
	return nip44.ConversationKey(sk, other)
}

// Nip44Encrypt encrypts plaintext to other using NIP-44 v2.
func (id *I) Nip44Encrypt(plaintext string, other []byte) (ct string, err error) {
	var key []byte
	if key, err = id.Nip44ConversationKey(other); chk.E(err) {
		return
	}
	return nip44.Encrypt(plaintext, key)
}

// Nip44Decrypt decrypts ciphertext from other using NIP-44 v2.
func (id *I) Nip44Decrypt(ciphertext string, other []byte) (pt string, err error) {
	var key []byte
	if key, err = id.Nip44ConversationKey(other); chk.E(err) {
		return
	}
	return nip44.Decrypt(ciphertext, key)
}
