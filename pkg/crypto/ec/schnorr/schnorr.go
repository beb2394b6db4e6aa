// Package schnorr re-exports the BIP-340 schnorr primitives from btcec used
// throughout the identity and wire-encoding layers, so call sites never
// import btcsuite directly.
package schnorr

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// PubKeyBytesLen is the length in bytes of a BIP-340 x-only public key, and
// therefore of a nostr event's Pubkey and an author/authors filter field.
const PubKeyBytesLen = schnorr.PubKeyBytesLen

// SignatureSize is the length in bytes of a BIP-340 schnorr signature.
const SignatureSize = schnorr.SignatureSize

// ParsePubKey parses a 32-byte x-only public key.
func ParsePubKey(pubKey []byte) (*btcec.PublicKey, error) {
	return schnorr.ParsePubKey(pubKey)
}

// SerializePubKey renders pub as its 32-byte x-only encoding.
func SerializePubKey(pub *btcec.PublicKey) []byte {
	return schnorr.SerializePubKey(pub)
}

// Sign produces a BIP-340 schnorr signature over hash using sk.
func Sign(hash []byte, sk *btcec.PrivateKey) ([]byte, error) {
	sig, err := schnorr.Sign(sk, hash)
	if err != nil {
		return nil, err
	}
	return sig.Serialize(), nil
}

// Verify checks a BIP-340 schnorr signature sig over hash by pubKey.
func Verify(sig []byte, hash []byte, pubKey []byte) (bool, error) {
	s, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false, err
	}
	pk, err := schnorr.ParsePubKey(pubKey)
	if err != nil {
		return false, err
	}
	return s.Verify(hash, pk), nil
}
