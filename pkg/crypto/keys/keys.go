// Package keys provides secp256k1 keypair generation and BIP-340 schnorr
// signing/verification over the 32 byte public/private key representation
// used throughout the wire protocol (event.E.Pubkey/Sig).
package keys

import (
	"lol.mleku.dev/chk"
	"lol.mleku.dev/errorf"

	"github.com/mikedilger/gossip-sub003/pkg/crypto/ec/schnorr"
	"github.com/mikedilger/gossip-sub003/pkg/crypto/ec/secp256k1"
)

// KeyLen is the length in bytes of both public and private keys as carried
// on the wire (x-only public key, raw scalar private key).
const KeyLen = 32

// Generate creates a new random secp256k1 keypair, returning the raw
// 32 byte secret scalar and the raw 32 byte x-only public key.
func Generate() (sk, pk []byte, err error) {
	var priv *secp256k1.SecretKey
	if priv, err = secp256k1.GenerateSecretKey(); chk.E(err) {
		return
	}
	sk = priv.Serialize()
	pub := secp256k1.PubKey(priv)
	pk = schnorr.SerializePubKey(pub)
	return
}

// SecretToPublic derives the raw 32 byte x-only public key from a raw
// 32 byte secret scalar.
func SecretToPublic(sk []byte) (pk []byte, err error) {
	if len(sk) != KeyLen {
		err = errorf.E("secret key must be %d bytes, got %d", KeyLen, len(sk))
		return
	}
	priv := secp256k1.SecKeyFromBytes(sk)
	pub := secp256k1.PubKey(priv)
	pk = schnorr.SerializePubKey(pub)
	return
}

// Sign produces a BIP-340 schnorr signature over hash using the raw secret
// key sk.
func Sign(hash, sk []byte) (sig []byte, err error) {
	if len(sk) != KeyLen {
		err = errorf.E("secret key must be %d bytes, got %d", KeyLen, len(sk))
		return
	}
	priv := secp256k1.SecKeyFromBytes(sk)
	return schnorr.Sign(hash, priv)
}

// Verify reports whether sig is a valid BIP-340 schnorr signature over hash
// by the holder of public key pk.
func Verify(sig, hash, pk []byte) (valid bool, err error) {
	return schnorr.Verify(sig, hash, pk)
}

// ECDH computes the X coordinate of the shared point sk*Pk, as used by
// NIP-04 and as the input to NIP-44's HKDF conversation key derivation.
// The counterparty public key is expected in 32 byte x-only form and is
// lifted to an even-Y point per BIP-340 convention, matching how both
// NIPs define the shared secret over nostr's x-only keys.
func ECDH(sk, pk []byte) (shared []byte, err error) {
	if len(sk) != KeyLen {
		err = errorf.E("secret key must be %d bytes, got %d", KeyLen, len(sk))
		return
	}
	var pub *secp256k1.PublicKey
	if pub, err = schnorr.ParsePubKey(pk); chk.E(err) {
		return
	}
	priv := secp256k1.SecKeyFromBytes(sk)
	return secp256k1.ECDH(priv, pub)
}
