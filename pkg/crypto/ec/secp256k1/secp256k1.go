// Package secp256k1 re-exports the secp256k1 key types from btcec used by
// the identity and signing layers, so call sites never import btcsuite
// directly.
package secp256k1

import (
	"github.com/btcsuite/btcd/btcec/v2"
)

// SharedSecretSize is the length in bytes of an ECDH shared secret
// (the X coordinate of the shared point).
const SharedSecretSize = 32

// SecretKey is a secp256k1 private key.
type SecretKey = btcec.PrivateKey

// PublicKey is a secp256k1 public key.
type PublicKey = btcec.PublicKey

// GenerateSecretKey generates a new random secp256k1 private key.
func GenerateSecretKey() (*SecretKey, error) {
	return btcec.NewPrivateKey()
}

// SecKeyFromBytes parses a 32-byte private key.
func SecKeyFromBytes(b []byte) *SecretKey {
	return secKeyFromBytes(b)
}

func secKeyFromBytes(b []byte) *SecretKey {
	sk, _ := btcec.PrivKeyFromBytes(b)
	return sk
}

// PubKey returns the public key corresponding to sk.
func PubKey(sk *SecretKey) *PublicKey { return sk.PubKey() }

// ECDH computes the X coordinate of sk*pub, the shared secret used by
// NIP-04 and as NIP-44's HKDF input.
func ECDH(sk *SecretKey, pub *PublicKey) (shared []byte, err error) {
	var point btcec.JacobianPoint
	pub.AsJacobian(&point)
	var result btcec.JacobianPoint
	btcec.ScalarMultNonConst(&sk.Key, &point, &result)
	result.ToAffine()
	x := result.X.Bytes()
	shared = x[:]
	return
}
