// Package sha256 re-exports the standard library SHA-256 implementation
// under the crypto subtree so event ID derivation and index keys share one
// import path with the rest of the crypto package family.
package sha256

import (
	"crypto/sha256"
	"hash"
)

// Size is the length in bytes of a SHA-256 digest, and thus of an event ID.
const Size = sha256.Size

// Sum256 returns the SHA-256 checksum of data.
func Sum256(data []byte) [Size]byte { return sha256.Sum256(data) }

// New returns a new hash.Hash computing the SHA-256 checksum, for use as
// the hash function parameter to HMAC and HKDF.
func New() hash.Hash { return sha256.New() }
