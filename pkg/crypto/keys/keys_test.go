package keys

import (
	"testing"

	"lol.mleku.dev/chk"

	"github.com/mikedilger/gossip-sub003/pkg/crypto/sha256"
)

func TestSignVerify(t *testing.T) {
	sk, pk, err := Generate()
	if chk.E(err) {
		t.Fatal(err)
	}
	hash := sha256.Sum256([]byte("hello world"))
	sig, err := Sign(hash[:], sk)
	if chk.E(err) {
		t.Fatal(err)
	}
	ok, err := Verify(sig, hash[:], pk)
	if chk.E(err) {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected signature to verify")
	}
	pk2, err := SecretToPublic(sk)
	if chk.E(err) {
		t.Fatal(err)
	}
	if string(pk) != string(pk2) {
		t.Fatal("SecretToPublic mismatch with Generate's returned pubkey")
	}
}

func TestECDHAgreement(t *testing.T) {
	skA, pkA, err := Generate()
	if chk.E(err) {
		t.Fatal(err)
	}
	skB, pkB, err := Generate()
	if chk.E(err) {
		t.Fatal(err)
	}
	sharedA, err := ECDH(skA, pkB)
	if chk.E(err) {
		t.Fatal(err)
	}
	sharedB, err := ECDH(skB, pkA)
	if chk.E(err) {
		t.Fatal(err)
	}
	if string(sharedA) != string(sharedB) {
		t.Fatal("ECDH shared secrets do not agree")
	}
}
