package nip04

import (
	"testing"

	"lol.mleku.dev/chk"

	"github.com/mikedilger/gossip-sub003/pkg/crypto/keys"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	skA, _, err := keys.Generate()
	if chk.E(err) {
		t.Fatal(err)
	}
	skB, pkB, err := keys.Generate()
	if chk.E(err) {
		t.Fatal(err)
	}
	msg := "hello from nip04"
	ct, err := Encrypt(msg, skA, pkB)
	if chk.E(err) {
		t.Fatal(err)
	}
	pkA, err := keys.SecretToPublic(skA)
	if chk.E(err) {
		t.Fatal(err)
	}
	pt, err := Decrypt(ct, skB, pkA)
	if chk.E(err) {
		t.Fatal(err)
	}
	if pt != msg {
		t.Fatalf("round trip mismatch: %q != %q", msg, pt)
	}
}
