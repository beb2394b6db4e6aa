package nip44

import (
	"strings"
	"testing"

	"lol.mleku.dev/chk"

	"github.com/mikedilger/gossip-sub003/pkg/crypto/keys"
)

func TestConversationKeyAgreement(t *testing.T) {
	skA, pkA, err := keys.Generate()
	if chk.E(err) {
		t.Fatal(err)
	}
	skB, pkB, err := keys.Generate()
	if chk.E(err) {
		t.Fatal(err)
	}
	ckA, err := ConversationKey(skA, pkB)
	if chk.E(err) {
		t.Fatal(err)
	}
	ckB, err := ConversationKey(skB, pkA)
	if chk.E(err) {
		t.Fatal(err)
	}
	if string(ckA) != string(ckB) {
		t.Fatal("conversation keys do not agree")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	skA, _, err := keys.Generate()
	if chk.E(err) {
		t.Fatal(err)
	}
	skB, pkB, err := keys.Generate()
	if chk.E(err) {
		t.Fatal(err)
	}
	ck, err := ConversationKey(skA, pkB)
	if chk.E(err) {
		t.Fatal(err)
	}
	for _, msg := range []string{
		"a",
		"hello world",
		strings.Repeat("x", 1000),
	} {
		payload, err := Encrypt(msg, ck)
		if chk.E(err) {
			t.Fatal(err)
		}
		ck2, err := ConversationKey(skB, mustPub(t, skA))
		if chk.E(err) {
			t.Fatal(err)
		}
		plain, err := Decrypt(payload, ck2)
		if chk.E(err) {
			t.Fatal(err)
		}
		if plain != msg {
			t.Fatalf("round trip mismatch for len %d: %q != %q", len(msg), msg, plain)
		}
	}
}

func mustPub(t *testing.T, sk []byte) []byte {
	t.Helper()
	pk, err := keys.SecretToPublic(sk)
	if chk.E(err) {
		t.Fatal(err)
	}
	return pk
}
