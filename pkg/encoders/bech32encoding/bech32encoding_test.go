package bech32encoding

import (
	"testing"

	"lol.mleku.dev/chk"
	"lukechampine.com/frand"
)

func TestNpubRoundTrip(t *testing.T) {
	for range 100 {
		pk := frand.Bytes(32)
		npub, err := BinToNpub(pk)
		if chk.E(err) {
			t.Fatal(err)
		}
		pk2, err := NpubToBin(npub)
		if chk.E(err) {
			t.Fatal(err)
		}
		if string(pk) != string(pk2) {
			t.Fatalf("round trip mismatch: %x != %x", pk, pk2)
		}
		pk3, err := NpubOrHexToPublicKeyBinary(npub)
		if chk.E(err) {
			t.Fatal(err)
		}
		if string(pk) != string(pk3) {
			t.Fatalf("npub-or-hex round trip mismatch: %x != %x", pk, pk3)
		}
	}
}

func TestNsecRoundTrip(t *testing.T) {
	for range 100 {
		sk := frand.Bytes(32)
		nsec, err := BinToNsec(sk)
		if chk.E(err) {
			t.Fatal(err)
		}
		sk2, err := NsecToBin(nsec)
		if chk.E(err) {
			t.Fatal(err)
		}
		if string(sk) != string(sk2) {
			t.Fatalf("round trip mismatch: %x != %x", sk, sk2)
		}
	}
}

func TestNoteRoundTrip(t *testing.T) {
	id := frand.Bytes(32)
	note, err := BinToNote(id)
	if chk.E(err) {
		t.Fatal(err)
	}
	id2, err := NoteToBin(note)
	if chk.E(err) {
		t.Fatal(err)
	}
	if string(id) != string(id2) {
		t.Fatalf("round trip mismatch: %x != %x", id, id2)
	}
}

func TestWrongPrefixRejected(t *testing.T) {
	sk := frand.Bytes(32)
	nsec, err := BinToNsec(sk)
	if chk.E(err) {
		t.Fatal(err)
	}
	if _, err = NpubToBin(nsec); err == nil {
		t.Fatal("expected error decoding nsec as npub")
	}
}
