// Package bech32encoding implements the bech32 textual encoding (BIP-173)
// used by NIP-19 to render raw public keys, private keys and event IDs as
// the human-pasteable npub1/nsec1/note1 forms, and decodes them back.
package bech32encoding

import (
	"strings"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/errorf"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/hex"
)

const charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// HRP prefixes in use by this package.
const (
	HRPPublicKey  = "npub"
	HRPPrivateKey = "nsec"
	HRPNote       = "note"
)

func polymod(values []byte) uint32 {
	gen := [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk32 := uint32(1)
	for _, v := range values {
		b := byte(chk32 >> 25)
		chk32 = (chk32&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (b>>uint(i))&1 == 1 {
				chk32 ^= gen[i]
			}
		}
	}
	return chk32
}

func hrpExpand(hrp string) (v []byte) {
	for i := 0; i < len(hrp); i++ {
		v = append(v, hrp[i]>>5)
	}
	v = append(v, 0)
	for i := 0; i < len(hrp); i++ {
		v = append(v, hrp[i]&31)
	}
	return
}

func createChecksum(hrp string, data []byte) []byte {
	values := append(hrpExpand(hrp), data...)
	values = append(values, 0, 0, 0, 0, 0, 0)
	mod := polymod(values) ^ 1
	ret := make([]byte, 6)
	for i := 0; i < 6; i++ {
		ret[i] = byte((mod >> uint(5*(5-i))) & 31)
	}
	return ret
}

func verifyChecksum(hrp string, data []byte) bool {
	return polymod(append(hrpExpand(hrp), data...)) == 1
}

// convertBits regroups a slice of uintN values into uintM values (used to
// pack 8-bit bytes into 5-bit words and back).
func convertBits(data []byte, fromBits, toBits uint, pad bool) (ret []byte, err error) {
	acc, bits := uint32(0), uint(0)
	maxv := uint32(1)<<toBits - 1
	for _, value := range data {
		if uint32(value)>>fromBits != 0 {
			err = errorf.E("invalid data range for convertBits")
			return
		}
		acc = acc<<fromBits | uint32(value)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			ret = append(ret, byte(acc>>bits)&byte(maxv))
		}
	}
	if pad {
		if bits > 0 {
			ret = append(ret, byte(acc<<(toBits-bits))&byte(maxv))
		}
	} else if bits >= fromBits || byte(acc<<(toBits-bits))&byte(maxv) != 0 {
		err = errorf.E("invalid padding in convertBits")
		return
	}
	return
}

// Encode renders a human-readable prefix and a raw byte payload as a
// bech32 string.
func Encode(hrp string, data []byte) (s []byte, err error) {
	var five []byte
	if five, err = convertBits(data, 8, 5, true); chk.E(err) {
		return
	}
	combined := append(five, createChecksum(hrp, five)...)
	var sb strings.Builder
	sb.WriteString(hrp)
	sb.WriteByte('1')
	for _, b := range combined {
		sb.WriteByte(charset[b])
	}
	s = []byte(sb.String())
	return
}

// Decode splits a bech32 string into its human-readable prefix and raw
// byte payload.
func Decode(b []byte) (hrp string, data []byte, err error) {
	s := string(b)
	if len(s) < 8 || len(s) > 1023 {
		err = errorf.E("invalid bech32 string length %d", len(s))
		return
	}
	lower, upper := strings.ToLower(s), strings.ToUpper(s)
	if s != lower && s != upper {
		err = errorf.E("bech32 string has mixed case")
		return
	}
	s = lower
	pos := strings.LastIndex(s, "1")
	if pos < 1 || pos+7 > len(s) {
		err = errorf.E("invalid separator position in bech32 string")
		return
	}
	hrp = s[:pos]
	fiveBitChars := s[pos+1:]
	five := make([]byte, len(fiveBitChars))
	for i := 0; i < len(fiveBitChars); i++ {
		idx := strings.IndexByte(charset, fiveBitChars[i])
		if idx < 0 {
			err = errorf.E("invalid bech32 character %q", fiveBitChars[i])
			return
		}
		five[i] = byte(idx)
	}
	if !verifyChecksum(hrp, five) {
		err = errorf.E("invalid bech32 checksum")
		return
	}
	if data, err = convertBits(five[:len(five)-6], 5, 8, false); chk.E(err) {
		return
	}
	return
}

// BinToNpub encodes a raw 32 byte public key as an npub1... string.
func BinToNpub(pk []byte) (npub string, err error) {
	var b []byte
	if b, err = Encode(HRPPublicKey, pk); chk.E(err) {
		return
	}
	npub = string(b)
	return
}

// BinToNsec encodes a raw 32 byte private key as an nsec1... string.
func BinToNsec(sk []byte) (nsec string, err error) {
	var b []byte
	if b, err = Encode(HRPPrivateKey, sk); chk.E(err) {
		return
	}
	nsec = string(b)
	return
}

// BinToNote encodes a raw 32 byte event ID as a note1... string.
func BinToNote(id []byte) (note string, err error) {
	var b []byte
	if b, err = Encode(HRPNote, id); chk.E(err) {
		return
	}
	note = string(b)
	return
}

// NpubToBin decodes an npub1... string back to its raw 32 byte public key.
func NpubToBin(npub string) (pk []byte, err error) {
	var hrp string
	if hrp, pk, err = Decode([]byte(npub)); chk.E(err) {
		return
	}
	if hrp != HRPPublicKey {
		err = errorf.E("expected hrp %s, got %s", HRPPublicKey, hrp)
		return
	}
	return
}

// NsecToBin decodes an nsec1... string back to its raw 32 byte private key.
func NsecToBin(nsec string) (sk []byte, err error) {
	var hrp string
	if hrp, sk, err = Decode([]byte(nsec)); chk.E(err) {
		return
	}
	if hrp != HRPPrivateKey {
		err = errorf.E("expected hrp %s, got %s", HRPPrivateKey, hrp)
		return
	}
	return
}

// NoteToBin decodes a note1... string back to its raw 32 byte event ID.
func NoteToBin(note string) (id []byte, err error) {
	var hrp string
	if hrp, id, err = Decode([]byte(note)); chk.E(err) {
		return
	}
	if hrp != HRPNote {
		err = errorf.E("expected hrp %s, got %s", HRPNote, hrp)
		return
	}
	return
}

// NpubOrHexToPublicKeyBinary accepts either an npub1... bech32 string or a
// 64-character hex string and returns the raw 32 byte public key.
func NpubOrHexToPublicKeyBinary(s string) (pk []byte, err error) {
	if strings.HasPrefix(s, HRPPublicKey+"1") {
		return NpubToBin(s)
	}
	if pk, err = hex.Dec(s); chk.E(err) {
		return
	}
	if len(pk) != 32 {
		err = errorf.E("expected 32 byte public key, got %d", len(pk))
		return
	}
	return
}
