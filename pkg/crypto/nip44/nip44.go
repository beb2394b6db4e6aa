// Package nip44 implements the NIP-44 v2 direct-message cipher: a
// conversation key derived by HKDF over an ECDH shared secret, per-message
// subkeys, ChaCha20 encryption, HMAC-SHA256 authentication and the
// protocol's custom padding scheme.
package nip44

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"math"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/errorf"

	"github.com/mikedilger/gossip-sub003/pkg/crypto/keys"
	"github.com/mikedilger/gossip-sub003/pkg/crypto/sha256"
)

const (
	version    = 2
	saltString = "nip44-v2"
	minPlain   = 1
	maxPlain   = 0xffff
)

// ConversationKey derives the 32 byte conversation key shared between the
// holder of sk and the holder of pk, reusable across many messages.
func ConversationKey(sk, pk []byte) (key []byte, err error) {
	var shared []byte
	if shared, err = keys.ECDH(sk, pk); chk.E(err) {
		return
	}
	reader := hkdf.New(sha256.New, shared, []byte(saltString), nil)
	key = make([]byte, 32)
	if _, err = io.ReadFull(reader, key); chk.E(err) {
		return
	}
	return
}

// messageKeys expands the conversation key with the per-message nonce into
// the ChaCha20 key, the ChaCha20 nonce and the HMAC key.
func messageKeys(conversationKey, nonce []byte) (chachaKey, chachaNonce, hmacKey []byte, err error) {
	reader := hkdf.New(sha256.New, conversationKey, nonce, nil)
	expanded := make([]byte, 76)
	if _, err = io.ReadFull(reader, expanded); chk.E(err) {
		return
	}
	chachaKey = expanded[0:32]
	chachaNonce = expanded[32:44]
	hmacKey = expanded[44:76]
	return
}

// calcPaddedLen implements NIP-44's padding bucket scheme: round up to the
// next power-of-two-adjacent bucket so ciphertext lengths leak less about
// the plaintext length.
func calcPaddedLen(n int) int {
	if n <= 32 {
		return 32
	}
	nextPower := int(math.Pow(2, math.Floor(math.Log2(float64(n-1)))+1))
	var chunk int
	if nextPower <= 256 {
		chunk = 32
	} else {
		chunk = nextPower / 8
	}
	return chunk * ((n-1)/chunk + 1)
}

func pad(plain []byte) []byte {
	unpaddedLen := len(plain)
	prefix := make([]byte, 2)
	prefix[0] = byte(unpaddedLen >> 8)
	prefix[1] = byte(unpaddedLen)
	padded := make([]byte, calcPaddedLen(unpaddedLen)-unpaddedLen)
	out := append(prefix, plain...)
	out = append(out, padded...)
	return out
}

func unpad(padded []byte) (plain []byte, err error) {
	if len(padded) < 2 {
		err = errorf.E("nip44: padded plaintext too short")
		return
	}
	unpaddedLen := int(padded[0])<<8 | int(padded[1])
	if unpaddedLen < minPlain || unpaddedLen > maxPlain {
		err = errorf.E("nip44: invalid unpadded length %d", unpaddedLen)
		return
	}
	if 2+unpaddedLen > len(padded) {
		err = errorf.E("nip44: declared length exceeds padded buffer")
		return
	}
	if len(padded) != 2+calcPaddedLen(unpaddedLen) {
		err = errorf.E("nip44: padding length mismatch")
		return
	}
	plain = padded[2 : 2+unpaddedLen]
	return
}

// Encrypt encrypts plaintext under conversationKey, returning the
// base64-encoded NIP-44 v2 payload.
func Encrypt(plaintext string, conversationKey []byte) (payload string, err error) {
	nonce := make([]byte, 32)
	if _, err = rand.Read(nonce); chk.E(err) {
		return
	}
	return encryptWithNonce(plaintext, conversationKey, nonce)
}

func encryptWithNonce(plaintext string, conversationKey, nonce []byte) (payload string, err error) {
	if len(plaintext) < minPlain || len(plaintext) > maxPlain {
		err = errorf.E("nip44: plaintext length %d out of range", len(plaintext))
		return
	}
	chachaKey, chachaNonce, hmacKey, err := messageKeys(conversationKey, nonce)
	if chk.E(err) {
		return
	}
	padded := pad([]byte(plaintext))
	stream, err := chacha20.NewUnauthenticatedCipher(chachaKey, chachaNonce)
	if chk.E(err) {
		return
	}
	ciphertext := make([]byte, len(padded))
	stream.XORKeyStream(ciphertext, padded)
	mac := hmacSha256(hmacKey, nonce, ciphertext)
	out := make([]byte, 0, 1+len(nonce)+len(ciphertext)+len(mac))
	out = append(out, byte(version))
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	out = append(out, mac...)
	payload = base64.StdEncoding.EncodeToString(out)
	return
}

// Decrypt reverses Encrypt given conversationKey and the base64 payload.
func Decrypt(payload string, conversationKey []byte) (plaintext string, err error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if chk.E(err) {
		return
	}
	if len(raw) < 1+32+32 {
		err = errorf.E("nip44: payload too short")
		return
	}
	if raw[0] != version {
		err = errorf.E("nip44: unsupported version %d", raw[0])
		return
	}
	nonce := raw[1:33]
	mac := raw[len(raw)-32:]
	ciphertext := raw[33 : len(raw)-32]
	chachaKey, chachaNonce, hmacKey, err := messageKeys(conversationKey, nonce)
	if chk.E(err) {
		return
	}
	expectedMac := hmacSha256(hmacKey, nonce, ciphertext)
	if !hmac.Equal(mac, expectedMac) {
		err = errors.New("nip44: mac mismatch")
		return
	}
	stream, err := chacha20.NewUnauthenticatedCipher(chachaKey, chachaNonce)
	if chk.E(err) {
		return
	}
	padded := make([]byte, len(ciphertext))
	stream.XORKeyStream(padded, ciphertext)
	var plain []byte
	if plain, err = unpad(padded); chk.E(err) {
		return
	}
	plaintext = string(plain)
	return
}

func hmacSha256(key []byte, parts ...[]byte) []byte {
	mac := hmac.New(sha256.New, key)
	for _, p := range parts {
		mac.Write(p)
	}
	return mac.Sum(nil)
}
