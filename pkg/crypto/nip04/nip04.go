// Package nip04 implements the legacy NIP-04 direct-message cipher:
// AES-256-CBC under an ECDH shared secret, base64-framed as
// "<ciphertext>?iv=<iv>". It is superseded by nip44 but is still required
// to read DMs from older clients.
package nip04

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"strings"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/errorf"

	"github.com/mikedilger/gossip-sub003/pkg/crypto/keys"
	"github.com/mikedilger/gossip-sub003/pkg/crypto/sha256"
)

// sharedKey derives the AES key as sha256(ecdh(sk, pk)), per NIP-04.
func sharedKey(sk, pk []byte) (key []byte, err error) {
	var shared []byte
	if shared, err = keys.ECDH(sk, pk); chk.E(err) {
		return
	}
	sum := sha256.Sum256(shared)
	key = sum[:]
	return
}

// Encrypt encrypts plaintext to the counterparty public key pk using our
// secret key sk, returning the "<base64 ciphertext>?iv=<base64 iv>" form.
func Encrypt(plaintext string, sk, pk []byte) (result string, err error) {
	var key []byte
	if key, err = sharedKey(sk, pk); chk.E(err) {
		return
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	iv := make([]byte, aes.BlockSize)
	if _, err = rand.Read(iv); chk.E(err) {
		return
	}
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, padded)
	result = base64.StdEncoding.EncodeToString(ciphertext) + "?iv=" +
		base64.StdEncoding.EncodeToString(iv)
	return
}

// Decrypt reverses Encrypt given the counterparty public key pk and our
// secret key sk.
func Decrypt(content string, sk, pk []byte) (plaintext string, err error) {
	parts := strings.SplitN(content, "?iv=", 2)
	if len(parts) != 2 {
		err = errorf.E("nip04: malformed ciphertext, missing iv")
		return
	}
	ciphertext, err := base64.StdEncoding.DecodeString(parts[0])
	if chk.E(err) {
		return
	}
	iv, err := base64.StdEncoding.DecodeString(parts[1])
	if chk.E(err) {
		return
	}
	if len(iv) != aes.BlockSize {
		err = errorf.E("nip04: invalid iv length %d", len(iv))
		return
	}
	var key []byte
	if key, err = sharedKey(sk, pk); chk.E(err) {
		return
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		err = errorf.E("nip04: invalid ciphertext length %d", len(ciphertext))
		return
	}
	padded := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(padded, ciphertext)
	unpadded, err := pkcs7Unpad(padded, aes.BlockSize)
	if chk.E(err) {
		return
	}
	plaintext = string(unpadded)
	return
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := make([]byte, padLen)
	for i := range padding {
		padding[i] = byte(padLen)
	}
	return append(data, padding...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, errorf.E("nip04: empty plaintext")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, errorf.E("nip04: invalid padding")
	}
	return data[:len(data)-padLen], nil
}
