package identity

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"golang.org/x/crypto/scrypt"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/errorf"
)

// DefaultLogN is the current scrypt work factor (N = 2^DefaultLogN) used
// when encrypting a freshly-set or re-encrypted private key blob.
const DefaultLogN = 18

const (
	saltLen = 16
	keyLen  = 32
)

// EncryptedBlob is the persisted, encrypted form of a private key: a
// scrypt-derived AES-256-GCM ciphertext keyed by the user's passphrase.
type EncryptedBlob struct {
	LogN       uint8
	Salt       []byte
	Nonce      []byte
	Ciphertext []byte
}

// Encrypt derives a key from pass via scrypt with work factor 2^logN and
// seals sk with AES-256-GCM.
func Encrypt(sk []byte, pass string, logN uint8) (blob *EncryptedBlob, err error) {
	salt := make([]byte, saltLen)
	if _, err = rand.Read(salt); chk.E(err) {
		return
	}
	var key []byte
	if key, err = scrypt.Key([]byte(pass), salt, 1<<logN, 8, 1, keyLen); chk.E(err) {
		return
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err = rand.Read(nonce); chk.E(err) {
		return
	}
	ciphertext := gcm.Seal(nil, nonce, sk, nil)
	blob = &EncryptedBlob{
		LogN:       logN,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}
	return
}

// Decrypt reverses Encrypt. When the passphrase does not match it returns
// the AES-GCM open error; callers report that as ErrWrongPassword.
func Decrypt(blob *EncryptedBlob, pass string) (sk []byte, err error) {
	if blob == nil {
		err = errorf.E("identity: no encrypted blob loaded")
		return
	}
	var key []byte
	if key, err = scrypt.Key(
		[]byte(pass), blob.Salt, 1<<blob.LogN, 8, 1, keyLen,
	); chk.E(err) {
		return
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if sk, err = gcm.Open(nil, blob.Nonce, blob.Ciphertext, nil); err != nil {
		return nil, err
	}
	return
}
