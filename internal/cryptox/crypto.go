// Package cryptox holds the key derivation, verifier and AEAD helpers used
// to protect account secrets and vault records.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"

	"github.com/dmitrijs2005/cyphervault/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of per-account salts in bytes.
const SaltSize = 16

// Params are the Argon2id cost parameters. They are stored next to every
// verifier so accounts keep working when the defaults change.
type Params struct {
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"`
	Threads uint8  `json:"threads"`
	KeyLen  uint32 `json:"keyLen"`
}

// DefaultParams is the production cost: 64 MiB, one pass, AES-256 key size.
var DefaultParams = Params{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32}

func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// DeriveKey stretches secret with Argon2id.
func DeriveKey(secret, salt []byte, p Params) []byte {
	return argon2.IDKey(secret, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

// MakeVerifier returns a digest of a derived key that can be stored and
// compared without revealing the key itself.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// CheckVerifier reports in constant time whether key matches verifier.
func CheckVerifier(key, verifier []byte) bool {
	return subtle.ConstantTimeCompare(MakeVerifier(key), verifier) == 1
}

// EncryptEntry serializes entry to JSON and seals it with AES-GCM under key
// (16, 24 or 32 bytes). A fresh 12-byte nonce is returned with the ciphertext.
func EncryptEntry(entry any, key []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(entry)
	if err != nil {
		return nil, nil, err
	}
	defer common.WipeByteArray(plaintext)

	nonce = make([]byte, 12)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// DecryptEntry opens ciphertext produced by EncryptEntry and unmarshals the
// JSON payload into v.
func DecryptEntry(ciphertext, nonce, key []byte, v any) error {
	aesgcm, err := newGCM(key)
	if err != nil {
		return err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(plaintext)

	return json.Unmarshal(plaintext, v)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
