// Package cryptox implements the Cipher collaborator: symmetric encryption
// of note payloads keyed by a caller-supplied secret, plus the plaintext
// fingerprint used for optimistic concurrency.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"cryptora/internal/common"

	"golang.org/x/crypto/argon2"
)

const (
	saltSize  = 16
	nonceSize = 12
)

// Cipher turns plaintext into ciphertext and back, keyed by a secret the
// caller supplies on every invocation. Implementations must not retain the
// secret beyond the duration of a single call.
type Cipher interface {
	Encrypt(plaintext, secret string) (string, error)
	Decrypt(ciphertext, secret string) (string, error)
}

// AESGCM is the built-in Cipher: argon2id key derivation with a per-message
// random salt, AES-256-GCM with a random nonce, and the combined
// salt‖nonce‖ciphertext encoded as base64.
type AESGCM struct{}

// NewAESGCM returns the stateless built-in cipher.
func NewAESGCM() AESGCM { return AESGCM{} }

// DeriveKey produces a 32-byte AES key from the secret and salt.
func DeriveKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// Encrypt seals plaintext under a key derived from secret. Each call uses a
// fresh salt and nonce, so encrypting the same plaintext twice yields
// different ciphertexts.
func (AESGCM) Encrypt(plaintext, secret string) (string, error) {
	salt := common.GenerateRandByteArray(saltSize)
	nonce := common.GenerateRandByteArray(nonceSize)

	key := DeriveKey([]byte(secret), salt)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	sealed := aesgcm.Seal(nil, nonce, []byte(plaintext), nil)

	combined := make([]byte, 0, saltSize+nonceSize+len(sealed))
	combined = append(combined, salt...)
	combined = append(combined, nonce...)
	combined = append(combined, sealed...)

	return base64.StdEncoding.EncodeToString(combined), nil
}

// Decrypt reverses Encrypt. A wrong secret or corrupt ciphertext yields
// common.ErrorDecryption; the two causes are indistinguishable.
func (AESGCM) Decrypt(ciphertext, secret string) (string, error) {
	combined, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", common.ErrorDecryption
	}
	if len(combined) < saltSize+nonceSize {
		return "", common.ErrorDecryption
	}

	salt := combined[:saltSize]
	nonce := combined[saltSize : saltSize+nonceSize]
	sealed := combined[saltSize+nonceSize:]

	key := DeriveKey([]byte(secret), salt)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", common.ErrorDecryption
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", common.ErrorDecryption
	}

	plaintext, err := aesgcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", common.ErrorDecryption
	}

	return string(plaintext), nil
}

// Fingerprint returns the hex-encoded SHA-256 digest of the plaintext
// content. It is computed before encryption and stored alongside the
// ciphertext as the optimistic-concurrency token.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
