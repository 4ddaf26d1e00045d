// Package secret encrypts and decrypts merchant payment-processor
// credentials at rest. It adapts the AES-GCM + argon2 key-derivation scheme
// the teacher repo used to protect wallet private keys (pkg/keygen) to the
// unrelated problem of protecting a processor API secret behind
// MerchantRepo.fetch_secret.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	saltLen   = 16
	nonceLen  = 12
	keyLen    = 32
	argonTime = 1
	argonMem  = 64 * 1024
	argonPar  = 4
)

var ErrMalformedCiphertext = errors.New("secret: malformed ciphertext")

// deriveKey stretches passphrase into a 32-byte AES-256 key using argon2id,
// salted per secret so two merchants sharing a passphrase don't share a key.
func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMem, argonPar, keyLen)
}

// Encrypt seals plaintext (a processor API secret) under passphrase (the
// deployment's merchant-secret master key), returning a self-contained,
// base64-encoded blob of salt || nonce || ciphertext.
func Encrypt(passphrase, plaintext string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("secret: generate salt: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return "", fmt.Errorf("secret: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("secret: new gcm: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secret: generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	blob := make([]byte, 0, saltLen+nonceLen+len(sealed))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt reverses Encrypt. A wrong passphrase or tampered blob surfaces as
// ErrMalformedCiphertext (AEAD authentication failure is indistinguishable
// from corruption, so both are reported the same way).
func Decrypt(passphrase, encoded string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrMalformedCiphertext
	}
	if len(blob) < saltLen+nonceLen {
		return "", ErrMalformedCiphertext
	}

	salt := blob[:saltLen]
	nonce := blob[saltLen : saltLen+nonceLen]
	ciphertext := blob[saltLen+nonceLen:]

	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return "", fmt.Errorf("secret: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("secret: new gcm: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrMalformedCiphertext
	}

	return string(plaintext), nil
}
