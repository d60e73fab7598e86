// Package encryption seals small secrets (handle tokens) with AES-256-GCM.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
)

const gcmPrefix = "gcm1"

var (
	// ErrCiphertextTooShort is returned when sealed data cannot even hold a nonce.
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	// ErrUnknownFormat is returned for data that was not produced by Seal.
	ErrUnknownFormat = errors.New("unknown ciphertext format")
)

var randReader io.Reader = rand.Reader

// Seal encrypts plaintext with key and returns prefix|nonce|ciphertext.
// The additional data is authenticated but not stored.
func Seal(plaintext, key, additional []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(randReader, nonce); err != nil {
		return nil, err
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, additional)
	out := make([]byte, 0, len(gcmPrefix)+len(nonce)+len(ciphertext))
	out = append(out, gcmPrefix...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// Open reverses Seal. Any tampering, a wrong key or different additional
// data makes it fail.
func Open(sealed, key, additional []byte) ([]byte, error) {
	if len(sealed) < len(gcmPrefix) || string(sealed[:len(gcmPrefix)]) != gcmPrefix {
		return nil, ErrUnknownFormat
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(sealed) < len(gcmPrefix)+nonceSize {
		return nil, ErrCiphertextTooShort
	}
	nonce := sealed[len(gcmPrefix) : len(gcmPrefix)+nonceSize]
	data := sealed[len(gcmPrefix)+nonceSize:]
	return gcm.Open(nil, nonce, data, additional)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
