// Package secretbox seals upstream API keys before they are written to the database.
package secretbox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrKeyNotSet is returned by every operation when no master key is configured.
	ErrKeyNotSet = errors.New("credential encryption key not set")
	// ErrCiphertext is returned when a stored value cannot be opened.
	ErrCiphertext = errors.New("malformed or tampered ciphertext")
)

// Box seals and opens secrets with XChaCha20-Poly1305.
// Sealed output is base64(nonce || ciphertext || tag).
type Box struct {
	key []byte
}

// New returns a Box for a 32-byte key. A nil key yields a Box that refuses all operations.
func New(key []byte) (*Box, error) {
	if key != nil && len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("secretbox: key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &Box{key: key}, nil
}

// Seal encrypts plaintext. additionalData binds the ciphertext to its row context.
func (b *Box) Seal(plaintext string, additionalData []byte) (string, error) {
	if b.key == nil {
		return "", ErrKeyNotSet
	}

	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("secretbox: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("secretbox: nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), additionalData)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal with the same additionalData.
func (b *Box) Open(encoded string, additionalData []byte) (string, error) {
	if b.key == nil {
		return "", ErrKeyNotSet
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrCiphertext
	}

	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", fmt.Errorf("secretbox: %w", err)
	}

	if len(data) < aead.NonceSize()+aead.Overhead() {
		return "", ErrCiphertext
	}

	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return "", ErrCiphertext
	}
	return string(plaintext), nil
}
