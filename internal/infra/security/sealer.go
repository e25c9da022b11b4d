// File: internal/infra/security/sealer.go
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// Sealer encrypts job payloads at rest with AES-GCM. The associated data
// binds a ciphertext to its owner id so rows cannot be swapped between jobs.
type Sealer struct {
	gcm cipher.AEAD
}

// NewSealer accepts a 16, 24 or 32 byte key (AES-128/192/256).
func NewSealer(key string) (*Sealer, error) {
	k := []byte(key)
	n := len(k)
	if n != 16 && n != 24 && n != 32 {
		return nil, fmt.Errorf("encryption key must be 16, 24, or 32 bytes; got %d", n)
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &Sealer{gcm: gcm}, nil
}

// Seal returns base64(nonce || ciphertext).
func (s *Sealer) Seal(plaintext []byte, ownerID string) (string, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}
	ct := s.gcm.Seal(nonce, nonce, plaintext, []byte(ownerID))
	return base64.StdEncoding.EncodeToString(ct), nil
}

// Open reverses Seal for the same ownerID.
func (s *Sealer) Open(b64 string, ownerID string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	ns := s.gcm.NonceSize()
	if len(data) < ns {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ct := data[:ns], data[ns:]
	pt, err := s.gcm.Open(nil, nonce, ct, []byte(ownerID))
	if err != nil {
		return nil, fmt.Errorf("gcm open: %w", err)
	}
	return pt, nil
}
