package crypto

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"twikitmcp/internal/constants"
)

var (
	// ErrSealed is returned when sealed data is read without a key.
	ErrSealed = errors.New("data is sealed and no key is configured")
	// ErrCorrupt is returned for truncated or tampered sealed data.
	ErrCorrupt = errors.New("sealed data is corrupt or the key is wrong")
)

// Sealer encrypts session records at rest with ChaCha20-Poly1305.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a 256-bit key from passphrase with HKDF-SHA256.
func NewSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("empty passphrase")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(passphrase), nil, []byte(constants.SealKeyInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal returns magic || nonce || ciphertext.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(constants.SealMagic)+len(nonce)+len(plaintext)+s.aead.Overhead())
	out = append(out, constants.SealMagic...)
	out = append(out, nonce...)
	return s.aead.Seal(out, nonce, plaintext, []byte(constants.SealMagic)), nil
}

// Open reverses Seal.
func (s *Sealer) Open(data []byte) ([]byte, error) {
	if !IsSealed(data) {
		return nil, fmt.Errorf("%w: missing header", ErrCorrupt)
	}
	body := data[len(constants.SealMagic):]
	if len(body) < s.aead.NonceSize()+s.aead.Overhead() {
		return nil, fmt.Errorf("%w: too short", ErrCorrupt)
	}

	nonce, ciphertext := body[:s.aead.NonceSize()], body[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(constants.SealMagic))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return plaintext, nil
}

// IsSealed reports whether data carries the seal header.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(data, []byte(constants.SealMagic))
}
