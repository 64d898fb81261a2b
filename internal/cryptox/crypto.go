// Package cryptox holds the cryptographic material helpers for attachment
// records: key generation, subkey derivation, and content digests.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of a full attachment key: 32 bytes of AES material
// plus 32 bytes of HMAC material, kept together as one opaque blob.
const KeySize = 64

var hkdfInfo = []byte("mediavault-attachment")

// NewAttachmentKey returns KeySize bytes of fresh random key material.
// Every record scheduled for upload gets its own key; keys are never reused
// across records.
func NewAttachmentKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate attachment key: %w", err)
	}
	return key, nil
}

// Subkeys derives the cipher and MAC subkeys from a full attachment key
// using HKDF-SHA256. The derivation is deterministic: the same key always
// yields the same pair.
//
// Returns an error if key is not KeySize bytes.
func Subkeys(key []byte) (cipherKey, macKey []byte, err error) {
	if len(key) != KeySize {
		return nil, nil, fmt.Errorf("attachment key must be %d bytes, got %d", KeySize, len(key))
	}

	r := hkdf.New(sha256.New, key, nil, hkdfInfo)
	cipherKey = make([]byte, 32)
	macKey = make([]byte, 32)
	if _, err := io.ReadFull(r, cipherKey); err != nil {
		return nil, nil, fmt.Errorf("derive cipher key: %w", err)
	}
	if _, err := io.ReadFull(r, macKey); err != nil {
		return nil, nil, fmt.Errorf("derive mac key: %w", err)
	}
	return cipherKey, macKey, nil
}

// Digest consumes r and returns its SHA-256 digest. This is the digest
// recorded alongside the upload metadata and echoed into the wire pointer.
func Digest(r io.Reader) ([]byte, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return nil, fmt.Errorf("digest: %w", err)
	}
	return h.Sum(nil), nil
}
