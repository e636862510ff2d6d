// Package credential obfuscates values before they reach persistent storage.
//
// The AES key is derived from a secret bundled with the client, so this
// defends against casual inspection of the state database only. Anyone who
// can read the client can read the stored values; do not treat this as an
// encryption-grade boundary.
package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const keyInfo = "splitmate-credential-key"

// Codec encodes JSON-serializable values to opaque strings and back.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec derives the obfuscation key from the given secret.
func NewCodec(secret string) (*Codec, error) {
	key := make([]byte, 32)
	h := hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo))
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Encode marshals v and seals it into an opaque text blob (nonce-prefixed
// ciphertext in unpadded URL-safe base64).
func (c *Codec) Encode(v any) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal value: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	blob := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(blob), nil
}

// Decode opens an encoded blob into out and reports success. Empty input,
// garbage that Encode never produced, and tampered ciphertext all return
// false without touching out; callers treat absence and corruption
// identically, as "no value".
func (c *Codec) Decode(encoded string, out any) bool {
	if encoded == "" {
		return false
	}

	blob, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}

	ns := c.aead.NonceSize()
	if len(blob) < ns {
		return false
	}

	plaintext, err := c.aead.Open(nil, blob[:ns], blob[ns:], nil)
	if err != nil {
		return false
	}

	return json.Unmarshal(plaintext, out) == nil
}
