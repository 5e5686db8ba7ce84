// Package namecrypt is the field-level codec for the dog name column. Names
// are encrypted at rest and decrypted only when a record is served, mirroring
// the managed-key handling the record store applies to sensitive fields.
package namecrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// Codec seals and opens dog names with AES-GCM. A nil Codec passes names
// through untouched so deployments without a key keep working.
type Codec struct {
	aead cipher.AEAD
}

// New derives an AES-256-GCM codec from the configured key material. A nil or
// empty key returns a nil Codec (pass-through).
func New(key []byte) (*Codec, error) {
	if len(key) == 0 {
		return nil, nil
	}
	sum := sha256.Sum256(key)
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Encrypt seals the plaintext name into a base64 token.
func (c *Codec) Encrypt(name string) (string, error) {
	if c == nil {
		return name, nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(name), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token previously produced by Encrypt.
func (c *Codec) Decrypt(token string) (string, error) {
	if c == nil {
		return token, nil
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", errors.New("token too short")
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("open token: %w", err)
	}
	return string(plain), nil
}
