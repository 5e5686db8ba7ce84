// Package signing implements the HMAC helper used to bind upload-completion
// tokens to a storage key and expiry.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Signer generates and validates HMAC based completion tokens.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Sign returns the hex token for a storage key and unix expiry.
func (s *Signer) Sign(storageKey string, expiresUnix int64) string {
	mac := hmac.New(sha256.New, s.secret)
	payload := fmt.Sprintf("%s:%d", storageKey, expiresUnix)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Validate checks the token against the storage key and expiry, rejecting
// expired grants.
func (s *Signer) Validate(storageKey, expires, token string) bool {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return false
	}
	if time.Now().Unix() > exp {
		return false
	}
	expected := s.Sign(storageKey, exp)
	return hmac.Equal([]byte(expected), []byte(token))
}
