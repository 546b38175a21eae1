// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// TokenBytes is the amount of random data behind each token (256 bits)
const TokenBytes = 32

// Issuer hands out capability tokens (manage, observe, vote)
type Issuer interface {
	Issue() (string, error)
}

// RandomIssuer issues URL-safe tokens from a cryptographically secure source.
// Safe for concurrent use.
type RandomIssuer struct {
	// Reader defaults to crypto/rand.Reader
	Reader io.Reader
}

// NewIssuer returns an issuer backed by crypto/rand
func NewIssuer() *RandomIssuer {
	return &RandomIssuer{}
}

// Issue implements Issuer
func (i *RandomIssuer) Issue() (string, error) {
	r := i.Reader
	if r == nil {
		r = rand.Reader
	}
	return GenerateToken(r, TokenBytes)
}

// GenerateToken reads byteLen bytes from r and encodes them as
// URL-safe base64 without padding
func GenerateToken(r io.Reader, byteLen int) (string, error) {
	b := make([]byte, byteLen)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewID returns a random identifier for database records
func NewID() string {
	return uuid.NewString()
}
