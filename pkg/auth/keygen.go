package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// KeyLength is the number of random bytes in a session key (256 bits)
const KeyLength = 32

// KeyGenerator generates opaque session keys
type KeyGenerator struct{}

// NewKeyGenerator creates a new key generator
func NewKeyGenerator() *KeyGenerator {
	return &KeyGenerator{}
}

// GenerateKey creates a new opaque session key.
// Format: base64url(32 random bytes), URL-safe, no padding.
func (kg *KeyGenerator) GenerateKey() (string, error) {
	randomBytes := make([]byte, KeyLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(randomBytes), nil
}
