package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashSecret hashes a token secret for storage and lookup. The salt is a
// server-side value from configuration, shared across tokens so that
// lookup-by-hash stays a single indexed read; the plaintext secret is
// never persisted.
func HashSecret(salt, secret string) string {
	sum := sha256.Sum256([]byte(salt + secret))
	return hex.EncodeToString(sum[:])
}

// constantTimeEqual compares two strings without leaking length-prefix
// timing information about the configured value.
func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
