package utils // package utils provides helpers for opaque token generation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for refresh tokens
	"encoding/hex"  // hex encoding of random bytes and digests
)

// RefreshTokenBytes is the amount of entropy in a refresh token (96 hex chars).
const RefreshTokenBytes = 48

// NewOpaqueToken returns n bytes of cryptographically secure random data
// hex-encoded. Refresh tokens and object key suffixes are built from it.
func NewOpaqueToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashToken returns the SHA-256 hex digest of a raw token. Only the digest
// is persisted so a leaked table cannot be replayed.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
