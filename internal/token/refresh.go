package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// opaqueBytes is the entropy of a refresh token: 48 random bytes
// (384 bits), hex encoded to 96 characters.
const opaqueBytes = 48

// NewOpaqueToken returns a cryptographically random refresh token.
// The value carries no user information: possession of the string plus
// a token-store lookup is the only way to resolve it to a user.  A
// store-level collision on the hash is treated as a hard failure by
// the issuer, never overwritten.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, opaqueBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash returns the SHA‑256 hex digest of a token value.  Both token
// kinds are stored hashed so a leaked database dump cannot be replayed
// against the API.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
