package model

import "time"

// TokenKind selects between the two token tables.  Access tokens are
// signed JWTs presented on every protected request; refresh tokens are
// opaque random strings exchanged for a fresh pair.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenRecord models a row in the `access_tokens` or `refresh_tokens`
// table (both share the same shape).  The plain token value is not
// stored; only its SHA‑256 hash.  Rows are never deleted: revocation
// flips IsRevoked and the row stays behind as an audit trail.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA‑256 hex digest of the token value (unique).
//  ExpiresAt – expiration timestamp of the token.
//  CreatedAt – issuance timestamp (UTC).
//  IsRevoked – whether the token has been revoked.
type TokenRecord struct {
	ID        uint64    // id
	UserID    uint64    // user_id
	TokenHash string    // token_hash
	ExpiresAt time.Time // expires_at
	CreatedAt time.Time // created_at
	IsRevoked bool      // is_revoked
}

// Live reports whether the record is usable at the given instant:
// not revoked and not past its expiry.
func (r TokenRecord) Live(now time.Time) bool {
	return !r.IsRevoked && now.Before(r.ExpiresAt)
}
