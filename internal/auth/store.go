package auth

import (
	"context"

	"github.com/eveauth/eve-auth-api/internal/model"
)

// TokenStore is the persistence contract for issued tokens.  Records
// are keyed by token hash and are append-mostly: the only mutation is
// flipping is_revoked, and rows are never deleted.  Every mutation is
// durable before the call returns.
//
// The MySQL implementation lives in internal/repository; tests use an
// in-memory store with the same semantics.
type TokenStore interface {
	// IssuePair atomically revokes every live token of both kinds for
	// the user and inserts the new access and refresh records.  Either
	// everything is applied or nothing is: a failed issuance must not
	// leave the user half-revoked with no replacement.  Concurrent
	// calls for the same user serialize; different users do not
	// contend.  Returns ErrDuplicateToken on a token hash collision.
	IssuePair(ctx context.Context, userID uint64, access, refresh model.TokenRecord) error

	// Put inserts a single new token record.  Returns
	// ErrDuplicateToken if the token hash already exists.
	Put(ctx context.Context, kind model.TokenKind, rec model.TokenRecord) error

	// Find looks up a record by token hash.  Returns ErrTokenNotFound
	// when no row matches.
	Find(ctx context.Context, kind model.TokenKind, tokenHash string) (model.TokenRecord, error)

	// RevokeAllLive marks every non-revoked token of the given kind
	// for the user as revoked.  Revoking an already-revoked set is a
	// no-op success.
	RevokeAllLive(ctx context.Context, userID uint64, kind model.TokenKind) error
}
