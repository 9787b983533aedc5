package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/eveauth/eve-auth-api/internal/model"
	"github.com/eveauth/eve-auth-api/internal/token"
)

// Validator checks presented access tokens.  Decode failures, revoked
// tokens and subject mismatches all collapse to ErrUnauthorized; the
// internal reason is logged and never returned to the caller.  Store
// infrastructure failures are the one exception: they surface as a
// wrapped error so callers can distinguish "try again" from "go away".
type Validator struct {
	codec *token.Codec
	store TokenStore
	now   func() time.Time
}

// NewValidator returns a Validator.  A nil store disables the
// revocation cross-check and validation becomes purely stateless.
func NewValidator(codec *token.Codec, store TokenStore) *Validator {
	return &Validator{codec: codec, store: store, now: time.Now}
}

// Validate decodes the token, verifies signature and expiry, and
// cross-checks the store record so a revoked-but-unexpired token is
// rejected.  Returns the embedded claims on success.
func (v *Validator) Validate(ctx context.Context, raw string) (token.Claims, error) {
	claims, err := v.codec.Decode(raw)
	if err != nil {
		log.Printf("auth: token rejected: %v", err)
		return token.Claims{}, ErrUnauthorized
	}
	userID, err := claims.UserID()
	if err != nil {
		log.Printf("auth: token rejected: %v", err)
		return token.Claims{}, ErrUnauthorized
	}

	if v.store != nil {
		rec, err := v.store.Find(ctx, model.TokenKindAccess, token.Hash(raw))
		if errors.Is(err, ErrTokenNotFound) {
			log.Printf("auth: token rejected: no store record for user %d", userID)
			return token.Claims{}, ErrUnauthorized
		}
		if err != nil {
			return token.Claims{}, fmt.Errorf("token lookup: %w", err)
		}
		if rec.UserID != userID || !rec.Live(v.now().UTC()) {
			log.Printf("auth: token rejected: revoked or stale record for user %d", userID)
			return token.Claims{}, ErrUnauthorized
		}
	}

	return claims, nil
}

// ValidateForUser is Validate plus an ownership check: the decoded
// subject must equal expectedUserID.  A mismatch is ErrUnauthorized,
// not a distinct error, so the response leaks nothing about which
// accounts exist.
func (v *Validator) ValidateForUser(ctx context.Context, raw string, expectedUserID uint64) (token.Claims, error) {
	claims, err := v.Validate(ctx, raw)
	if err != nil {
		return token.Claims{}, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return token.Claims{}, ErrUnauthorized
	}
	if userID != expectedUserID {
		log.Printf("auth: token rejected: subject %d does not match expected user %d", userID, expectedUserID)
		return token.Claims{}, ErrUnauthorized
	}
	return claims, nil
}
