package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eveauth/eve-auth-api/internal/model"
	"github.com/eveauth/eve-auth-api/internal/token"
)

// Session is what a successful login hands back to the caller: the
// two token strings, their TTLs, and the credential-free user
// projection.  TTL and issued-at fields are always populated.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	IssuedAt     time.Time
	User         model.PublicUser
}

// Issuer orchestrates login issuance: one call revokes the user's
// prior live tokens and persists a fresh access/refresh pair as a
// single atomic store operation.  The caller must have already
// authenticated the user; the issuer never sees credentials.
type Issuer struct {
	codec      *token.Codec
	store      TokenStore
	accessTTL  time.Duration
	refreshTTL time.Duration

	now    func() time.Time
	opaque func() (string, error)
}

// NewIssuer returns an Issuer with the given token policy.  accessTTL
// and refreshTTL are fixed policy values (e.g. 1h and 30 days).
func NewIssuer(codec *token.Codec, store TokenStore, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		codec:      codec,
		store:      store,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
		opaque:     token.NewOpaqueToken,
	}
}

// Issue mints and persists a new session for the user.  Prior live
// tokens of both kinds are revoked in the same store transaction that
// inserts the new pair, so at no point does the user have zero live
// tokens or two live pairs.  A hash collision (ErrDuplicateToken)
// triggers exactly one full re-mint and retry.
func (i *Issuer) Issue(ctx context.Context, u model.User) (*Session, error) {
	issuedAt := i.now().UTC()

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		sess, err := i.mintAndStore(ctx, u, issuedAt)
		if err == nil {
			return sess, nil
		}
		lastErr = err
		if !errors.Is(err, ErrDuplicateToken) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("issue session after retry: %w", lastErr)
}

func (i *Issuer) mintAndStore(ctx context.Context, u model.User, issuedAt time.Time) (*Session, error) {
	access, err := i.codec.Mint(u.ID, u.Email, issuedAt, i.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}
	refresh, err := i.opaque()
	if err != nil {
		return nil, err
	}

	accessRec := model.TokenRecord{
		UserID:    u.ID,
		TokenHash: token.Hash(access),
		ExpiresAt: issuedAt.Add(i.accessTTL),
		CreatedAt: issuedAt,
	}
	refreshRec := model.TokenRecord{
		UserID:    u.ID,
		TokenHash: token.Hash(refresh),
		ExpiresAt: issuedAt.Add(i.refreshTTL),
		CreatedAt: issuedAt,
	}

	if err := i.store.IssuePair(ctx, u.ID, accessRec, refreshRec); err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		AccessTTL:    i.accessTTL,
		RefreshTTL:   i.refreshTTL,
		IssuedAt:     issuedAt,
		User:         u.Public(),
	}, nil
}
