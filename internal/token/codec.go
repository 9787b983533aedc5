// Package token mints and decodes the two credential kinds used by the
// API: signed JWT access tokens carrying identity claims, and opaque
// random refresh tokens resolved only through the token store.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Decode failure modes.  The validator collapses all of these to a
// single unauthorized signal at the API boundary; they stay distinct
// here for logging.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrBadSignature   = errors.New("token signature invalid")
	ErrMalformedToken = errors.New("token malformed")
)

// Claims is the typed payload embedded in a signed access token.
// Subject holds the user ID in decimal form.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim into a user ID.
func (c Claims) UserID() (uint64, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject %q", ErrMalformedToken, c.Subject)
	}
	return id, nil
}

// CodecConfig holds the signing key set.  Keys maps a key identifier
// (kid) to its HMAC secret; ActiveKID names the key used for minting.
// Older keys stay in the map so tokens signed before a rotation keep
// verifying until they expire.  Leeway, if non-zero, is the clock-skew
// window accepted on expiry checks (default 0: no tolerance).
type CodecConfig struct {
	Keys      map[string]string
	ActiveKID string
	Leeway    time.Duration
}

// Codec signs and verifies access tokens.  It is immutable after
// construction and safe for concurrent use.
type Codec struct {
	keys      map[string]string
	activeKID string
	leeway    time.Duration
	now       func() time.Time
}

// NewCodec validates the key set and returns a Codec.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	if len(cfg.Keys) == 0 {
		return nil, errors.New("token: no signing keys configured")
	}
	for kid, secret := range cfg.Keys {
		if kid == "" {
			return nil, errors.New("token: empty kid in key set")
		}
		if secret == "" {
			return nil, fmt.Errorf("token: empty secret for kid %q", kid)
		}
	}
	if _, ok := cfg.Keys[cfg.ActiveKID]; !ok {
		return nil, fmt.Errorf("token: active kid %q not present in key set", cfg.ActiveKID)
	}
	if cfg.Leeway < 0 {
		return nil, errors.New("token: negative leeway")
	}
	keys := make(map[string]string, len(cfg.Keys))
	for kid, secret := range cfg.Keys {
		keys[kid] = secret
	}
	return &Codec{
		keys:      keys,
		activeKID: cfg.ActiveKID,
		leeway:    cfg.Leeway,
		now:       time.Now,
	}, nil
}

// Mint builds and signs an HS256 JWT for the user.  The token carries
// sub (user ID), email, iat, exp and a random jti, plus the active kid
// in its header so decoders can pick the right verification key.
func (c *Codec) Mint(userID uint64, email string, issuedAt time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = c.activeKID
	signed, err := t.SignedString([]byte(c.keys[c.activeKID]))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies signature and expiry and returns the typed claims.
// Failures map to exactly one of ErrTokenExpired, ErrBadSignature or
// ErrMalformedToken.
func (c *Codec) Decode(raw string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(c.now),
	)
	var claims Claims
	tok, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		kid := c.activeKID
		if v, ok := t.Header["kid"].(string); ok && v != "" {
			kid = v
		}
		secret, ok := c.keys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown kid %q", kid)
		}
		return []byte(secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return Claims{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
		default:
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}
	if !tok.Valid {
		return Claims{}, ErrBadSignature
	}
	return claims, nil
}
