// Package auth implements the credential lifecycle around a token
// store: issuing an access/refresh pair on login, revoking prior live
// tokens atomically with each new issuance, and validating presented
// tokens against signature, expiry and revocation state.
package auth

import "errors"

// ErrUnauthorized is the single outward failure for any token problem:
// bad signature, expiry, malformed input, revocation, or subject
// mismatch.  The specific reason is logged internally only, so callers
// probing tokens learn nothing from the error they get back.
var ErrUnauthorized = errors.New("unauthorized")

// ErrDuplicateToken is returned by a token store when the token hash
// already exists.  With 384 bits of refresh entropy and a random jti
// in every JWT this is effectively unreachable; the issuer retries the
// whole issuance once and then gives up.
var ErrDuplicateToken = errors.New("duplicate token")

// ErrTokenNotFound is returned by a token store when no record matches
// the presented token hash.
var ErrTokenNotFound = errors.New("token not found")
