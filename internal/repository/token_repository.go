package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/eveauth/eve-auth-api/internal/auth"
	"github.com/eveauth/eve-auth-api/internal/model"
)

// TokenRepo persists issued tokens in the 'access_tokens' and
// 'refresh_tokens' tables (same shape, unique token_hash, secondary
// index on (user_id, is_revoked)).  It implements auth.TokenStore.
// Rows are never deleted; revocation flips is_revoked in place.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

var _ auth.TokenStore = (*TokenRepo)(nil)

func tableFor(kind model.TokenKind) (string, error) {
	switch kind {
	case model.TokenKindAccess:
		return "access_tokens", nil
	case model.TokenKindRefresh:
		return "refresh_tokens", nil
	default:
		return "", fmt.Errorf("unknown token kind %q", kind)
	}
}

// Put inserts a single token record.
func (r *TokenRepo) Put(ctx context.Context, kind model.TokenKind, rec model.TokenRecord) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO "+table+" (user_id, token_hash, expires_at, created_at) VALUES (?,?,?,?)",
		rec.UserID, rec.TokenHash, rec.ExpiresAt, rec.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return auth.ErrDuplicateToken
		}
		return err
	}
	return nil
}

// Find looks up a record by token hash.
func (r *TokenRepo) Find(ctx context.Context, kind model.TokenKind, tokenHash string) (model.TokenRecord, error) {
	table, err := tableFor(kind)
	if err != nil {
		return model.TokenRecord{}, err
	}
	var rec model.TokenRecord
	err = r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,token_hash,expires_at,created_at,is_revoked FROM "+table+" WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&rec.ID, &rec.UserID, &rec.TokenHash, &rec.ExpiresAt, &rec.CreatedAt, &rec.IsRevoked)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TokenRecord{}, auth.ErrTokenNotFound
	}
	return rec, err
}

// RevokeAllLive marks every non-revoked token of the kind for the user
// as revoked.  Idempotent: a sweep over zero live rows succeeds.
func (r *TokenRepo) RevokeAllLive(ctx context.Context, userID uint64, kind model.TokenKind) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE "+table+" SET is_revoked=1 WHERE user_id=? AND is_revoked=0",
		userID)
	return err
}

// IssuePair applies a whole login issuance as one transaction: lock
// the user row, revoke every live token of both kinds, insert the new
// access and refresh records, commit.  The row lock serializes
// concurrent logins for the same user (so two live pairs can never
// coexist, even when the user had no prior rows to contend on) while
// leaving different users free to proceed in parallel.
func (r *TokenRepo) IssuePair(ctx context.Context, userID uint64, access, refresh model.TokenRecord) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var id uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id=? FOR UPDATE", userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	for _, table := range []string{"access_tokens", "refresh_tokens"} {
		if _, err := tx.ExecContext(ctx,
			"UPDATE "+table+" SET is_revoked=1 WHERE user_id=? AND is_revoked=0",
			userID); err != nil {
			return err
		}
	}

	inserts := []struct {
		table string
		rec   model.TokenRecord
	}{
		{"access_tokens", access},
		{"refresh_tokens", refresh},
	}
	for _, in := range inserts {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO "+in.table+" (user_id, token_hash, expires_at, created_at) VALUES (?,?,?,?)",
			userID, in.rec.TokenHash, in.rec.ExpiresAt, in.rec.CreatedAt); err != nil {
			if isDuplicate(err) {
				return auth.ErrDuplicateToken
			}
			return err
		}
	}

	return tx.Commit()
}

// isDuplicate detects MySQL error 1062 (duplicate entry on a unique key).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
