package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eveauth/eve-auth-api/internal/model"
	"github.com/eveauth/eve-auth-api/internal/token"
)

func testCodec(t *testing.T) *token.Codec {
	t.Helper()
	c, err := token.NewCodec(token.CodecConfig{
		Keys:      map[string]string{"v1": "issuer-test-secret"},
		ActiveKID: "v1",
	})
	require.NoError(t, err)
	return c
}

func testUser() model.User {
	return model.User{
		ID:           1,
		Email:        "u1@example.com",
		PasswordHash: "$2a$10$irrelevant",
		IsSubscribed: true,
		CreatedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestIssueReturnsCompleteSession(t *testing.T) {
	store := newMemStore()
	iss := NewIssuer(testCodec(t), store, time.Hour, 30*24*time.Hour)

	sess, err := iss.Issue(context.Background(), testUser())
	require.NoError(t, err)

	require.NotEmpty(t, sess.AccessToken)
	require.NotEmpty(t, sess.RefreshToken)
	require.Equal(t, "Bearer", sess.TokenType)
	require.Equal(t, time.Hour, sess.AccessTTL)
	require.Equal(t, 30*24*time.Hour, sess.RefreshTTL)
	require.False(t, sess.IssuedAt.IsZero())

	// Public projection only: no credential material.
	require.EqualValues(t, 1, sess.User.ID)
	require.Equal(t, "u1@example.com", sess.User.Email)
	require.True(t, sess.User.IsSubscribed)

	// The minted access token decodes back to the user's claims.
	claims, err := testCodec(t).Decode(sess.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "u1@example.com", claims.Email)
	uid, err := claims.UserID()
	require.NoError(t, err)
	require.EqualValues(t, 1, uid)

	// Both records persisted, live, tied to issuedAt.
	for kind, raw := range map[model.TokenKind]string{
		model.TokenKindAccess:  sess.AccessToken,
		model.TokenKindRefresh: sess.RefreshToken,
	} {
		rec, err := store.Find(context.Background(), kind, token.Hash(raw))
		require.NoError(t, err)
		require.EqualValues(t, 1, rec.UserID)
		require.False(t, rec.IsRevoked)
		require.Equal(t, sess.IssuedAt.Unix(), rec.CreatedAt.Unix())
	}
}

func TestReissueRevokesPriorPair(t *testing.T) {
	store := newMemStore()
	iss := NewIssuer(testCodec(t), store, time.Hour, 30*24*time.Hour)
	u := testUser()

	first, err := iss.Issue(context.Background(), u)
	require.NoError(t, err)
	second, err := iss.Issue(context.Background(), u)
	require.NoError(t, err)
	require.NotEqual(t, first.AccessToken, second.AccessToken)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// Exactly one live token per kind; old rows retained but revoked.
	require.Equal(t, 1, store.liveCount(u.ID, model.TokenKindAccess))
	require.Equal(t, 1, store.liveCount(u.ID, model.TokenKindRefresh))
	require.Equal(t, 2, store.rowCount(model.TokenKindAccess))
	require.Equal(t, 2, store.rowCount(model.TokenKindRefresh))

	rec, err := store.Find(context.Background(), model.TokenKindAccess, token.Hash(first.AccessToken))
	require.NoError(t, err)
	require.True(t, rec.IsRevoked)
}

func TestConcurrentLoginsLeaveOneLivePair(t *testing.T) {
	store := newMemStore()
	iss := NewIssuer(testCodec(t), store, time.Hour, 30*24*time.Hour)
	u := testUser()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = iss.Issue(context.Background(), u)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, store.liveCount(u.ID, model.TokenKindAccess))
	require.Equal(t, 1, store.liveCount(u.ID, model.TokenKindRefresh))
	require.Equal(t, n, store.rowCount(model.TokenKindAccess))
	require.Equal(t, n, store.rowCount(model.TokenKindRefresh))
}

func TestDifferentUsersDoNotInterfere(t *testing.T) {
	store := newMemStore()
	iss := NewIssuer(testCodec(t), store, time.Hour, 30*24*time.Hour)

	u1 := testUser()
	u2 := model.User{ID: 2, Email: "u2@example.com"}

	_, err := iss.Issue(context.Background(), u1)
	require.NoError(t, err)
	_, err = iss.Issue(context.Background(), u2)
	require.NoError(t, err)

	require.Equal(t, 1, store.liveCount(u1.ID, model.TokenKindAccess))
	require.Equal(t, 1, store.liveCount(u2.ID, model.TokenKindAccess))
}

func TestIssueRetriesOnceOnCollision(t *testing.T) {
	store := newMemStore()
	iss := NewIssuer(testCodec(t), store, time.Hour, 30*24*time.Hour)
	u := testUser()

	// First session uses a fixed opaque value.
	iss.opaque = func() (string, error) { return "fixed-collision-value", nil }
	_, err := iss.Issue(context.Background(), u)
	require.NoError(t, err)

	// The next issuance collides once, then produces a fresh value.
	calls := 0
	iss.opaque = func() (string, error) {
		calls++
		if calls == 1 {
			return "fixed-collision-value", nil
		}
		return token.NewOpaqueToken()
	}
	sess, err := iss.Issue(context.Background(), u)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.NotEqual(t, "fixed-collision-value", sess.RefreshToken)
}

func TestIssueFailsAfterSecondCollision(t *testing.T) {
	store := newMemStore()
	iss := NewIssuer(testCodec(t), store, time.Hour, 30*24*time.Hour)
	u := testUser()

	iss.opaque = func() (string, error) { return "always-the-same", nil }
	_, err := iss.Issue(context.Background(), u)
	require.NoError(t, err)

	_, err = iss.Issue(context.Background(), u)
	require.ErrorIs(t, err, ErrDuplicateToken)

	// The failed attempt revoked nothing: the first pair is still live.
	require.Equal(t, 1, store.liveCount(u.ID, model.TokenKindAccess))
	require.Equal(t, 1, store.liveCount(u.ID, model.TokenKindRefresh))
}

func TestIssueStoreFailureLeavesPriorSessionIntact(t *testing.T) {
	store := newMemStore()
	iss := NewIssuer(testCodec(t), store, time.Hour, 30*24*time.Hour)
	u := testUser()

	first, err := iss.Issue(context.Background(), u)
	require.NoError(t, err)

	store.failIssue = errors.New("store unavailable")
	_, err = iss.Issue(context.Background(), u)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrDuplicateToken)

	// All-or-nothing: the earlier pair was not half-revoked.
	store.failIssue = nil
	rec, err := store.Find(context.Background(), model.TokenKindAccess, token.Hash(first.AccessToken))
	require.NoError(t, err)
	require.False(t, rec.IsRevoked)
}

func TestIssueCancelledContextLeavesPriorSessionIntact(t *testing.T) {
	store := newMemStore()
	iss := NewIssuer(testCodec(t), store, time.Hour, 30*24*time.Hour)
	u := testUser()

	first, err := iss.Issue(context.Background(), u)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = iss.Issue(ctx, u)
	require.Error(t, err)

	require.Equal(t, 1, store.liveCount(u.ID, model.TokenKindAccess))
	rec, err := store.Find(context.Background(), model.TokenKindAccess, token.Hash(first.AccessToken))
	require.NoError(t, err)
	require.False(t, rec.IsRevoked)
}
