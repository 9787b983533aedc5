package auth

import (
	"context"
	"sync"

	"github.com/eveauth/eve-auth-api/internal/model"
)

// memStore is an in-memory TokenStore with the same semantics as the
// MySQL repository: unique token hashes, append-only rows, atomic
// IssuePair under one lock.
type memStore struct {
	mu     sync.Mutex
	tables map[model.TokenKind]map[string]*model.TokenRecord
	nextID uint64

	failIssue error // when set, IssuePair fails without mutating state
	failFind  error // when set, Find fails with this error
}

func newMemStore() *memStore {
	return &memStore{
		tables: map[model.TokenKind]map[string]*model.TokenRecord{
			model.TokenKindAccess:  {},
			model.TokenKindRefresh: {},
		},
	}
}

func (s *memStore) IssuePair(ctx context.Context, userID uint64, access, refresh model.TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIssue != nil {
		return s.failIssue
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	// Uniqueness first so a collision leaves nothing revoked.
	if _, ok := s.tables[model.TokenKindAccess][access.TokenHash]; ok {
		return ErrDuplicateToken
	}
	if _, ok := s.tables[model.TokenKindRefresh][refresh.TokenHash]; ok {
		return ErrDuplicateToken
	}
	for _, table := range s.tables {
		for _, rec := range table {
			if rec.UserID == userID {
				rec.IsRevoked = true
			}
		}
	}
	s.insert(model.TokenKindAccess, access)
	s.insert(model.TokenKindRefresh, refresh)
	return nil
}

func (s *memStore) Put(ctx context.Context, kind model.TokenKind, rec model.TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[kind][rec.TokenHash]; ok {
		return ErrDuplicateToken
	}
	s.insert(kind, rec)
	return nil
}

func (s *memStore) Find(ctx context.Context, kind model.TokenKind, tokenHash string) (model.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFind != nil {
		return model.TokenRecord{}, s.failFind
	}
	rec, ok := s.tables[kind][tokenHash]
	if !ok {
		return model.TokenRecord{}, ErrTokenNotFound
	}
	return *rec, nil
}

func (s *memStore) RevokeAllLive(ctx context.Context, userID uint64, kind model.TokenKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.tables[kind] {
		if rec.UserID == userID && !rec.IsRevoked {
			rec.IsRevoked = true
		}
	}
	return nil
}

func (s *memStore) insert(kind model.TokenKind, rec model.TokenRecord) {
	s.nextID++
	rec.ID = s.nextID
	s.tables[kind][rec.TokenHash] = &rec
}

// liveCount reports how many non-revoked records of the kind the user has.
func (s *memStore) liveCount(userID uint64, kind model.TokenKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, rec := range s.tables[kind] {
		if rec.UserID == userID && !rec.IsRevoked {
			n++
		}
	}
	return n
}

// rowCount reports the total number of rows of the kind (audit trail:
// revoked rows are retained, never deleted).
func (s *memStore) rowCount(kind model.TokenKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[kind])
}
