package refreshtokens

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/bankauth/internal/common"
	"github.com/dmitrijs2005/bankauth/internal/server/auth"
	"github.com/dmitrijs2005/bankauth/internal/server/models"
	"github.com/oklog/ulid/v2"
)

// MemoryStore holds refresh token records for the in-memory backend. It is
// created by its owner and shared by the repositories it hands out; there is
// no package-level instance.
type MemoryStore struct {
	mu     sync.Mutex
	byID   map[string]models.RefreshToken
	byHash map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]models.RefreshToken),
		byHash: make(map[string]string),
	}
}

// Put stores a record as is. Used to seed state, e.g. already-expired tokens.
func (s *MemoryStore) Put(t models.RefreshToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[t.ID] = t
	s.byHash[t.TokenHash] = t.ID
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// MemoryRepository implements Repository over a MemoryStore.
type MemoryRepository struct {
	store    *MemoryStore
	settings Settings
}

func NewMemoryRepository(store *MemoryStore, settings Settings) *MemoryRepository {
	return &MemoryRepository{store: store, settings: settings.WithDefaults()}
}

func (r *MemoryRepository) Insert(ctx context.Context, userID string) (string, error) {
	raw, err := r.settings.Generate()
	if err != nil {
		return "", fmt.Errorf("error generating refresh token: %w", err)
	}

	now := r.settings.now()
	t := models.RefreshToken{
		ID:        ulid.Make().String(),
		TokenHash: auth.HashRefreshToken(raw),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(r.settings.Validity),
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byHash[t.TokenHash]; exists {
		return "", fmt.Errorf("db error: %w", common.ErrTokenCollision)
	}
	s.byID[t.ID] = t
	s.byHash[t.TokenHash] = t.ID

	return raw, nil
}

func (r *MemoryRepository) FindActive(ctx context.Context, userID string) ([]*models.RefreshToken, error) {
	now := r.settings.now()

	s := r.store
	s.mu.Lock()
	var tokens []*models.RefreshToken
	for _, t := range s.byID {
		if t.UserID == userID && t.IsActive(now) {
			t := t
			tokens = append(tokens, &t)
		}
	}
	s.mu.Unlock()

	sort.Slice(tokens, func(i, j int) bool {
		if !tokens[i].CreatedAt.Equal(tokens[j].CreatedAt) {
			return tokens[i].CreatedAt.After(tokens[j].CreatedAt)
		}
		return tokens[i].ID > tokens[j].ID
	})

	return tokens, nil
}

func (r *MemoryRepository) FindByRawValue(ctx context.Context, raw string) (*models.RefreshToken, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byHash[auth.HashRefreshToken(raw)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	t := s.byID[id]
	return &t, nil
}

func (r *MemoryRepository) Remove(ctx context.Context, token *models.RefreshToken) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteLocked(token.ID), nil
}

func (r *MemoryRepository) RemoveExpiredOrRevoked(ctx context.Context) (int64, error) {
	now := r.settings.now()

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, t := range s.byID {
		if t.IsRevoked || !t.ExpiresAt.After(now) {
			s.deleteLocked(id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) RemoveAllForUser(ctx context.Context, userID string) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, t := range s.byID {
		if t.UserID == userID {
			s.deleteLocked(id)
			n++
		}
	}
	return n, nil
}

// LockUser is a no-op: the in-memory manager runs transactions one at a time.
func (r *MemoryRepository) LockUser(ctx context.Context, userID string) error {
	return nil
}

func (s *MemoryStore) deleteLocked(id string) bool {
	t, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	delete(s.byHash, t.TokenHash)
	return true
}
