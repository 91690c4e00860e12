package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/bankauth/internal/common"
	"github.com/dmitrijs2005/bankauth/internal/server/models"
	"github.com/google/uuid"
)

// MemoryStore holds users for the in-memory backend.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[string]models.User
	byEmail map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

type MemoryRepository struct {
	store *MemoryStore
	now   func() time.Time
}

func NewMemoryRepository(store *MemoryStore, now func() time.Time) *MemoryRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryRepository{store: store, now: now}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	if _, exists := s.byEmail[user.Email]; exists {
		return nil, common.ErrorAlreadyExists
	}

	user.ID = uuid.NewString()
	user.CreatedAt = r.now().UTC()
	s.byID[user.ID] = *user
	s.byEmail[user.Email] = user.ID

	return user, nil
}

func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := s.byID[id]
	return &u, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}
