package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/deepcheck/internal/common"
	"github.com/dmitrijs2005/deepcheck/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps accounts in process memory. Email uniqueness is
// case-insensitive, matching the Postgres index.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	key := strings.ToLower(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[key]; ok {
		return nil, common.ErrEmailTaken
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[key] = user.ID
	return user, nil
}

func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := *r.byID[id]
	return &u, nil
}
