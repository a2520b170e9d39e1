package analyses

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/deepcheck/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps analyses in process memory, ordered the same way
// as the Postgres query.
type MemoryRepository struct {
	mu     sync.RWMutex
	byUser map[string][]models.AnalysisRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byUser: make(map[string][]models.AnalysisRecord)}
}

func (r *MemoryRepository) Create(ctx context.Context, rec *models.AnalysisRecord) (*models.AnalysisRecord, error) {
	if err := rec.Result.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to store analysis: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec.ID = uuid.NewString()
	r.byUser[rec.UserID] = append(r.byUser[rec.UserID], *rec)
	return rec, nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.AnalysisRecord, error) {
	r.mu.RLock()
	recs := make([]*models.AnalysisRecord, 0, len(r.byUser[userID]))
	for _, rec := range r.byUser[userID] {
		c := rec
		recs = append(recs, &c)
	}
	r.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].ID > recs[j].ID
	})

	if limit >= 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}
