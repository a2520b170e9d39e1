// Package cache stores recent history listings so repeated reads skip the
// database. Entries are dropped whenever the owner stores a new analysis.
package cache

import (
	"context"

	"github.com/dmitrijs2005/deepcheck/internal/server/models"
)

// HistoryCache caches history pages by user and limit.
//
// Get reports the user's current version alongside the page. A miss is
// filled with Set using that version; Set writes nothing if Invalidate ran
// for the user in between, so a page read before a new analysis is never
// stored after it.
type HistoryCache interface {
	Get(ctx context.Context, userID string, limit int) (records []*models.AnalysisRecord, version int64, hit bool, err error)
	Set(ctx context.Context, userID string, limit int, version int64, records []*models.AnalysisRecord) error
	Invalidate(ctx context.Context, userID string) error
}

// Nop is a HistoryCache that never hits.
type Nop struct{}

func (Nop) Get(context.Context, string, int) ([]*models.AnalysisRecord, int64, bool, error) {
	return nil, 0, false, nil
}

func (Nop) Set(context.Context, string, int, int64, []*models.AnalysisRecord) error { return nil }

func (Nop) Invalidate(context.Context, string) error { return nil }
