package services

import (
	"context"

	"github.com/dmitrijs2005/deepcheck/internal/common"
	"github.com/dmitrijs2005/deepcheck/internal/dbx"
	"github.com/dmitrijs2005/deepcheck/internal/logging"
	"github.com/dmitrijs2005/deepcheck/internal/server/cache"
	"github.com/dmitrijs2005/deepcheck/internal/server/models"
	"github.com/dmitrijs2005/deepcheck/internal/server/repositories/repomanager"
)

// HistoryService lists a user's own analyses, newest first.
type HistoryService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	cache       cache.HistoryCache
	log         logging.Logger
}

func NewHistoryService(db dbx.DBTX, m repomanager.RepositoryManager, hc cache.HistoryCache, log logging.Logger) *HistoryService {
	return &HistoryService{db: db, repomanager: m, cache: hc, log: log}
}

// List returns up to limit records owned by user. A non-positive limit or
// one above common.DefaultHistoryLimit is clamped to it. The result is never nil.
func (s *HistoryService) List(ctx context.Context, user *models.User, limit int) ([]*models.AnalysisRecord, error) {
	if limit <= 0 || limit > common.DefaultHistoryLimit {
		limit = common.DefaultHistoryLimit
	}

	recs, version, hit, err := s.cache.Get(ctx, user.ID, limit)
	cacheable := err == nil
	if err != nil {
		s.log.Warn(ctx, "history cache read failed", "user_id", user.ID, "error", err)
	}
	if hit {
		return recs, nil
	}

	recs, err = s.repomanager.Analyses(s.db).ListByUser(ctx, user.ID, limit)
	if err != nil {
		s.log.Error(ctx, "history query failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}
	if recs == nil {
		recs = []*models.AnalysisRecord{}
	}

	if cacheable {
		if err := s.cache.Set(ctx, user.ID, limit, version, recs); err != nil {
			s.log.Warn(ctx, "history cache write failed", "user_id", user.ID, "error", err)
		}
	}
	return recs, nil
}
