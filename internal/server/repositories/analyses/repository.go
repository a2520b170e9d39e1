package analyses

import (
	"context"

	"github.com/dmitrijs2005/deepcheck/internal/server/models"
)

// Repository persists analysis records. Records are append-only.
type Repository interface {
	// Create stores rec and fills its ID.
	Create(ctx context.Context, rec *models.AnalysisRecord) (*models.AnalysisRecord, error)
	// ListByUser returns at most limit records of userID, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.AnalysisRecord, error)
}
