package analyses

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/deepcheck/internal/dbx"
	"github.com/dmitrijs2005/deepcheck/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.AnalysisRecord) (*models.AnalysisRecord, error) {
	if err := rec.Result.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to store analysis: %w", err)
	}

	query :=
		`INSERT INTO analyses (user_id, original_filename, storage_url, prediction, confidence, is_deepfake, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		rec.UserID, rec.OriginalFilename, rec.StorageURL,
		rec.Result.Prediction.String(), rec.Result.Confidence, rec.Result.IsDeepfake,
		rec.CreatedAt).Scan(&rec.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rec, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.AnalysisRecord, error) {
	query :=
		`SELECT id, user_id, original_filename, storage_url, prediction, confidence, is_deepfake, created_at
		 FROM analyses
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.AnalysisRecord, 0)
	for rows.Next() {
		rec := &models.AnalysisRecord{}
		var prediction string

		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.OriginalFilename, &rec.StorageURL,
			&prediction, &rec.Result.Confidence, &rec.Result.IsDeepfake, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}

		p, err := models.ParsePrediction(prediction)
		if err != nil {
			return nil, fmt.Errorf("analysis %s: %w", rec.ID, err)
		}
		rec.Result.Prediction = p
		if err := rec.Result.Validate(); err != nil {
			return nil, fmt.Errorf("analysis %s: %w", rec.ID, err)
		}
		rec.CreatedAt = rec.CreatedAt.UTC()

		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
