package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/deepcheck/internal/common"
	"github.com/dmitrijs2005/deepcheck/internal/dbx"
	"github.com/dmitrijs2005/deepcheck/internal/logging"
	"github.com/dmitrijs2005/deepcheck/internal/server/cache"
	"github.com/dmitrijs2005/deepcheck/internal/server/classifier"
	"github.com/dmitrijs2005/deepcheck/internal/server/models"
	"github.com/dmitrijs2005/deepcheck/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/deepcheck/internal/server/storage"
)

const maxFilenameLen = 255

// Preprocessor turns raw image bytes into a model input.
type Preprocessor interface {
	Preprocess(data []byte) (tensor classifier.Tensor, mediaType string, err error)
}

// Scorer runs inference. Ready reports whether a model is loaded.
type Scorer interface {
	Classify(ctx context.Context, t classifier.Tensor) (float64, error)
	Ready() bool
}

// AnalysisService runs one image through validation, upload, inference and
// persistence. Steps run in that order and stop at the first failure;
// nothing already done is rolled back.
type AnalysisService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	pre         Preprocessor
	scorer      Scorer
	store       storage.ObjectStore
	cache       cache.HistoryCache
	log         logging.Logger
	now         func() time.Time
}

func NewAnalysisService(db dbx.DBTX, m repomanager.RepositoryManager, pre Preprocessor, scorer Scorer,
	store storage.ObjectStore, hc cache.HistoryCache, log logging.Logger) *AnalysisService {
	return &AnalysisService{
		db:          db,
		repomanager: m,
		pre:         pre,
		scorer:      scorer,
		store:       store,
		cache:       hc,
		log:         log,
		now:         time.Now,
	}
}

// Analyze classifies data on behalf of user and records the outcome.
//
// Failures map to sentinels: ErrInvalidInput (bad type or bytes, nothing
// stored), ErrServiceUnavailable (no model), ErrStorageUnavailable (upload
// failed, no record), ErrClassificationFailed (object stays uploaded without
// a record) and ErrPersistenceFailed (object uploaded, result lost).
func (s *AnalysisService) Analyze(ctx context.Context, user *models.User, filename, contentType string,
	data []byte) (*models.AnalysisResult, error) {

	ext := storage.ExtensionFor(contentType)
	if ext == "" {
		return nil, fmt.Errorf("%w: file must be an image (jpeg or png), got %q", common.ErrInvalidInput, contentType)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", common.ErrInvalidInput)
	}

	tensor, detected, err := s.pre.Preprocess(data)
	if err != nil {
		if !errors.Is(err, common.ErrInvalidInput) {
			err = fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
		}
		return nil, err
	}
	// The stored object is labelled by its content, not by the client's claim.
	if detected != contentType {
		s.log.Debug(ctx, "declared content type differs from image data",
			"user_id", user.ID, "declared", contentType, "detected", detected)
		contentType, ext = detected, storage.ExtensionFor(detected)
	}

	if !s.scorer.Ready() {
		return nil, common.ErrServiceUnavailable
	}

	filename = cleanFilename(filename)
	key := storage.NewKey(user.ID, ext, s.now())
	log := s.log.With("user_id", user.ID, "filename", filename, "storage_key", key)

	url, err := s.store.Store(ctx, key, contentType, data)
	if err != nil {
		log.Error(ctx, "upload failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}

	score, err := s.scorer.Classify(ctx, tensor)
	if err != nil {
		log.Error(ctx, "inference failed, upload left in place", "error", err)
		if errors.Is(err, common.ErrServiceUnavailable) {
			return nil, common.ErrServiceUnavailable
		}
		return nil, fmt.Errorf("%w: %v", common.ErrClassificationFailed, err)
	}

	result, err := classifier.Verdict(score)
	if err != nil {
		log.Error(ctx, "invalid classifier output, upload left in place", "score", score, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrClassificationFailed, err)
	}

	rec := &models.AnalysisRecord{
		UserID:           user.ID,
		OriginalFilename: filename,
		StorageURL:       url,
		Result:           result,
		CreatedAt:        s.now().UTC(),
	}
	if _, err := s.repomanager.Analyses(s.db).Create(ctx, rec); err != nil {
		log.Error(ctx, "analysis not persisted", "prediction", result.Prediction.String(), "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrPersistenceFailed, err)
	}

	if err := s.cache.Invalidate(ctx, user.ID); err != nil {
		log.Warn(ctx, "history cache invalidation failed", "error", err)
	}

	log.Info(ctx, "analysis stored", "analysis_id", rec.ID,
		"prediction", result.Prediction.String(), "confidence", result.Confidence)
	return &result, nil
}

// cleanFilename keeps the base name as valid UTF-8 without NUL bytes,
// cut to at most maxFilenameLen bytes on a rune boundary.
func cleanFilename(name string) string {
	name = strings.ToValidUTF8(name, "\uFFFD")
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "upload"
	}
	if len(name) > maxFilenameLen {
		cut := maxFilenameLen
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	return name
}
