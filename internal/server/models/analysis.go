// Package models defines the server-side entities shared by services,
// repositories and the HTTP layer.
package models

import (
	"fmt"
	"math"
	"time"
)

// AnalysisResult is the verdict returned to the caller and embedded in the
// stored record.
type AnalysisResult struct {
	Prediction Prediction `json:"prediction"`
	Confidence float64    `json:"confidence"`
	IsDeepfake bool       `json:"is_deepfake"`
}

// Validate checks the invariants every stored or returned result must hold:
// a known label, confidence in [0.5, 1.0], and is_deepfake matching the label.
func (r AnalysisResult) Validate() error {
	if !r.Prediction.Valid() {
		return fmt.Errorf("invalid prediction %v", r.Prediction)
	}
	if math.IsNaN(r.Confidence) || r.Confidence < 0.5 || r.Confidence > 1.0 {
		return fmt.Errorf("confidence %v out of range [0.5, 1.0]", r.Confidence)
	}
	if r.IsDeepfake != (r.Prediction == PredictionFake) {
		return fmt.Errorf("is_deepfake=%v inconsistent with %v", r.IsDeepfake, r.Prediction)
	}
	return nil
}

// AnalysisRecord is one persisted analysis, owned by UserID. Records are
// immutable once created.
type AnalysisRecord struct {
	ID               string         `json:"id"`
	UserID           string         `json:"user_id"`
	OriginalFilename string         `json:"original_filename"`
	StorageURL       string         `json:"storage_url"`
	Result           AnalysisResult `json:"result"`
	CreatedAt        time.Time      `json:"created_at"`
}
