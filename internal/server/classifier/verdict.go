package classifier

import (
	"fmt"
	"math"

	"github.com/dmitrijs2005/deepcheck/internal/server/models"
)

// Threshold splits scores: strictly above is Real, at or below is Fake.
const Threshold = 0.5

// Verdict maps a raw score to a result. Confidence is the probability of the
// chosen label rounded to 4 decimals, so it always lies in [0.5, 1].
func Verdict(score float64) (models.AnalysisResult, error) {
	if math.IsNaN(score) || score < 0 || score > 1 {
		return models.AnalysisResult{}, fmt.Errorf("score %v out of range [0, 1]", score)
	}

	if score > Threshold {
		return models.AnalysisResult{
			Prediction: models.PredictionReal,
			Confidence: round4(score),
			IsDeepfake: false,
		}, nil
	}
	return models.AnalysisResult{
		Prediction: models.PredictionFake,
		Confidence: round4(1 - score),
		IsDeepfake: true,
	}, nil
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
