package models

import (
	"encoding/json"
	"fmt"
)

// Prediction is the classifier's label. Only PredictionReal and
// PredictionFake are valid; the zero value is invalid.
type Prediction uint8

const (
	PredictionReal Prediction = iota + 1
	PredictionFake
)

// ParsePrediction accepts exactly "Real" or "Fake".
func ParsePrediction(s string) (Prediction, error) {
	switch s {
	case "Real":
		return PredictionReal, nil
	case "Fake":
		return PredictionFake, nil
	default:
		return 0, fmt.Errorf("unknown prediction %q", s)
	}
}

func (p Prediction) String() string {
	switch p {
	case PredictionReal:
		return "Real"
	case PredictionFake:
		return "Fake"
	default:
		return fmt.Sprintf("Prediction(%d)", uint8(p))
	}
}

// Valid reports whether p is one of the two labels.
func (p Prediction) Valid() bool {
	return p == PredictionReal || p == PredictionFake
}

func (p Prediction) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("marshal invalid prediction %d", uint8(p))
	}
	return json.Marshal(p.String())
}

func (p *Prediction) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParsePrediction(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
