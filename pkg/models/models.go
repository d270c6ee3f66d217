// Package models defines the shared contracts for the trainable parts
// of the pipeline: the supervised classifier and the unsupervised
// anomaly detector.
package models

import "encoding/json"

// Verdict is the anomaly decision for a single row. Rows the detector
// never scored stay NotScored and serialize as JSON null, so callers
// can tell "not examined" apart from "examined and normal".
type Verdict int8

const (
	NotScored Verdict = iota
	Normal
	Anomaly
)

func (v Verdict) String() string {
	switch v {
	case Normal:
		return "Normal"
	case Anomaly:
		return "Anomaly"
	default:
		return ""
	}
}

// MarshalJSON renders NotScored as null.
func (v Verdict) MarshalJSON() ([]byte, error) {
	if v == NotScored {
		return []byte("null"), nil
	}
	return json.Marshal(v.String())
}

// Classifier is a supervised model mapping feature vectors to label
// codes.
type Classifier interface {
	// Fit trains on rows x with label codes y.
	Fit(x [][]float64, y []int) error

	// Predict returns a label code per row.
	Predict(x [][]float64) ([]int, error)

	// Save serializes the trained model.
	Save() ([]byte, error)

	// Load restores a trained model.
	Load(data []byte) error
}

// Detector is an unsupervised model scoring rows for anomaly.
type Detector interface {
	// Fit trains on unlabeled feature rows.
	Fit(x [][]float64) error

	// Scores returns an anomaly score in [0, 1] per row; higher means
	// more anomalous.
	Scores(x [][]float64) ([]float64, error)

	// Verdicts maps each row to Normal or Anomaly using the detector's
	// calibrated threshold.
	Verdicts(x [][]float64) ([]Verdict, error)

	Save() ([]byte, error)
	Load(data []byte) error
}

// Config carries the knobs shared by detector construction.
type Config struct {
	// Contamination is the expected proportion of anomalies in the
	// training data; it calibrates the decision threshold.
	Contamination float64
	// Seed drives every random choice for reproducibility.
	Seed int64
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		Contamination: 0.1,
		Seed:          42,
	}
}
