package features

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers each feature column to zero mean and scales
// it to unit variance. The statistics fitted once must be reused for
// any later data so column order and scale stay identical.
type StandardScaler struct {
	Means []float64
	Stds  []float64
}

// Fit computes per-column mean and standard deviation. Constant
// columns get a unit scale so transforming them yields zeros instead
// of NaN.
func (s *StandardScaler) Fit(rows [][]float64) error {
	if len(rows) == 0 {
		return fmt.Errorf("features: cannot fit scaler on empty matrix")
	}
	nCols := len(rows[0])
	s.Means = make([]float64, nCols)
	s.Stds = make([]float64, nCols)

	col := make([]float64, len(rows))
	for j := 0; j < nCols; j++ {
		for i, row := range rows {
			col[i] = row[j]
		}
		s.Means[j] = stat.Mean(col, nil)
		s.Stds[j] = stat.StdDev(col, nil)
		if s.Stds[j] == 0 || len(rows) == 1 {
			s.Stds[j] = 1
		}
	}
	return nil
}

// Transform returns a scaled copy of the rows.
func (s *StandardScaler) Transform(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(s.Means) {
			return nil, fmt.Errorf("features: row has %d columns, scaler fitted on %d", len(row), len(s.Means))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Means[j]) / s.Stds[j]
		}
		out[i] = scaled
	}
	return out, nil
}
