package features

import (
	"errors"

	"github.com/trafficlens/trafficlens/pkg/dataset"
)

// Columns dropped before feature expansion when present. They identify
// rows rather than describe traffic.
var irrelevantColumns = map[string]struct{}{
	"Timestamp": {},
	"ID":        {},
}

// Prepared is the numeric view of a cleaned batch together with the
// fitted state needed to transform new rows identically.
type Prepared struct {
	// X holds the scaled feature rows; row i corresponds to row i of
	// the source batch.
	X [][]float64
	// ColumnNames are the expanded feature columns, in the exact order
	// used for scaling.
	ColumnNames []string
	// Y is the encoded label vector.
	Y []int

	Encoder *LabelEncoder
	Scaler  *StandardScaler

	// ClassCounts holds the number of rows per label code.
	ClassCounts []int
}

// Prepare derives the feature matrix from a cleaned batch: the label
// column is integer-encoded, identifier columns are dropped,
// categorical columns are expanded drop-first into indicators and the
// result is standard-scaled.
//
// The scaler is fitted on the full matrix before any split. That
// reproduces the historical pipeline; it leaks test statistics into
// training and is kept deliberately for comparable metrics.
func Prepare(f *dataset.Frame) (*Prepared, error) {
	label := f.Column(dataset.LabelColumn)
	if label == nil {
		return nil, dataset.ErrNoLabelColumn
	}
	if f.NumRows() == 0 {
		return nil, errors.New("features: empty batch")
	}

	labels := make([]string, f.NumRows())
	for i := range labels {
		labels[i] = label.Category(i)
	}
	enc := &LabelEncoder{}
	y := enc.FitTransform(labels)

	counts := make([]int, enc.NumClasses())
	for _, code := range y {
		counts[code]++
	}

	var names []string
	var getters []func(row int) float64
	for _, c := range f.Columns() {
		if c.Name == dataset.LabelColumn {
			continue
		}
		if _, drop := irrelevantColumns[c.Name]; drop {
			continue
		}
		col := c
		if col.Kind == dataset.Numeric {
			names = append(names, col.Name)
			getters = append(getters, func(row int) float64 { return col.Float(row) })
			continue
		}
		// Drop-first indicator expansion: the first category is the
		// reference level.
		cats := col.Categories()
		for _, cat := range cats[min(1, len(cats)):] {
			cat := cat
			names = append(names, col.Name+"_"+cat)
			getters = append(getters, func(row int) float64 {
				if col.Category(row) == cat {
					return 1
				}
				return 0
			})
		}
	}
	if len(names) == 0 {
		return nil, errors.New("features: no feature columns after preparation")
	}

	raw := make([][]float64, f.NumRows())
	for i := range raw {
		row := make([]float64, len(names))
		for j, get := range getters {
			row[j] = get(i)
		}
		raw[i] = row
	}

	scaler := &StandardScaler{}
	if err := scaler.Fit(raw); err != nil {
		return nil, err
	}
	scaled, err := scaler.Transform(raw)
	if err != nil {
		return nil, err
	}

	return &Prepared{
		X:           scaled,
		ColumnNames: names,
		Y:           y,
		Encoder:     enc,
		Scaler:      scaler,
		ClassCounts: counts,
	}, nil
}
