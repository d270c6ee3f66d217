package dataset

import (
	"math"
	"sort"
)

// Clean applies the full quality pass to a batch: rows with a missing
// label are dropped, infinities become missing, and missing numeric
// cells are filled with their column's median.
func Clean(f *Frame) error {
	if err := normalize(f); err != nil {
		return err
	}
	imputeMedians(f)
	return nil
}

// normalize drops rows with a missing label and converts infinite
// numeric values to missing so the median fill picks them up.
func normalize(f *Frame) error {
	label := f.Column(LabelColumn)
	if label == nil {
		return ErrNoLabelColumn
	}

	keep := make([]bool, f.NumRows())
	dropped := false
	for i := range keep {
		keep[i] = !label.Missing(i)
		if !keep[i] {
			dropped = true
		}
	}
	if dropped {
		f.filterRows(keep)
	}

	for _, c := range f.Columns() {
		if c.Kind != Numeric {
			continue
		}
		for i, v := range c.floats {
			if math.IsInf(float64(v), 0) {
				c.floats[i] = float32(math.NaN())
			}
		}
	}
	return nil
}

// imputeMedians fills missing numeric cells with the column median
// computed over the non-missing values of the same batch. A column
// with no observed values at all is filled with zero.
func imputeMedians(f *Frame) {
	for _, c := range f.Columns() {
		if c.Kind != Numeric {
			continue
		}
		present := make([]float64, 0, len(c.floats))
		for _, v := range c.floats {
			if !math.IsNaN(float64(v)) {
				present = append(present, float64(v))
			}
		}
		var fill float64
		if len(present) > 0 {
			fill = median(present)
		}
		for i, v := range c.floats {
			if math.IsNaN(float64(v)) {
				c.floats[i] = float32(fill)
			}
		}
	}
}

// median returns the middle value, averaging the two central elements
// for even-length input. The slice is sorted in place.
func median(vals []float64) float64 {
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}
