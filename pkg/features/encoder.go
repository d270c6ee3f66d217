// Package features turns cleaned batches into purely numeric feature
// matrices: label encoding, drop-first one-hot expansion, standard
// scaling and a seeded stratified train/test split.
package features

import (
	"fmt"
	"sort"
)

// LabelEncoder maps distinct label values to contiguous integer codes.
// Codes are assigned in sorted value order, so encoding is stable for
// a given set of labels.
type LabelEncoder struct {
	Classes []string
	index   map[string]int
}

// Fit learns the class set from the given values.
func (e *LabelEncoder) Fit(values []string) {
	seen := make(map[string]struct{})
	for _, v := range values {
		seen[v] = struct{}{}
	}
	e.Classes = e.Classes[:0]
	for v := range seen {
		e.Classes = append(e.Classes, v)
	}
	sort.Strings(e.Classes)

	e.index = make(map[string]int, len(e.Classes))
	for i, v := range e.Classes {
		e.index[v] = i
	}
}

// Transform encodes values using the fitted class set.
func (e *LabelEncoder) Transform(values []string) ([]int, error) {
	if e.index == nil {
		return nil, fmt.Errorf("features: label encoder not fitted")
	}
	out := make([]int, len(values))
	for i, v := range values {
		code, ok := e.index[v]
		if !ok {
			return nil, fmt.Errorf("features: unseen label %q", v)
		}
		out[i] = code
	}
	return out, nil
}

// FitTransform fits the encoder and encodes the same values.
func (e *LabelEncoder) FitTransform(values []string) []int {
	e.Fit(values)
	out, _ := e.Transform(values)
	return out
}

// Inverse returns the label value for a code.
func (e *LabelEncoder) Inverse(code int) string {
	if code < 0 || code >= len(e.Classes) {
		return ""
	}
	return e.Classes[code]
}

// NumClasses returns the number of distinct labels seen at fit time.
func (e *LabelEncoder) NumClasses() int { return len(e.Classes) }
