// Package eval computes evaluation artifacts for a trained classifier:
// accuracy, a per-class precision/recall/F1 report and a confusion
// matrix, plus the anomaly-scan view that joins detector verdicts back
// onto the combined batch.
package eval

import (
	"fmt"
	"strings"
)

// ClassMetrics are the per-class quality numbers.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report summarizes classifier performance on the held-out partition.
// It is transient: recomputed on every run, never persisted.
type Report struct {
	Accuracy float64 `json:"accuracy"`

	// Classes holds label values ordered by code; Metrics and the
	// Confusion axes follow the same order.
	Classes []string       `json:"classes"`
	Metrics []ClassMetrics `json:"metrics"`

	// Confusion[i][j] counts rows with true code i predicted as j.
	Confusion [][]int `json:"confusion"`
}

// Evaluate builds a Report from true and predicted label codes.
// classes maps codes to display names and fixes the matrix order.
func Evaluate(yTrue, yPred []int, classes []string) (*Report, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("eval: %d true labels but %d predictions", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return nil, fmt.Errorf("eval: empty test partition")
	}

	n := len(classes)
	confusion := make([][]int, n)
	for i := range confusion {
		confusion[i] = make([]int, n)
	}

	correct := 0
	for i, t := range yTrue {
		p := yPred[i]
		if t < 0 || t >= n || p < 0 || p >= n {
			return nil, fmt.Errorf("eval: label code out of range (true %d, predicted %d, %d classes)", t, p, n)
		}
		confusion[t][p]++
		if t == p {
			correct++
		}
	}

	metrics := make([]ClassMetrics, n)
	for c := 0; c < n; c++ {
		var truePos, predicted, support int
		for j := 0; j < n; j++ {
			predicted += confusion[j][c]
			support += confusion[c][j]
		}
		truePos = confusion[c][c]

		m := ClassMetrics{Support: support}
		if predicted > 0 {
			m.Precision = float64(truePos) / float64(predicted)
		}
		if support > 0 {
			m.Recall = float64(truePos) / float64(support)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		metrics[c] = m
	}

	return &Report{
		Accuracy:  float64(correct) / float64(len(yTrue)),
		Classes:   classes,
		Metrics:   metrics,
		Confusion: confusion,
	}, nil
}

// Text renders the per-class report in the familiar tabular form.
func (r *Report) Text() string {
	width := len("class")
	for _, c := range r.Classes {
		if len(c) > width {
			width = len(c)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s  precision  recall  f1-score  support\n\n", width, "")
	total := 0
	for i, c := range r.Classes {
		m := r.Metrics[i]
		fmt.Fprintf(&b, "%*s  %9.2f  %6.2f  %8.2f  %7d\n", width, c, m.Precision, m.Recall, m.F1, m.Support)
		total += m.Support
	}
	fmt.Fprintf(&b, "\n%*s  %9s  %6s  %8.2f  %7d\n", width, "accuracy", "", "", r.Accuracy, total)
	return b.String()
}
