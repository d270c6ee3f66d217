package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficlens/trafficlens/pkg/models"
)

func TestEvaluate(t *testing.T) {
	yTrue := []int{0, 0, 1, 1, 1}
	yPred := []int{0, 1, 1, 1, 0}

	r, err := Evaluate(yTrue, yPred, []string{"attack", "normal"})
	require.NoError(t, err)

	assert.InDelta(t, 0.6, r.Accuracy, 1e-12)
	assert.Equal(t, [][]int{{1, 1}, {1, 2}}, r.Confusion)

	// attack: 1 of 2 predictions correct, 1 of 2 true rows recovered.
	assert.InDelta(t, 0.5, r.Metrics[0].Precision, 1e-12)
	assert.InDelta(t, 0.5, r.Metrics[0].Recall, 1e-12)
	assert.Equal(t, 2, r.Metrics[0].Support)

	// normal: 2 of 3 predictions correct, 2 of 3 true rows recovered.
	assert.InDelta(t, 2.0/3, r.Metrics[1].Precision, 1e-12)
	assert.InDelta(t, 2.0/3, r.Metrics[1].Recall, 1e-12)
	assert.Equal(t, 3, r.Metrics[1].Support)
}

func TestEvaluateConfusionRowSums(t *testing.T) {
	yTrue := []int{0, 1, 2, 1, 0, 2, 2}
	yPred := []int{0, 2, 2, 1, 1, 0, 2}

	r, err := Evaluate(yTrue, yPred, []string{"a", "b", "c"})
	require.NoError(t, err)

	counts := make([]int, 3)
	for _, c := range yTrue {
		counts[c]++
	}
	correct := make([]int, 3)
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct[yTrue[i]]++
		}
	}
	for c := 0; c < 3; c++ {
		sum := 0
		for j := 0; j < 3; j++ {
			sum += r.Confusion[c][j]
		}
		assert.Equal(t, counts[c], sum, "row sum for class %d", c)
		assert.Equal(t, correct[c], r.Confusion[c][c], "diagonal for class %d", c)
	}
}

func TestEvaluatePerfect(t *testing.T) {
	r, err := Evaluate([]int{0, 1, 0}, []int{0, 1, 0}, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.Accuracy)
	assert.Equal(t, 1.0, r.Metrics[0].F1)
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []int
		yPred   []int
		classes []string
	}{
		{"length mismatch", []int{0, 1}, []int{0}, []string{"a", "b"}},
		{"empty", nil, nil, []string{"a"}},
		{"code out of range", []int{0, 2}, []int{0, 0}, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.yTrue, tt.yPred, tt.classes)
			assert.Error(t, err)
		})
	}
}

func TestReportText(t *testing.T) {
	r, err := Evaluate([]int{0, 1, 1}, []int{0, 1, 0}, []string{"attack", "normal"})
	require.NoError(t, err)

	text := r.Text()
	assert.Contains(t, text, "precision")
	assert.Contains(t, text, "attack")
	assert.Contains(t, text, "normal")
	assert.Contains(t, text, "accuracy")
}

func TestJoinVerdicts(t *testing.T) {
	verdicts := []models.Verdict{models.Anomaly, models.Normal, models.Anomaly}
	scan, err := JoinVerdicts(6, []int{4, 0, 2}, verdicts)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 4}, scan.Flagged)
	assert.True(t, scan.Alert)
	assert.Equal(t, 3, scan.Scored)

	assert.Equal(t, models.Anomaly, scan.Verdicts[4])
	assert.Equal(t, models.Normal, scan.Verdicts[0])
	assert.Equal(t, models.Anomaly, scan.Verdicts[2])
	// Rows outside the scored partition stay unscored, never defaulted.
	assert.Equal(t, models.NotScored, scan.Verdicts[1])
	assert.Equal(t, models.NotScored, scan.Verdicts[3])
	assert.Equal(t, models.NotScored, scan.Verdicts[5])
}

func TestJoinVerdictsNoAnomalies(t *testing.T) {
	scan, err := JoinVerdicts(3, []int{0, 1}, []models.Verdict{models.Normal, models.Normal})
	require.NoError(t, err)
	assert.False(t, scan.Alert, "zero flagged rows is a success state")
	assert.Empty(t, scan.Flagged)
}

func TestJoinVerdictsErrors(t *testing.T) {
	_, err := JoinVerdicts(3, []int{0}, nil)
	assert.Error(t, err)

	_, err = JoinVerdicts(3, []int{5}, []models.Verdict{models.Normal})
	assert.Error(t, err)
}
