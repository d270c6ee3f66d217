package forest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		wantNTrees int
	}{
		{
			name:       "default configuration",
			opts:       nil,
			wantNTrees: 100,
		},
		{
			name:       "custom trees",
			opts:       []Option{WithTrees(300)},
			wantNTrees: 300,
		},
		{
			name:       "multiple options",
			opts:       []Option{WithTrees(50), WithMaxDepth(8), WithSeed(7)},
			wantNTrees: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.opts...)
			assert.Equal(t, tt.wantNTrees, c.NumTrees())
		})
	}
}

// twoBlobs builds a linearly separable two-class problem.
func twoBlobs(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := range x {
		if i%2 == 0 {
			x[i] = []float64{rng.NormFloat64() - 5, rng.NormFloat64() - 5}
			y[i] = 0
		} else {
			x[i] = []float64{rng.NormFloat64() + 5, rng.NormFloat64() + 5}
			y[i] = 1
		}
	}
	return x, y
}

func TestFit(t *testing.T) {
	tests := []struct {
		name    string
		x       [][]float64
		y       []int
		wantErr bool
	}{
		{
			name:    "empty data",
			x:       [][]float64{},
			y:       []int{},
			wantErr: true,
		},
		{
			name:    "mismatched labels",
			x:       [][]float64{{1}, {2}},
			y:       []int{0},
			wantErr: true,
		},
		{
			name:    "negative label code",
			x:       [][]float64{{1}, {2}},
			y:       []int{0, -1},
			wantErr: true,
		},
		{
			name:    "single class",
			x:       [][]float64{{1}, {2}, {3}},
			y:       []int{0, 0, 0},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(WithTrees(5), WithSeed(42))
			err := c.Fit(tt.x, tt.y)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPredictSeparable(t *testing.T) {
	x, y := twoBlobs(200, 1)
	c := New(WithTrees(20), WithSeed(42))
	require.NoError(t, c.Fit(x, y))

	pred, err := c.Predict([][]float64{{-5, -5}, {5, 5}, {-4, -6}, {6, 4}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0, 1}, pred)
}

func TestPredictErrors(t *testing.T) {
	c := New(WithTrees(5))
	_, err := c.Predict([][]float64{{1, 2}})
	assert.Error(t, err, "predict before fit")

	x, y := twoBlobs(50, 2)
	require.NoError(t, c.Fit(x, y))
	_, err = c.Predict([][]float64{{1}})
	assert.Error(t, err, "feature count mismatch")
}

func TestFitDeterministic(t *testing.T) {
	x, y := twoBlobs(120, 3)
	probe := [][]float64{{0.4, -0.2}, {1.5, 0.1}, {-0.7, 0.9}}

	a := New(WithTrees(15), WithSeed(42))
	require.NoError(t, a.Fit(x, y))
	pa, err := a.Predict(probe)
	require.NoError(t, err)

	b := New(WithTrees(15), WithSeed(42))
	require.NoError(t, b.Fit(x, y))
	pb, err := b.Predict(probe)
	require.NoError(t, err)

	assert.Equal(t, pa, pb)
}

func TestSaveLoad(t *testing.T) {
	x, y := twoBlobs(150, 4)
	original := New(WithTrees(10), WithSeed(42))
	require.NoError(t, original.Fit(x, y))

	probe, _ := twoBlobs(30, 5)
	want, err := original.Predict(probe)
	require.NoError(t, err)

	data, err := original.Save()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	loaded := New()
	require.NoError(t, loaded.Load(data))
	got, err := loaded.Predict(probe)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveBeforeFit(t *testing.T) {
	_, err := New().Save()
	assert.Error(t, err)
}

func TestGini(t *testing.T) {
	assert.Equal(t, 0.0, gini([]int{4, 0}, 4))
	assert.Equal(t, 0.5, gini([]int{2, 2}, 4))
}

func BenchmarkFit(b *testing.B) {
	x, y := twoBlobs(1000, 6)
	c := New(WithTrees(50), WithSeed(42))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Fit(x, y)
	}
}
