package dataset

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, csv string, opts Options) *Frame {
	t.Helper()
	f, err := Load([]Source{{Name: "test.csv", Reader: strings.NewReader(csv)}}, opts)
	require.NoError(t, err)
	return f
}

func TestLoadLabelNormalization(t *testing.T) {
	tests := []struct {
		name       string
		csv        string
		wantLabels []string
	}{
		{
			name:       "lowercase label renamed",
			csv:        "duration,label\n1,normal\n2,attack\n",
			wantLabels: []string{"normal", "attack"},
		},
		{
			name:       "Class renamed",
			csv:        "duration,Class\n1,normal\n2,attack\n",
			wantLabels: []string{"normal", "attack"},
		},
		{
			name:       "missing label column defaults to normal",
			csv:        "duration,protocol\n1,tcp\n2,udp\n",
			wantLabels: []string{"normal", "normal"},
		},
		{
			name:       "header whitespace trimmed",
			csv:        " duration , Class \n1,normal\n2,attack\n",
			wantLabels: []string{"normal", "attack"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := load(t, tt.csv, Options{})
			label := f.Column(LabelColumn)
			require.NotNil(t, label)
			require.Equal(t, len(tt.wantLabels), f.NumRows())
			for i, want := range tt.wantLabels {
				assert.Equal(t, want, label.Category(i))
			}
		})
	}
}

func TestLoadDropsRowsWithMissingLabel(t *testing.T) {
	f := load(t, "duration,Class\n1,normal\n2,\n3,attack\n", Options{})

	require.Equal(t, 2, f.NumRows())
	label := f.Column(LabelColumn)
	for i := 0; i < f.NumRows(); i++ {
		assert.False(t, label.Missing(i), "row %d has a missing label after ingestion", i)
	}
}

func TestLoadImputesMissingWithMedian(t *testing.T) {
	f := load(t, "duration,Class\n1,a\n,a\n5,a\n7,a\n", Options{})

	col := f.Column("duration")
	require.NotNil(t, col)
	// Median of the present values 1, 5, 7.
	assert.Equal(t, 5.0, col.Float(1))
	for i := 0; i < f.NumRows(); i++ {
		assert.False(t, col.Missing(i))
	}
}

func TestLoadReplacesInfinitiesWithMedian(t *testing.T) {
	f := load(t, "duration,Class\n1,a\nInfinity,a\n3,a\n-Inf,a\n", Options{})

	col := f.Column("duration")
	require.NotNil(t, col)
	for i := 0; i < f.NumRows(); i++ {
		assert.False(t, math.IsInf(col.Float(i), 0), "row %d still infinite", i)
		assert.False(t, col.Missing(i))
	}
	// Median of the finite values 1 and 3.
	assert.Equal(t, 2.0, col.Float(1))
	assert.Equal(t, 2.0, col.Float(3))
}

func TestLoadMedianScope(t *testing.T) {
	// Two chunks of two rows: the missing cell in the first chunk is
	// filled from that chunk alone under per-chunk semantics, from all
	// rows under global semantics.
	csv := "duration,Class\n1,a\n,a\n5,a\n7,a\n"

	perChunk := load(t, csv, Options{ChunkSize: 2})
	assert.Equal(t, 1.0, perChunk.Column("duration").Float(1))

	global := load(t, csv, Options{ChunkSize: 2, GlobalMedians: true})
	assert.Equal(t, 5.0, global.Column("duration").Float(1))
}

func TestLoadSchemaInference(t *testing.T) {
	f := load(t, "duration,protocol,Class\n1.5,tcp,normal\n2,udp,attack\n", Options{})

	assert.Equal(t, Numeric, f.Column("duration").Kind)
	assert.Equal(t, Categorical, f.Column("protocol").Kind)
	assert.Equal(t, Categorical, f.Column(LabelColumn).Kind)
	assert.ElementsMatch(t, []string{"tcp", "udp"}, f.Column("protocol").Categories())
}

func TestLoadMultipleFilesPreservesOrder(t *testing.T) {
	sources := []Source{
		{Name: "a.csv", Reader: strings.NewReader("duration,Class\n1,normal\n2,normal\n")},
		{Name: "b.csv", Reader: strings.NewReader("duration,Class\n3,attack\n")},
	}
	f, err := Load(sources, Options{})
	require.NoError(t, err)

	require.Equal(t, 3, f.NumRows())
	col := f.Column("duration")
	assert.Equal(t, []float64{1, 2, 3}, []float64{col.Float(0), col.Float(1), col.Float(2)})
	assert.Equal(t, "attack", f.Column(LabelColumn).Category(2))
}

func TestLoadUnionsDisjointColumns(t *testing.T) {
	sources := []Source{
		{Name: "a.csv", Reader: strings.NewReader("duration,Class\n1,normal\n3,normal\n")},
		{Name: "b.csv", Reader: strings.NewReader("bytes,Class\n9,attack\n")},
	}
	f, err := Load(sources, Options{})
	require.NoError(t, err)

	require.Equal(t, 3, f.NumRows())
	// Cells the union introduced are filled from the combined batch;
	// nothing numeric stays missing after ingestion.
	for _, name := range []string{"duration", "bytes"} {
		col := f.Column(name)
		require.NotNil(t, col)
		for i := 0; i < f.NumRows(); i++ {
			assert.False(t, col.Missing(i), "%s row %d missing after ingestion", name, i)
		}
	}
	assert.Equal(t, 2.0, f.Column("duration").Float(2), "median of 1 and 3")
	assert.Equal(t, 9.0, f.Column("bytes").Float(0))
	assert.Equal(t, 9.0, f.Column("bytes").Float(1))
}

func TestLoadEmptyUpload(t *testing.T) {
	_, err := Load([]Source{{Name: "empty.csv", Reader: strings.NewReader("")}}, Options{})
	assert.Error(t, err)
}

func TestCleanRequiresLabelColumn(t *testing.T) {
	f := NewFrame()
	require.NoError(t, f.AddColumn(&Column{
		Name:   "duration",
		Kind:   Numeric,
		floats: []float32{1, 2},
	}))

	err := Clean(f)
	assert.ErrorIs(t, err, ErrNoLabelColumn)
}

func TestFromRecords(t *testing.T) {
	f, err := FromRecords(
		[]string{"duration", "Class"},
		[][]string{{"1", "normal"}, {"2", "attack"}},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, f.NumRows())
	assert.Equal(t, "attack", f.Column(LabelColumn).Category(1))
}

func TestFramePreviewAndRow(t *testing.T) {
	f := load(t, "duration,protocol,Class\n1,tcp,normal\n2,udp,attack\n3,tcp,normal\n", Options{})

	assert.Equal(t, []string{"duration", "protocol", LabelColumn}, f.Header())
	preview := f.Preview(2)
	require.Len(t, preview, 2)
	assert.Equal(t, []string{"1", "tcp", "normal"}, preview[0])
	assert.Equal(t, []string{"2", "udp", "attack"}, f.Row(1))
}

func TestFrameDrop(t *testing.T) {
	f := load(t, "Timestamp,duration,Class\n10,1,normal\n20,2,attack\n", Options{})
	f.Drop("Timestamp", "nonexistent")

	assert.False(t, f.HasColumn("Timestamp"))
	assert.Equal(t, []string{"duration", LabelColumn}, f.Header())
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 2, 3}))
	assert.Equal(t, 7.0, median([]float64{7}))
}
