package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// DefaultChunkSize is the number of rows read and cleaned at a time.
const DefaultChunkSize = 10000

// Source is one uploaded tabular file.
type Source struct {
	Name   string
	Reader io.Reader
}

// Options controls loading and cleaning behavior.
type Options struct {
	// ChunkSize bounds peak memory during ingestion. Zero means
	// DefaultChunkSize.
	ChunkSize int

	// GlobalMedians defers all imputation to a single pass over the
	// combined batch. The per-chunk default reproduces the historical
	// behavior: fill values depend on chunk boundaries. Cells left
	// missing by cross-file schema differences are filled from the
	// combined batch in either mode.
	GlobalMedians bool
}

func (o Options) chunkSize() int {
	if o.ChunkSize > 0 {
		return o.ChunkSize
	}
	return DefaultChunkSize
}

// Load reads every source in upload order and returns the combined,
// cleaned batch. Each file is consumed in fixed-size row chunks; each
// chunk is independently cleaned and appended, preserving row order
// within and across files.
func Load(sources []Source, opts Options) (*Frame, error) {
	combined := NewFrame()
	total := 0
	for _, src := range sources {
		n, err := loadOne(combined, src, opts)
		if err != nil {
			return nil, fmt.Errorf("dataset: load %s: %w", src.Name, err)
		}
		total += n
	}
	if total == 0 {
		return nil, errors.New("dataset: no rows in upload")
	}
	// Appending files with different schemas leaves missing cells in
	// columns one side lacks. The final pass fills those from the
	// combined batch, so no numeric cell survives ingestion missing.
	imputeMedians(combined)
	return combined, nil
}

func loadOne(combined *Frame, src Source, opts Options) (int, error) {
	r := csv.NewReader(src.Reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	header = normalizeHeader(header)

	rows := 0
	size := opts.chunkSize()
	records := make([][]string, 0, size)

	flush := func() error {
		if len(records) == 0 {
			return nil
		}
		chunk, err := buildChunk(header, records)
		if err != nil {
			return err
		}
		if err := normalize(chunk); err != nil {
			return err
		}
		if !opts.GlobalMedians {
			imputeMedians(chunk)
		}
		combined.Append(chunk)
		rows += chunk.NumRows()
		records = records[:0]
		return nil
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}
		records = append(records, record)
		if len(records) == size {
			if err := flush(); err != nil {
				return rows, err
			}
		}
	}
	if err := flush(); err != nil {
		return rows, err
	}
	return rows, nil
}

// normalizeHeader trims surrounding whitespace and canonicalizes the
// label column: "label" and "Class" both become "Label".
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		out[i] = strings.TrimSpace(name)
	}
	for i, name := range out {
		if name == "label" {
			out[i] = LabelColumn
			return out
		}
	}
	for i, name := range out {
		if name == "Class" {
			out[i] = LabelColumn
			return out
		}
	}
	return out
}

// buildChunk infers a schema for one chunk of records and materializes
// typed columns. A column is numeric when every non-missing cell parses
// as a float; otherwise it is categorical. Files without a label column
// get a constant "normal" label.
func buildChunk(header []string, records [][]string) (*Frame, error) {
	frame := NewFrame()
	n := len(records)

	for j, name := range header {
		raw := make([]string, n)
		for i, rec := range records {
			if j < len(rec) {
				raw[i] = strings.TrimSpace(rec[j])
			}
		}
		col := buildColumn(name, raw)
		if err := frame.AddColumn(col); err != nil {
			return nil, err
		}
	}

	if !frame.HasColumn(LabelColumn) {
		codes := make([]int32, n)
		if err := frame.AddColumn(&Column{
			Name:  LabelColumn,
			Kind:  Categorical,
			codes: codes,
			dict:  []string{"normal"},
		}); err != nil {
			return nil, err
		}
	} else {
		// The label is a category even when its values look numeric.
		frame.Column(LabelColumn).toCategorical()
	}
	return frame, nil
}

func buildColumn(name string, raw []string) *Column {
	numeric := true
	floats := make([]float32, len(raw))
	for i, v := range raw {
		if isMissingToken(v) {
			floats[i] = float32(math.NaN())
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			numeric = false
			break
		}
		if math.IsNaN(f) {
			floats[i] = float32(math.NaN())
		} else {
			floats[i] = float32(f)
		}
	}
	if numeric {
		return &Column{Name: name, Kind: Numeric, floats: floats}
	}

	vals := make([]string, len(raw))
	for i, v := range raw {
		if isMissingToken(v) {
			vals[i] = ""
		} else {
			vals[i] = v
		}
	}
	codes, dict := encodeCategories(vals)
	return &Column{Name: name, Kind: Categorical, codes: codes, dict: dict}
}

// FromRecords builds a cleaned batch from in-memory records, applying
// the same schema inference and quality pass as CSV ingestion.
func FromRecords(header []string, records [][]string) (*Frame, error) {
	chunk, err := buildChunk(normalizeHeader(header), records)
	if err != nil {
		return nil, err
	}
	if err := Clean(chunk); err != nil {
		return nil, err
	}
	return chunk, nil
}

func isMissingToken(v string) bool {
	switch strings.ToLower(v) {
	case "", "na", "n/a", "nan", "null":
		return true
	}
	return false
}
