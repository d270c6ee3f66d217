// Package dataset provides the tabular data model and ingestion for
// network-traffic batches: chunked CSV loading, label normalization,
// missing-value handling and memory-conscious column storage.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// LabelColumn is the canonical name of the target column.
const LabelColumn = "Label"

// ErrNoLabelColumn is returned when a batch reaches cleaning without a
// label column. The loader always installs one, so hitting this error
// indicates a column-detection bug upstream.
var ErrNoLabelColumn = errors.New("dataset: label column not found")

// Kind is the semantic type of a column.
type Kind int

const (
	// Numeric columns store floating point values, downcast to float32.
	Numeric Kind = iota
	// Categorical columns store codes into a bounded dictionary.
	Categorical
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "categorical"
}

// ColumnInfo describes one column of a Frame's schema.
type ColumnInfo struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Column holds a single typed column. Numeric cells are stored as
// float32 with NaN marking absence; categorical cells are dictionary
// codes with -1 marking absence.
type Column struct {
	Name   string
	Kind   Kind
	floats []float32
	codes  []int32
	dict   []string
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.floats)
	}
	return len(c.codes)
}

// Float returns the numeric value at row i. NaN means missing.
func (c *Column) Float(i int) float64 {
	return float64(c.floats[i])
}

// SetFloat stores a numeric value at row i.
func (c *Column) SetFloat(i int, v float64) {
	c.floats[i] = float32(v)
}

// Category returns the categorical value at row i, or "" when missing.
func (c *Column) Category(i int) string {
	code := c.codes[i]
	if code < 0 {
		return ""
	}
	return c.dict[code]
}

// Categories returns the column's dictionary in sorted order.
func (c *Column) Categories() []string {
	out := make([]string, len(c.dict))
	copy(out, c.dict)
	return out
}

// Missing reports whether the cell at row i holds no value.
func (c *Column) Missing(i int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(float64(c.floats[i]))
	}
	return c.codes[i] < 0
}

// cell renders the value at row i for display.
func (c *Column) cell(i int) string {
	if c.Missing(i) {
		return ""
	}
	if c.Kind == Numeric {
		return strconv.FormatFloat(float64(c.floats[i]), 'g', -1, 32)
	}
	return c.dict[c.codes[i]]
}

// toCategorical converts a numeric column in place, formatting each
// value through float32 so the dictionary stays bounded.
func (c *Column) toCategorical() {
	if c.Kind == Categorical {
		return
	}
	vals := make([]string, len(c.floats))
	for i, f := range c.floats {
		if math.IsNaN(float64(f)) {
			vals[i] = ""
		} else {
			vals[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
		}
	}
	c.Kind = Categorical
	c.floats = nil
	c.codes, c.dict = encodeCategories(vals)
}

// encodeCategories builds a sorted dictionary and per-row codes from
// raw string values. Empty strings become missing (-1).
func encodeCategories(vals []string) ([]int32, []string) {
	seen := make(map[string]struct{})
	for _, v := range vals {
		if v != "" {
			seen[v] = struct{}{}
		}
	}
	dict := make([]string, 0, len(seen))
	for v := range seen {
		dict = append(dict, v)
	}
	sort.Strings(dict)

	index := make(map[string]int32, len(dict))
	for i, v := range dict {
		index[v] = int32(i)
	}

	codes := make([]int32, len(vals))
	for i, v := range vals {
		if v == "" {
			codes[i] = -1
		} else {
			codes[i] = index[v]
		}
	}
	return codes, dict
}

// Frame is an ordered collection of equally sized typed columns. The
// schema is computed at ingestion and threaded through every later
// pipeline stage.
type Frame struct {
	cols   []*Column
	byName map[string]int
	rows   int
}

// NewFrame creates an empty frame.
func NewFrame() *Frame {
	return &Frame{byName: make(map[string]int)}
}

// NumRows returns the row count.
func (f *Frame) NumRows() int { return f.rows }

// NumCols returns the column count.
func (f *Frame) NumCols() int { return len(f.cols) }

// Schema returns the ordered column descriptors.
func (f *Frame) Schema() []ColumnInfo {
	out := make([]ColumnInfo, len(f.cols))
	for i, c := range f.cols {
		out[i] = ColumnInfo{Name: c.Name, Kind: c.Kind}
	}
	return out
}

// Column returns the named column, or nil when absent.
func (f *Frame) Column(name string) *Column {
	idx, ok := f.byName[name]
	if !ok {
		return nil
	}
	return f.cols[idx]
}

// HasColumn reports whether the named column exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.byName[name]
	return ok
}

// Columns returns the columns in schema order.
func (f *Frame) Columns() []*Column { return f.cols }

// AddColumn appends a column. The column length must match the frame's
// row count unless the frame is empty.
func (f *Frame) AddColumn(c *Column) error {
	if _, ok := f.byName[c.Name]; ok {
		return fmt.Errorf("dataset: duplicate column %q", c.Name)
	}
	if len(f.cols) > 0 && c.Len() != f.rows {
		return fmt.Errorf("dataset: column %q has %d rows, frame has %d", c.Name, c.Len(), f.rows)
	}
	if len(f.cols) == 0 {
		f.rows = c.Len()
	}
	f.byName[c.Name] = len(f.cols)
	f.cols = append(f.cols, c)
	return nil
}

// Rename changes a column's name, preserving its position.
func (f *Frame) Rename(from, to string) {
	idx, ok := f.byName[from]
	if !ok {
		return
	}
	delete(f.byName, from)
	f.cols[idx].Name = to
	f.byName[to] = idx
}

// Drop removes the named columns when present.
func (f *Frame) Drop(names ...string) {
	remove := make(map[string]struct{}, len(names))
	for _, n := range names {
		remove[n] = struct{}{}
	}
	kept := f.cols[:0]
	f.byName = make(map[string]int)
	for _, c := range f.cols {
		if _, ok := remove[c.Name]; ok {
			continue
		}
		f.byName[c.Name] = len(kept)
		kept = append(kept, c)
	}
	f.cols = kept
}

// filterRows keeps only the rows for which keep[i] is true.
func (f *Frame) filterRows(keep []bool) {
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	for _, c := range f.cols {
		if c.Kind == Numeric {
			out := make([]float32, 0, n)
			for i, k := range keep {
				if k {
					out = append(out, c.floats[i])
				}
			}
			c.floats = out
		} else {
			out := make([]int32, 0, n)
			for i, k := range keep {
				if k {
					out = append(out, c.codes[i])
				}
			}
			c.codes = out
		}
	}
	f.rows = n
}

// Append concatenates another frame below this one, matching columns
// by name. Columns present on only one side are filled with missing
// values; kind conflicts coerce both sides to categorical.
func (f *Frame) Append(other *Frame) {
	if other.rows == 0 {
		return
	}
	if f.rows == 0 && len(f.cols) == 0 {
		*f = *other
		return
	}

	for _, c := range f.cols {
		oc := other.Column(c.Name)
		if oc != nil && oc.Kind != c.Kind {
			c.toCategorical()
			oc.toCategorical()
		}
		switch {
		case oc == nil && c.Kind == Numeric:
			c.floats = append(c.floats, nanSlice(other.rows)...)
		case oc == nil:
			c.codes = append(c.codes, missingCodes(other.rows)...)
		case c.Kind == Numeric:
			c.floats = append(c.floats, oc.floats...)
		default:
			appendCategorical(c, oc)
		}
	}

	// Columns only the incoming frame has: missing for existing rows.
	for _, oc := range other.cols {
		if f.HasColumn(oc.Name) {
			continue
		}
		nc := &Column{Name: oc.Name, Kind: oc.Kind}
		if oc.Kind == Numeric {
			nc.floats = append(nanSlice(f.rows), oc.floats...)
		} else {
			nc.codes = missingCodes(f.rows)
			appendCategorical(nc, oc)
		}
		f.byName[nc.Name] = len(f.cols)
		f.cols = append(f.cols, nc)
	}

	f.rows += other.rows
}

// appendCategorical appends src's cells to dst, merging dictionaries.
func appendCategorical(dst, src *Column) {
	merged := make(map[string]struct{}, len(dst.dict)+len(src.dict))
	for _, v := range dst.dict {
		merged[v] = struct{}{}
	}
	for _, v := range src.dict {
		merged[v] = struct{}{}
	}
	dict := make([]string, 0, len(merged))
	for v := range merged {
		dict = append(dict, v)
	}
	sort.Strings(dict)

	index := make(map[string]int32, len(dict))
	for i, v := range dict {
		index[v] = int32(i)
	}

	remap := func(codes []int32, old []string) {
		for i, code := range codes {
			if code >= 0 {
				codes[i] = index[old[code]]
			}
		}
	}
	remap(dst.codes, dst.dict)

	srcCodes := make([]int32, len(src.codes))
	copy(srcCodes, src.codes)
	remap(srcCodes, src.dict)

	dst.dict = dict
	dst.codes = append(dst.codes, srcCodes...)
}

func nanSlice(n int) []float32 {
	out := make([]float32, n)
	nan := float32(math.NaN())
	for i := range out {
		out[i] = nan
	}
	return out
}

func missingCodes(n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = -1
	}
	return out
}

// Header returns the column names in schema order.
func (f *Frame) Header() []string {
	out := make([]string, len(f.cols))
	for i, c := range f.cols {
		out[i] = c.Name
	}
	return out
}

// Row renders row i as display strings in schema order.
func (f *Frame) Row(i int) []string {
	out := make([]string, len(f.cols))
	for j, c := range f.cols {
		out[j] = c.cell(i)
	}
	return out
}

// Preview returns up to n rendered rows for display.
func (f *Frame) Preview(n int) [][]string {
	if n > f.rows {
		n = f.rows
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		out[i] = f.Row(i)
	}
	return out
}
