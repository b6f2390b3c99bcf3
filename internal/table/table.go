// Package table implements the in-memory tabular core shared by every
// report generator: CSV loading with column-name normalization, tolerant
// filtering, inner joins, grouped aggregation, and the comparative delta
// engine.
//
// Cells are stored as strings; numeric views parse on demand with NaN as
// the missing-value sentinel. A missing or unparseable numeric cell is
// absent from aggregation, never treated as zero.
package table

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Table is a column-oriented table of named string columns.
type Table struct {
	names []string
	index map[string]int
	cols  [][]string // column-major; cols[i] has one cell per row
}

// New creates an empty table with the given column names.
func New(names ...string) *Table {
	t := &Table{
		names: append([]string(nil), names...),
		index: make(map[string]int, len(names)),
		cols:  make([][]string, len(names)),
	}
	for i, n := range names {
		t.index[n] = i
	}
	return t
}

// Load reads a delimited UTF-8 file with a header row into a table.
// The source file is never modified.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoHeader)
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	t := New(header...)
	for _, rec := range records[1:] {
		row := make([]string, len(header))
		copy(row, rec)
		t.AppendRow(row)
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0])
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.names...)
}

// Has reports whether a column with the exact name exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Resolve finds the actual column name for a canonical field by trying
// each candidate exactly, then case-insensitively. It returns the actual
// name and whether any candidate matched.
func (t *Table) Resolve(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if _, ok := t.index[c]; ok {
			return c, true
		}
	}
	for _, c := range candidates {
		for _, n := range t.names {
			if strings.EqualFold(n, c) {
				return n, true
			}
		}
	}
	return "", false
}

// Normalize renames columns to their canonical names using a synonym
// table. Each canonical field maps to an ordered list of candidate names;
// the first resolvable candidate is renamed to the canonical field.
// Resolution happens once at load time, so downstream code uses fixed names.
func (t *Table) Normalize(synonyms map[string][]string) {
	for canonical, candidates := range synonyms {
		actual, ok := t.Resolve(candidates...)
		if !ok || actual == canonical {
			continue
		}
		if t.Has(canonical) {
			continue
		}
		i := t.index[actual]
		delete(t.index, actual)
		t.names[i] = canonical
		t.index[canonical] = i
	}
}

// Require verifies that every listed field resolves to a column. A field
// that cannot be resolved yields an ErrMissingColumn naming the field.
func (t *Table) Require(fields ...string) error {
	for _, f := range fields {
		if _, ok := t.Resolve(f); !ok {
			return fmt.Errorf("%w: %q", ErrMissingColumn, f)
		}
	}
	return nil
}

// Coerce marks the designated columns as numeric, rewriting every cell
// that fails float parsing to the missing sentinel. Fields that do not
// exist are skipped.
func (t *Table) Coerce(fields ...string) {
	for _, f := range fields {
		i, ok := t.index[f]
		if !ok {
			continue
		}
		for j, cell := range t.cols[i] {
			if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err != nil {
				t.cols[i][j] = "NaN"
			}
		}
	}
}

// String returns the raw cell at (column, row), or "" for an unknown column.
func (t *Table) String(col string, row int) string {
	i, ok := t.index[col]
	if !ok {
		return ""
	}
	return t.cols[i][row]
}

// Float returns the numeric cell at (column, row); NaN when the cell is
// missing, unparseable, or the column unknown.
func (t *Table) Float(col string, row int) float64 {
	i, ok := t.index[col]
	if !ok {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(t.cols[i][row]), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Floats returns the full numeric view of a column.
func (t *Table) Floats(col string) []float64 {
	out := make([]float64, t.Len())
	for i := range out {
		out[i] = t.Float(col, i)
	}
	return out
}

// AppendRow appends one row of cells in column order. Short rows are
// padded with the missing sentinel.
func (t *Table) AppendRow(cells []string) {
	for i := range t.cols {
		if i < len(cells) {
			t.cols[i] = append(t.cols[i], cells[i])
		} else {
			t.cols[i] = append(t.cols[i], "NaN")
		}
	}
}

// AddColumn appends a numeric column. Values are stored in full precision;
// NaN round-trips as the missing sentinel.
func (t *Table) AddColumn(name string, values []float64) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	t.AddStringColumn(name, cells)
}

// AddStringColumn appends a string column.
func (t *Table) AddStringColumn(name string, cells []string) {
	t.index[name] = len(t.names)
	t.names = append(t.names, name)
	t.cols = append(t.cols, append([]string(nil), cells...))
}

// Select returns a new table holding only the listed columns, in order.
func (t *Table) Select(cols ...string) *Table {
	out := New(cols...)
	for i, c := range cols {
		if j, ok := t.index[c]; ok {
			out.cols[i] = append([]string(nil), t.cols[j]...)
		} else {
			out.cols[i] = make([]string, t.Len())
			for k := range out.cols[i] {
				out.cols[i][k] = "NaN"
			}
		}
	}
	return out
}

// Rename renames a column in place. Renaming to an existing name or from
// a missing one is a no-op.
func (t *Table) Rename(from, to string) {
	i, ok := t.index[from]
	if !ok || t.Has(to) {
		return
	}
	delete(t.index, from)
	t.names[i] = to
	t.index[to] = i
}

// Row returns one row of raw cells in column order.
func (t *Table) Row(row int) []string {
	out := make([]string, len(t.names))
	for i := range t.cols {
		out[i] = t.cols[i][row]
	}
	return out
}

// subset builds a new table from a selection of row indices.
func (t *Table) subset(rows []int) *Table {
	out := New(t.names...)
	for i := range t.cols {
		col := make([]string, len(rows))
		for j, r := range rows {
			col[j] = t.cols[i][r]
		}
		out.cols[i] = col
	}
	return out
}

// Sort orders rows ascending by the key tuple. Components that parse as
// numbers on both sides compare numerically, otherwise as strings, which
// keeps report output deterministic across runs.
func (t *Table) Sort(keys ...string) {
	idx := make([]int, t.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		for _, k := range keys {
			c := compareCells(t.String(k, idx[a]), t.String(k, idx[b]))
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	for i := range t.cols {
		col := make([]string, len(idx))
		for j, r := range idx {
			col[j] = t.cols[i][r]
		}
		t.cols[i] = col
	}
}

// compareCells compares two cells numerically when both parse, otherwise
// lexicographically. NaN sorts after every number.
func compareCells(a, b string) int {
	fa, ea := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, eb := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if ea == nil && eb == nil {
		switch {
		case math.IsNaN(fa) && math.IsNaN(fb):
			return 0
		case math.IsNaN(fa):
			return 1
		case math.IsNaN(fb):
			return -1
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}
