// Package table implements the canonical tabular result type returned by
// every download domain. A Table holds an ordered set of typed columns
// (string, float, or date cells, any of which may be NA) and provides the
// transformations the normalizer needs: range filtering, key-based
// deduplication, stable sorting, column selection, and renaming. All
// transformations return a new Table and never mutate the receiver.
package table

import (
	"fmt"
	"slices"
	"sort"
	"time"
)

// Kind identifies the cell type of a column.
type Kind int

const (
	String Kind = iota
	Float
	Time
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Float:
		return "float"
	case Time:
		return "time"
	}
	return "unknown"
}

// Column describes one column of a table.
type Column struct {
	Name string
	Kind Kind
}

// Cell is a single typed value. The zero Cell is an NA string cell.
type Cell struct {
	kind  Kind
	valid bool
	str   string
	f     float64
	t     time.Time
}

// StringCell returns a valid string cell.
func StringCell(s string) Cell { return Cell{kind: String, valid: true, str: s} }

// FloatCell returns a valid float cell.
func FloatCell(f float64) Cell { return Cell{kind: Float, valid: true, f: f} }

// TimeCell returns a valid time cell.
func TimeCell(t time.Time) Cell { return Cell{kind: Time, valid: true, t: t} }

// NA returns a missing cell of the given kind.
func NA(kind Kind) Cell { return Cell{kind: kind} }

// Kind returns the cell type.
func (c Cell) Kind() Kind { return c.kind }

// Valid reports whether the cell holds a value (false means NA).
func (c Cell) Valid() bool { return c.valid }

// Str returns the string value and whether it is present.
func (c Cell) Str() (string, bool) { return c.str, c.valid && c.kind == String }

// Float returns the float value and whether it is present.
func (c Cell) Float() (float64, bool) { return c.f, c.valid && c.kind == Float }

// Time returns the time value and whether it is present.
func (c Cell) Time() (time.Time, bool) { return c.t, c.valid && c.kind == Time }

// Format renders the cell for text output. NA renders as the empty string,
// dates as YYYY-MM-DD, floats in the shortest exact decimal form.
func (c Cell) Format() string {
	if !c.valid {
		return ""
	}
	switch c.kind {
	case String:
		return c.str
	case Float:
		return formatFloat(c.f)
	case Time:
		return c.t.Format("2006-01-02")
	}
	return ""
}

// compare orders cells of the same kind. NA sorts before any value.
func (c Cell) compare(o Cell) int {
	if c.valid != o.valid {
		if !c.valid {
			return -1
		}
		return 1
	}
	if !c.valid {
		return 0
	}
	switch c.kind {
	case String:
		switch {
		case c.str < o.str:
			return -1
		case c.str > o.str:
			return 1
		}
		return 0
	case Float:
		switch {
		case c.f < o.f:
			return -1
		case c.f > o.f:
			return 1
		}
		return 0
	case Time:
		switch {
		case c.t.Before(o.t):
			return -1
		case c.t.After(o.t):
			return 1
		}
		return 0
	}
	return 0
}

func (c Cell) equal(o Cell) bool {
	if c.kind != o.kind || c.valid != o.valid {
		return false
	}
	if !c.valid {
		return true
	}
	return c.compare(o) == 0
}

// Table is an ordered collection of typed columns with row-major storage.
type Table struct {
	cols []Column
	rows [][]Cell
}

// New creates an empty table with the given columns.
func New(cols ...Column) *Table {
	return &Table{cols: slices.Clone(cols)}
}

// Columns returns a copy of the column descriptors.
func (t *Table) Columns() []Column { return slices.Clone(t.cols) }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool { return t.colIndex(name) >= 0 }

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.rows) }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

func (t *Table) colIndex(name string) int {
	for i, c := range t.cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Append adds one row. The number of cells must match the number of columns
// and each cell's kind must match its column's kind.
func (t *Table) Append(cells ...Cell) error {
	if len(cells) != len(t.cols) {
		return fmt.Errorf("append row: got %d cells, table has %d columns", len(cells), len(t.cols))
	}
	for i, c := range cells {
		if c.kind != t.cols[i].Kind {
			return fmt.Errorf("append row: column %q is %s, got %s cell",
				t.cols[i].Name, t.cols[i].Kind, c.kind)
		}
	}
	t.rows = append(t.rows, slices.Clone(cells))
	return nil
}

// MustAppend is Append that panics on a shape mismatch. Providers use it when
// building rows whose shape is fixed at compile time.
func (t *Table) MustAppend(cells ...Cell) {
	if err := t.Append(cells...); err != nil {
		panic(err)
	}
}

// Cell returns the cell at row i in the named column.
func (t *Table) Cell(i int, name string) (Cell, bool) {
	j := t.colIndex(name)
	if j < 0 || i < 0 || i >= len(t.rows) {
		return Cell{}, false
	}
	return t.rows[i][j], true
}

// Float returns the float value at row i in the named column.
func (t *Table) Float(i int, name string) (float64, bool) {
	c, ok := t.Cell(i, name)
	if !ok {
		return 0, false
	}
	return c.Float()
}

// Str returns the string value at row i in the named column.
func (t *Table) Str(i int, name string) (string, bool) {
	c, ok := t.Cell(i, name)
	if !ok {
		return "", false
	}
	return c.Str()
}

// Time returns the time value at row i in the named column.
func (t *Table) Time(i int, name string) (time.Time, bool) {
	c, ok := t.Cell(i, name)
	if !ok {
		return time.Time{}, false
	}
	return c.Time()
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := New(t.cols...)
	out.rows = make([][]Cell, len(t.rows))
	for i, r := range t.rows {
		out.rows[i] = slices.Clone(r)
	}
	return out
}

// Select returns a new table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	cols := make([]Column, len(names))
	for i, n := range names {
		j := t.colIndex(n)
		if j < 0 {
			return nil, fmt.Errorf("select: no column %q", n)
		}
		idx[i] = j
		cols[i] = t.cols[j]
	}
	out := New(cols...)
	out.rows = make([][]Cell, len(t.rows))
	for i, r := range t.rows {
		row := make([]Cell, len(idx))
		for k, j := range idx {
			row[k] = r[j]
		}
		out.rows[i] = row
	}
	return out, nil
}

// Rename returns a new table with one column renamed.
func (t *Table) Rename(from, to string) (*Table, error) {
	j := t.colIndex(from)
	if j < 0 {
		return nil, fmt.Errorf("rename: no column %q", from)
	}
	out := t.Clone()
	out.cols[j].Name = to
	return out, nil
}

// FilterRange returns a new table keeping rows whose date in the named column
// lies within [start, end] inclusive. A zero start or end leaves that side
// unbounded. Rows with an NA date are dropped.
func (t *Table) FilterRange(name string, start, end time.Time) *Table {
	j := t.colIndex(name)
	out := New(t.cols...)
	if j < 0 {
		return out
	}
	for _, r := range t.rows {
		d, ok := r[j].Time()
		if !ok {
			continue
		}
		if !start.IsZero() && d.Before(start) {
			continue
		}
		if !end.IsZero() && d.After(end) {
			continue
		}
		out.rows = append(out.rows, slices.Clone(r))
	}
	return out
}

// DedupBy returns a new table with duplicate rows on the given key columns
// removed, keeping the last occurrence of each key (last write wins). Row
// order follows the first occurrence of each key.
func (t *Table) DedupBy(keys ...string) *Table {
	idx := make([]int, 0, len(keys))
	for _, k := range keys {
		if j := t.colIndex(k); j >= 0 {
			idx = append(idx, j)
		}
	}
	out := New(t.cols...)
	if len(idx) == 0 {
		return t.Clone()
	}
	seen := make(map[string]int)
	for _, r := range t.rows {
		key := rowKey(r, idx)
		if pos, ok := seen[key]; ok {
			out.rows[pos] = slices.Clone(r)
			continue
		}
		seen[key] = len(out.rows)
		out.rows = append(out.rows, slices.Clone(r))
	}
	return out
}

func rowKey(r []Cell, idx []int) string {
	key := ""
	for _, j := range idx {
		// The validity marker keeps NA distinct from a valid cell that
		// formats to the empty string.
		if r[j].Valid() {
			key += "1" + r[j].Format() + "\x00"
		} else {
			key += "0\x00"
		}
	}
	return key
}

// SortBy returns a new table sorted ascending by the given key columns, in
// order of significance. The sort is stable.
func (t *Table) SortBy(keys ...string) *Table {
	idx := make([]int, 0, len(keys))
	for _, k := range keys {
		if j := t.colIndex(k); j >= 0 {
			idx = append(idx, j)
		}
	}
	out := t.Clone()
	if len(idx) == 0 {
		return out
	}
	sort.SliceStable(out.rows, func(a, b int) bool {
		for _, j := range idx {
			if c := out.rows[a][j].compare(out.rows[b][j]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return out
}

// Equal reports whether two tables have identical columns and rows.
func (t *Table) Equal(o *Table) bool {
	if o == nil || len(t.cols) != len(o.cols) || len(t.rows) != len(o.rows) {
		return false
	}
	for i := range t.cols {
		if t.cols[i] != o.cols[i] {
			return false
		}
	}
	for i := range t.rows {
		for j := range t.rows[i] {
			if !t.rows[i][j].equal(o.rows[i][j]) {
				return false
			}
		}
	}
	return true
}
