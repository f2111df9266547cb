// Package table is a small in-memory columnar table used by every pipeline stage.
//
// Tables are treated as immutable snapshots: stages call Clone and add or
// replace columns on the copy, never on their input.
package table

import (
	"errors"
	"fmt"
	"strconv"
)

// Kind is the storage type of a column
type Kind int

const (
	KindString Kind = iota
	KindFloat
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	default:
		return "unknown"
	}
}

// ErrColumnNotFound is returned when an operation references a missing column
var ErrColumnNotFound = errors.New("column not found")

// ErrLengthMismatch is returned when a column length differs from the table length
var ErrLengthMismatch = errors.New("column length mismatch")

// Column holds one named vector. Only the slice matching Kind is populated.
type Column struct {
	Name    string
	Kind    Kind
	Strings []string
	Floats  []Float
	Ints    []int64
}

// Len returns the number of cells
func (c *Column) Len() int {
	switch c.Kind {
	case KindFloat:
		return len(c.Floats)
	case KindInt:
		return len(c.Ints)
	default:
		return len(c.Strings)
	}
}

// StringAt returns the cell formatted as text
func (c *Column) StringAt(i int) string {
	switch c.Kind {
	case KindFloat:
		return c.Floats[i].String()
	case KindInt:
		return strconv.FormatInt(c.Ints[i], 10)
	default:
		return c.Strings[i]
	}
}

// FloatAt returns the cell coerced to a nullable number
func (c *Column) FloatAt(i int) Float {
	switch c.Kind {
	case KindFloat:
		return c.Floats[i]
	case KindInt:
		return Num(float64(c.Ints[i]))
	default:
		return ParseFloat(c.Strings[i])
	}
}

// take gathers cells by row index; -1 produces an empty/null cell.
// Int columns are widened to Float when any cell is missing.
func (c *Column) take(idx []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	missing := false
	for _, i := range idx {
		if i < 0 {
			missing = true
			break
		}
	}
	if c.Kind == KindInt && missing {
		out.Kind = KindFloat
	}

	switch out.Kind {
	case KindFloat:
		out.Floats = make([]Float, len(idx))
		for j, i := range idx {
			if i >= 0 {
				out.Floats[j] = c.FloatAt(i)
			}
		}
	case KindInt:
		out.Ints = make([]int64, len(idx))
		for j, i := range idx {
			out.Ints[j] = c.Ints[i]
		}
	default:
		out.Strings = make([]string, len(idx))
		for j, i := range idx {
			if i >= 0 {
				out.Strings[j] = c.Strings[i]
			}
		}
	}
	return out
}

func (c *Column) renamed(name string) *Column {
	cp := *c
	cp.Name = name
	return &cp
}

// Table is an ordered set of equal-length columns
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New creates an empty table
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// Len returns the number of rows
func (t *Table) Len() int {
	return t.rows
}

// Columns returns column names in order
func (t *Table) Columns() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the column exists
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Clone returns a copy sharing column storage. Adding or replacing
// columns on the copy does not affect t.
func (t *Table) Clone() *Table {
	out := &Table{
		cols:  make([]*Column, len(t.cols)),
		index: make(map[string]int, len(t.index)),
		rows:  t.rows,
	}
	copy(out.cols, t.cols)
	for k, v := range t.index {
		out.index[k] = v
	}
	return out
}

// Add appends the column, or replaces an existing column of the same name in place
func (t *Table) Add(c *Column) error {
	if len(t.cols) == 0 {
		t.rows = c.Len()
	} else if c.Len() != t.rows {
		return fmt.Errorf("%w: %s has %d rows, table has %d", ErrLengthMismatch, c.Name, c.Len(), t.rows)
	}
	if i, ok := t.index[c.Name]; ok {
		t.cols[i] = c
		return nil
	}
	t.index[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}

// AddStrings adds a string column
func (t *Table) AddStrings(name string, vals []string) error {
	return t.Add(&Column{Name: name, Kind: KindString, Strings: vals})
}

// AddFloats adds a nullable numeric column
func (t *Table) AddFloats(name string, vals []Float) error {
	return t.Add(&Column{Name: name, Kind: KindFloat, Floats: vals})
}

// AddInts adds an integer column
func (t *Table) AddInts(name string, vals []int64) error {
	return t.Add(&Column{Name: name, Kind: KindInt, Ints: vals})
}

// Numeric returns the column coerced to nullable numbers
func (t *Table) Numeric(name string) ([]Float, bool) {
	c, ok := t.Column(name)
	if !ok {
		return nil, false
	}
	out := make([]Float, t.rows)
	for i := range out {
		out[i] = c.FloatAt(i)
	}
	return out, true
}

// Strings returns the column formatted as text
func (t *Table) Strings(name string) ([]string, bool) {
	c, ok := t.Column(name)
	if !ok {
		return nil, false
	}
	out := make([]string, t.rows)
	for i := range out {
		out[i] = c.StringAt(i)
	}
	return out, true
}

// Take returns a new table with the given rows, in order
func (t *Table) Take(rows []int) *Table {
	out := New()
	for _, c := range t.cols {
		_ = out.Add(c.take(rows))
	}
	out.rows = len(rows)
	return out
}

// Filter returns the rows for which keep returns true
func (t *Table) Filter(keep func(i int) bool) *Table {
	var rows []int
	for i := 0; i < t.rows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return t.Take(rows)
}

// Select returns a table restricted to the named columns
func (t *Table) Select(names ...string) (*Table, error) {
	out := New()
	for _, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, n)
		}
		if err := out.Add(c); err != nil {
			return nil, err
		}
	}
	out.rows = t.rows
	return out, nil
}

// Row returns row i as column name -> text
func (t *Table) Row(i int) map[string]string {
	row := make(map[string]string, len(t.cols))
	for _, c := range t.cols {
		row[c.Name] = c.StringAt(i)
	}
	return row
}
