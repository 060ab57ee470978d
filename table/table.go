// Package table provides the immutable in-memory relation shared by every
// csvview component.
//
// A Table is an ordered list of uniquely named columns with aligned rows.
// Each column carries a Type that is inferred once, when the table is
// built, and stored in the schema so that filters, sorts and joins never
// re-derive it. Cells are nil (null), int64, float64, string or bool.
//
// Tables are never mutated after construction. Operations that derive a new
// table (Take, Head, Project) share the underlying row slices, which is safe
// because nothing writes to them.
package table

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateColumn is returned when two columns share a name
	ErrDuplicateColumn = errors.New("duplicate column name")

	// ErrRaggedRow is returned when a row width differs from the schema width
	ErrRaggedRow = errors.New("row width does not match column count")

	// ErrColumnNotFound is returned when a named column does not exist
	ErrColumnNotFound = errors.New("column not found")

	// ErrValueType is returned when a cell does not match its column type
	ErrValueType = errors.New("value does not match column type")
)

// Column describes one column of a table.
type Column struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Table is an immutable relation: ordered columns and aligned rows.
type Table struct {
	columns []Column
	index   map[string]int
	rows    [][]interface{}
}

// New builds a table from a schema and row-major data.
//
// Column names must be unique and every row must have exactly one value per
// column, each matching the column type (or nil). The rows slice is owned by
// the table afterwards; callers must not modify it.
func New(columns []Column, rows [][]interface{}) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if _, exists := index[col.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, col.Name)
		}
		index[col.Name] = i
	}

	for r, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrRaggedRow, r, len(row), len(columns))
		}
		for c, v := range row {
			if !columns[c].Type.Accepts(v) {
				return nil, fmt.Errorf("%w: row %d column %q: %T is not %s", ErrValueType, r, columns[c].Name, v, columns[c].Type)
			}
		}
	}

	cols := make([]Column, len(columns))
	copy(cols, columns)
	if rows == nil {
		rows = [][]interface{}{}
	}

	return &Table{columns: cols, index: index, rows: rows}, nil
}

// MustNew is like New but panics on error. Intended for tests and fixtures.
func MustNew(columns []Column, rows [][]interface{}) *Table {
	t, err := New(columns, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// Empty returns a zero-row table sharing the schema of t.
func (t *Table) Empty() *Table {
	return &Table{columns: t.columns, index: t.index, rows: [][]interface{}{}}
}

// Columns returns a copy of the schema.
func (t *Table) Columns() []Column {
	cols := make([]Column, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name
	}
	return names
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.rows) }

// Lookup returns the column and its position.
func (t *Table) Lookup(name string) (Column, int, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, -1, false
	}
	return t.columns[i], i, true
}

// Column returns the named column or ErrColumnNotFound.
func (t *Table) Column(name string) (Column, int, error) {
	col, i, ok := t.Lookup(name)
	if !ok {
		return Column{}, -1, fmt.Errorf("%w: %q (available: %s)", ErrColumnNotFound, name, strings.Join(t.ColumnNames(), ", "))
	}
	return col, i, nil
}

// Value returns the cell at row r, column c.
func (t *Table) Value(r, c int) interface{} {
	return t.rows[r][c]
}

// Row returns a copy of row r.
func (t *Table) Row(r int) []interface{} {
	row := make([]interface{}, len(t.rows[r]))
	copy(row, t.rows[r])
	return row
}

// Take returns a table containing the rows at the given positions, in order.
// Positions may repeat.
func (t *Table) Take(positions []int) *Table {
	rows := make([][]interface{}, len(positions))
	for i, p := range positions {
		rows[i] = t.rows[p]
	}
	return &Table{columns: t.columns, index: t.index, rows: rows}
}

// Head returns the first n rows (all rows if n exceeds the row count).
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n >= len(t.rows) {
		return t
	}
	return &Table{columns: t.columns, index: t.index, rows: t.rows[:n]}
}

// Project returns a table with only the named columns, in the given order.
func (t *Table) Project(names []string) (*Table, error) {
	positions := make([]int, len(names))
	cols := make([]Column, len(names))
	for i, name := range names {
		col, pos, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		positions[i] = pos
		cols[i] = col
	}

	rows := make([][]interface{}, len(t.rows))
	for r, row := range t.rows {
		out := make([]interface{}, len(positions))
		for i, p := range positions {
			out[i] = row[p]
		}
		rows[r] = out
	}

	return New(cols, rows)
}

// Records returns every row as a map keyed by column name.
func (t *Table) Records() []map[string]interface{} {
	records := make([]map[string]interface{}, len(t.rows))
	for r, row := range t.rows {
		rec := make(map[string]interface{}, len(t.columns))
		for c, col := range t.columns {
			rec[col.Name] = row[c]
		}
		records[r] = rec
	}
	return records
}

// NumericColumns returns the names of integer and float columns.
func (t *Table) NumericColumns() []string {
	var names []string
	for _, col := range t.columns {
		if col.Type.IsNumeric() {
			names = append(names, col.Name)
		}
	}
	return names
}

// FromRows builds a table from column names and row-major values, inferring
// each column type from the values it holds. Integer and float mixes widen
// to float; any other mix widens to text.
func FromRows(names []string, rows [][]interface{}) (*Table, error) {
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name}
	}
	return Infer(cols, rows)
}

// Infer builds a table whose column types start from the given hints
// (TypeUnknown for none) and widen to fit every value. Values are
// normalized and coerced in place.
func Infer(columns []Column, rows [][]interface{}) (*Table, error) {
	cols := make([]Column, len(columns))
	copy(cols, columns)

	for r, row := range rows {
		if len(row) != len(cols) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrRaggedRow, r, len(row), len(cols))
		}
		for c := range cols {
			row[c] = Normalize(row[c])
			cols[c].Type = cols[c].Type.Widen(TypeOf(row[c]))
		}
	}

	for c := range cols {
		if cols[c].Type == TypeUnknown {
			cols[c].Type = TypeText
		}
	}

	for _, row := range rows {
		for c := range cols {
			row[c] = cols[c].Type.Coerce(row[c])
		}
	}

	return New(cols, rows)
}
