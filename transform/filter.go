// Package transform derives new tables from loaded ones: single-column
// filters, single-key sorts and two-table joins on a shared column.
//
// Every operation is pure. Inputs are never modified and the result shares
// row storage with its source wherever rows are kept unchanged.
package transform

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vegasq/csvview/table"
)

var (
	// ErrUnknownColumn is returned when the named column is not in the table
	ErrUnknownColumn = errors.New("unknown column")

	// ErrTypeMismatch is returned when the column type does not suit the operation
	ErrTypeMismatch = errors.New("column type mismatch")
)

// FilterGreaterThan keeps the rows whose value in column is strictly greater
// than threshold. The column must be numeric. Null cells never match, and a
// NaN threshold matches nothing.
func FilterGreaterThan(t *table.Table, column string, threshold float64) (*table.Table, error) {
	col, pos, err := lookup(t, column)
	if err != nil {
		return nil, err
	}
	if !col.Type.IsNumeric() {
		return nil, fmt.Errorf("%w: %q is %s, greater-than needs a numeric column", ErrTypeMismatch, column, col.Type)
	}

	return keep(t, func(r int) bool {
		f, ok := asFloat(t.Value(r, pos))
		return ok && f > threshold
	}), nil
}

// FilterEquals keeps the rows whose value in column, in its textual form,
// equals text exactly. The comparison is case-sensitive and untrimmed. The
// column must not be numeric.
func FilterEquals(t *table.Table, column, text string) (*table.Table, error) {
	col, pos, err := lookup(t, column)
	if err != nil {
		return nil, err
	}
	if col.Type.IsNumeric() {
		return nil, fmt.Errorf("%w: %q is %s, equality needs a non-numeric column", ErrTypeMismatch, column, col.Type)
	}

	return keep(t, func(r int) bool {
		v := t.Value(r, pos)
		return v != nil && table.Format(v) == text
	}), nil
}

// Filter applies the filter appropriate to the column type: numeric columns
// keep rows greater than value parsed as a number, all other columns keep
// rows equal to value.
func Filter(t *table.Table, column, value string) (*table.Table, error) {
	col, _, err := lookup(t, column)
	if err != nil {
		return nil, err
	}
	if !col.Type.IsNumeric() {
		return FilterEquals(t, column, value)
	}

	threshold, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is numeric, cannot compare with %q", ErrTypeMismatch, column, value)
	}
	return FilterGreaterThan(t, column, threshold)
}

func lookup(t *table.Table, column string) (table.Column, int, error) {
	col, pos, ok := t.Lookup(column)
	if !ok {
		return table.Column{}, -1, fmt.Errorf("%w: %q (available: %s)", ErrUnknownColumn, column, strings.Join(t.ColumnNames(), ", "))
	}
	return col, pos, nil
}

func keep(t *table.Table, match func(r int) bool) *table.Table {
	positions := make([]int, 0, t.NumRows())
	for r := 0; r < t.NumRows(); r++ {
		if match(r) {
			positions = append(positions, r)
		}
	}
	return t.Take(positions)
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n)
	default:
		return 0, false
	}
}
