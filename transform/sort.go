package transform

import (
	"math"
	"sort"
	"strings"

	"github.com/vegasq/csvview/table"
)

// SortBy orders rows by column. Numeric columns order numerically, text
// columns byte-wise and bool columns false before true. The sort is stable
// and rows with a null in column come last in either direction.
func SortBy(t *table.Table, column string, ascending bool) (*table.Table, error) {
	_, pos, err := lookup(t, column)
	if err != nil {
		return nil, err
	}

	positions := make([]int, t.NumRows())
	for i := range positions {
		positions[i] = i
	}

	sort.SliceStable(positions, func(i, j int) bool {
		a, b := t.Value(positions[i], pos), t.Value(positions[j], pos)
		if isNull(a) || isNull(b) {
			return !isNull(a)
		}
		c := CompareCells(a, b)
		if ascending {
			return c < 0
		}
		return c > 0
	})

	return t.Take(positions), nil
}

// CompareCells orders two non-null cells of the same column type and
// returns -1, 0 or +1. Integers and floats compare numerically with each
// other; values of unrelated types fall back to their textual forms.
func CompareCells(a, b interface{}) int {
	if ia, ok := a.(int64); ok {
		if ib, ok := b.(int64); ok {
			switch {
			case ia < ib:
				return -1
			case ia > ib:
				return 1
			default:
				return 0
			}
		}
	}
	if fa, ok := asNumber(a); ok {
		if fb, ok := asNumber(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	}

	return strings.Compare(table.Format(a), table.Format(b))
}

// isNull reports whether a cell sorts as missing. NaN has no place in a
// total order, so it sorts with the nulls.
func isNull(v interface{}) bool {
	f, ok := v.(float64)
	return v == nil || (ok && math.IsNaN(f))
}

// asNumber widens integer and float cells, NaN included.
func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
