package table

import (
	"math"
	"strconv"
	"strings"
)

// DefaultNullTokens are the cell spellings treated as missing values.
var DefaultNullTokens = []string{"", "NA", "N/A", "NaN", "NULL", "null"}

// NullSet is a set of cell spellings that denote a missing value.
type NullSet map[string]struct{}

// NewNullSet builds a NullSet from tokens.
func NewNullSet(tokens []string) NullSet {
	set := make(NullSet, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// Contains reports whether s is a null spelling
func (n NullSet) Contains(s string) bool {
	_, ok := n[s]
	return ok
}

// InferType picks the column type for raw cells: integer if every non-null
// cell is a base-10 int64, float if every non-null cell is a finite number,
// text otherwise. A column with no non-null cells is text.
func InferType(cells []string, nulls NullSet) Type {
	typ := TypeUnknown
	for _, cell := range cells {
		if nulls.Contains(cell) {
			continue
		}
		s := strings.TrimSpace(cell)
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			if typ == TypeUnknown {
				typ = TypeInteger
			}
			continue
		}
		if isFiniteNumber(s) {
			typ = TypeFloat
			continue
		}
		return TypeText
	}
	if typ == TypeUnknown {
		return TypeText
	}
	return typ
}

// ParseCell converts a raw cell into the representation of typ. The type
// must come from InferType over a set containing the cell.
func ParseCell(cell string, typ Type, nulls NullSet) interface{} {
	if nulls.Contains(cell) {
		return nil
	}
	switch typ {
	case TypeInteger:
		i, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
		if err != nil {
			return nil
		}
		return i
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil
		}
		return f
	case TypeBool:
		b, err := strconv.ParseBool(strings.TrimSpace(cell))
		if err != nil {
			return nil
		}
		return b
	default:
		return cell
	}
}

// isFiniteNumber accepts decimal numbers only: ParseFloat also accepts
// "inf", "nan" and hexadecimal mantissas, which stay text.
func isFiniteNumber(s string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "x") || strings.Contains(lower, "_") {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
