package query

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vegasq/csvview/table"
)

// compare compares two values using the given operator. A comparison with
// a null on either side is never true. Numbers compare with numbers, text
// with text and booleans with booleans; any other pairing is a type
// mismatch.
func compare(left interface{}, operator TokenType, right interface{}) (bool, error) {
	if left == nil || right == nil {
		return false, nil
	}

	// Exact integer comparison
	if li, ok := left.(int64); ok {
		if ri, ok := right.(int64); ok {
			return compareOrdered(compareInts(li, ri), operator), nil
		}
	}

	leftNum, leftIsNum := toFloat64(left)
	rightNum, rightIsNum := toFloat64(right)
	if leftIsNum && rightIsNum {
		return compareNumbers(leftNum, operator, rightNum), nil
	}

	leftStr, leftIsStr := left.(string)
	rightStr, rightIsStr := right.(string)
	if leftIsStr && rightIsStr {
		return compareOrdered(strings.Compare(leftStr, rightStr), operator), nil
	}

	leftBool, leftIsBool := left.(bool)
	rightBool, rightIsBool := right.(bool)
	if leftIsBool && rightIsBool {
		return compareOrdered(compareBools(leftBool, rightBool), operator), nil
	}

	return false, fmt.Errorf("%w: cannot compare %s with %s", ErrTypeMismatch, typeName(left), typeName(right))
}

// typeName names the column type of a value for error messages.
func typeName(v interface{}) string {
	if v == nil {
		return "null"
	}
	return table.TypeOf(v).String()
}

// toFloat64 converts a numeric value to float64
func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int64:
		return float64(val), true
	case int:
		return float64(val), true
	default:
		return 0, false
	}
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// compareOrdered applies operator to a three-way comparison result.
func compareOrdered(c int, operator TokenType) bool {
	switch operator {
	case TokenEqual:
		return c == 0
	case TokenNotEqual:
		return c != 0
	case TokenLess:
		return c < 0
	case TokenGreater:
		return c > 0
	case TokenLessEqual:
		return c <= 0
	case TokenGreaterEqual:
		return c >= 0
	default:
		return false
	}
}

// compareNumbers compares two floats. Equality tolerates a relative error
// of 1e-9; NaN compares false with everything.
func compareNumbers(left float64, operator TokenType, right float64) bool {
	const epsilon = 1e-9
	if math.IsNaN(left) || math.IsNaN(right) {
		return false
	}

	switch operator {
	case TokenEqual, TokenNotEqual:
		if math.IsInf(left, 0) || math.IsInf(right, 0) {
			return (left == right) == (operator == TokenEqual)
		}
		diff := math.Abs(left - right)
		threshold := epsilon * max(1.0, math.Abs(left), math.Abs(right))
		return (diff < threshold) == (operator == TokenEqual)
	case TokenLess:
		return left < right
	case TokenGreater:
		return left > right
	case TokenLessEqual:
		return left <= right
	case TokenGreaterEqual:
		return left >= right
	default:
		return false
	}
}

// compareValues orders two non-null values of comparable types and returns
// -1, 0 or +1.
func compareValues(a, b interface{}) (int, error) {
	if ai, ok := a.(int64); ok {
		if bi, ok := b.(int64); ok {
			return compareInts(ai, bi), nil
		}
	}

	aNum, aIsNum := toFloat64(a)
	bNum, bIsNum := toFloat64(b)
	if aIsNum && bIsNum {
		switch {
		case aNum < bNum:
			return -1, nil
		case aNum > bNum:
			return 1, nil
		default:
			return 0, nil
		}
	}

	if aStr, ok := a.(string); ok {
		if bStr, ok := b.(string); ok {
			return strings.Compare(aStr, bStr), nil
		}
	}

	if aBool, ok := a.(bool); ok {
		if bBool, ok := b.(bool); ok {
			return compareBools(aBool, bBool), nil
		}
	}

	return 0, fmt.Errorf("%w: cannot order %s and %s", ErrTypeMismatch, typeName(a), typeName(b))
}

// isNull reports whether a value sorts as missing.
func isNull(v interface{}) bool {
	f, ok := v.(float64)
	return v == nil || (ok && math.IsNaN(f))
}

// limitOffset returns the slice bounds selected by LIMIT and OFFSET out of
// n rows.
func limitOffset(n int, limit, offset *int64) (int, int) {
	start := int64(0)
	if offset != nil {
		start = *offset
	}
	if start >= int64(n) {
		return n, n
	}

	end := int64(n)
	if limit != nil && *limit < end-start {
		end = start + *limit
	}
	return int(start), int(end)
}

// rowKey creates a unique string key from row values for DISTINCT and
// GROUP BY. Integer 1 and float 1.0 produce different keys.
func rowKey(values []interface{}) string {
	var key strings.Builder
	for i, v := range values {
		if i > 0 {
			key.WriteString("\x00||\x00") // Use unlikely separator to avoid collisions
		}
		key.WriteString(fmt.Sprintf("%T:%#v", v, v))
	}
	return key.String()
}

// matchLikePattern matches a string against a SQL LIKE pattern.
// % matches any sequence of characters and _ matches any single character.
// Matching ignores case, following SQLite.
func matchLikePattern(str, pattern string) bool {
	s := []rune(str)
	pat := []rune(pattern)

	// Iterative wildcard match remembering the last % for backtracking
	si, pi := 0, 0
	starPi, starSi := -1, 0
	for si < len(s) {
		switch {
		case pi < len(pat) && pat[pi] == '%':
			starPi, starSi = pi, si
			pi++
		case pi < len(pat) && (pat[pi] == '_' || foldEqual(pat[pi], s[si])):
			pi++
			si++
		case starPi >= 0:
			pi = starPi + 1
			starSi++
			si = starSi
		default:
			return false
		}
	}

	for pi < len(pat) && pat[pi] == '%' {
		pi++
	}
	return pi == len(pat)
}

func foldEqual(a, b rune) bool {
	if a == b {
		return true
	}
	if a < utf8.RuneSelf && b < utf8.RuneSelf {
		return unicode.ToLower(a) == unicode.ToLower(b)
	}
	return false
}
