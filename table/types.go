package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type is the inferred type of a column.
type Type int

const (
	// TypeUnknown marks a column that has seen only nulls so far. It never
	// appears in a finished table schema.
	TypeUnknown Type = iota
	TypeText
	TypeInteger
	TypeFloat
	TypeBool
)

// String returns the lower-case type name
func (t Type) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the type by name
func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a type name
func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseType parses a type name as produced by String
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "text":
		return TypeText, nil
	case "integer":
		return TypeInteger, nil
	case "float":
		return TypeFloat, nil
	case "bool":
		return TypeBool, nil
	default:
		return TypeUnknown, fmt.Errorf("unknown column type %q", s)
	}
}

// IsNumeric reports whether the type is integer or float
func (t Type) IsNumeric() bool {
	return t == TypeInteger || t == TypeFloat
}

// Accepts reports whether v may be stored in a column of this type
func (t Type) Accepts(v interface{}) bool {
	if v == nil {
		return true
	}
	switch t {
	case TypeText:
		_, ok := v.(string)
		return ok
	case TypeInteger:
		_, ok := v.(int64)
		return ok
	case TypeFloat:
		_, ok := v.(float64)
		return ok
	case TypeBool:
		_, ok := v.(bool)
		return ok
	default:
		return false
	}
}

// Widen returns the narrowest type able to hold values of both t and o.
func (t Type) Widen(o Type) Type {
	switch {
	case t == o:
		return t
	case t == TypeUnknown:
		return o
	case o == TypeUnknown:
		return t
	case t.IsNumeric() && o.IsNumeric():
		return TypeFloat
	default:
		return TypeText
	}
}

// Coerce converts v into the representation used by this type. It is only
// meaningful for types produced by Widen.
func (t Type) Coerce(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	switch t {
	case TypeFloat:
		if i, ok := v.(int64); ok {
			return float64(i)
		}
	case TypeText:
		if _, ok := v.(string); !ok {
			return Format(v)
		}
	}
	return v
}

// TypeOf returns the column type matching a cell value. Go integer and
// float kinds other than int64 and float64 are reported as their widened
// equivalents; use Normalize to convert them.
func TypeOf(v interface{}) Type {
	switch v.(type) {
	case nil:
		return TypeUnknown
	case string:
		return TypeText
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInteger
	case float32, float64:
		return TypeFloat
	case bool:
		return TypeBool
	default:
		return TypeText
	}
}

// Normalize converts a Go value into one of the cell representations:
// nil, int64, float64, string or bool.
func Normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case nil, int64, float64, string, bool:
		return val
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		if val > math.MaxInt64 {
			return float64(val)
		}
		return int64(val)
	case float32:
		return float64(val)
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Format returns the textual representation of a cell. Null formats as the
// empty string; integral floats keep a trailing ".0" so they stay
// distinguishable from integers.
func Format(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return formatFloat(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return Format(Normalize(v))
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e15) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
