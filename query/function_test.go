package query

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

// callFunction evaluates name(args...) with literal arguments.
func callFunction(name string, args ...interface{}) (interface{}, error) {
	call := &FunctionCall{Name: name}
	for _, arg := range args {
		call.Args = append(call.Args, &LiteralExpr{Value: arg})
	}
	return call.EvaluateSelect(nil)
}

func TestFunctions_String(t *testing.T) {
	tests := []struct {
		name string
		fn   string
		args []interface{}
		want interface{}
	}{
		{"upper", "UPPER", []interface{}{"abc"}, "ABC"},
		{"upper of a number", "upper", []interface{}{int64(5)}, "5"},
		{"lower unicode", "LOWER", []interface{}{"ÄB"}, "äb"},
		{"concat skips nulls", "CONCAT", []interface{}{"a", nil, int64(1), 2.5}, "a12.5"},
		{"concat of nulls", "CONCAT", []interface{}{nil, nil}, ""},
		{"length counts characters", "LENGTH", []interface{}{"naïve"}, int64(5)},
		{"len alias", "LEN", []interface{}{""}, int64(0)},
		{"trim", "TRIM", []interface{}{"  a  "}, "a"},
		{"ltrim", "LTRIM", []interface{}{"  a "}, "a "},
		{"rtrim", "RTRIM", []interface{}{" a  "}, " a"},
		{"substring", "SUBSTRING", []interface{}{"hello", int64(2), int64(3)}, "ell"},
		{"substring to end", "SUBSTRING", []interface{}{"hello", int64(3)}, "llo"},
		{"substring from zero", "SUBSTRING", []interface{}{"hello", int64(0)}, "hello"},
		{"substring past end", "SUBSTRING", []interface{}{"hello", int64(10)}, ""},
		{"substring negative length", "SUBSTRING", []interface{}{"hello", int64(1), int64(-1)}, ""},
		{"substring huge length", "SUBSTRING", []interface{}{"hello", int64(2), int64(math.MaxInt64)}, "ello"},
		{"substr alias on runes", "SUBSTR", []interface{}{"naïve", int64(3), int64(1)}, "ï"},
		{"replace", "REPLACE", []interface{}{"aaa", "a", "b"}, "bbb"},
		{"replace empty search", "REPLACE", []interface{}{"abc", "", "x"}, "abc"},
		{"reverse", "REVERSE", []interface{}{"añb"}, "bña"},
		{"contains", "CONTAINS", []interface{}{"hello", "ell"}, true},
		{"starts with", "STARTS_WITH", []interface{}{"hello", "he"}, true},
		{"ends with", "ENDS_WITH", []interface{}{"hello", "he"}, false},
		{"repeat", "REPEAT", []interface{}{"ab", int64(3)}, "ababab"},
		{"repeat zero", "REPEAT", []interface{}{"ab", int64(0)}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := callFunction(tt.fn, tt.args...)
			if err != nil {
				t.Fatalf("%s() error = %v", tt.fn, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("%s(%v) = %#v, want %#v", tt.fn, tt.args, got, tt.want)
			}
		})
	}
}

func TestFunctions_Math(t *testing.T) {
	tests := []struct {
		name string
		fn   string
		args []interface{}
		want interface{}
	}{
		{"abs keeps integers", "ABS", []interface{}{int64(-5)}, int64(5)},
		{"abs float", "ABS", []interface{}{-2.5}, 2.5},
		{"abs numeric text", "ABS", []interface{}{"-3"}, 3.0},
		{"round", "ROUND", []interface{}{3.14159, int64(2)}, 3.14},
		{"round half away from zero", "ROUND", []interface{}{2.5}, 3.0},
		{"round integer", "ROUND", []interface{}{int64(7)}, 7.0},
		{"floor", "FLOOR", []interface{}{2.7}, 2.0},
		{"floor integer", "FLOOR", []interface{}{int64(2)}, int64(2)},
		{"ceil", "CEIL", []interface{}{2.1}, 3.0},
		{"ceiling alias", "CEILING", []interface{}{-2.1}, -2.0},
		{"mod integers", "MOD", []interface{}{int64(7), int64(3)}, int64(1)},
		{"mod negative", "MOD", []interface{}{int64(-7), int64(3)}, int64(-1)},
		{"mod float", "MOD", []interface{}{7.5, int64(2)}, 1.5},
		{"mod by zero", "MOD", []interface{}{int64(1), int64(0)}, nil},
		{"mod by float zero", "MOD", []interface{}{1.5, 0.0}, nil},
		{"sqrt", "SQRT", []interface{}{int64(16)}, 4.0},
		{"sqrt negative", "SQRT", []interface{}{int64(-1)}, nil},
		{"pow", "POW", []interface{}{int64(2), int64(10)}, 1024.0},
		{"power alias", "POWER", []interface{}{4.0, 0.5}, 2.0},
		{"sign", "SIGN", []interface{}{-3.5}, int64(-1)},
		{"sign zero", "SIGN", []interface{}{int64(0)}, int64(0)},
		{"trunc", "TRUNC", []interface{}{-2.7}, -2.0},
		{"scalar min", "MIN", []interface{}{int64(3), 1.5, int64(2)}, 1.5},
		{"scalar max", "MAX", []interface{}{"a", "c", "b"}, "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := callFunction(tt.fn, tt.args...)
			if err != nil {
				t.Fatalf("%s() error = %v", tt.fn, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("%s(%v) = %#v, want %#v", tt.fn, tt.args, got, tt.want)
			}
		})
	}
}

func TestFunctions_Conditional(t *testing.T) {
	tests := []struct {
		name string
		fn   string
		args []interface{}
		want interface{}
	}{
		{"coalesce", "COALESCE", []interface{}{nil, nil, int64(3)}, int64(3)},
		{"coalesce all null", "COALESCE", []interface{}{nil}, nil},
		{"ifnull alias", "IFNULL", []interface{}{nil, "x"}, "x"},
		{"nullif equal", "NULLIF", []interface{}{int64(1), int64(1)}, nil},
		{"nullif int and float equal", "NULLIF", []interface{}{int64(1), 1.0}, nil},
		{"nullif different", "NULLIF", []interface{}{int64(1), int64(2)}, int64(1)},
		{"nullif different types", "NULLIF", []interface{}{"a", int64(1)}, "a"},
		{"nullif null second", "NULLIF", []interface{}{"a", nil}, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := callFunction(tt.fn, tt.args...)
			if err != nil {
				t.Fatalf("%s() error = %v", tt.fn, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("%s(%v) = %#v, want %#v", tt.fn, tt.args, got, tt.want)
			}
		})
	}
}

func TestFunctions_NullPropagation(t *testing.T) {
	calls := []struct {
		fn   string
		args []interface{}
	}{
		{"UPPER", []interface{}{nil}},
		{"LENGTH", []interface{}{nil}},
		{"SUBSTRING", []interface{}{"abc", nil}},
		{"MOD", []interface{}{nil, int64(2)}},
		{"ROUND", []interface{}{1.5, nil}},
		{"MAX", []interface{}{int64(1), nil}},
	}

	for _, c := range calls {
		got, err := callFunction(c.fn, c.args...)
		if err != nil || got != nil {
			t.Errorf("%s(%v) = %v, %v; want nil, nil", c.fn, c.args, got, err)
		}
	}
}

func TestFunctions_Errors(t *testing.T) {
	tests := []struct {
		name string
		fn   string
		args []interface{}
		want error
	}{
		{"unknown function", "FROBNICATE", []interface{}{int64(1)}, ErrUnknownIdentifier},
		{"too few arguments", "REPLACE", []interface{}{"a", "b"}, ErrSyntax},
		{"too many arguments", "UPPER", []interface{}{"a", "b"}, ErrSyntax},
		{"scalar min needs two", "MIN", []interface{}{int64(1)}, ErrSyntax},
		{"text is not a number", "ROUND", []interface{}{"abc"}, ErrTypeMismatch},
		{"bool is not a number", "ABS", []interface{}{true}, ErrTypeMismatch},
		{"min of mixed types", "MIN", []interface{}{int64(1), "a"}, ErrTypeMismatch},
		{"repeat too long", "REPEAT", []interface{}{"x", int64(maxRepeatLength + 1)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := callFunction(tt.fn, tt.args...)
			if err == nil {
				t.Fatalf("%s(%v) expected error", tt.fn, tt.args)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("%s(%v) error = %v, want %v", tt.fn, tt.args, err, tt.want)
			}
		})
	}
}

func TestFunctions_Registry(t *testing.T) {
	registry := GetGlobalRegistry()
	for _, name := range []string{"upper", "Substr", "IFNULL", "ceiling", "power", "len"} {
		if _, ok := registry.Get(name); !ok {
			t.Errorf("function %s is not registered", name)
		}
	}
	if _, ok := registry.Get("RANDOM"); ok {
		t.Error("RANDOM should not be registered")
	}

	upper, _ := registry.Get("UPPER")
	if upper.MinArity() != 1 || upper.MaxArity() != 1 {
		t.Errorf("UPPER arity = %d..%d", upper.MinArity(), upper.MaxArity())
	}
}
