package query

import (
	"errors"
	"math"
	"testing"
)

func TestCompare_Numbers(t *testing.T) {
	tests := []struct {
		name     string
		left     interface{}
		operator TokenType
		right    interface{}
		want     bool
	}{
		// Integer comparisons
		{"int equal", int64(30), TokenEqual, int64(30), true},
		{"int not equal", int64(30), TokenNotEqual, int64(25), true},
		{"int less", int64(25), TokenLess, int64(30), true},
		{"int greater", int64(35), TokenGreater, int64(30), true},
		{"int less equal same", int64(30), TokenLessEqual, int64(30), true},
		{"int greater equal greater", int64(35), TokenGreaterEqual, int64(30), true},
		{"large ints compare exactly", int64(math.MaxInt64), TokenGreater, int64(math.MaxInt64 - 1), true},

		// Float comparisons
		{"float equal", 3.14, TokenEqual, 3.14, true},
		{"float not equal", 3.14, TokenNotEqual, 2.71, true},
		{"float less", 2.5, TokenLess, 3.0, true},
		{"float equal within tolerance", 0.1 + 0.2, TokenEqual, 0.3, true},
		{"infinity equals itself", math.Inf(1), TokenEqual, math.Inf(1), true},
		{"NaN never equal", math.NaN(), TokenEqual, math.NaN(), false},
		{"NaN never not equal", math.NaN(), TokenNotEqual, 1.0, false},

		// Mixed int/float comparisons
		{"int vs float equal", int64(30), TokenEqual, 30.0, true},
		{"float vs int greater", 35.5, TokenGreater, int64(30), true},

		// Negative results
		{"int not equal same", int64(30), TokenNotEqual, int64(30), false},
		{"int less wrong", int64(35), TokenLess, int64(30), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := compare(tt.left, tt.operator, tt.right)
			if err != nil {
				t.Errorf("compare() error = %v", err)
				return
			}
			if got != tt.want {
				t.Errorf("compare(%v, %v, %v) = %v, want %v", tt.left, tt.operator, tt.right, got, tt.want)
			}
		})
	}
}

func TestCompare_Strings(t *testing.T) {
	tests := []struct {
		name     string
		left     string
		operator TokenType
		right    string
		want     bool
	}{
		{"equal", "alice", TokenEqual, "alice", true},
		{"not equal", "alice", TokenNotEqual, "bob", true},
		{"less", "alice", TokenLess, "bob", true},
		{"greater", "bob", TokenGreater, "alice", true},
		{"byte order puts upper case first", "Zed", TokenLess, "abe", true},

		// Case sensitivity
		{"case sensitive not equal", "Alice", TokenEqual, "alice", false},
		{"untrimmed", "alice ", TokenEqual, "alice", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := compare(tt.left, tt.operator, tt.right)
			if err != nil {
				t.Errorf("compare() error = %v", err)
				return
			}
			if got != tt.want {
				t.Errorf("compare(%q, %v, %q) = %v, want %v", tt.left, tt.operator, tt.right, got, tt.want)
			}
		})
	}
}

func TestCompare_Nulls(t *testing.T) {
	operators := []TokenType{TokenEqual, TokenNotEqual, TokenLess, TokenGreater, TokenLessEqual, TokenGreaterEqual}
	for _, op := range operators {
		for _, pair := range [][2]interface{}{{nil, int64(1)}, {"a", nil}, {nil, nil}} {
			got, err := compare(pair[0], op, pair[1])
			if err != nil || got {
				t.Errorf("compare(%v, %v, %v) = %v, %v; want false, nil", pair[0], op, pair[1], got, err)
			}
		}
	}
}

func TestCompare_TypeMismatch(t *testing.T) {
	tests := []struct {
		name  string
		left  interface{}
		right interface{}
	}{
		{"text and int", "30", int64(30)},
		{"float and text", 1.5, "1.5"},
		{"bool and int", true, int64(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compare(tt.left, TokenEqual, tt.right)
			if !errors.Is(err, ErrTypeMismatch) {
				t.Errorf("compare(%v, =, %v) error = %v, want ErrTypeMismatch", tt.left, tt.right, err)
			}
		})
	}
}

func TestMatchLikePattern(t *testing.T) {
	tests := []struct {
		str     string
		pattern string
		want    bool
	}{
		{"alice", "alice", true},
		{"alice", "ALICE", true},
		{"alice", "a%", true},
		{"alice", "%e", true},
		{"alice", "%lic%", true},
		{"alice", "a_ice", true},
		{"alice", "a__ce", true},
		{"alice", "a_e", false},
		{"alice", "%", true},
		{"", "%", true},
		{"", "_", false},
		{"banana", "%ana", true},
		{"banana", "b%n%a", true},
		{"abcabd", "%abd", true},
		{"mississippi", "m%iss%ppi", true},
		{"mississippi", "m%iss%ppx", false},
		{"naïve", "na_ve", true},
		{"ÉCOLE", "école", false},
		{"50%", "50%", true},
	}

	for _, tt := range tests {
		t.Run(tt.str+"~"+tt.pattern, func(t *testing.T) {
			if got := matchLikePattern(tt.str, tt.pattern); got != tt.want {
				t.Errorf("matchLikePattern(%q, %q) = %v, want %v", tt.str, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestLimitOffset(t *testing.T) {
	i := func(n int64) *int64 { return &n }
	tests := []struct {
		name      string
		n         int
		limit     *int64
		offset    *int64
		wantStart int
		wantEnd   int
	}{
		{"neither", 5, nil, nil, 0, 5},
		{"limit", 5, i(2), nil, 0, 2},
		{"limit beyond rows", 3, i(5), nil, 0, 3},
		{"limit zero", 5, i(0), nil, 0, 0},
		{"offset", 5, nil, i(3), 3, 5},
		{"offset beyond rows", 5, nil, i(9), 5, 5},
		{"both", 5, i(2), i(1), 1, 3},
		{"max limit with offset", 3, i(math.MaxInt64), i(1), 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := limitOffset(tt.n, tt.limit, tt.offset)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("limitOffset() = %d, %d; want %d, %d", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestRowKey(t *testing.T) {
	if rowKey([]interface{}{int64(1)}) == rowKey([]interface{}{1.0}) {
		t.Error("integer 1 and float 1.0 should have different keys")
	}
	if rowKey([]interface{}{"a", "b"}) != rowKey([]interface{}{"a", "b"}) {
		t.Error("equal rows should have equal keys")
	}
	if rowKey([]interface{}{nil}) == rowKey([]interface{}{""}) {
		t.Error("null and empty text should have different keys")
	}
}
