package query

import (
	"fmt"
	"math"
)

// AbsFunc returns the absolute value of a number. Integers stay integers.
type AbsFunc struct{}

func (f *AbsFunc) Name() string  { return "ABS" }
func (f *AbsFunc) MinArity() int { return 1 }
func (f *AbsFunc) MaxArity() int { return 1 }
func (f *AbsFunc) Evaluate(args []interface{}) (interface{}, error) {
	if i, ok := args[0].(int64); ok && i != math.MinInt64 {
		if i < 0 {
			return -i, nil
		}
		return i, nil
	}
	num, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("ABS: %w", err)
	}
	return math.Abs(num), nil
}

// RoundFunc rounds a number to the specified number of decimal places
type RoundFunc struct{}

func (f *RoundFunc) Name() string  { return "ROUND" }
func (f *RoundFunc) MinArity() int { return 1 }
func (f *RoundFunc) MaxArity() int { return 2 }
func (f *RoundFunc) Evaluate(args []interface{}) (interface{}, error) {
	num, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("ROUND: %w", err)
	}

	// Default to 0 decimal places
	decimals := int64(0)
	if len(args) == 2 {
		decimals, err = valueToInt(args[1])
		if err != nil {
			return nil, fmt.Errorf("ROUND: decimals argument: %w", err)
		}
	}

	multiplier := math.Pow(10, float64(decimals))
	return math.Round(num*multiplier) / multiplier, nil
}

// FloorFunc returns the largest integer less than or equal to a number
type FloorFunc struct{}

func (f *FloorFunc) Name() string  { return "FLOOR" }
func (f *FloorFunc) MinArity() int { return 1 }
func (f *FloorFunc) MaxArity() int { return 1 }
func (f *FloorFunc) Evaluate(args []interface{}) (interface{}, error) {
	if i, ok := args[0].(int64); ok {
		return i, nil
	}
	num, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("FLOOR: %w", err)
	}
	return math.Floor(num), nil
}

// CeilFunc returns the smallest integer greater than or equal to a number
type CeilFunc struct{}

func (f *CeilFunc) Name() string  { return "CEIL" }
func (f *CeilFunc) MinArity() int { return 1 }
func (f *CeilFunc) MaxArity() int { return 1 }
func (f *CeilFunc) Evaluate(args []interface{}) (interface{}, error) {
	if i, ok := args[0].(int64); ok {
		return i, nil
	}
	num, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("CEIL: %w", err)
	}
	return math.Ceil(num), nil
}

// ModFunc returns the remainder of division. Division by zero yields null.
type ModFunc struct{}

func (f *ModFunc) Name() string  { return "MOD" }
func (f *ModFunc) MinArity() int { return 2 }
func (f *ModFunc) MaxArity() int { return 2 }
func (f *ModFunc) Evaluate(args []interface{}) (interface{}, error) {
	if a, ok := args[0].(int64); ok {
		if b, ok := args[1].(int64); ok {
			if b == 0 {
				return nil, nil
			}
			return a % b, nil
		}
	}

	dividend, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("MOD: dividend: %w", err)
	}
	divisor, err := valueToNumber(args[1])
	if err != nil {
		return nil, fmt.Errorf("MOD: divisor: %w", err)
	}
	if divisor == 0 {
		return nil, nil
	}
	return math.Mod(dividend, divisor), nil
}

// SqrtFunc returns the square root of a number. Negative input yields null.
type SqrtFunc struct{}

func (f *SqrtFunc) Name() string  { return "SQRT" }
func (f *SqrtFunc) MinArity() int { return 1 }
func (f *SqrtFunc) MaxArity() int { return 1 }
func (f *SqrtFunc) Evaluate(args []interface{}) (interface{}, error) {
	num, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("SQRT: %w", err)
	}
	if num < 0 {
		return nil, nil
	}
	return math.Sqrt(num), nil
}

// PowFunc raises a number to a power
type PowFunc struct{}

func (f *PowFunc) Name() string  { return "POW" }
func (f *PowFunc) MinArity() int { return 2 }
func (f *PowFunc) MaxArity() int { return 2 }
func (f *PowFunc) Evaluate(args []interface{}) (interface{}, error) {
	base, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("POW: base: %w", err)
	}
	exp, err := valueToNumber(args[1])
	if err != nil {
		return nil, fmt.Errorf("POW: exponent: %w", err)
	}
	return math.Pow(base, exp), nil
}

// SignFunc returns -1, 0 or 1 according to the sign of a number
type SignFunc struct{}

func (f *SignFunc) Name() string  { return "SIGN" }
func (f *SignFunc) MinArity() int { return 1 }
func (f *SignFunc) MaxArity() int { return 1 }
func (f *SignFunc) Evaluate(args []interface{}) (interface{}, error) {
	num, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("SIGN: %w", err)
	}
	switch {
	case num > 0:
		return int64(1), nil
	case num < 0:
		return int64(-1), nil
	default:
		return int64(0), nil
	}
}

// TruncFunc truncates a number toward zero
type TruncFunc struct{}

func (f *TruncFunc) Name() string  { return "TRUNC" }
func (f *TruncFunc) MinArity() int { return 1 }
func (f *TruncFunc) MaxArity() int { return 1 }
func (f *TruncFunc) Evaluate(args []interface{}) (interface{}, error) {
	if i, ok := args[0].(int64); ok {
		return i, nil
	}
	num, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("TRUNC: %w", err)
	}
	return math.Trunc(num), nil
}

// MinFunc returns the smallest of its arguments (scalar form of MIN)
type MinFunc struct{}

func (f *MinFunc) Name() string  { return "MIN" }
func (f *MinFunc) MinArity() int { return 2 }
func (f *MinFunc) MaxArity() int { return -1 }
func (f *MinFunc) Evaluate(args []interface{}) (interface{}, error) {
	return pickExtreme("MIN", args, -1)
}

// MaxFunc returns the largest of its arguments (scalar form of MAX)
type MaxFunc struct{}

func (f *MaxFunc) Name() string  { return "MAX" }
func (f *MaxFunc) MinArity() int { return 2 }
func (f *MaxFunc) MaxArity() int { return -1 }
func (f *MaxFunc) Evaluate(args []interface{}) (interface{}, error) {
	return pickExtreme("MAX", args, 1)
}

// pickExtreme returns the argument that compares as want (-1 smallest,
// +1 largest) against all others.
func pickExtreme(name string, args []interface{}, want int) (interface{}, error) {
	best := args[0]
	for _, arg := range args[1:] {
		c, err := compareValues(arg, best)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if c == want {
			best = arg
		}
	}
	return best, nil
}
