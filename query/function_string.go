package query

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// UpperFunc converts a string to uppercase
type UpperFunc struct{}

func (f *UpperFunc) Name() string  { return "UPPER" }
func (f *UpperFunc) MinArity() int { return 1 }
func (f *UpperFunc) MaxArity() int { return 1 }
func (f *UpperFunc) Evaluate(args []interface{}) (interface{}, error) {
	str, err := valueToString(args[0])
	if err != nil {
		return nil, fmt.Errorf("UPPER: %w", err)
	}
	return strings.ToUpper(str), nil
}

// LowerFunc converts a string to lowercase
type LowerFunc struct{}

func (f *LowerFunc) Name() string  { return "LOWER" }
func (f *LowerFunc) MinArity() int { return 1 }
func (f *LowerFunc) MaxArity() int { return 1 }
func (f *LowerFunc) Evaluate(args []interface{}) (interface{}, error) {
	str, err := valueToString(args[0])
	if err != nil {
		return nil, fmt.Errorf("LOWER: %w", err)
	}
	return strings.ToLower(str), nil
}

// ConcatFunc concatenates its arguments, skipping nulls
type ConcatFunc struct{}

func (f *ConcatFunc) Name() string      { return "CONCAT" }
func (f *ConcatFunc) MinArity() int     { return 1 }
func (f *ConcatFunc) MaxArity() int     { return -1 } // variadic
func (f *ConcatFunc) AcceptsNull() bool { return true }
func (f *ConcatFunc) Evaluate(args []interface{}) (interface{}, error) {
	var builder strings.Builder
	for i, arg := range args {
		if arg == nil {
			continue
		}
		str, err := valueToString(arg)
		if err != nil {
			return nil, fmt.Errorf("CONCAT: argument %d: %w", i+1, err)
		}
		builder.WriteString(str)
	}
	return builder.String(), nil
}

// LengthFunc returns the number of characters in a string
type LengthFunc struct{}

func (f *LengthFunc) Name() string  { return "LENGTH" }
func (f *LengthFunc) MinArity() int { return 1 }
func (f *LengthFunc) MaxArity() int { return 1 }
func (f *LengthFunc) Evaluate(args []interface{}) (interface{}, error) {
	str, err := valueToString(args[0])
	if err != nil {
		return nil, fmt.Errorf("LENGTH: %w", err)
	}
	return int64(utf8.RuneCountInString(str)), nil
}

// TrimFunc trims whitespace from both ends of a string
type TrimFunc struct{}

func (f *TrimFunc) Name() string  { return "TRIM" }
func (f *TrimFunc) MinArity() int { return 1 }
func (f *TrimFunc) MaxArity() int { return 1 }
func (f *TrimFunc) Evaluate(args []interface{}) (interface{}, error) {
	str, err := valueToString(args[0])
	if err != nil {
		return nil, fmt.Errorf("TRIM: %w", err)
	}
	return strings.TrimSpace(str), nil
}

// LTrimFunc trims whitespace from the left side of a string
type LTrimFunc struct{}

func (f *LTrimFunc) Name() string  { return "LTRIM" }
func (f *LTrimFunc) MinArity() int { return 1 }
func (f *LTrimFunc) MaxArity() int { return 1 }
func (f *LTrimFunc) Evaluate(args []interface{}) (interface{}, error) {
	str, err := valueToString(args[0])
	if err != nil {
		return nil, fmt.Errorf("LTRIM: %w", err)
	}
	return strings.TrimLeft(str, " \t\n\r"), nil
}

// RTrimFunc trims whitespace from the right side of a string
type RTrimFunc struct{}

func (f *RTrimFunc) Name() string  { return "RTRIM" }
func (f *RTrimFunc) MinArity() int { return 1 }
func (f *RTrimFunc) MaxArity() int { return 1 }
func (f *RTrimFunc) Evaluate(args []interface{}) (interface{}, error) {
	str, err := valueToString(args[0])
	if err != nil {
		return nil, fmt.Errorf("RTRIM: %w", err)
	}
	return strings.TrimRight(str, " \t\n\r"), nil
}

// SubstringFunc extracts a substring (1-indexed, in characters)
type SubstringFunc struct{}

func (f *SubstringFunc) Name() string  { return "SUBSTRING" }
func (f *SubstringFunc) MinArity() int { return 2 }
func (f *SubstringFunc) MaxArity() int { return 3 }
func (f *SubstringFunc) Evaluate(args []interface{}) (interface{}, error) {
	str, err := valueToString(args[0])
	if err != nil {
		return nil, fmt.Errorf("SUBSTRING: %w", err)
	}
	runes := []rune(str)

	start, err := valueToInt(args[1])
	if err != nil {
		return nil, fmt.Errorf("SUBSTRING: start: %w", err)
	}
	startIdx := start - 1 // SQL uses 1-based indexing
	if startIdx < 0 {
		startIdx = 0
	}
	if startIdx >= int64(len(runes)) {
		return "", nil
	}

	endIdx := int64(len(runes))
	if len(args) == 3 {
		length, err := valueToInt(args[2])
		if err != nil {
			return nil, fmt.Errorf("SUBSTRING: length: %w", err)
		}
		if length < 0 {
			return "", nil
		}
		if length < endIdx-startIdx {
			endIdx = startIdx + length
		}
	}

	return string(runes[startIdx:endIdx]), nil
}

// ReplaceFunc replaces occurrences of a substring
type ReplaceFunc struct{}

func (f *ReplaceFunc) Name() string  { return "REPLACE" }
func (f *ReplaceFunc) MinArity() int { return 3 }
func (f *ReplaceFunc) MaxArity() int { return 3 }
func (f *ReplaceFunc) Evaluate(args []interface{}) (interface{}, error) {
	str, err := valueToString(args[0])
	if err != nil {
		return nil, fmt.Errorf("REPLACE: %w", err)
	}
	old, err := valueToString(args[1])
	if err != nil {
		return nil, fmt.Errorf("REPLACE: search: %w", err)
	}
	replacement, err := valueToString(args[2])
	if err != nil {
		return nil, fmt.Errorf("REPLACE: replacement: %w", err)
	}
	if old == "" {
		return str, nil
	}
	return strings.ReplaceAll(str, old, replacement), nil
}

// ReverseFunc reverses a string
type ReverseFunc struct{}

func (f *ReverseFunc) Name() string  { return "REVERSE" }
func (f *ReverseFunc) MinArity() int { return 1 }
func (f *ReverseFunc) MaxArity() int { return 1 }
func (f *ReverseFunc) Evaluate(args []interface{}) (interface{}, error) {
	str, err := valueToString(args[0])
	if err != nil {
		return nil, fmt.Errorf("REVERSE: %w", err)
	}
	runes := []rune(str)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes), nil
}

// ContainsFunc reports whether a string contains a substring
type ContainsFunc struct{}

func (f *ContainsFunc) Name() string  { return "CONTAINS" }
func (f *ContainsFunc) MinArity() int { return 2 }
func (f *ContainsFunc) MaxArity() int { return 2 }
func (f *ContainsFunc) Evaluate(args []interface{}) (interface{}, error) {
	str, sub, err := stringPair("CONTAINS", args)
	if err != nil {
		return nil, err
	}
	return strings.Contains(str, sub), nil
}

// StartsWithFunc reports whether a string starts with a prefix
type StartsWithFunc struct{}

func (f *StartsWithFunc) Name() string  { return "STARTS_WITH" }
func (f *StartsWithFunc) MinArity() int { return 2 }
func (f *StartsWithFunc) MaxArity() int { return 2 }
func (f *StartsWithFunc) Evaluate(args []interface{}) (interface{}, error) {
	str, prefix, err := stringPair("STARTS_WITH", args)
	if err != nil {
		return nil, err
	}
	return strings.HasPrefix(str, prefix), nil
}

// EndsWithFunc reports whether a string ends with a suffix
type EndsWithFunc struct{}

func (f *EndsWithFunc) Name() string  { return "ENDS_WITH" }
func (f *EndsWithFunc) MinArity() int { return 2 }
func (f *EndsWithFunc) MaxArity() int { return 2 }
func (f *EndsWithFunc) Evaluate(args []interface{}) (interface{}, error) {
	str, suffix, err := stringPair("ENDS_WITH", args)
	if err != nil {
		return nil, err
	}
	return strings.HasSuffix(str, suffix), nil
}

// RepeatFunc repeats a string n times
type RepeatFunc struct{}

// maxRepeatLength bounds the size of a REPEAT result
const maxRepeatLength = 1 << 20

func (f *RepeatFunc) Name() string  { return "REPEAT" }
func (f *RepeatFunc) MinArity() int { return 2 }
func (f *RepeatFunc) MaxArity() int { return 2 }
func (f *RepeatFunc) Evaluate(args []interface{}) (interface{}, error) {
	str, err := valueToString(args[0])
	if err != nil {
		return nil, fmt.Errorf("REPEAT: %w", err)
	}
	count, err := valueToInt(args[1])
	if err != nil {
		return nil, fmt.Errorf("REPEAT: count: %w", err)
	}
	if count <= 0 || str == "" {
		return "", nil
	}
	if count > int64(maxRepeatLength/len(str)) {
		return nil, fmt.Errorf("REPEAT: result would exceed %d bytes", maxRepeatLength)
	}
	return strings.Repeat(str, int(count)), nil
}

func stringPair(name string, args []interface{}) (string, string, error) {
	a, err := valueToString(args[0])
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", name, err)
	}
	b, err := valueToString(args[1])
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", name, err)
	}
	return a, b, nil
}
