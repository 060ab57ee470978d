package query

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/vegasq/csvview/table"
)

// Function represents a scalar function that can be evaluated
type Function interface {
	// Name returns the function name (case-insensitive)
	Name() string
	// MinArity returns the minimum number of arguments
	MinArity() int
	// MaxArity returns the maximum number of arguments (-1 for unlimited)
	MaxArity() int
	// Evaluate evaluates the function with the given arguments
	Evaluate(args []interface{}) (interface{}, error)
}

// NullAccepting is implemented by functions that handle null arguments
// themselves. Every other function returns null when an argument is null.
type NullAccepting interface {
	AcceptsNull() bool
}

// FunctionRegistry manages function lookup and registration
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry creates a new function registry
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]Function),
	}
}

// Register registers a function
func (r *FunctionRegistry) Register(f Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[strings.ToUpper(f.Name())] = f
}

// RegisterAlias makes an existing function callable under another name
func (r *FunctionRegistry) RegisterAlias(alias, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.functions[strings.ToUpper(name)]; ok {
		r.functions[strings.ToUpper(alias)] = f
	}
}

// Get retrieves a function by name (case-insensitive)
func (r *FunctionRegistry) Get(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, exists := r.functions[strings.ToUpper(name)]
	return f, exists
}

// globalRegistry is the default function registry
var globalRegistry *FunctionRegistry

func init() {
	globalRegistry = NewFunctionRegistry()

	// String functions
	globalRegistry.Register(&UpperFunc{})
	globalRegistry.Register(&LowerFunc{})
	globalRegistry.Register(&ConcatFunc{})
	globalRegistry.Register(&LengthFunc{})
	globalRegistry.Register(&TrimFunc{})
	globalRegistry.Register(&LTrimFunc{})
	globalRegistry.Register(&RTrimFunc{})
	globalRegistry.Register(&SubstringFunc{})
	globalRegistry.Register(&ReplaceFunc{})
	globalRegistry.Register(&ReverseFunc{})
	globalRegistry.Register(&ContainsFunc{})
	globalRegistry.Register(&StartsWithFunc{})
	globalRegistry.Register(&EndsWithFunc{})
	globalRegistry.Register(&RepeatFunc{})
	globalRegistry.RegisterAlias("SUBSTR", "SUBSTRING")
	globalRegistry.RegisterAlias("LEN", "LENGTH")

	// Math functions
	globalRegistry.Register(&AbsFunc{})
	globalRegistry.Register(&RoundFunc{})
	globalRegistry.Register(&FloorFunc{})
	globalRegistry.Register(&CeilFunc{})
	globalRegistry.Register(&ModFunc{})
	globalRegistry.Register(&SqrtFunc{})
	globalRegistry.Register(&PowFunc{})
	globalRegistry.Register(&SignFunc{})
	globalRegistry.Register(&TruncFunc{})
	globalRegistry.Register(&MinFunc{})
	globalRegistry.Register(&MaxFunc{})
	globalRegistry.RegisterAlias("CEILING", "CEIL")
	globalRegistry.RegisterAlias("POWER", "POW")

	// Conditional functions
	globalRegistry.Register(&CoalesceFunc{})
	globalRegistry.Register(&NullIfFunc{})
	globalRegistry.RegisterAlias("IFNULL", "COALESCE")
}

// GetGlobalRegistry returns the global function registry
func GetGlobalRegistry() *FunctionRegistry {
	return globalRegistry
}

// lookupFunction finds a registered function and checks its arity.
func lookupFunction(name string, argCount int) (Function, error) {
	fn, exists := globalRegistry.Get(name)
	if !exists {
		if isAggregateFunction(name) {
			return nil, fmt.Errorf("%w: %s expects exactly one argument, got %d", ErrSyntax, strings.ToUpper(name), argCount)
		}
		return nil, fmt.Errorf("%w: unknown function %s", ErrUnknownIdentifier, strings.ToUpper(name))
	}

	minArity := fn.MinArity()
	maxArity := fn.MaxArity()
	if argCount < minArity {
		return nil, fmt.Errorf("%w: function %s expects at least %d arguments, got %d", ErrSyntax, fn.Name(), minArity, argCount)
	}
	if maxArity >= 0 && argCount > maxArity {
		return nil, fmt.Errorf("%w: function %s expects at most %d arguments, got %d", ErrSyntax, fn.Name(), maxArity, argCount)
	}
	return fn, nil
}

func acceptsNull(fn Function) bool {
	na, ok := fn.(NullAccepting)
	return ok && na.AcceptsNull()
}

// valueToString converts a value to its textual form
func valueToString(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case int64, float64, bool, int:
		return table.Format(val), nil
	default:
		return "", fmt.Errorf("%w: cannot convert %T to text", ErrTypeMismatch, v)
	}
}

// valueToNumber converts a value to float64. Text is accepted when it
// holds a number.
func valueToNumber(v interface{}) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	case int:
		return float64(val), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, val)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: expected a number, got %s", ErrTypeMismatch, typeName(v))
	}
}

// valueToInt converts a value to int64, truncating floats.
func valueToInt(v interface{}) (int64, error) {
	if i, ok := v.(int64); ok {
		return i, nil
	}
	f, err := valueToNumber(v)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// Conditional Functions

// CoalesceFunc returns the first non-null value
type CoalesceFunc struct{}

func (f *CoalesceFunc) Name() string      { return "COALESCE" }
func (f *CoalesceFunc) MinArity() int     { return 1 }
func (f *CoalesceFunc) MaxArity() int     { return -1 }
func (f *CoalesceFunc) AcceptsNull() bool { return true }
func (f *CoalesceFunc) Evaluate(args []interface{}) (interface{}, error) {
	for _, arg := range args {
		if arg != nil {
			return arg, nil
		}
	}
	return nil, nil
}

// NullIfFunc returns null if two values are equal, otherwise returns the first value
type NullIfFunc struct{}

func (f *NullIfFunc) Name() string      { return "NULLIF" }
func (f *NullIfFunc) MinArity() int     { return 2 }
func (f *NullIfFunc) MaxArity() int     { return 2 }
func (f *NullIfFunc) AcceptsNull() bool { return true }
func (f *NullIfFunc) Evaluate(args []interface{}) (interface{}, error) {
	if args[0] == nil || args[1] == nil {
		return args[0], nil
	}

	match, err := compare(args[0], TokenEqual, args[1])
	if err != nil {
		// Values of different types are never equal
		return args[0], nil
	}
	if match {
		return nil, nil
	}
	return args[0], nil
}
