package query

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a QueryError.
type ErrorKind int

const (
	EmptyQuery ErrorKind = iota
	SyntaxError
	UnknownIdentifier
	TypeMismatch
	Internal
)

func (k ErrorKind) String() string {
	switch k {
	case EmptyQuery:
		return "empty query"
	case SyntaxError:
		return "syntax error"
	case UnknownIdentifier:
		return "unknown identifier"
	case TypeMismatch:
		return "type mismatch"
	case Internal:
		return "internal error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// MarshalText encodes the kind as its name, for JSON error bodies.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

var (
	// ErrEmptyQuery is returned for blank query text
	ErrEmptyQuery = errors.New("empty query")

	// ErrSyntax marks malformed or unsupported query text
	ErrSyntax = errors.New("syntax error")

	// ErrUnknownIdentifier marks unknown or ambiguous table and column names
	ErrUnknownIdentifier = errors.New("unknown identifier")

	// ErrTypeMismatch marks operations applied to values of the wrong type
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInternal marks a failure inside the engine itself
	ErrInternal = errors.New("internal error")
)

// QueryError is the only error type returned by Execute and ExecuteQuery.
type QueryError struct {
	Kind ErrorKind
	Err  error
}

func (e *QueryError) Error() string {
	if errors.Is(e.Err, kindSentinel(e.Kind)) {
		return e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind, so errors.Is(err, ErrSyntax)
// holds for every syntax error.
func (e *QueryError) Is(target error) bool { return target == kindSentinel(e.Kind) }

func kindSentinel(k ErrorKind) error {
	switch k {
	case EmptyQuery:
		return ErrEmptyQuery
	case UnknownIdentifier:
		return ErrUnknownIdentifier
	case TypeMismatch:
		return ErrTypeMismatch
	case Internal:
		return ErrInternal
	default:
		return ErrSyntax
	}
}

// newQueryError classifies err by the sentinel it wraps. Errors carrying
// no sentinel are syntax errors.
func newQueryError(err error) error {
	if err == nil {
		return nil
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe
	}

	kind := SyntaxError
	switch {
	case errors.Is(err, ErrEmptyQuery):
		kind = EmptyQuery
	case errors.Is(err, ErrTypeMismatch):
		kind = TypeMismatch
	case errors.Is(err, ErrUnknownIdentifier):
		kind = UnknownIdentifier
	case errors.Is(err, ErrInternal):
		kind = Internal
	}
	return &QueryError{Kind: kind, Err: err}
}
