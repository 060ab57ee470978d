// Package chart projects two numeric columns of a table into a chart
// specification. It draws nothing; callers hand the spec to whatever
// renders charts.
package chart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vegasq/csvview/table"
)

var (
	// ErrNotEnoughNumeric is returned when a table has fewer than two
	// numeric columns to put on the axes
	ErrNotEnoughNumeric = errors.New("at least two numeric columns are required for a chart")

	// ErrNotNumeric is returned when an axis column is not numeric
	ErrNotNumeric = errors.New("chart axis must be a numeric column")

	// ErrUnknownKind is returned for a chart kind other than scatter, line or bar
	ErrUnknownKind = errors.New("unknown chart kind")
)

// Kind is the chart type.
type Kind string

const (
	Scatter Kind = "scatter"
	Line    Kind = "line"
	Bar     Kind = "bar"
)

// Kinds lists the supported chart kinds.
var Kinds = []Kind{Scatter, Line, Bar}

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w %q (want scatter, line or bar)", ErrUnknownKind, s)
}

// Title returns the display name of the kind.
func (k Kind) Title() string {
	switch k {
	case Scatter:
		return "Scatter Plot"
	case Line:
		return "Line Chart"
	case Bar:
		return "Bar Chart"
	default:
		return string(k)
	}
}

// Point is one (x, y) pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Spec is a renderable chart description.
type Spec struct {
	Kind   Kind    `json:"kind"`
	Title  string  `json:"title"`
	X      string  `json:"x"`
	Y      string  `json:"y"`
	Points []Point `json:"points"`
}

// NumericColumns returns the columns that can be used as axes.
func NumericColumns(t *table.Table) []string {
	return t.NumericColumns()
}

// Project builds a chart of column y against column x. Rows where either
// value is null are skipped; the remaining rows keep their table order.
func Project(t *table.Table, x, y string, kind Kind) (*Spec, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if len(t.NumericColumns()) < 2 {
		return nil, ErrNotEnoughNumeric
	}

	xi, err := axis(t, x)
	if err != nil {
		return nil, err
	}
	yi, err := axis(t, y)
	if err != nil {
		return nil, err
	}

	points := make([]Point, 0, t.NumRows())
	for r := 0; r < t.NumRows(); r++ {
		xv, xok := number(t.Value(r, xi))
		yv, yok := number(t.Value(r, yi))
		if !xok || !yok {
			continue
		}
		points = append(points, Point{X: xv, Y: yv})
	}

	return &Spec{
		Kind:   kind,
		Title:  fmt.Sprintf("%s: %s vs %s", kind.Title(), x, y),
		X:      x,
		Y:      y,
		Points: points,
	}, nil
}

func axis(t *table.Table, name string) (int, error) {
	col, i, err := t.Column(name)
	if err != nil {
		return -1, err
	}
	if !col.Type.IsNumeric() {
		return -1, fmt.Errorf("%w: %q is %s", ErrNotNumeric, name, col.Type)
	}
	return i, nil
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
