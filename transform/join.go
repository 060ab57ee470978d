package transform

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/vegasq/csvview/table"
)

// JoinKind selects which unmatched rows survive a join.
type JoinKind int

const (
	JoinInner JoinKind = iota // matching pairs only
	JoinLeft                  // every left row, matched or not
	JoinRight                 // every right row, matched or not
	JoinOuter                 // every row from both sides
)

// String returns the lower-case kind name
func (k JoinKind) String() string {
	switch k {
	case JoinInner:
		return "inner"
	case JoinLeft:
		return "left"
	case JoinRight:
		return "right"
	case JoinOuter:
		return "outer"
	default:
		return fmt.Sprintf("JoinKind(%d)", int(k))
	}
}

// ParseJoinKind parses "inner", "left", "right" or "outer" (also "full"),
// ignoring case.
func ParseJoinKind(s string) (JoinKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inner", "":
		return JoinInner, nil
	case "left":
		return JoinLeft, nil
	case "right":
		return JoinRight, nil
	case "outer", "full":
		return JoinOuter, nil
	default:
		return 0, &JoinError{Kind: UnknownKind, Detail: fmt.Sprintf("unknown join kind %q (want inner, left, right or outer)", s)}
	}
}

// JoinErrorKind classifies a JoinError.
type JoinErrorKind int

const (
	NoCommonColumn JoinErrorKind = iota
	KeyTypeMismatch
	UnknownKind
)

var (
	// ErrNoCommonColumn is the sentinel behind JoinError{Kind: NoCommonColumn}
	ErrNoCommonColumn = errors.New("no common column")

	// ErrKeyTypeMismatch is the sentinel behind JoinError{Kind: KeyTypeMismatch}
	ErrKeyTypeMismatch = errors.New("join key type mismatch")

	// ErrUnknownKind is the sentinel behind JoinError{Kind: UnknownKind}
	ErrUnknownKind = errors.New("unknown join kind")
)

// JoinError reports a join that cannot be performed.
type JoinError struct {
	Kind   JoinErrorKind
	Column string
	Detail string
}

func (e *JoinError) Error() string {
	if e.Detail != "" {
		return "join: " + e.Detail
	}
	return "join: " + e.Unwrap().Error()
}

// Unwrap returns the sentinel for the error kind.
func (e *JoinError) Unwrap() error {
	switch e.Kind {
	case KeyTypeMismatch:
		return ErrKeyTypeMismatch
	case UnknownKind:
		return ErrUnknownKind
	default:
		return ErrNoCommonColumn
	}
}

// CommonColumns returns the column names present in both tables, in the
// left table's order.
func CommonColumns(left, right *table.Table) []string {
	var common []string
	for _, name := range left.ColumnNames() {
		if _, _, ok := right.Lookup(name); ok {
			common = append(common, name)
		}
	}
	return common
}

// Join combines left and right on the column both share.
//
// Key equality is numeric for numeric keys (integer 1 equals float 1.0) and
// exact on the textual form otherwise; null keys never match. The output
// holds the left non-key columns, the key, then the right non-key columns.
// Non-key names present on both sides get "_x" (left) and "_y" (right)
// appended until unique.
//
// Inner and left joins follow left row order with matches in right order;
// right joins follow right row order; outer joins emit the left join rows
// followed by the unmatched right rows.
func Join(left, right *table.Table, column string, kind JoinKind) (*table.Table, error) {
	if kind < JoinInner || kind > JoinOuter {
		return nil, &JoinError{Kind: UnknownKind, Detail: fmt.Sprintf("unknown join kind %d", int(kind))}
	}

	common := CommonColumns(left, right)
	if len(common) == 0 {
		return nil, &JoinError{Kind: NoCommonColumn, Detail: "the tables share no column names"}
	}

	lcol, lpos, lok := left.Lookup(column)
	rcol, rpos, rok := right.Lookup(column)
	if !lok || !rok {
		return nil, &JoinError{
			Kind:   NoCommonColumn,
			Column: column,
			Detail: fmt.Sprintf("column %q is not in both tables (common: %s)", column, strings.Join(common, ", ")),
		}
	}
	if lcol.Type.IsNumeric() != rcol.Type.IsNumeric() {
		return nil, &JoinError{
			Kind:   KeyTypeMismatch,
			Column: column,
			Detail: fmt.Sprintf("column %q is %s on the left and %s on the right", column, lcol.Type, rcol.Type),
		}
	}

	keyType := lcol.Type
	switch {
	case lcol.Type == table.TypeInteger && rcol.Type == table.TypeInteger:
		keyType = table.TypeInteger
	case lcol.Type.IsNumeric():
		keyType = table.TypeFloat
	case lcol.Type != rcol.Type:
		keyType = table.TypeText
	}

	j := &joiner{left: left, right: right, lpos: lpos, rpos: rpos, keyType: keyType}
	j.layout(column)

	switch kind {
	case JoinRight:
		j.rightJoin()
	default:
		j.leftJoin(kind)
	}

	return table.New(j.columns, j.rows)
}

type joiner struct {
	left, right *table.Table
	lpos, rpos  int
	keyType     table.Type

	lkeep, rkeep []int // non-key column positions
	columns      []table.Column
	rows         [][]interface{}
}

// layout computes the output schema.
func (j *joiner) layout(key string) {
	rnames := make(map[string]bool)
	for _, n := range j.right.ColumnNames() {
		if n != key {
			rnames[n] = true
		}
	}
	lnames := make(map[string]bool)
	for _, n := range j.left.ColumnNames() {
		if n != key {
			lnames[n] = true
		}
	}

	taken := map[string]bool{key: true}
	for n := range lnames {
		taken[n] = true
	}
	for n := range rnames {
		taken[n] = true
	}

	rename := func(name, suffix string) string {
		candidate := name + suffix
		for taken[candidate] {
			candidate += suffix
		}
		taken[candidate] = true
		return candidate
	}

	for i, col := range j.left.Columns() {
		if i == j.lpos {
			continue
		}
		if rnames[col.Name] {
			col.Name = rename(col.Name, "_x")
		}
		j.lkeep = append(j.lkeep, i)
		j.columns = append(j.columns, col)
	}

	j.columns = append(j.columns, table.Column{Name: key, Type: j.keyType})

	for i, col := range j.right.Columns() {
		if i == j.rpos {
			continue
		}
		if lnames[col.Name] {
			col.Name = rename(col.Name, "_y")
		}
		j.rkeep = append(j.rkeep, i)
		j.columns = append(j.columns, col)
	}
}

// hashKey returns the map key for a join value, or false for values that
// never match.
func (j *joiner) hashKey(v interface{}) (interface{}, bool) {
	if v == nil {
		return nil, false
	}
	switch j.keyType {
	case table.TypeInteger:
		return v, true
	case table.TypeFloat:
		f, ok := asNumber(v)
		if !ok || math.IsNaN(f) {
			return nil, false
		}
		return f, true
	default:
		return table.Format(v), true
	}
}

func (j *joiner) index(t *table.Table, pos int) map[interface{}][]int {
	idx := make(map[interface{}][]int)
	for r := 0; r < t.NumRows(); r++ {
		if k, ok := j.hashKey(t.Value(r, pos)); ok {
			idx[k] = append(idx[k], r)
		}
	}
	return idx
}

// emit appends one output row. l or r is -1 for a missing side.
func (j *joiner) emit(l, r int) {
	row := make([]interface{}, 0, len(j.columns))

	for _, c := range j.lkeep {
		if l < 0 {
			row = append(row, nil)
		} else {
			row = append(row, j.left.Value(l, c))
		}
	}

	var key interface{}
	if l >= 0 {
		key = j.left.Value(l, j.lpos)
	} else {
		key = j.right.Value(r, j.rpos)
	}
	row = append(row, j.keyType.Coerce(key))

	for _, c := range j.rkeep {
		if r < 0 {
			row = append(row, nil)
		} else {
			row = append(row, j.right.Value(r, c))
		}
	}

	j.rows = append(j.rows, row)
}

func (j *joiner) leftJoin(kind JoinKind) {
	idx := j.index(j.right, j.rpos)
	matched := make([]bool, j.right.NumRows())

	for l := 0; l < j.left.NumRows(); l++ {
		var matches []int
		if k, ok := j.hashKey(j.left.Value(l, j.lpos)); ok {
			matches = idx[k]
		}
		for _, r := range matches {
			matched[r] = true
			j.emit(l, r)
		}
		if len(matches) == 0 && kind != JoinInner {
			j.emit(l, -1)
		}
	}

	if kind == JoinOuter {
		for r, ok := range matched {
			if !ok {
				j.emit(-1, r)
			}
		}
	}
}

func (j *joiner) rightJoin() {
	idx := j.index(j.left, j.lpos)

	for r := 0; r < j.right.NumRows(); r++ {
		var matches []int
		if k, ok := j.hashKey(j.right.Value(r, j.rpos)); ok {
			matches = idx[k]
		}
		for _, l := range matches {
			j.emit(l, r)
		}
		if len(matches) == 0 {
			j.emit(-1, r)
		}
	}
}
