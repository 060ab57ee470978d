package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vegasq/csvview/table"
	"github.com/vegasq/csvview/transform"
)

// Bindings maps the table names a query may reference to their tables.
// Only bound tables are visible to a query.
type Bindings map[string]*table.Table

// lookup finds a bound table by exact name, then by a unique
// case-insensitive match.
func (b Bindings) lookup(name string) (*table.Table, error) {
	if t, ok := b[name]; ok && t != nil {
		return t, nil
	}

	var match *table.Table
	matches := 0
	for k, t := range b {
		if t != nil && strings.EqualFold(k, name) {
			match = t
			matches++
		}
	}
	if matches == 1 {
		return match, nil
	}

	names := make([]string, 0, len(b))
	for k, t := range b {
		if t != nil {
			names = append(names, k)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: table %q not found (no tables are bound)", ErrUnknownIdentifier, name)
	}
	sort.Strings(names)
	return nil, fmt.Errorf("%w: table %q not found (available: %s)", ErrUnknownIdentifier, name, strings.Join(names, ", "))
}

// Execute parses and runs a query against the bound tables.
//
// Every failure is returned as a *QueryError. A panic inside the engine is
// recovered and reported with kind Internal.
func Execute(text string, bindings Bindings) (result *table.Table, err error) {
	defer recoverInternal(&result, &err)

	q, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return ExecuteQuery(q, bindings)
}

// ExecuteQuery runs a parsed query against the bound tables.
func ExecuteQuery(q *Query, bindings Bindings) (result *table.Table, err error) {
	defer recoverInternal(&result, &err)

	if q == nil {
		return nil, &QueryError{Kind: EmptyQuery, Err: ErrEmptyQuery}
	}

	e := &executor{query: q, bindings: bindings, sources: make(map[string]bool)}
	result, err = e.run()
	if err != nil {
		return nil, newQueryError(err)
	}
	return result, nil
}

// recoverInternal turns a panic into an Internal query error.
func recoverInternal(result **table.Table, err *error) {
	if r := recover(); r != nil {
		*result = nil
		*err = &QueryError{Kind: Internal, Err: fmt.Errorf("%w: %v", ErrInternal, r)}
	}
}

// field is one column of an intermediate relation.
type field struct {
	Source string
	Name   string
	Type   table.Type
}

// relation is the row set flowing through FROM, JOIN and WHERE.
type relation struct {
	fields []field
	rows   [][]interface{}
}

// ambiguous marks a scope entry reachable from more than one field.
const ambiguous = -1

// scope resolves bare and qualified column names to field positions.
// Names match exactly first, then by a unique case-insensitive match.
type scope struct {
	fields []field
	exact  map[string]int
	folded map[string]int
}

func newScope(fields []field) *scope {
	s := &scope{
		fields: fields,
		exact:  make(map[string]int, 2*len(fields)),
		folded: make(map[string]int, 2*len(fields)),
	}
	add := func(m map[string]int, key string, i int) {
		if j, exists := m[key]; exists && j != i {
			m[key] = ambiguous
			return
		}
		m[key] = i
	}
	for i, f := range fields {
		for _, key := range []string{f.Name, f.Source + "." + f.Name} {
			add(s.exact, key, i)
			add(s.folded, strings.ToLower(key), i)
		}
	}
	return s
}

func (s *scope) lookup(name string) (int, error) {
	i, ok := s.exact[name]
	if !ok {
		i, ok = s.folded[strings.ToLower(name)]
	}
	switch {
	case !ok:
		return 0, fmt.Errorf("%w: column %q not found", ErrUnknownIdentifier, name)
	case i == ambiguous:
		return 0, fmt.Errorf("%w: column reference %q is ambiguous", ErrUnknownIdentifier, name)
	default:
		return i, nil
	}
}

func (s *scope) resolve(name string) error {
	_, err := s.lookup(name)
	return err
}

// boundRow is one relation row seen through a scope.
type boundRow struct {
	scope  *scope
	values []interface{}
}

func (r *boundRow) Get(name string) (interface{}, error) {
	i, err := r.scope.lookup(name)
	if err != nil {
		return nil, err
	}
	return r.values[i], nil
}

// output is one column of the result.
type output struct {
	name  string
	alias string
	expr  SelectExpression
	field int // resolved field for a plain column reference, else -1
	hint  table.Type
}

// resultRow is a projected row and the row its values were computed from.
type resultRow struct {
	values []interface{}
	from   Row
	keys   []interface{}
}

type executor struct {
	query    *Query
	bindings Bindings
	sources  map[string]bool
}

func (e *executor) run() (*table.Table, error) {
	q := e.query

	rel, err := e.source(q.From)
	if err != nil {
		return nil, err
	}
	for _, j := range q.Joins {
		right, err := e.source(j.Source)
		if err != nil {
			return nil, err
		}
		rel, err = joinRelations(rel, right, j)
		if err != nil {
			return nil, err
		}
	}

	sc := newScope(rel.fields)
	rows, err := filterRows(rel, sc, q.Filter)
	if err != nil {
		return nil, err
	}

	outputs, err := e.expandSelect(sc)
	if err != nil {
		return nil, err
	}

	var results []*resultRow
	aggregate := len(q.GroupBy) > 0 || q.Having != nil
	for _, item := range q.SelectList {
		aggregate = aggregate || containsAggregate(item.Expr)
	}
	if aggregate {
		results, err = e.aggregate(rows, outputs, sc)
	} else {
		results, err = project(rows, outputs)
	}
	if err != nil {
		return nil, err
	}

	if q.Distinct {
		results = distinct(results)
	}

	if len(q.OrderBy) > 0 {
		if err := e.orderBy(results, outputs, sc, aggregate); err != nil {
			return nil, err
		}
	}

	start, end := limitOffset(len(results), q.Limit, q.Offset)
	return buildTable(outputs, results[start:end])
}

// source resolves a FROM or JOIN source against the bindings.
func (e *executor) source(src Source) (*relation, error) {
	if err := ValidateIdentifier(src.Table); err != nil {
		return nil, err
	}
	t, err := e.bindings.lookup(src.Table)
	if err != nil {
		return nil, err
	}

	name := src.Name()
	if e.sources[name] {
		return nil, fmt.Errorf("%w: table name %q specified more than once; use an alias", ErrSyntax, name)
	}
	e.sources[name] = true

	rel := &relation{fields: make([]field, t.NumColumns()), rows: make([][]interface{}, t.NumRows())}
	for i, col := range t.Columns() {
		rel.fields[i] = field{Source: name, Name: col.Name, Type: col.Type}
	}
	for r := range rel.rows {
		rel.rows[r] = t.Row(r)
	}
	return rel, nil
}

// joinRelations combines two relations with a nested loop. Unmatched rows
// of an outer join are padded with nulls for the other side.
func joinRelations(left, right *relation, j Join) (*relation, error) {
	fields := make([]field, 0, len(left.fields)+len(right.fields))
	fields = append(fields, left.fields...)
	fields = append(fields, right.fields...)
	sc := newScope(fields)

	if j.Condition != nil {
		if err := checkColumns(j.Condition, sc.resolve, false, "JOIN ON"); err != nil {
			return nil, err
		}
	}

	out := &relation{fields: fields}
	leftWidth, rightWidth := len(left.fields), len(right.fields)
	merge := func(l, r []interface{}) []interface{} {
		row := make([]interface{}, leftWidth+rightWidth)
		copy(row, l)
		copy(row[leftWidth:], r)
		return row
	}
	match := func(row []interface{}) (bool, error) {
		if j.Condition == nil || j.Type == JoinCross {
			return true, nil
		}
		ok, err := j.Condition.Evaluate(&boundRow{scope: sc, values: row})
		if err != nil {
			return false, fmt.Errorf("failed to evaluate JOIN condition: %w", err)
		}
		return ok, nil
	}

	if j.Type == JoinRight {
		for _, r := range right.rows {
			matched := false
			for _, l := range left.rows {
				row := merge(l, r)
				ok, err := match(row)
				if err != nil {
					return nil, err
				}
				if ok {
					out.rows = append(out.rows, row)
					matched = true
				}
			}
			if !matched {
				out.rows = append(out.rows, merge(nil, r))
			}
		}
		return out, nil
	}

	rightMatched := make([]bool, len(right.rows))
	for _, l := range left.rows {
		matched := false
		for i, r := range right.rows {
			row := merge(l, r)
			ok, err := match(row)
			if err != nil {
				return nil, err
			}
			if ok {
				out.rows = append(out.rows, row)
				matched = true
				rightMatched[i] = true
			}
		}
		if !matched && (j.Type == JoinLeft || j.Type == JoinFull) {
			out.rows = append(out.rows, merge(l, nil))
		}
	}

	if j.Type == JoinFull {
		for i, r := range right.rows {
			if !rightMatched[i] {
				out.rows = append(out.rows, merge(nil, r))
			}
		}
	}
	return out, nil
}

// filterRows binds each relation row to the scope and keeps the rows the
// WHERE condition accepts.
func filterRows(rel *relation, sc *scope, filter Expression) ([]Row, error) {
	if filter != nil {
		if err := checkColumns(filter, sc.resolve, false, "WHERE"); err != nil {
			return nil, err
		}
	}

	rows := make([]Row, 0, len(rel.rows))
	for _, values := range rel.rows {
		row := &boundRow{scope: sc, values: values}
		if filter != nil {
			ok, err := filter.Evaluate(row)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// expandSelect expands stars, validates every select expression and names
// the result columns.
func (e *executor) expandSelect(sc *scope) ([]*output, error) {
	var outputs []*output
	for _, item := range e.query.SelectList {
		if isStarItem(item) {
			expanded, err := expandStar(item.Expr.(*ColumnRef).Column, sc)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, expanded...)
			continue
		}

		if err := checkColumns(item.Expr, sc.resolve, true, "SELECT"); err != nil {
			return nil, err
		}
		out := &output{alias: item.Alias, expr: item.Expr, field: -1, hint: expressionHint(item.Expr)}
		if ref, ok := item.Expr.(*ColumnRef); ok {
			out.field, _ = sc.lookup(ref.Column)
			out.hint = sc.fields[out.field].Type
		}
		outputs = append(outputs, out)
	}

	nameOutputs(outputs, sc.fields)
	return outputs, nil
}

// expandStar turns "*" or "alias.*" into qualified column references in
// source order.
func expandStar(star string, sc *scope) ([]*output, error) {
	qualifier := strings.TrimSuffix(strings.TrimSuffix(star, "*"), ".")

	var outputs []*output
	for i, f := range sc.fields {
		if qualifier != "" && !strings.EqualFold(f.Source, qualifier) {
			continue
		}
		outputs = append(outputs, &output{
			expr:  &ColumnRef{Column: f.Source + "." + f.Name},
			field: i,
			hint:  f.Type,
		})
	}

	if qualifier != "" && len(outputs) == 0 {
		known := false
		for _, f := range sc.fields {
			known = known || strings.EqualFold(f.Source, qualifier)
		}
		if !known {
			return nil, fmt.Errorf("%w: table %q in %s is not in FROM", ErrUnknownIdentifier, qualifier, star)
		}
	}
	return outputs, nil
}

// nameOutputs names each result column: its alias, the bare name of a plain
// column reference, or the expression text. Column references whose bare
// names collide with a different field are qualified as source.name, and
// any remaining repeats are made unique.
func nameOutputs(outputs []*output, fields []field) {
	byName := make(map[string]map[int]bool)
	for _, out := range outputs {
		if out.alias == "" && out.field >= 0 {
			name := fields[out.field].Name
			if byName[name] == nil {
				byName[name] = make(map[int]bool)
			}
			byName[name][out.field] = true
		}
	}

	names := make([]string, len(outputs))
	for i, out := range outputs {
		switch {
		case out.alias != "":
			names[i] = out.alias
		case out.field >= 0:
			f := fields[out.field]
			names[i] = f.Name
			if len(byName[f.Name]) > 1 {
				names[i] = f.Source + "." + f.Name
			}
		default:
			names[i] = out.expr.String()
		}
	}

	for i, name := range table.UniqueNames(names) {
		outputs[i].name = name
	}
}

// expressionHint gives the result type of expressions whose type does not
// depend on their input, so empty results keep a useful schema.
func expressionHint(expr SelectExpression) table.Type {
	if agg, ok := expr.(*AggregateExpr); ok {
		switch agg.Function {
		case "COUNT":
			return table.TypeInteger
		case "AVG":
			return table.TypeFloat
		}
	}
	return table.TypeUnknown
}

// project evaluates the select list for each row of a plain query.
func project(rows []Row, outputs []*output) ([]*resultRow, error) {
	results := make([]*resultRow, 0, len(rows))
	for _, row := range rows {
		values := make([]interface{}, len(outputs))
		for i, out := range outputs {
			v, err := out.expr.EvaluateSelect(row)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		results = append(results, &resultRow{values: values, from: row})
	}
	return results, nil
}

// aggregate groups rows, evaluates the select list once per group and
// applies HAVING.
func (e *executor) aggregate(rows []Row, outputs []*output, sc *scope) ([]*resultRow, error) {
	q := e.query

	keys, err := resolveGroupBy(q.GroupBy, q.SelectList)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		if err := checkColumns(key, sc.resolve, false, "GROUP BY"); err != nil {
			return nil, err
		}
	}
	columnKey := func(name string) string {
		if i, err := sc.lookup(name); err == nil {
			return strconv.Itoa(i)
		}
		return name
	}
	if err := validateGrouping(q.SelectList, keys, columnKey); err != nil {
		return nil, err
	}

	if q.Having != nil {
		resolve := outputResolver(outputs, sc)
		if err := checkColumns(q.Having, resolve, true, "HAVING"); err != nil {
			return nil, err
		}
	}

	groups, err := groupRows(rows, keys)
	if err != nil {
		return nil, err
	}

	results := make([]*resultRow, 0, len(groups))
	for _, grp := range groups {
		g := &groupRow{rows: grp.rows, outputs: make(map[string]interface{}, len(outputs))}
		if len(grp.rows) > 0 {
			g.first = grp.rows[0]
		}

		values := make([]interface{}, len(outputs))
		for i, out := range outputs {
			v, err := out.expr.EvaluateSelect(g)
			if err != nil {
				return nil, err
			}
			values[i] = v
			g.outputs[out.name] = v
			if out.alias != "" {
				g.outputs[out.alias] = v
			}
		}

		if q.Having != nil {
			ok, err := q.Having.Evaluate(g)
			if err != nil {
				return nil, fmt.Errorf("failed to apply HAVING clause: %w", err)
			}
			if !ok {
				continue
			}
		}
		results = append(results, &resultRow{values: values, from: g})
	}
	return results, nil
}

// outputResolver accepts source columns and result column names.
func outputResolver(outputs []*output, sc *scope) func(string) error {
	return func(name string) error {
		err := sc.resolve(name)
		if err == nil {
			return nil
		}
		for _, out := range outputs {
			if out.name == name || out.alias == name {
				return nil
			}
		}
		return err
	}
}

// distinct drops repeated result rows, keeping the first of each.
func distinct(results []*resultRow) []*resultRow {
	seen := make(map[string]bool, len(results))
	kept := results[:0]
	for _, r := range results {
		k := rowKey(r.values)
		if seen[k] {
			continue
		}
		seen[k] = true
		kept = append(kept, r)
	}
	return kept
}

// orderBy sorts results in place. Each key refers to a result column by
// name or 1-based position, repeats a select expression, or is evaluated
// against the source row. Nulls sort last in both directions and ties keep
// their order.
func (e *executor) orderBy(results []*resultRow, outputs []*output, sc *scope, aggregate bool) error {
	items := e.query.OrderBy
	for k, item := range items {
		col, err := orderColumn(item.Expr, outputs)
		if err != nil {
			return err
		}

		if col < 0 {
			if e.query.Distinct {
				return fmt.Errorf("%w: for SELECT DISTINCT, ORDER BY expression %s must appear in select list", ErrSyntax, item.Expr)
			}
			resolve := sc.resolve
			if aggregate {
				resolve = outputResolver(outputs, sc)
			}
			if err := checkColumns(item.Expr, resolve, aggregate, "ORDER BY"); err != nil {
				return err
			}
		}

		for _, r := range results {
			if k == 0 {
				r.keys = make([]interface{}, len(items))
			}
			if col >= 0 {
				r.keys[k] = r.values[col]
				continue
			}
			v, err := item.Expr.EvaluateSelect(r.from)
			if err != nil {
				return err
			}
			r.keys[k] = v
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		for k, item := range items {
			c := compareSortKeys(results[a].keys[k], results[b].keys[k], item.Desc)
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	return nil
}

// orderColumn returns the result column an ORDER BY key names, or -1 when
// the key must be evaluated.
func orderColumn(expr SelectExpression, outputs []*output) (int, error) {
	if ref, ok := expr.(*ColumnRef); ok {
		for i, out := range outputs {
			if out.name == ref.Column || out.alias == ref.Column {
				return i, nil
			}
		}
	}

	if pos, ok := positionOf(expr); ok {
		if pos < 1 || pos > int64(len(outputs)) {
			return 0, fmt.Errorf("%w: ORDER BY position %d is not in select list", ErrSyntax, pos)
		}
		return int(pos - 1), nil
	}

	text := expr.String()
	for i, out := range outputs {
		if out.expr.String() == text {
			return i, nil
		}
	}
	return -1, nil
}

// compareSortKeys orders two keys; nulls and NaN go last regardless of
// direction.
func compareSortKeys(a, b interface{}, desc bool) int {
	aNull, bNull := isNull(a), isNull(b)
	switch {
	case aNull && bNull:
		return 0
	case aNull:
		return 1
	case bNull:
		return -1
	}

	c := transform.CompareCells(a, b)
	if desc {
		return -c
	}
	return c
}

// buildTable converts result rows to a table, inferring each column type
// from its values starting from the output's type hint.
func buildTable(outputs []*output, results []*resultRow) (*table.Table, error) {
	cols := make([]table.Column, len(outputs))
	for i, out := range outputs {
		cols[i] = table.Column{Name: out.name, Type: out.hint}
	}

	rows := make([][]interface{}, len(results))
	for i, r := range results {
		rows[i] = r.values
	}

	t, err := table.Infer(cols, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: building result: %v", ErrInternal, err)
	}
	return t, nil
}
