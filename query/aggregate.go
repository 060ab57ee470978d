package query

import (
	"fmt"
	"math"
)

// groupRow is the row an aggregate query evaluates its select list,
// HAVING and ORDER BY against. Plain column references resolve against
// the first row of the group; output aliases resolve to values computed
// earlier in the select list.
type groupRow struct {
	first   Row // nil for the single group of an empty input
	rows    []Row
	outputs map[string]interface{}
}

func (g *groupRow) Get(name string) (interface{}, error) {
	if g.first != nil {
		v, err := g.first.Get(name)
		if err == nil {
			return v, nil
		}
		if v, ok := g.outputs[name]; ok {
			return v, nil
		}
		return nil, err
	}
	if v, ok := g.outputs[name]; ok {
		return v, nil
	}
	// Every column of an empty group is null
	return nil, nil
}

// group collects the rows sharing one GROUP BY key.
type group struct {
	rows []Row
}

// groupRows partitions rows by the values of keys. Groups keep the order
// in which their first row appears. Without keys every row lands in one
// group, which exists even when rows is empty.
func groupRows(rows []Row, keys []SelectExpression) ([]*group, error) {
	if len(keys) == 0 {
		return []*group{{rows: rows}}, nil
	}

	var ordered []*group
	index := make(map[string]*group)
	values := make([]interface{}, len(keys))
	for _, row := range rows {
		for i, key := range keys {
			v, err := key.EvaluateSelect(row)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		k := rowKey(values)
		g, ok := index[k]
		if !ok {
			g = &group{}
			index[k] = g
			ordered = append(ordered, g)
		}
		g.rows = append(g.rows, row)
	}
	return ordered, nil
}

// resolveGroupBy maps GROUP BY items to expressions over the source row.
// An item may be a select alias or a 1-based select list position.
func resolveGroupBy(items []SelectExpression, selectList []SelectItem) ([]SelectExpression, error) {
	keys := make([]SelectExpression, len(items))
	for i, item := range items {
		keys[i] = item
		switch e := item.(type) {
		case *LiteralExpr:
			pos, ok := positionOf(e)
			if !ok {
				return nil, fmt.Errorf("%w: GROUP BY %s is not a column", ErrSyntax, e)
			}
			if pos < 1 || pos > int64(len(selectList)) || isStarItem(selectList[pos-1]) {
				return nil, fmt.Errorf("%w: GROUP BY position %d is not in select list", ErrSyntax, pos)
			}
			keys[i] = selectList[pos-1].Expr
		case *ColumnRef:
			for _, sel := range selectList {
				if sel.Alias != "" && sel.Alias == e.Column {
					keys[i] = sel.Expr
					break
				}
			}
		}
	}
	return keys, nil
}

// validateGrouping checks that every column referenced outside an
// aggregate in the select list is a grouping expression. columnKey maps a
// column name to the field it resolves to, so that "t.a" and "a" group
// alike.
func validateGrouping(selectList []SelectItem, keys []SelectExpression, columnKey func(string) string) error {
	grouped := make(map[string]bool, len(keys))
	for _, k := range keys {
		grouped[groupingKey(k, columnKey)] = true
	}

	for _, item := range selectList {
		if isStarItem(item) {
			if len(keys) == 0 {
				return fmt.Errorf("%w: %s cannot be combined with aggregate functions", ErrSyntax, item.Expr)
			}
			return fmt.Errorf("%w: %s is not allowed with GROUP BY", ErrSyntax, item.Expr)
		}
		if err := checkGrouped(item.Expr, grouped, columnKey); err != nil {
			return err
		}
	}
	return nil
}

func groupingKey(e SelectExpression, columnKey func(string) string) string {
	if ref, ok := e.(*ColumnRef); ok {
		return "column:" + columnKey(ref.Column)
	}
	return e.String()
}

func checkGrouped(node interface{}, grouped map[string]bool, columnKey func(string) string) error {
	var err error
	inspect(node, func(n interface{}) bool {
		if err != nil {
			return false
		}
		if e, ok := n.(SelectExpression); ok && grouped[groupingKey(e, columnKey)] {
			return false
		}
		switch e := n.(type) {
		case *AggregateExpr:
			return false
		case *ColumnRef:
			err = fmt.Errorf("%w: column %q must appear in GROUP BY clause or be used in an aggregate function", ErrSyntax, e.Column)
			return false
		}
		return true
	})
	return err
}

// containsAggregate reports whether an expression tree holds an aggregate.
func containsAggregate(node interface{}) bool {
	found := false
	inspect(node, func(n interface{}) bool {
		if _, ok := n.(*AggregateExpr); ok {
			found = true
		}
		return !found
	})
	return found
}

// evaluateAggregate evaluates an aggregate function over a set of rows
func evaluateAggregate(aggExpr *AggregateExpr, rows []Row) (interface{}, error) {
	// COUNT(*) counts all rows
	if aggExpr.Arg == nil {
		return int64(len(rows)), nil
	}

	values, err := aggregateInputs(aggExpr, rows)
	if err != nil {
		return nil, err
	}

	switch aggExpr.Function {
	case "COUNT":
		return int64(len(values)), nil
	case "SUM":
		return evaluateSum(values)
	case "AVG":
		return evaluateAvg(values)
	case "MIN":
		return evaluateExtreme("MIN", values, -1)
	case "MAX":
		return evaluateExtreme("MAX", values, 1)
	default:
		return nil, fmt.Errorf("%w: unknown aggregate function: %s", ErrUnknownIdentifier, aggExpr.Function)
	}
}

// aggregateInputs evaluates the aggregate argument for each row and drops
// nulls, and repeats when the aggregate is DISTINCT.
func aggregateInputs(aggExpr *AggregateExpr, rows []Row) ([]interface{}, error) {
	values := make([]interface{}, 0, len(rows))
	var seen map[string]bool
	if aggExpr.Distinct {
		seen = make(map[string]bool)
	}

	for _, row := range rows {
		value, err := aggExpr.Arg.EvaluateSelect(row)
		if err != nil {
			return nil, err
		}
		if value == nil {
			continue
		}
		if seen != nil {
			k := distinctKey(value)
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		values = append(values, value)
	}
	return values, nil
}

// distinctKey makes 1 and 1.0 the same value for DISTINCT aggregates
func distinctKey(v interface{}) string {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%#v", int64(f))
	}
	return fmt.Sprintf("%#v", v)
}

// evaluateSum adds numeric values. The sum stays an integer while every
// input is one; the sum of no values is null.
func evaluateSum(values []interface{}) (interface{}, error) {
	if len(values) == 0 {
		return nil, nil
	}

	var intSum int64
	var floatSum float64
	allInts := true
	for _, v := range values {
		switch n := v.(type) {
		case int64:
			intSum += n
			floatSum += float64(n)
		case float64:
			allInts = false
			floatSum += n
		default:
			return nil, fmt.Errorf("%w: SUM requires numeric values, got %s", ErrTypeMismatch, typeName(v))
		}
	}

	if allInts {
		return intSum, nil
	}
	return floatSum, nil
}

// evaluateAvg averages numeric values; the average of no values is null.
func evaluateAvg(values []interface{}) (interface{}, error) {
	if len(values) == 0 {
		return nil, nil
	}

	sum := 0.0
	for _, v := range values {
		n, ok := toFloat64(v)
		if !ok {
			return nil, fmt.Errorf("%w: AVG requires numeric values, got %s", ErrTypeMismatch, typeName(v))
		}
		sum += n
	}
	return sum / float64(len(values)), nil
}

// evaluateExtreme returns the smallest (want -1) or largest (want +1)
// value. NaN is skipped.
func evaluateExtreme(name string, values []interface{}, want int) (interface{}, error) {
	var best interface{}
	for _, v := range values {
		if isNull(v) {
			continue
		}
		if best == nil {
			best = v
			continue
		}
		c, err := compareValues(v, best)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if c == want {
			best = v
		}
	}
	return best, nil
}

// positionOf reports the value of an integer literal, used as a 1-based
// select list position.
func positionOf(e SelectExpression) (int64, bool) {
	lit, ok := e.(*LiteralExpr)
	if !ok {
		return 0, false
	}
	pos, ok := lit.Value.(int64)
	return pos, ok
}
