package query

import (
	"fmt"
)

// inspect walks an expression tree in depth-first order. visit is called
// for every node; returning false skips the node's children.
func inspect(node interface{}, visit func(node interface{}) bool) {
	if node == nil || !visit(node) {
		return
	}

	switch n := node.(type) {
	case *FunctionCall:
		for _, arg := range n.Args {
			inspect(arg, visit)
		}
	case *AggregateExpr:
		if n.Arg != nil {
			inspect(n.Arg, visit)
		}
	case *CaseExpr:
		for _, w := range n.WhenClauses {
			inspect(w.Condition, visit)
			inspect(w.Result, visit)
		}
		if n.ElseExpr != nil {
			inspect(n.ElseExpr, visit)
		}
	case *BinaryExpr:
		inspect(n.Left, visit)
		inspect(n.Right, visit)
	case *NotExpr:
		inspect(n.Expr, visit)
	case *ComparisonExpr:
		inspect(n.Left, visit)
		inspect(n.Right, visit)
	case *InExpr:
		inspect(n.Expr, visit)
		for _, v := range n.Values {
			inspect(v, visit)
		}
	case *LikeExpr:
		inspect(n.Expr, visit)
		inspect(n.Pattern, visit)
	case *BetweenExpr:
		inspect(n.Expr, visit)
		inspect(n.Lower, visit)
		inspect(n.Upper, visit)
	case *IsNullExpr:
		inspect(n.Expr, visit)
	}
}

// checkColumns validates an expression before any row is evaluated:
// every column must resolve, every function must exist and accept its
// argument count, and aggregates may only appear where allowed and never
// nested. clause names the part of the query for error messages.
func checkColumns(node interface{}, resolve func(name string) error, allowAggregates bool, clause string) error {
	var err error
	var walk func(n interface{}, inAggregate bool)
	walk = func(n interface{}, inAggregate bool) {
		inspect(n, func(node interface{}) bool {
			if err != nil {
				return false
			}
			switch e := node.(type) {
			case *ColumnRef:
				if isStar(e.Column) {
					err = fmt.Errorf("%w: %s is only allowed as a select item", ErrSyntax, e.Column)
					return false
				}
				err = resolve(e.Column)
			case *FunctionCall:
				_, err = lookupFunction(e.Name, len(e.Args))
			case *AggregateExpr:
				switch {
				case inAggregate:
					err = fmt.Errorf("%w: aggregate function calls cannot be nested: %s", ErrSyntax, e)
				case !allowAggregates:
					err = fmt.Errorf("%w: aggregate functions are not allowed in %s: %s", ErrSyntax, clause, e)
				default:
					walk(e.Arg, true)
				}
				return false
			}
			return err == nil
		})
	}
	walk(node, false)
	return err
}

// isStarItem reports whether a select item is "*" or "alias.*".
func isStarItem(item SelectItem) bool {
	ref, ok := item.Expr.(*ColumnRef)
	return ok && isStar(ref.Column)
}
