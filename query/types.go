package query

import (
	"fmt"
	"strings"

	"github.com/vegasq/csvview/table"
)

// TokenType represents the type of a token
type TokenType int

const (
	// Keywords
	TokenSelect TokenType = iota
	TokenFrom
	TokenWhere
	TokenAnd
	TokenOr
	TokenAs
	TokenGroup
	TokenBy
	TokenHaving
	TokenOrder
	TokenAsc
	TokenDesc
	TokenLimit
	TokenOffset
	TokenIn
	TokenLike
	TokenBetween
	TokenIs
	TokenNot
	TokenNull
	TokenDistinct
	TokenCase
	TokenWhen
	TokenThen
	TokenElse
	TokenEnd
	TokenJoin
	TokenInner
	TokenLeft
	TokenRight
	TokenFull
	TokenOuter
	TokenCross
	TokenOn

	// Operators
	TokenEqual        // =
	TokenNotEqual     // != or <>
	TokenLess         // <
	TokenGreater      // >
	TokenLessEqual    // <=
	TokenGreaterEqual // >=

	// Literals
	TokenString
	TokenNumber
	TokenIdent
	TokenBool

	// Delimiters
	TokenComma      // ,
	TokenLeftParen  // (
	TokenRightParen // )
	TokenSemicolon  // ;

	// Special
	TokenEOF
	TokenError
)

var tokenNames = map[TokenType]string{
	TokenSelect:       "SELECT",
	TokenFrom:         "FROM",
	TokenWhere:        "WHERE",
	TokenAnd:          "AND",
	TokenOr:           "OR",
	TokenAs:           "AS",
	TokenGroup:        "GROUP",
	TokenBy:           "BY",
	TokenHaving:       "HAVING",
	TokenOrder:        "ORDER",
	TokenAsc:          "ASC",
	TokenDesc:         "DESC",
	TokenLimit:        "LIMIT",
	TokenOffset:       "OFFSET",
	TokenIn:           "IN",
	TokenLike:         "LIKE",
	TokenBetween:      "BETWEEN",
	TokenIs:           "IS",
	TokenNot:          "NOT",
	TokenNull:         "NULL",
	TokenDistinct:     "DISTINCT",
	TokenCase:         "CASE",
	TokenWhen:         "WHEN",
	TokenThen:         "THEN",
	TokenElse:         "ELSE",
	TokenEnd:          "END",
	TokenJoin:         "JOIN",
	TokenInner:        "INNER",
	TokenLeft:         "LEFT",
	TokenRight:        "RIGHT",
	TokenFull:         "FULL",
	TokenOuter:        "OUTER",
	TokenCross:        "CROSS",
	TokenOn:           "ON",
	TokenEqual:        "=",
	TokenNotEqual:     "!=",
	TokenLess:         "<",
	TokenGreater:      ">",
	TokenLessEqual:    "<=",
	TokenGreaterEqual: ">=",
	TokenString:       "string",
	TokenNumber:       "number",
	TokenIdent:        "identifier",
	TokenBool:         "boolean",
	TokenComma:        "','",
	TokenLeftParen:    "'('",
	TokenRightParen:   "')'",
	TokenSemicolon:    "';'",
	TokenEOF:          "end of query",
	TokenError:        "invalid token",
}

// String returns the keyword, operator symbol or token class name.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
}

// Query represents a parsed SQL query
type Query struct {
	Distinct   bool // DISTINCT modifier
	SelectList []SelectItem
	From       Source
	Joins      []Join
	Filter     Expression
	GroupBy    []SelectExpression // Grouping expressions, aliases or positions
	Having     Expression         // Post-aggregation filter
	OrderBy    []OrderByItem      // Sort specification
	Limit      *int64             // Row limit
	Offset     *int64             // Row offset
}

// Source names a bound table in FROM or JOIN.
type Source struct {
	Table string // Binding name
	Alias string // Optional alias
}

// Name returns the name the source's columns are qualified with.
func (s Source) Name() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Table
}

// JoinType represents the type of join operation
type JoinType int

const (
	JoinInner JoinType = iota // INNER JOIN (default)
	JoinLeft                  // LEFT JOIN / LEFT OUTER JOIN
	JoinRight                 // RIGHT JOIN / RIGHT OUTER JOIN
	JoinFull                  // FULL JOIN / FULL OUTER JOIN
	JoinCross                 // CROSS JOIN
)

// Join represents a JOIN clause
type Join struct {
	Type      JoinType   // Type of join (INNER, LEFT, RIGHT, FULL, CROSS)
	Source    Source     // Joined table
	Condition Expression // ON clause condition (nil for CROSS JOIN)
}

// OrderByItem is one sort key. Expr may name an output column, give a
// 1-based output position, or be any expression over the source row.
type OrderByItem struct {
	Expr SelectExpression
	Desc bool // DESC vs ASC (default)
}

// SelectItem represents a column or expression in the SELECT list
type SelectItem struct {
	Expr  SelectExpression // Column, function, or expression
	Alias string           // Optional alias (AS name)
}

// Row resolves column names while an expression is evaluated.
type Row interface {
	Get(name string) (interface{}, error)
}

// SelectExpression is an expression that produces a value
type SelectExpression interface {
	EvaluateSelect(row Row) (interface{}, error)
	String() string
}

// Expression represents a boolean expression in WHERE, ON, HAVING or WHEN
type Expression interface {
	Evaluate(row Row) (bool, error)
	String() string
}

// ColumnRef references a column by bare or qualified name. "*" and "t.*"
// only appear in the select list.
type ColumnRef struct {
	Column string
}

// FunctionCall represents a scalar function invocation
type FunctionCall struct {
	Name string
	Args []SelectExpression
}

// LiteralExpr represents a literal value (number, string, bool, NULL)
type LiteralExpr struct {
	Value interface{}
}

// AggregateExpr represents an aggregate function (COUNT, SUM, AVG, MIN, MAX)
type AggregateExpr struct {
	Function string           // COUNT, SUM, AVG, MIN, MAX
	Arg      SelectExpression // Argument expression (nil for COUNT(*))
	Distinct bool             // Aggregate distinct values only
}

// CaseExpr represents a searched CASE expression
type CaseExpr struct {
	WhenClauses []WhenClause     // WHEN conditions and their results
	ElseExpr    SelectExpression // ELSE result (optional)
}

// WhenClause represents a single WHEN condition and result
type WhenClause struct {
	Condition Expression       // WHEN condition
	Result    SelectExpression // THEN result
}

// BinaryExpr represents a binary expression (AND/OR)
type BinaryExpr struct {
	Left     Expression
	Operator TokenType // TokenAnd or TokenOr
	Right    Expression
}

// NotExpr negates a condition
type NotExpr struct {
	Expr Expression
}

// ComparisonExpr compares two values (left op right)
type ComparisonExpr struct {
	Left     SelectExpression
	Operator TokenType
	Right    SelectExpression
}

// InExpr represents an IN expression (expr IN (val1, val2, ...))
type InExpr struct {
	Expr   SelectExpression
	Values []SelectExpression
	Negate bool // NOT IN
}

// LikeExpr represents a LIKE expression (expr LIKE 'pattern')
type LikeExpr struct {
	Expr    SelectExpression
	Pattern SelectExpression
	Negate  bool // NOT LIKE
}

// BetweenExpr represents a BETWEEN expression (expr BETWEEN lower AND upper)
type BetweenExpr struct {
	Expr   SelectExpression
	Lower  SelectExpression
	Upper  SelectExpression
	Negate bool // NOT BETWEEN
}

// IsNullExpr represents an IS NULL expression (expr IS NULL / expr IS NOT NULL)
type IsNullExpr struct {
	Expr   SelectExpression
	Negate bool // IS NOT NULL
}

// Evaluate evaluates a binary expression. The right side is skipped when
// the left side decides the result.
func (b *BinaryExpr) Evaluate(row Row) (bool, error) {
	left, err := b.Left.Evaluate(row)
	if err != nil {
		return false, err
	}

	switch b.Operator {
	case TokenAnd:
		if !left {
			return false, nil
		}
	case TokenOr:
		if left {
			return true, nil
		}
	default:
		return false, fmt.Errorf("%w: unsupported binary operator %v", ErrSyntax, b.Operator)
	}

	return b.Right.Evaluate(row)
}

// Evaluate evaluates a negation
func (n *NotExpr) Evaluate(row Row) (bool, error) {
	v, err := n.Expr.Evaluate(row)
	if err != nil {
		return false, err
	}
	return !v, nil
}

// Evaluate evaluates a comparison expression
func (c *ComparisonExpr) Evaluate(row Row) (bool, error) {
	left, err := c.Left.EvaluateSelect(row)
	if err != nil {
		return false, err
	}
	right, err := c.Right.EvaluateSelect(row)
	if err != nil {
		return false, err
	}
	return compare(left, c.Operator, right)
}

// Evaluate evaluates an IN expression
func (i *InExpr) Evaluate(row Row) (bool, error) {
	value, err := i.Expr.EvaluateSelect(row)
	if err != nil {
		return false, err
	}
	if value == nil {
		return false, nil
	}

	found := false
	for _, item := range i.Values {
		listValue, err := item.EvaluateSelect(row)
		if err != nil {
			return false, err
		}
		match, err := compare(value, TokenEqual, listValue)
		if err != nil {
			return false, err
		}
		if match {
			found = true
			break
		}
	}

	if i.Negate {
		return !found, nil
	}
	return found, nil
}

// Evaluate evaluates a LIKE expression
func (l *LikeExpr) Evaluate(row Row) (bool, error) {
	value, err := l.Expr.EvaluateSelect(row)
	if err != nil {
		return false, err
	}
	pattern, err := l.Pattern.EvaluateSelect(row)
	if err != nil {
		return false, err
	}
	if value == nil || pattern == nil {
		return false, nil
	}

	str, ok := value.(string)
	if !ok {
		return false, fmt.Errorf("%w: LIKE requires text, got %s in %s", ErrTypeMismatch, typeName(value), l.Expr)
	}
	pat, ok := pattern.(string)
	if !ok {
		return false, fmt.Errorf("%w: LIKE pattern must be text, got %s", ErrTypeMismatch, typeName(pattern))
	}

	match := matchLikePattern(str, pat)
	if l.Negate {
		return !match, nil
	}
	return match, nil
}

// Evaluate evaluates a BETWEEN expression
func (b *BetweenExpr) Evaluate(row Row) (bool, error) {
	value, err := b.Expr.EvaluateSelect(row)
	if err != nil {
		return false, err
	}
	lower, err := b.Lower.EvaluateSelect(row)
	if err != nil {
		return false, err
	}
	upper, err := b.Upper.EvaluateSelect(row)
	if err != nil {
		return false, err
	}
	if value == nil || lower == nil || upper == nil {
		return false, nil
	}

	lowerMatch, err := compare(value, TokenGreaterEqual, lower)
	if err != nil {
		return false, err
	}
	upperMatch, err := compare(value, TokenLessEqual, upper)
	if err != nil {
		return false, err
	}

	between := lowerMatch && upperMatch
	if b.Negate {
		return !between, nil
	}
	return between, nil
}

// Evaluate evaluates an IS NULL expression
func (i *IsNullExpr) Evaluate(row Row) (bool, error) {
	value, err := i.Expr.EvaluateSelect(row)
	if err != nil {
		return false, err
	}

	isNull := value == nil
	if i.Negate {
		return !isNull, nil
	}
	return isNull, nil
}

// EvaluateSelect evaluates a column reference
func (c *ColumnRef) EvaluateSelect(row Row) (interface{}, error) {
	return row.Get(c.Column)
}

// EvaluateSelect evaluates a function call. Functions that do not accept
// nulls return null when any argument is null.
func (f *FunctionCall) EvaluateSelect(row Row) (interface{}, error) {
	fn, err := lookupFunction(f.Name, len(f.Args))
	if err != nil {
		return nil, err
	}

	args := make([]interface{}, len(f.Args))
	hasNull := false
	for i, arg := range f.Args {
		val, err := arg.EvaluateSelect(row)
		if err != nil {
			return nil, err
		}
		args[i] = val
		hasNull = hasNull || val == nil
	}

	if hasNull && !acceptsNull(fn) {
		return nil, nil
	}
	return fn.Evaluate(args)
}

// EvaluateSelect evaluates a literal expression
func (l *LiteralExpr) EvaluateSelect(row Row) (interface{}, error) {
	return l.Value, nil
}

// EvaluateSelect computes the aggregate over the rows of the current group.
// Outside an aggregate query there is no group to compute it over.
func (a *AggregateExpr) EvaluateSelect(row Row) (interface{}, error) {
	g, ok := row.(*groupRow)
	if !ok {
		return nil, fmt.Errorf("%w: aggregate %s used outside of an aggregate query", ErrSyntax, a)
	}
	return evaluateAggregate(a, g.rows)
}

// EvaluateSelect evaluates a CASE expression
func (c *CaseExpr) EvaluateSelect(row Row) (interface{}, error) {
	for _, whenClause := range c.WhenClauses {
		conditionResult, err := whenClause.Condition.Evaluate(row)
		if err != nil {
			return nil, err
		}
		if conditionResult {
			return whenClause.Result.EvaluateSelect(row)
		}
	}

	if c.ElseExpr != nil {
		return c.ElseExpr.EvaluateSelect(row)
	}
	return nil, nil
}

func (c *ColumnRef) String() string { return c.Column }

func (f *FunctionCall) String() string {
	args := make([]string, len(f.Args))
	for i, arg := range f.Args {
		args[i] = arg.String()
	}
	return strings.ToUpper(f.Name) + "(" + strings.Join(args, ", ") + ")"
}

func (l *LiteralExpr) String() string {
	switch v := l.Value.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	default:
		return table.Format(v)
	}
}

func (a *AggregateExpr) String() string {
	if a.Arg == nil {
		return a.Function + "(*)"
	}
	if a.Distinct {
		return a.Function + "(DISTINCT " + a.Arg.String() + ")"
	}
	return a.Function + "(" + a.Arg.String() + ")"
}

func (c *CaseExpr) String() string {
	var b strings.Builder
	b.WriteString("CASE")
	for _, w := range c.WhenClauses {
		b.WriteString(" WHEN " + w.Condition.String() + " THEN " + w.Result.String())
	}
	if c.ElseExpr != nil {
		b.WriteString(" ELSE " + c.ElseExpr.String())
	}
	b.WriteString(" END")
	return b.String()
}

func (b *BinaryExpr) String() string {
	return "(" + b.Left.String() + " " + b.Operator.String() + " " + b.Right.String() + ")"
}

func (n *NotExpr) String() string { return "NOT " + n.Expr.String() }

func (c *ComparisonExpr) String() string {
	return c.Left.String() + " " + c.Operator.String() + " " + c.Right.String()
}

func (i *InExpr) String() string {
	values := make([]string, len(i.Values))
	for k, v := range i.Values {
		values[k] = v.String()
	}
	op := " IN ("
	if i.Negate {
		op = " NOT IN ("
	}
	return i.Expr.String() + op + strings.Join(values, ", ") + ")"
}

func (l *LikeExpr) String() string {
	op := " LIKE "
	if l.Negate {
		op = " NOT LIKE "
	}
	return l.Expr.String() + op + l.Pattern.String()
}

func (b *BetweenExpr) String() string {
	op := " BETWEEN "
	if b.Negate {
		op = " NOT BETWEEN "
	}
	return b.Expr.String() + op + b.Lower.String() + " AND " + b.Upper.String()
}

func (i *IsNullExpr) String() string {
	if i.Negate {
		return i.Expr.String() + " IS NOT NULL"
	}
	return i.Expr.String() + " IS NULL"
}
