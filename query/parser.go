package query

import (
	"fmt"
	"strconv"
)

// Parser parses SQL queries into AST
type Parser struct {
	tokens       []Token
	pos          int
	depthCounter *ExpressionDepthCounter
}

// NewParser creates a new parser
func NewParser(tokens []Token) *Parser {
	return &Parser{
		tokens:       tokens,
		pos:          0,
		depthCounter: NewExpressionDepthCounter(),
	}
}

// current returns the current token
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF, Value: ""}
	}
	return p.tokens[p.pos]
}

// peek returns the next token without advancing
func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: TokenEOF, Value: ""}
	}
	return p.tokens[p.pos+1]
}

// advance moves to the next token
func (p *Parser) advance() {
	p.pos++
}

// expect checks if current token matches expected type and advances
func (p *Parser) expect(tokType TokenType) error {
	if p.current().Type != tokType {
		return p.unexpected(tokType.String())
	}
	p.advance()
	return nil
}

// unexpected reports the current token where something else was wanted.
func (p *Parser) unexpected(want string) error {
	tok := p.current()
	switch tok.Type {
	case TokenError:
		return fmt.Errorf("expected %s, got invalid input %q", want, tok.Value)
	case TokenEOF:
		return fmt.Errorf("expected %s, got end of query", want)
	case TokenIdent, TokenString, TokenNumber:
		return fmt.Errorf("expected %s, got %s %q", want, tok.Type, tok.Value)
	default:
		return fmt.Errorf("expected %s, got %s", want, tok.Type)
	}
}

// Parse parses a SQL query. Errors are *QueryError values of kind
// EmptyQuery or SyntaxError.
func Parse(query string) (*Query, error) {
	q, err := parse(query)
	if err != nil {
		return nil, newQueryError(err)
	}
	return q, nil
}

func parse(query string) (*Query, error) {
	if err := ValidateQuery(query); err != nil {
		return nil, err
	}

	tokens := Tokenize(query)
	if err := ValidateTokens(tokens); err != nil {
		return nil, err
	}
	if len(tokens) == 1 && tokens[0].Type == TokenEOF {
		return nil, ErrEmptyQuery
	}

	parser := NewParser(tokens)
	q, err := parser.parseQuery()
	if err != nil {
		return nil, err
	}

	if parser.current().Type == TokenSemicolon {
		parser.advance()
	}

	// Validate that we consumed all tokens (should be at EOF)
	if parser.current().Type == TokenError {
		return nil, fmt.Errorf("invalid input in query: %s", parser.current().Value)
	}
	if parser.current().Type != TokenEOF {
		return nil, fmt.Errorf("unexpected trailing tokens after query: %s", parser.current().Value)
	}

	return q, nil
}

// parseQuery parses: SELECT [DISTINCT] items FROM source {JOIN ...}
// [WHERE cond] [GROUP BY ... [HAVING cond]] [ORDER BY ...] [LIMIT n] [OFFSET n]
func (p *Parser) parseQuery() (*Query, error) {
	if err := p.expect(TokenSelect); err != nil {
		return nil, fmt.Errorf("query must start with SELECT: %w", err)
	}

	q := &Query{}

	if p.current().Type == TokenDistinct {
		q.Distinct = true
		p.advance()
	}

	selectList, err := p.parseSelectList()
	if err != nil {
		return nil, fmt.Errorf("failed to parse SELECT list: %w", err)
	}
	q.SelectList = selectList

	if err := p.expect(TokenFrom); err != nil {
		return nil, fmt.Errorf("expected FROM after SELECT list: %w", err)
	}

	from, err := p.parseSource("FROM")
	if err != nil {
		return nil, err
	}
	q.From = from

	// Parse JOIN clauses (optional, can be multiple)
	for p.current().Type == TokenJoin || p.current().Type == TokenInner ||
		p.current().Type == TokenLeft || p.current().Type == TokenRight ||
		p.current().Type == TokenFull || p.current().Type == TokenCross {

		join, err := p.parseJoin()
		if err != nil {
			return nil, fmt.Errorf("failed to parse JOIN: %w", err)
		}
		q.Joins = append(q.Joins, *join)
	}

	if p.current().Type == TokenWhere {
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, fmt.Errorf("failed to parse WHERE: %w", err)
		}
		q.Filter = expr
	}

	if p.current().Type == TokenGroup {
		groupBy, err := p.parseGroupBy()
		if err != nil {
			return nil, err
		}
		q.GroupBy = groupBy
	}

	if p.current().Type == TokenHaving {
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, fmt.Errorf("failed to parse HAVING: %w", err)
		}
		q.Having = expr
	}

	if p.current().Type == TokenOrder {
		orderBy, err := p.parseOrderBy()
		if err != nil {
			return nil, err
		}
		q.OrderBy = orderBy
	}

	if p.current().Type == TokenLimit {
		p.advance()
		limit, err := p.parseCount("LIMIT")
		if err != nil {
			return nil, err
		}
		q.Limit = limit
	}

	if p.current().Type == TokenOffset {
		p.advance()
		offset, err := p.parseCount("OFFSET")
		if err != nil {
			return nil, err
		}
		q.Offset = offset
	}

	return q, nil
}

// parseSource parses a table name with an optional alias
func (p *Parser) parseSource(clause string) (Source, error) {
	var src Source

	if p.current().Type == TokenLeftParen {
		return src, fmt.Errorf("subqueries in %s are not supported", clause)
	}
	if p.current().Type != TokenIdent && p.current().Type != TokenString {
		return src, fmt.Errorf("expected table name after %s: %w", clause, p.unexpected("table name"))
	}
	src.Table = p.current().Value
	if src.Table == "*" {
		return src, fmt.Errorf("expected table name after %s, got *", clause)
	}
	if err := ValidateIdentifier(src.Table); err != nil {
		return src, err
	}
	p.advance()

	if p.current().Type == TokenAs {
		p.advance()
		if p.current().Type != TokenIdent {
			return src, fmt.Errorf("expected alias after AS: %w", p.unexpected("alias"))
		}
	}
	if p.current().Type == TokenIdent && p.current().Value != "*" {
		src.Alias = p.current().Value
		p.advance()
	}

	return src, nil
}

// parseJoin parses a JOIN clause
func (p *Parser) parseJoin() (*Join, error) {
	join := &Join{}

	switch p.current().Type {
	case TokenCross:
		join.Type = JoinCross
		p.advance()
	case TokenInner:
		join.Type = JoinInner
		p.advance()
	case TokenLeft, TokenRight, TokenFull:
		join.Type = map[TokenType]JoinType{TokenLeft: JoinLeft, TokenRight: JoinRight, TokenFull: JoinFull}[p.current().Type]
		p.advance()
		// Optional OUTER keyword
		if p.current().Type == TokenOuter {
			p.advance()
		}
	case TokenJoin:
		// Plain JOIN defaults to INNER JOIN
		join.Type = JoinInner
	default:
		return nil, p.unexpected("JOIN")
	}
	if err := p.expect(TokenJoin); err != nil {
		return nil, err
	}

	src, err := p.parseSource("JOIN")
	if err != nil {
		return nil, err
	}
	join.Source = src

	// ON is required for all join types except CROSS JOIN
	if join.Type == JoinCross {
		if p.current().Type == TokenOn {
			return nil, fmt.Errorf("CROSS JOIN does not take an ON clause")
		}
		return join, nil
	}

	if err := p.expect(TokenOn); err != nil {
		return nil, fmt.Errorf("expected ON clause after JOIN table: %w", err)
	}
	condition, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("failed to parse JOIN condition: %w", err)
	}
	join.Condition = condition

	return join, nil
}

// parseSelectList parses the SELECT list (columns, expressions, aliases)
func (p *Parser) parseSelectList() ([]SelectItem, error) {
	var items []SelectItem

	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		if p.current().Type == TokenComma {
			p.advance()
			continue
		}
		break
	}

	return items, nil
}

// parseSelectItem parses a single SELECT item with an optional alias
func (p *Parser) parseSelectItem() (SelectItem, error) {
	var item SelectItem

	expr, err := p.parseSelectExpression()
	if err != nil {
		return item, err
	}
	item.Expr = expr

	star := false
	if ref, ok := expr.(*ColumnRef); ok {
		star = isStar(ref.Column)
	}

	// AS alias, or an implicit alias (an identifier directly after the expression)
	hasAs := false
	if p.current().Type == TokenAs {
		p.advance()
		hasAs = true
		if p.current().Type != TokenIdent && p.current().Type != TokenString {
			return item, fmt.Errorf("expected alias name after AS: %w", p.unexpected("alias"))
		}
	}
	if hasAs || (p.current().Type == TokenIdent && p.current().Value != "*") {
		if star {
			return item, fmt.Errorf("%s cannot have an alias", expr)
		}
		item.Alias = p.current().Value
		if err := ValidateIdentifier(item.Alias); err != nil {
			return item, err
		}
		p.advance()
	}

	return item, nil
}

// parseGroupBy parses the GROUP BY clause
func (p *Parser) parseGroupBy() ([]SelectExpression, error) {
	if err := p.expect(TokenGroup); err != nil {
		return nil, err
	}
	if err := p.expect(TokenBy); err != nil {
		return nil, fmt.Errorf("expected BY after GROUP: %w", err)
	}

	var exprs []SelectExpression
	for {
		expr, err := p.parseSelectExpression()
		if err != nil {
			return nil, fmt.Errorf("failed to parse GROUP BY: %w", err)
		}
		exprs = append(exprs, expr)

		if p.current().Type == TokenComma {
			p.advance()
			continue
		}
		break
	}

	return exprs, nil
}

// parseOrderBy parses the ORDER BY clause
func (p *Parser) parseOrderBy() ([]OrderByItem, error) {
	if err := p.expect(TokenOrder); err != nil {
		return nil, err
	}
	if err := p.expect(TokenBy); err != nil {
		return nil, fmt.Errorf("expected BY after ORDER: %w", err)
	}

	var items []OrderByItem
	for {
		expr, err := p.parseSelectExpression()
		if err != nil {
			return nil, fmt.Errorf("failed to parse ORDER BY: %w", err)
		}
		item := OrderByItem{Expr: expr}

		if p.current().Type == TokenAsc {
			p.advance()
		} else if p.current().Type == TokenDesc {
			item.Desc = true
			p.advance()
		}

		items = append(items, item)

		if p.current().Type == TokenComma {
			p.advance()
			continue
		}
		break
	}

	return items, nil
}

// parseCount parses the non-negative integer after LIMIT or OFFSET
func (p *Parser) parseCount(clause string) (*int64, error) {
	if p.current().Type != TokenNumber {
		return nil, fmt.Errorf("expected number after %s: %w", clause, p.unexpected("number"))
	}

	numStr := p.current().Value
	n, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value: %s", clause, numStr)
	}
	if n < 0 {
		return nil, fmt.Errorf("%s must be non-negative, got %d", clause, n)
	}

	p.advance()
	return &n, nil
}
