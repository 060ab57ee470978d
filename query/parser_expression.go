package query

import (
	"fmt"
)

// parseOr parses OR expressions (lowest precedence)
func (p *Parser) parseOr() (Expression, error) {
	if err := p.depthCounter.Enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.Exit()

	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{
			Left:     left,
			Operator: TokenOr,
			Right:    right,
		}
	}

	return left, nil
}

// parseAnd parses AND expressions (higher precedence than OR)
func (p *Parser) parseAnd() (Expression, error) {
	if err := p.depthCounter.Enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.Exit()

	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{
			Left:     left,
			Operator: TokenAnd,
			Right:    right,
		}
	}

	return left, nil
}

// parseNot parses prefix NOT (higher precedence than AND)
func (p *Parser) parseNot() (Expression, error) {
	if p.current().Type != TokenNot {
		return p.parseComparison()
	}

	if err := p.depthCounter.Enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.Exit()

	p.advance()
	expr, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return &NotExpr{Expr: expr}, nil
}

// parseComparison parses a parenthesized condition or a predicate:
// comparison, IN, LIKE, BETWEEN or IS NULL.
func (p *Parser) parseComparison() (Expression, error) {
	if p.current().Type == TokenLeftParen {
		if p.peek().Type == TokenSelect {
			return nil, fmt.Errorf("subqueries are not supported")
		}
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRightParen); err != nil {
			return nil, fmt.Errorf("expected ) to close condition: %w", err)
		}
		return expr, nil
	}

	left, err := p.parseSelectExpression()
	if err != nil {
		return nil, err
	}

	// Check for special operators first
	switch p.current().Type {
	case TokenIn:
		return p.parseInExpr(left, false)
	case TokenLike:
		return p.parseLikeExpr(left, false)
	case TokenBetween:
		return p.parseBetweenExpr(left, false)
	case TokenIs:
		return p.parseIsNullExpr(left)
	case TokenNot:
		// Could be "NOT IN", "NOT LIKE", "NOT BETWEEN"
		p.advance()
		switch p.current().Type {
		case TokenIn:
			return p.parseInExpr(left, true)
		case TokenLike:
			return p.parseLikeExpr(left, true)
		case TokenBetween:
			return p.parseBetweenExpr(left, true)
		default:
			return nil, p.unexpected("IN, LIKE, or BETWEEN after NOT")
		}
	}

	operator := p.current().Type
	switch operator {
	case TokenEqual, TokenNotEqual, TokenLess, TokenGreater, TokenLessEqual, TokenGreaterEqual:
		p.advance()
	default:
		return nil, fmt.Errorf("expected comparison operator after %s: %w", left, p.unexpected("operator"))
	}

	right, err := p.parseSelectExpression()
	if err != nil {
		return nil, err
	}

	return &ComparisonExpr{
		Left:     left,
		Operator: operator,
		Right:    right,
	}, nil
}

// parseInExpr parses: expr [NOT] IN (val1, val2, ...)
func (p *Parser) parseInExpr(left SelectExpression, negate bool) (Expression, error) {
	if err := p.expect(TokenIn); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLeftParen); err != nil {
		return nil, fmt.Errorf("expected ( after IN: %w", err)
	}
	if p.current().Type == TokenSelect {
		return nil, fmt.Errorf("subqueries in IN are not supported")
	}

	var values []SelectExpression
	for {
		value, err := p.parseSelectExpression()
		if err != nil {
			return nil, fmt.Errorf("failed to parse IN list: %w", err)
		}
		values = append(values, value)

		if p.current().Type == TokenComma {
			p.advance()
			continue
		}
		break
	}

	if err := p.expect(TokenRightParen); err != nil {
		return nil, fmt.Errorf("expected ) after IN list: %w", err)
	}

	return &InExpr{Expr: left, Values: values, Negate: negate}, nil
}

// parseLikeExpr parses: expr [NOT] LIKE pattern
func (p *Parser) parseLikeExpr(left SelectExpression, negate bool) (Expression, error) {
	if err := p.expect(TokenLike); err != nil {
		return nil, err
	}

	pattern, err := p.parseSelectExpression()
	if err != nil {
		return nil, fmt.Errorf("failed to parse LIKE pattern: %w", err)
	}

	return &LikeExpr{Expr: left, Pattern: pattern, Negate: negate}, nil
}

// parseBetweenExpr parses: expr [NOT] BETWEEN lower AND upper
func (p *Parser) parseBetweenExpr(left SelectExpression, negate bool) (Expression, error) {
	if err := p.expect(TokenBetween); err != nil {
		return nil, err
	}

	lower, err := p.parseSelectExpression()
	if err != nil {
		return nil, fmt.Errorf("failed to parse BETWEEN lower bound: %w", err)
	}

	if err := p.expect(TokenAnd); err != nil {
		return nil, fmt.Errorf("expected AND in BETWEEN: %w", err)
	}

	upper, err := p.parseSelectExpression()
	if err != nil {
		return nil, fmt.Errorf("failed to parse BETWEEN upper bound: %w", err)
	}

	return &BetweenExpr{Expr: left, Lower: lower, Upper: upper, Negate: negate}, nil
}

// parseIsNullExpr parses: expr IS [NOT] NULL
func (p *Parser) parseIsNullExpr(left SelectExpression) (Expression, error) {
	if err := p.expect(TokenIs); err != nil {
		return nil, err
	}

	negate := false
	if p.current().Type == TokenNot {
		negate = true
		p.advance()
	}

	if err := p.expect(TokenNull); err != nil {
		return nil, fmt.Errorf("expected NULL after IS: %w", err)
	}

	return &IsNullExpr{Expr: left, Negate: negate}, nil
}
