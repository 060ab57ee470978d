package query

import (
	"fmt"
	"strconv"
	"strings"
)

// isAggregateFunction checks if a function name is an aggregate function
func isAggregateFunction(name string) bool {
	switch strings.ToUpper(name) {
	case "COUNT", "SUM", "AVG", "MIN", "MAX":
		return true
	default:
		return false
	}
}

// isStar reports whether a column reference is "*" or "alias.*".
func isStar(column string) bool {
	return column == "*" || strings.HasSuffix(column, ".*")
}

// parseSelectExpression parses a value expression: column reference,
// literal, function call, aggregate or CASE.
func (p *Parser) parseSelectExpression() (SelectExpression, error) {
	if err := p.depthCounter.Enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.Exit()

	if p.current().Type == TokenCase {
		return p.parseCaseExpression()
	}

	if p.current().Type == TokenLeftParen {
		if p.peek().Type == TokenSelect {
			return nil, fmt.Errorf("subqueries are not supported")
		}
		return nil, fmt.Errorf("parenthesized values are not supported: %w", p.unexpected("column name, literal, or function call"))
	}

	// Aggregate or regular function call (identifier followed by left paren)
	if p.current().Type == TokenIdent && p.peek().Type == TokenLeftParen {
		if isAggregateFunction(p.current().Value) {
			return p.parseAggregateFunction()
		}
		return p.parseFunctionCall()
	}

	switch p.current().Type {
	case TokenNumber:
		numStr := p.current().Value
		p.advance()
		// Try to parse as int first, then float
		if intVal, err := strconv.ParseInt(numStr, 10, 64); err == nil {
			return &LiteralExpr{Value: intVal}, nil
		} else if floatVal, err := strconv.ParseFloat(numStr, 64); err == nil {
			return &LiteralExpr{Value: floatVal}, nil
		}
		return nil, fmt.Errorf("invalid number: %s", numStr)
	case TokenString:
		str := p.current().Value
		p.advance()
		return &LiteralExpr{Value: str}, nil
	case TokenBool:
		b := strings.EqualFold(p.current().Value, "true")
		p.advance()
		return &LiteralExpr{Value: b}, nil
	case TokenNull:
		p.advance()
		return &LiteralExpr{Value: nil}, nil
	case TokenIdent:
		column := p.current().Value
		if err := ValidateIdentifier(column); err != nil {
			return nil, err
		}
		p.advance()
		return &ColumnRef{Column: column}, nil
	default:
		return nil, p.unexpected("column name, literal, or function call")
	}
}

// parseArguments parses a comma-separated argument list up to and
// including the closing parenthesis.
func (p *Parser) parseArguments(funcName string) ([]SelectExpression, error) {
	var args []SelectExpression

	if p.current().Type == TokenRightParen {
		p.advance()
		return args, nil
	}

	for {
		arg, err := p.parseSelectExpression()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", funcName, err)
		}
		if ref, ok := arg.(*ColumnRef); ok && isStar(ref.Column) {
			return nil, fmt.Errorf("%s: %s is not a valid argument", funcName, ref.Column)
		}
		args = append(args, arg)

		if p.current().Type == TokenComma {
			p.advance()
			continue
		}
		break
	}

	if err := p.expect(TokenRightParen); err != nil {
		return nil, fmt.Errorf("expected ')' after %s arguments: %w", funcName, err)
	}
	return args, nil
}

// parseFunctionCall parses a function call
func (p *Parser) parseFunctionCall() (SelectExpression, error) {
	funcName := strings.ToUpper(p.current().Value)
	p.advance() // skip function name

	if err := p.expect(TokenLeftParen); err != nil {
		return nil, fmt.Errorf("expected '(' after function name: %w", err)
	}

	args, err := p.parseArguments(funcName)
	if err != nil {
		return nil, err
	}

	return &FunctionCall{Name: funcName, Args: args}, nil
}

// parseAggregateFunction parses an aggregate function call
func (p *Parser) parseAggregateFunction() (SelectExpression, error) {
	funcName := strings.ToUpper(p.current().Value)
	p.advance() // skip function name

	if err := p.expect(TokenLeftParen); err != nil {
		return nil, fmt.Errorf("expected '(' after aggregate function: %w", err)
	}

	distinct := false
	if p.current().Type == TokenDistinct {
		distinct = true
		p.advance()
	}

	// COUNT(*)
	if funcName == "COUNT" && p.current().Type == TokenIdent && p.current().Value == "*" {
		if distinct {
			return nil, fmt.Errorf("COUNT(DISTINCT *) is not valid")
		}
		p.advance()
		if err := p.expect(TokenRightParen); err != nil {
			return nil, fmt.Errorf("expected ')' after COUNT(*: %w", err)
		}
		return &AggregateExpr{Function: funcName}, nil
	}

	args, err := p.parseArguments(funcName)
	if err != nil {
		return nil, err
	}

	switch {
	case len(args) == 1:
		return &AggregateExpr{Function: funcName, Arg: args[0], Distinct: distinct}, nil
	case len(args) > 1 && !distinct && (funcName == "MIN" || funcName == "MAX"):
		// MIN/MAX with several arguments is the scalar form
		return &FunctionCall{Name: funcName, Args: args}, nil
	default:
		return nil, fmt.Errorf("%s expects exactly one argument, got %d", funcName, len(args))
	}
}

// parseCaseExpression parses a CASE expression
func (p *Parser) parseCaseExpression() (SelectExpression, error) {
	if err := p.expect(TokenCase); err != nil {
		return nil, err
	}

	var whenClauses []WhenClause

	for p.current().Type == TokenWhen {
		p.advance() // skip WHEN

		condition, err := p.parseOr()
		if err != nil {
			return nil, fmt.Errorf("failed to parse CASE WHEN condition: %w", err)
		}

		if err := p.expect(TokenThen); err != nil {
			return nil, fmt.Errorf("expected THEN after WHEN condition: %w", err)
		}

		result, err := p.parseSelectExpression()
		if err != nil {
			return nil, fmt.Errorf("failed to parse CASE THEN result: %w", err)
		}

		whenClauses = append(whenClauses, WhenClause{
			Condition: condition,
			Result:    result,
		})
	}

	if len(whenClauses) == 0 {
		return nil, fmt.Errorf("CASE expression must have at least one WHEN clause")
	}

	var elseExpr SelectExpression
	if p.current().Type == TokenElse {
		p.advance() // skip ELSE

		var err error
		elseExpr, err = p.parseSelectExpression()
		if err != nil {
			return nil, fmt.Errorf("failed to parse CASE ELSE result: %w", err)
		}
	}

	if err := p.expect(TokenEnd); err != nil {
		return nil, fmt.Errorf("expected END after CASE expression: %w", err)
	}

	return &CaseExpr{
		WhenClauses: whenClauses,
		ElseExpr:    elseExpr,
	}, nil
}
