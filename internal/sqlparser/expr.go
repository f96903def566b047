package sqlparser

import (
	"strconv"

	"tegdb/internal/ast"
	"tegdb/internal/sqltoken"
	"tegdb/internal/types"
)

// parseCondition parses "orExpr := andExpr (OR andExpr)*".
func (p *Parser) parseCondition() (ast.Condition, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == sqltoken.OR {
		p.advance()
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = ast.Or{Left: left, Right: right}
	}
	return left, nil
}

// parseAndExpr parses "andExpr := comparison (AND comparison)*".
func (p *Parser) parseAndExpr() (ast.Condition, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == sqltoken.AND {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = ast.And{Left: left, Right: right}
	}
	return left, nil
}

// parseComparison parses "comparison := expr compOp literal | ident BETWEEN
// literal AND literal". The BETWEEN form requires the preceding expr to
// have been a bare column reference.
func (p *Parser) parseComparison() (ast.Condition, error) {
	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if p.cur().Type == sqltoken.BETWEEN {
		col, ok := left.(ast.Column)
		if !ok {
			return nil, p.errf("BETWEEN requires a bare column reference on its left-hand side")
		}
		p.advance()
		low, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(sqltoken.AND); err != nil {
			return nil, err
		}
		high, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.Between{Column: col.Name, Low: low, High: high}, nil
	}

	op, err := p.parseCompOp()
	if err != nil {
		return nil, err
	}
	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.Comparison{Left: left, Op: op, Right: right}, nil
}

func (p *Parser) parseCompOp() (string, error) {
	switch p.cur().Type {
	case sqltoken.EQ:
		p.advance()
		return "=", nil
	case sqltoken.NEQ:
		p.advance()
		return "!=", nil
	case sqltoken.LT:
		p.advance()
		return "<", nil
	case sqltoken.LTE:
		p.advance()
		return "<=", nil
	case sqltoken.GT:
		p.advance()
		return ">", nil
	case sqltoken.GTE:
		p.advance()
		return ">=", nil
	case sqltoken.LIKE:
		p.advance()
		return "LIKE", nil
	default:
		return "", p.errf("expected a comparison operator, got %s %q", p.cur().Type, p.cur().Value)
	}
}

// parseExpr parses "expr := term (('+'|'-') term)*".
func (p *Parser) parseExpr() (ast.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == sqltoken.PLUS || p.cur().Type == sqltoken.MINUS {
		op := "+"
		if p.cur().Type == sqltoken.MINUS {
			op = "-"
		}
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseTerm parses "term := factor (('*'|'/') factor)*".
func (p *Parser) parseTerm() (ast.Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == sqltoken.ASTERISK || p.cur().Type == sqltoken.SLASH {
		op := "*"
		if p.cur().Type == sqltoken.SLASH {
			op = "/"
		}
		p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseFactor parses "factor := literal | ident | funcCall | '(' expr ')'".
func (p *Parser) parseFactor() (ast.Expr, error) {
	switch p.cur().Type {
	case sqltoken.LPAREN:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(sqltoken.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case sqltoken.IDENT:
		name := p.advance().Value
		if p.cur().Type == sqltoken.LPAREN {
			return p.parseFuncCallArgs(name)
		}
		return ast.Column{Name: name}, nil
	default:
		lit, ok, err := p.tryParseLiteral()
		if err != nil {
			return nil, err
		}
		if ok {
			return lit, nil
		}
		return nil, p.errf("expected a literal, identifier, or '(', got %s %q", p.cur().Type, p.cur().Value)
	}
}

func (p *Parser) parseFuncCallArgs(name string) (ast.Expr, error) {
	p.advance() // '('
	call := ast.FuncCall{Name: name}
	if p.cur().Type != sqltoken.RPAREN {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if p.cur().Type != sqltoken.COMMA {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(sqltoken.RPAREN); err != nil {
		return nil, err
	}
	return call, nil
}

// tryParseLiteral recognizes INT, REAL, STRING, NULL, PARAM, and the
// bracketed vector literal "'[' real (',' real)* ']'".
func (p *Parser) tryParseLiteral() (ast.Literal, bool, error) {
	switch p.cur().Type {
	case sqltoken.INT:
		tok := p.advance()
		n, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			n = saturateInt(tok.Value)
		}
		return ast.Literal{Value: types.Integer(n)}, true, nil
	case sqltoken.REAL:
		tok := p.advance()
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return ast.Literal{}, false, p.errf("invalid real literal %q", tok.Value)
		}
		return ast.Literal{Value: types.Real(f)}, true, nil
	case sqltoken.STRING:
		tok := p.advance()
		return ast.Literal{Value: types.TextValue(tok.Value)}, true, nil
	case sqltoken.NULL_KW:
		p.advance()
		return ast.Literal{Value: types.Null()}, true, nil
	case sqltoken.PARAM:
		tok := p.advance()
		idx, err := strconv.Atoi(tok.Value)
		if err != nil {
			return ast.Literal{}, false, p.errf("invalid parameter index %q", tok.Value)
		}
		return ast.Literal{Value: types.Parameter(idx)}, true, nil
	case sqltoken.LBRACKET:
		return p.parseVectorLiteral()
	default:
		return ast.Literal{}, false, nil
	}
}

func (p *Parser) parseVectorLiteral() (ast.Literal, bool, error) {
	p.advance() // '['
	var vec []float64
	if p.cur().Type != sqltoken.RBRACKET {
		for {
			neg := false
			if p.cur().Type == sqltoken.MINUS {
				neg = true
				p.advance()
			}
			var tok sqltoken.Item
			switch p.cur().Type {
			case sqltoken.INT, sqltoken.REAL:
				tok = p.advance()
			default:
				return ast.Literal{}, false, p.errf("expected a number inside a vector literal, got %s %q", p.cur().Type, p.cur().Value)
			}
			f, err := strconv.ParseFloat(tok.Value, 64)
			if err != nil {
				return ast.Literal{}, false, p.errf("invalid number %q inside vector literal", tok.Value)
			}
			if neg {
				f = -f
			}
			vec = append(vec, f)
			if p.cur().Type != sqltoken.COMMA {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(sqltoken.RBRACKET); err != nil {
		return ast.Literal{}, false, err
	}
	return ast.Literal{Value: types.VectorValue(vec)}, true, nil
}

// saturateInt clamps an over-long integer literal to math.MaxInt64 (or
// MinInt64 were a leading '-' ever lexed into the digit run, which the
// lexer does not do — unary minus is parsed separately as an expr
// operator), per the grammar's "over-long numbers may silently saturate".
func saturateInt(digits string) int64 {
	const maxI64 = "9223372036854775807"
	if len(digits) > len(maxI64) || (len(digits) == len(maxI64) && digits > maxI64) {
		return 9223372036854775807
	}
	return 0
}
