// Package sqlparser is the recursive-descent parser (L5): it consumes the
// token stream produced by internal/sqltoken and builds the internal/ast
// statement tree the planner and executor operate on.
package sqlparser

import (
	"fmt"
	"strconv"

	"tegdb/internal/ast"
	"tegdb/internal/dberr"
	"tegdb/internal/sqltoken"
	"tegdb/internal/types"
)

// Parser holds the token stream and current position for one statement
// parse. It is not reusable across statements.
type Parser struct {
	items []sqltoken.Item
	pos   int
}

// Parse lexes and parses a single SQL statement from src, including an
// optional trailing semicolon.
func Parse(src string) (ast.Statement, error) {
	items, err := sqltoken.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{items: items}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if p.cur().Type == sqltoken.SEMICOLON {
		p.advance()
	}
	if p.cur().Type != sqltoken.EOF {
		return nil, p.errf("unexpected trailing input %q", p.cur().Value)
	}
	return stmt, nil
}

func (p *Parser) cur() sqltoken.Item {
	if p.pos >= len(p.items) {
		return sqltoken.Item{Type: sqltoken.EOF}
	}
	return p.items[p.pos]
}

func (p *Parser) advance() sqltoken.Item {
	it := p.cur()
	if p.pos < len(p.items) {
		p.pos++
	}
	return it
}

func (p *Parser) errf(format string, args ...any) error {
	pos := p.cur().Pos
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: %s (line %d, column %d)", dberr.ErrParseError, msg, pos.Line, pos.Column)
}

func (p *Parser) expect(tok sqltoken.Token) (sqltoken.Item, error) {
	if p.cur().Type != tok {
		return sqltoken.Item{}, p.errf("expected %s, got %s %q", tok, p.cur().Type, p.cur().Value)
	}
	return p.advance(), nil
}

func (p *Parser) expectIdent() (string, error) {
	if p.cur().Type != sqltoken.IDENT {
		return "", p.errf("expected identifier, got %s %q", p.cur().Type, p.cur().Value)
	}
	return p.advance().Value, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur().Type {
	case sqltoken.SELECT:
		return p.parseSelect()
	case sqltoken.INSERT:
		return p.parseInsert()
	case sqltoken.UPDATE:
		return p.parseUpdate()
	case sqltoken.DELETE:
		return p.parseDelete()
	case sqltoken.CREATE:
		return p.parseCreate()
	case sqltoken.DROP:
		return p.parseDrop()
	case sqltoken.BEGIN_KW:
		p.advance()
		if p.cur().Type == sqltoken.TRANSACTION_KW {
			p.advance()
		}
		return ast.Begin{}, nil
	case sqltoken.COMMIT_KW:
		p.advance()
		return ast.Commit{}, nil
	case sqltoken.ROLLBACK_KW:
		p.advance()
		return ast.Rollback{}, nil
	default:
		return nil, p.errf("unrecognized statement starting with %s %q", p.cur().Type, p.cur().Value)
	}
}

// parseSelect parses "SELECT columnList FROM ident [WHERE condition]
// [ORDER BY orderList] [LIMIT int]".
func (p *Parser) parseSelect() (ast.Statement, error) {
	p.advance() // SELECT

	var items []ast.SelectItem
	if p.cur().Type == sqltoken.ASTERISK {
		p.advance()
		items = append(items, ast.SelectItem{Expr: ast.Column{Name: "*"}})
	} else {
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			alias := ""
			if p.cur().Type == sqltoken.AS {
				p.advance()
				a, err := p.expectIdent()
				if err != nil {
					return nil, err
				}
				alias = a
			}
			items = append(items, ast.SelectItem{Expr: e, Alias: alias})
			if p.cur().Type != sqltoken.COMMA {
				break
			}
			p.advance()
		}
	}

	if _, err := p.expect(sqltoken.FROM); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	sel := ast.Select{Table: table, Columns: items}

	if p.cur().Type == sqltoken.WHERE {
		p.advance()
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		sel.Where = cond
	}

	if p.cur().Type == sqltoken.ORDER {
		p.advance()
		if _, err := p.expect(sqltoken.BY); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			desc := false
			switch p.cur().Type {
			case sqltoken.ASC:
				p.advance()
			case sqltoken.DESC:
				desc = true
				p.advance()
			}
			sel.OrderBy = append(sel.OrderBy, ast.OrderByItem{Expr: e, Desc: desc})
			if p.cur().Type != sqltoken.COMMA {
				break
			}
			p.advance()
		}
	}

	if p.cur().Type == sqltoken.LIMIT {
		p.advance()
		n, err := p.expect(sqltoken.INT)
		if err != nil {
			return nil, err
		}
		v, err := strconv.Atoi(n.Value)
		if err != nil {
			return nil, p.errf("invalid LIMIT value %q", n.Value)
		}
		sel.Limit = &v
	}

	return sel, nil
}

// parseInsert parses "INSERT INTO ident ['(' identList ')'] VALUES tuple
// (',' tuple)*".
func (p *Parser) parseInsert() (ast.Statement, error) {
	p.advance() // INSERT
	if _, err := p.expect(sqltoken.INTO); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	ins := ast.Insert{Table: table}

	if p.cur().Type == sqltoken.LPAREN {
		p.advance()
		for {
			col, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			ins.Columns = append(ins.Columns, col)
			if p.cur().Type != sqltoken.COMMA {
				break
			}
			p.advance()
		}
		if _, err := p.expect(sqltoken.RPAREN); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(sqltoken.VALUES); err != nil {
		return nil, err
	}

	for {
		row, err := p.parseTuple()
		if err != nil {
			return nil, err
		}
		ins.Rows = append(ins.Rows, row)
		if p.cur().Type != sqltoken.COMMA {
			break
		}
		p.advance()
	}

	return ins, nil
}

func (p *Parser) parseTuple() ([]ast.Expr, error) {
	if _, err := p.expect(sqltoken.LPAREN); err != nil {
		return nil, err
	}
	var exprs []ast.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if p.cur().Type != sqltoken.COMMA {
			break
		}
		p.advance()
	}
	if _, err := p.expect(sqltoken.RPAREN); err != nil {
		return nil, err
	}
	return exprs, nil
}

// parseUpdate parses "UPDATE ident SET assignList [WHERE condition]".
func (p *Parser) parseUpdate() (ast.Statement, error) {
	p.advance() // UPDATE
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(sqltoken.SET); err != nil {
		return nil, err
	}

	upd := ast.Update{Table: table}
	for {
		col, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(sqltoken.EQ); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		upd.Assignments = append(upd.Assignments, ast.Assignment{Column: col, Value: val})
		if p.cur().Type != sqltoken.COMMA {
			break
		}
		p.advance()
	}

	if p.cur().Type == sqltoken.WHERE {
		p.advance()
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		upd.Where = cond
	}

	return upd, nil
}

// parseDelete parses "DELETE FROM ident [WHERE condition]".
func (p *Parser) parseDelete() (ast.Statement, error) {
	p.advance() // DELETE
	if _, err := p.expect(sqltoken.FROM); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	del := ast.Delete{Table: table}
	if p.cur().Type == sqltoken.WHERE {
		p.advance()
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		del.Where = cond
	}
	return del, nil
}

// parseCreate dispatches between CREATE TABLE and CREATE INDEX.
func (p *Parser) parseCreate() (ast.Statement, error) {
	p.advance() // CREATE
	switch p.cur().Type {
	case sqltoken.TABLE:
		return p.parseCreateTable()
	case sqltoken.INDEX:
		return p.parseCreateIndex()
	case sqltoken.UNIQUE:
		p.advance()
		if _, err := p.expect(sqltoken.INDEX); err != nil {
			return nil, err
		}
		stmt, err := p.parseCreateIndexBody()
		if err != nil {
			return nil, err
		}
		stmt.Unique = true
		return stmt, nil
	default:
		return nil, p.errf("expected TABLE or INDEX after CREATE, got %s %q", p.cur().Type, p.cur().Value)
	}
}

// parseCreateTable parses "CREATE TABLE ident '(' columnDef (',' columnDef)*
// ')'".
func (p *Parser) parseCreateTable() (ast.Statement, error) {
	p.advance() // TABLE
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(sqltoken.LPAREN); err != nil {
		return nil, err
	}

	ct := ast.CreateTable{Table: table}
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		ct.Columns = append(ct.Columns, col)
		if p.cur().Type != sqltoken.COMMA {
			break
		}
		p.advance()
	}
	if _, err := p.expect(sqltoken.RPAREN); err != nil {
		return nil, err
	}
	return ct, nil
}

// parseColumnDef parses "ident type (PRIMARY KEY | NOT NULL | UNIQUE)*".
func (p *Parser) parseColumnDef() (ast.ColumnDef, error) {
	name, err := p.expectIdent()
	if err != nil {
		return ast.ColumnDef{}, err
	}
	typ, err := p.parseColumnType()
	if err != nil {
		return ast.ColumnDef{}, err
	}
	def := ast.ColumnDef{Name: name, Type: typ}

	for {
		switch p.cur().Type {
		case sqltoken.PRIMARY:
			p.advance()
			if _, err := p.expect(sqltoken.KEY); err != nil {
				return ast.ColumnDef{}, err
			}
			def.Constraints = append(def.Constraints, ast.ConstraintPrimaryKey)
		case sqltoken.NOT:
			p.advance()
			if _, err := p.expect(sqltoken.NULL_KW); err != nil {
				return ast.ColumnDef{}, err
			}
			def.Constraints = append(def.Constraints, ast.ConstraintNotNull)
		case sqltoken.UNIQUE:
			p.advance()
			def.Constraints = append(def.Constraints, ast.ConstraintUnique)
		default:
			return def, nil
		}
	}
}

// parseColumnType parses "INTEGER | INT | REAL | FLOAT | TEXT['(' int ')']
// | VECTOR['(' int ')']".
func (p *Parser) parseColumnType() (types.ColumnType, error) {
	switch p.cur().Type {
	case sqltoken.INTEGER_KW, sqltoken.INT_KW:
		p.advance()
		return types.ColumnType{Kind: types.ColInteger}, nil
	case sqltoken.REAL_KW, sqltoken.FLOAT_KW:
		p.advance()
		return types.ColumnType{Kind: types.ColReal}, nil
	case sqltoken.TEXT_KW:
		p.advance()
		n, err := p.parseOptionalParam()
		if err != nil {
			return types.ColumnType{}, err
		}
		return types.ColumnType{Kind: types.ColText, Param: n}, nil
	case sqltoken.VECTOR_KW:
		p.advance()
		n, err := p.parseOptionalParam()
		if err != nil {
			return types.ColumnType{}, err
		}
		return types.ColumnType{Kind: types.ColVector, Param: n}, nil
	default:
		return types.ColumnType{}, p.errf("expected a column type, got %s %q", p.cur().Type, p.cur().Value)
	}
}

func (p *Parser) parseOptionalParam() (int, error) {
	if p.cur().Type != sqltoken.LPAREN {
		return 0, nil
	}
	p.advance()
	n, err := p.expect(sqltoken.INT)
	if err != nil {
		return 0, err
	}
	if _, err := p.expect(sqltoken.RPAREN); err != nil {
		return 0, err
	}
	return strconv.Atoi(n.Value)
}

// parseCreateIndex parses "CREATE INDEX ident ON ident '(' ident ')'
// [UNIQUE]".
func (p *Parser) parseCreateIndex() (ast.Statement, error) {
	p.advance() // INDEX
	return p.parseCreateIndexBody()
}

func (p *Parser) parseCreateIndexBody() (ast.CreateIndex, error) {
	name, err := p.expectIdent()
	if err != nil {
		return ast.CreateIndex{}, err
	}
	if _, err := p.expect(sqltoken.ON); err != nil {
		return ast.CreateIndex{}, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return ast.CreateIndex{}, err
	}
	if _, err := p.expect(sqltoken.LPAREN); err != nil {
		return ast.CreateIndex{}, err
	}
	col, err := p.expectIdent()
	if err != nil {
		return ast.CreateIndex{}, err
	}
	if _, err := p.expect(sqltoken.RPAREN); err != nil {
		return ast.CreateIndex{}, err
	}
	ci := ast.CreateIndex{Index: name, Table: table, Column: col}
	if p.cur().Type == sqltoken.UNIQUE {
		p.advance()
		ci.Unique = true
	}
	return ci, nil
}

// parseDrop dispatches between DROP TABLE and DROP INDEX.
func (p *Parser) parseDrop() (ast.Statement, error) {
	p.advance() // DROP
	switch p.cur().Type {
	case sqltoken.TABLE:
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return ast.DropTable{Table: name}, nil
	case sqltoken.INDEX:
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return ast.DropIndex{Index: name}, nil
	default:
		return nil, p.errf("expected TABLE or INDEX after DROP, got %s %q", p.cur().Type, p.cur().Value)
	}
}
