package sqlparser

import (
	"strconv"
	"strings"

	"tegdb/internal/ast"
	"tegdb/internal/types"
)

// Print renders stmt as canonical SQL text such that Parse(Print(stmt))
// yields a statement tree equal to stmt (the round-trip law of §8).
func Print(stmt ast.Statement) string {
	var sb strings.Builder
	switch s := stmt.(type) {
	case ast.Select:
		printSelect(&sb, s)
	case ast.Insert:
		printInsert(&sb, s)
	case ast.Update:
		printUpdate(&sb, s)
	case ast.Delete:
		printDelete(&sb, s)
	case ast.CreateTable:
		printCreateTable(&sb, s)
	case ast.CreateIndex:
		printCreateIndex(&sb, s)
	case ast.DropTable:
		sb.WriteString("DROP TABLE " + s.Table)
	case ast.DropIndex:
		sb.WriteString("DROP INDEX " + s.Index)
	case ast.Begin:
		sb.WriteString("BEGIN")
	case ast.Commit:
		sb.WriteString("COMMIT")
	case ast.Rollback:
		sb.WriteString("ROLLBACK")
	}
	return sb.String()
}

func printSelect(sb *strings.Builder, s ast.Select) {
	sb.WriteString("SELECT ")
	for i, item := range s.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(printExpr(item.Expr))
		if item.Alias != "" {
			sb.WriteString(" AS " + item.Alias)
		}
	}
	sb.WriteString(" FROM " + s.Table)
	if s.Where != nil {
		sb.WriteString(" WHERE " + printCondition(s.Where))
	}
	if len(s.OrderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, ob := range s.OrderBy {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(printExpr(ob.Expr))
			if ob.Desc {
				sb.WriteString(" DESC")
			}
		}
	}
	if s.Limit != nil {
		sb.WriteString(" LIMIT " + strconv.Itoa(*s.Limit))
	}
}

func printInsert(sb *strings.Builder, s ast.Insert) {
	sb.WriteString("INSERT INTO " + s.Table)
	if len(s.Columns) > 0 {
		sb.WriteString(" (" + strings.Join(s.Columns, ", ") + ")")
	}
	sb.WriteString(" VALUES ")
	for i, row := range s.Rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j, e := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(printExpr(e))
		}
		sb.WriteString(")")
	}
}

func printUpdate(sb *strings.Builder, s ast.Update) {
	sb.WriteString("UPDATE " + s.Table + " SET ")
	for i, a := range s.Assignments {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.Column + " = " + printExpr(a.Value))
	}
	if s.Where != nil {
		sb.WriteString(" WHERE " + printCondition(s.Where))
	}
}

func printDelete(sb *strings.Builder, s ast.Delete) {
	sb.WriteString("DELETE FROM " + s.Table)
	if s.Where != nil {
		sb.WriteString(" WHERE " + printCondition(s.Where))
	}
}

func printCreateTable(sb *strings.Builder, s ast.CreateTable) {
	sb.WriteString("CREATE TABLE " + s.Table + " (")
	for i, col := range s.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(col.Name + " " + col.Type.String())
		for _, c := range col.Constraints {
			switch c {
			case ast.ConstraintPrimaryKey:
				sb.WriteString(" PRIMARY KEY")
			case ast.ConstraintNotNull:
				sb.WriteString(" NOT NULL")
			case ast.ConstraintUnique:
				sb.WriteString(" UNIQUE")
			}
		}
	}
	sb.WriteString(")")
}

func printCreateIndex(sb *strings.Builder, s ast.CreateIndex) {
	sb.WriteString("CREATE INDEX " + s.Index + " ON " + s.Table + " (" + s.Column + ")")
	if s.Unique {
		sb.WriteString(" UNIQUE")
	}
}

func printCondition(cond ast.Condition) string {
	switch c := cond.(type) {
	case ast.And:
		return printCondition(c.Left) + " AND " + printCondition(c.Right)
	case ast.Or:
		return printCondition(c.Left) + " OR " + printCondition(c.Right)
	case ast.Comparison:
		return printExpr(c.Left) + " " + c.Op + " " + printExpr(c.Right)
	case ast.Between:
		return c.Column + " BETWEEN " + printExpr(c.Low) + " AND " + printExpr(c.High)
	default:
		return ""
	}
}

func printExpr(e ast.Expr) string {
	switch ex := e.(type) {
	case ast.Literal:
		return printLiteral(ex.Value)
	case ast.Column:
		return ex.Name
	case ast.BinaryExpr:
		// Nested arithmetic is parenthesized so the text re-parses to the same
		// tree whatever the operators' precedence and associativity.
		left, right := printExpr(ex.Left), printExpr(ex.Right)
		if _, ok := ex.Left.(ast.BinaryExpr); ok {
			left = "(" + left + ")"
		}
		if _, ok := ex.Right.(ast.BinaryExpr); ok {
			right = "(" + right + ")"
		}
		return left + " " + ex.Op + " " + right
	case ast.FuncCall:
		args := make([]string, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = printExpr(a)
		}
		return ex.Name + "(" + strings.Join(args, ", ") + ")"
	default:
		return ""
	}
}

func printLiteral(v types.Value) string {
	switch v.Kind {
	case types.KindText:
		return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\t", `\t`).Replace(v.Text) + "'"
	case types.KindReal:
		return formatRealLiteral(v.Real)
	case types.KindVector:
		parts := make([]string, len(v.Vector))
		for i, f := range v.Vector {
			parts[i] = formatRealLiteral(f)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case types.KindParameter:
		return "?" + strconv.Itoa(v.Param)
	default:
		return v.String()
	}
}

// formatRealLiteral renders f so it always contains a decimal point, since
// the lexer only recognizes a number with a '.' followed by digits as a
// REAL literal — an integral float like 2.0 must print as "2.0", not "2".
func formatRealLiteral(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
