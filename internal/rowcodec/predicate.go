package rowcodec

import (
	"tegdb/internal/ast"
	"tegdb/internal/catalog"
	"tegdb/internal/evalexpr"
	"tegdb/internal/types"
)

// MatchesCondition evaluates cond against row without necessarily decoding
// every column: a bare Comparison(Column, op, literal) or a Between on a
// single column resolves just that column directly from the buffer; any
// other shape (And/Or, a Comparison whose operands are not a single bare
// column and literal, nested expressions, ...) falls back to a full row
// decode and evaluates cond against the resulting column -> value map.
//
// cond must already have every ?N parameter placeholder substituted for its
// bound literal; the planner resolves parameters when it builds a Plan's
// filter, before the condition ever reaches the row codec.
func MatchesCondition(schema *catalog.Schema, row []byte, cond ast.Condition) (bool, error) {
	switch c := cond.(type) {
	case ast.Comparison:
		if col, lit, ok := columnLiteral(c.Left, c.Right); ok {
			v, err := DecodeColumn(schema, row, col)
			if err != nil {
				return false, err
			}
			return evalexpr.CompareOp(v, c.Op, lit)
		}
		if col, lit, ok := columnLiteral(c.Right, c.Left); ok {
			v, err := DecodeColumn(schema, row, col)
			if err != nil {
				return false, err
			}
			return evalexpr.CompareOp(lit, c.Op, v)
		}
	case ast.Between:
		v, err := DecodeColumn(schema, row, c.Column)
		if err != nil {
			return false, err
		}
		lowLit, lowOK := literalOf(c.Low)
		highLit, highOK := literalOf(c.High)
		if lowOK && highOK {
			geLow, err := evalexpr.CompareOp(v, ">=", lowLit)
			if err != nil {
				return false, err
			}
			leHigh, err := evalexpr.CompareOp(v, "<=", highLit)
			if err != nil {
				return false, err
			}
			return geLow && leHigh, nil
		}
	}

	full, err := DecodeFull(schema, row)
	if err != nil {
		return false, err
	}
	return evalexpr.EvalCondition(cond, full)
}

// columnLiteral reports whether left is a bare Column and right is a
// Literal, returning the column name and literal value.
func columnLiteral(left, right ast.Expr) (string, types.Value, bool) {
	col, ok := left.(ast.Column)
	if !ok {
		return "", types.Value{}, false
	}
	lit, ok := literalOf(right)
	if !ok {
		return "", types.Value{}, false
	}
	return col.Name, lit, true
}

func literalOf(e ast.Expr) (types.Value, bool) {
	lit, ok := e.(ast.Literal)
	if !ok {
		return types.Value{}, false
	}
	return lit.Value, true
}

// flipOp mirrors a comparison operator for when the column reference
// appears on the right-hand side of "literal OP column".
func flipOp(op string) string {
	switch op {
	case "<":
		return ">"
	case "<=":
		return ">="
	case ">":
		return "<"
	case ">=":
		return "<="
	default:
		return op
	}
}
