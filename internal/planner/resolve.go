package planner

import (
	"fmt"

	"tegdb/internal/ast"
	"tegdb/internal/dberr"
	"tegdb/internal/types"
)

// resolveExpr replaces every Literal carrying a Parameter value with its
// bound literal from params, recursively walking arithmetic and function
// call arguments. Column references and bare literals pass through as-is.
func resolveExpr(e ast.Expr, params []types.Value) (ast.Expr, error) {
	switch ex := e.(type) {
	case ast.Literal:
		if ex.Value.Kind != types.KindParameter {
			return ex, nil
		}
		if ex.Value.Param < 0 || ex.Value.Param >= len(params) {
			return nil, fmt.Errorf("%w: parameter ?%d out of range (%d bound)", dberr.ErrParseError, ex.Value.Param, len(params))
		}
		return ast.Literal{Value: params[ex.Value.Param]}, nil
	case ast.Column:
		return ex, nil
	case ast.BinaryExpr:
		left, err := resolveExpr(ex.Left, params)
		if err != nil {
			return nil, err
		}
		right, err := resolveExpr(ex.Right, params)
		if err != nil {
			return nil, err
		}
		return ast.BinaryExpr{Op: ex.Op, Left: left, Right: right}, nil
	case ast.FuncCall:
		args := make([]ast.Expr, len(ex.Args))
		for i, a := range ex.Args {
			r, err := resolveExpr(a, params)
			if err != nil {
				return nil, err
			}
			args[i] = r
		}
		return ast.FuncCall{Name: ex.Name, Args: args}, nil
	default:
		return e, nil
	}
}

// resolveCondition walks cond replacing every ?N parameter literal with its
// bound value. A nil cond resolves to nil.
func resolveCondition(cond ast.Condition, params []types.Value) (ast.Condition, error) {
	switch c := cond.(type) {
	case nil:
		return nil, nil
	case ast.And:
		l, err := resolveCondition(c.Left, params)
		if err != nil {
			return nil, err
		}
		r, err := resolveCondition(c.Right, params)
		if err != nil {
			return nil, err
		}
		return ast.And{Left: l, Right: r}, nil
	case ast.Or:
		l, err := resolveCondition(c.Left, params)
		if err != nil {
			return nil, err
		}
		r, err := resolveCondition(c.Right, params)
		if err != nil {
			return nil, err
		}
		return ast.Or{Left: l, Right: r}, nil
	case ast.Comparison:
		l, err := resolveExpr(c.Left, params)
		if err != nil {
			return nil, err
		}
		r, err := resolveExpr(c.Right, params)
		if err != nil {
			return nil, err
		}
		return ast.Comparison{Left: l, Op: c.Op, Right: r}, nil
	case ast.Between:
		low, err := resolveExpr(c.Low, params)
		if err != nil {
			return nil, err
		}
		high, err := resolveExpr(c.High, params)
		if err != nil {
			return nil, err
		}
		return ast.Between{Column: c.Column, Low: low, High: high}, nil
	default:
		return cond, nil
	}
}
