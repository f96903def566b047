// Package ast defines the statement tree the parser (L5) produces: scalar
// expressions, boolean conditions, and top-level statements. It has no
// dependency on the engine, catalog, or executor, so it is shared freely by
// the row codec's predicate pushdown, the planner, and the executor's
// expression evaluator.
package ast

import "tegdb/internal/types"

// Expr is a scalar expression: a literal, a column reference, an
// arithmetic combination, or a function call.
type Expr interface{ exprNode() }

// Literal is a constant value appearing in SQL text (including an
// unresolved ?N parameter placeholder, carried as types.Parameter).
type Literal struct{ Value types.Value }

// Column is a bare column-name reference.
type Column struct{ Name string }

// BinaryExpr is an arithmetic combination: left Op right, for
// Op in {"+", "-", "*", "/"}.
type BinaryExpr struct {
	Op          string
	Left, Right Expr
}

// FuncCall is a function invocation, e.g. DISTANCE(col, [0,0]).
type FuncCall struct {
	Name string
	Args []Expr
}

func (Literal) exprNode()    {}
func (Column) exprNode()     {}
func (BinaryExpr) exprNode() {}
func (FuncCall) exprNode()   {}

// Condition is a boolean expression appearing in a WHERE clause.
type Condition interface{ condNode() }

// Comparison is Left Op Right, where Op is one of "=", "!=", "<", "<=",
// ">", ">=", "LIKE".
type Comparison struct {
	Left  Expr
	Op    string
	Right Expr
}

// Between is "ident BETWEEN Low AND High".
type Between struct {
	Column    string
	Low, High Expr
}

// And is Left AND Right.
type And struct{ Left, Right Condition }

// Or is Left OR Right.
type Or struct{ Left, Right Condition }

func (Comparison) condNode() {}
func (Between) condNode()    {}
func (And) condNode()        {}
func (Or) condNode()         {}
