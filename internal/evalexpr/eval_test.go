package evalexpr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tegdb/internal/ast"
	"tegdb/internal/dberr"
	"tegdb/internal/types"
)

func TestEvalLiteralAndColumn(t *testing.T) {
	row := map[string]types.Value{"id": types.Integer(7)}
	v, err := Eval(ast.Literal{Value: types.Integer(1)}, row)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int)

	v, err = Eval(ast.Column{Name: "id"}, row)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Int)
}

func TestEvalColumnUnknownErrors(t *testing.T) {
	_, err := Eval(ast.Column{Name: "nope"}, map[string]types.Value{})
	assert.True(t, errors.Is(err, dberr.ErrSchemaError))
}

func TestEvalBinaryIntegerArithmeticStaysIntegral(t *testing.T) {
	row := map[string]types.Value{}
	e := ast.BinaryExpr{Op: "+", Left: ast.Literal{Value: types.Integer(2)}, Right: ast.Literal{Value: types.Integer(3)}}
	v, err := Eval(e, row)
	require.NoError(t, err)
	assert.Equal(t, types.KindInteger, v.Kind)
	assert.Equal(t, int64(5), v.Int)
}

func TestEvalBinaryMixedPromotesToReal(t *testing.T) {
	e := ast.BinaryExpr{Op: "+", Left: ast.Literal{Value: types.Integer(2)}, Right: ast.Literal{Value: types.Real(0.5)}}
	v, err := Eval(e, map[string]types.Value{})
	require.NoError(t, err)
	assert.Equal(t, types.KindReal, v.Kind)
	assert.Equal(t, 2.5, v.Real)
}

func TestEvalBinaryDivisionByZeroErrors(t *testing.T) {
	e := ast.BinaryExpr{Op: "/", Left: ast.Literal{Value: types.Integer(1)}, Right: ast.Literal{Value: types.Integer(0)}}
	_, err := Eval(e, map[string]types.Value{})
	assert.Error(t, err)
}

func TestEvalDistanceComputesEuclideanNorm(t *testing.T) {
	e := ast.FuncCall{Name: "DISTANCE", Args: []ast.Expr{
		ast.Literal{Value: types.VectorValue([]float64{0, 0})},
		ast.Literal{Value: types.VectorValue([]float64{3, 4})},
	}}
	v, err := Eval(e, map[string]types.Value{})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, v.Real, 1e-9)
}

func TestEvalDistanceRejectsWrongArgCount(t *testing.T) {
	e := ast.FuncCall{Name: "DISTANCE", Args: []ast.Expr{ast.Literal{Value: types.VectorValue([]float64{0})}}}
	_, err := Eval(e, map[string]types.Value{})
	assert.True(t, errors.Is(err, dberr.ErrParseError))
}

func TestEvalDistanceRejectsNonVectorOperands(t *testing.T) {
	e := ast.FuncCall{Name: "DISTANCE", Args: []ast.Expr{
		ast.Literal{Value: types.Integer(1)},
		ast.Literal{Value: types.VectorValue([]float64{0})},
	}}
	_, err := Eval(e, map[string]types.Value{})
	assert.True(t, errors.Is(err, dberr.ErrTypeMismatch))
}

func TestEvalDistanceRejectsDimensionMismatch(t *testing.T) {
	_, err := SquaredEuclidean(types.VectorValue([]float64{0, 0}), types.VectorValue([]float64{1, 1, 1}))
	assert.True(t, errors.Is(err, dberr.ErrTypeMismatch))
}

func TestEvalUnknownFunctionErrors(t *testing.T) {
	_, err := Eval(ast.FuncCall{Name: "NOPE"}, map[string]types.Value{})
	assert.Error(t, err)
}

func TestEvalConditionAndShortCircuitsOnFalseLeft(t *testing.T) {
	cond := ast.And{
		Left:  ast.Comparison{Left: ast.Literal{Value: types.Integer(1)}, Op: "=", Right: ast.Literal{Value: types.Integer(2)}},
		Right: ast.Comparison{Left: ast.Column{Name: "missing"}, Op: "=", Right: ast.Literal{Value: types.Integer(0)}},
	}
	got, err := EvalCondition(cond, map[string]types.Value{})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvalConditionComparisonOperators(t *testing.T) {
	row := map[string]types.Value{}
	cases := []struct {
		op   string
		want bool
	}{
		{"=", false}, {"!=", true}, {"<", true}, {"<=", true}, {">", false}, {">=", false},
	}
	for _, c := range cases {
		cond := ast.Comparison{Left: ast.Literal{Value: types.Integer(1)}, Op: c.op, Right: ast.Literal{Value: types.Integer(2)}}
		got, err := EvalCondition(cond, row)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "op %s", c.op)
	}
}

func TestEvalConditionBetweenInclusive(t *testing.T) {
	row := map[string]types.Value{"score": types.Integer(5)}
	cond := ast.Between{Column: "score", Low: ast.Literal{Value: types.Integer(5)}, High: ast.Literal{Value: types.Integer(10)}}
	got, err := EvalCondition(cond, row)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvalConditionLikeRequiresText(t *testing.T) {
	cond := ast.Comparison{Left: ast.Literal{Value: types.Integer(1)}, Op: "LIKE", Right: ast.Literal{Value: types.TextValue("1")}}
	_, err := EvalCondition(cond, map[string]types.Value{})
	assert.True(t, errors.Is(err, dberr.ErrTypeMismatch))
}

func TestCompareOpLikeSubstringMatch(t *testing.T) {
	ok, err := CompareOp(types.TextValue("hello world"), "LIKE", types.TextValue("wor"))
	require.NoError(t, err)
	assert.True(t, ok)
}
