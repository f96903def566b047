package sqltoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func types(items []Item) []Token {
	out := make([]Token, len(items))
	for i, it := range items {
		out[i] = it.Type
	}
	return out
}

func TestTokenizeSimpleSelect(t *testing.T) {
	items, err := Tokenize("SELECT id FROM t WHERE id = 1;")
	require.NoError(t, err)
	assert.Equal(t, []Token{SELECT, IDENT, FROM, IDENT, WHERE, IDENT, EQ, INT, SEMICOLON, EOF}, types(items))
}

func TestTokenizeKeywordsAreCaseInsensitive(t *testing.T) {
	items, err := Tokenize("select")
	require.NoError(t, err)
	assert.Equal(t, SELECT, items[0].Type)
}

func TestTokenizeRealLiteral(t *testing.T) {
	items, err := Tokenize("3.14")
	require.NoError(t, err)
	require.Equal(t, REAL, items[0].Type)
	assert.Equal(t, "3.14", items[0].Value)
}

func TestTokenizeIntDoesNotConsumeTrailingDotWithoutDigit(t *testing.T) {
	items, err := Tokenize("5.")
	require.NoError(t, err)
	assert.Equal(t, INT, items[0].Type)
	assert.Equal(t, "5", items[0].Value)
}

func TestTokenizeParam(t *testing.T) {
	items, err := Tokenize("?0 ?12")
	require.NoError(t, err)
	require.Equal(t, PARAM, items[0].Type)
	assert.Equal(t, "0", items[0].Value)
	assert.Equal(t, "12", items[1].Value)
}

func TestTokenizeParamRequiresDigits(t *testing.T) {
	_, err := Tokenize("?")
	assert.Error(t, err)
}

func TestTokenizeStringEscapes(t *testing.T) {
	items, err := Tokenize(`'it\'s a test\n'`)
	require.NoError(t, err)
	assert.Equal(t, "it's a test\n", items[0].Value)
}

func TestTokenizeUnterminatedStringFails(t *testing.T) {
	_, err := Tokenize("'abc")
	assert.Error(t, err)
}

func TestTokenizeVectorLiteralBrackets(t *testing.T) {
	items, err := Tokenize("[1.0, 2.0]")
	require.NoError(t, err)
	assert.Equal(t, []Token{LBRACKET, REAL, COMMA, REAL, RBRACKET, EOF}, types(items))
}

func TestTokenizeOperators(t *testing.T) {
	items, err := Tokenize("<= >= <> != < >")
	require.NoError(t, err)
	assert.Equal(t, []Token{LTE, GTE, NEQ, NEQ, LT, GT, EOF}, types(items))
}

func TestTokenizeLineComment(t *testing.T) {
	items, err := Tokenize("SELECT 1 -- trailing comment\nFROM t")
	require.NoError(t, err)
	assert.Equal(t, []Token{SELECT, INT, FROM, IDENT, EOF}, types(items))
}

func TestTokenizeBangAloneFails(t *testing.T) {
	_, err := Tokenize("!")
	assert.Error(t, err)
}
