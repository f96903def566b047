package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueStringRendering(t *testing.T) {
	assert.Equal(t, "7", Integer(7).String())
	assert.Equal(t, "3.5", Real(3.5).String())
	assert.Equal(t, "hi", TextValue("hi").String())
	assert.Equal(t, "1,2,3", VectorValue([]float64{1, 2, 3}).String())
	assert.Equal(t, "NULL", Null().String())
	assert.Equal(t, "?2", Parameter(2).String())
}

func TestValueEqualUsesEpsilonForReal(t *testing.T) {
	assert.True(t, Real(1.0).Equal(Real(1.0+1e-16)))
	assert.False(t, Real(1.0).Equal(Real(1.1)))
	assert.False(t, Integer(1).Equal(Real(1)))
}

func TestCompareOrdersIntegerRealText(t *testing.T) {
	c, err := Compare(Integer(1), Integer(2))
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = Compare(Real(2), Real(1))
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	c, err = Compare(TextValue("a"), TextValue("b"))
	require.NoError(t, err)
	assert.Equal(t, -1, c)
}

func TestCompareRejectsMismatchedKinds(t *testing.T) {
	_, err := Compare(Integer(1), TextValue("a"))
	assert.Error(t, err)
}

func TestCompareRejectsNaN(t *testing.T) {
	nan := Real(0).Real
	nan = nan / nan
	_, err := Compare(Real(nan), Real(1))
	assert.Error(t, err)
}

func TestColumnTypeStorageSize(t *testing.T) {
	assert.Equal(t, 8, ColumnType{Kind: ColInteger}.StorageSize())
	assert.Equal(t, 8, ColumnType{Kind: ColReal}.StorageSize())
	assert.Equal(t, 16, ColumnType{Kind: ColText, Param: 16}.StorageSize())
	assert.Equal(t, 24, ColumnType{Kind: ColVector, Param: 3}.StorageSize())
}

func TestColumnTypeString(t *testing.T) {
	assert.Equal(t, "INTEGER", ColumnType{Kind: ColInteger}.String())
	assert.Equal(t, "TEXT(8)", ColumnType{Kind: ColText, Param: 8}.String())
	assert.Equal(t, "VECTOR(4)", ColumnType{Kind: ColVector, Param: 4}.String())
}

func TestEncodePKPreservesIntegerOrder(t *testing.T) {
	k1, err := EncodePK("t", Integer(-5))
	require.NoError(t, err)
	k2, err := EncodePK("t", Integer(5))
	require.NoError(t, err)
	k3, err := EncodePK("t", Integer(100))
	require.NoError(t, err)
	assert.True(t, string(k1) < string(k2))
	assert.True(t, string(k2) < string(k3))
}

func TestEncodePKPreservesRealOrderAcrossSignedZero(t *testing.T) {
	kNeg, err := EncodePK("t", Real(-1.5))
	require.NoError(t, err)
	kZero, err := EncodePK("t", Real(0))
	require.NoError(t, err)
	kPos, err := EncodePK("t", Real(1.5))
	require.NoError(t, err)
	assert.True(t, string(kNeg) < string(kZero))
	assert.True(t, string(kZero) < string(kPos))
}

func TestEncodePKPreservesTextOrder(t *testing.T) {
	k1, err := EncodePK("t", TextValue("alice"))
	require.NoError(t, err)
	k2, err := EncodePK("t", TextValue("bob"))
	require.NoError(t, err)
	assert.True(t, string(k1) < string(k2))
}

func TestEncodePKDifferentTablesDoNotCollide(t *testing.T) {
	k1, err := EncodePK("t", Integer(1))
	require.NoError(t, err)
	k2, err := EncodePK("tt", Integer(1))
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestTableRangeBoundsTableContents(t *testing.T) {
	lo := TablePrefix("t")
	hi := TableEndMarker("t")
	key, err := EncodePK("t", Integer(42))
	require.NoError(t, err)
	assert.True(t, string(lo) <= string(key))
	assert.True(t, string(key) < string(hi))
}

func TestBumpPKIntegerStepsByOne(t *testing.T) {
	v, err := BumpPK(Integer(5))
	require.NoError(t, err)
	assert.Equal(t, int64(6), v.Int)
}

func TestBumpPKRealMovesToNextRepresentable(t *testing.T) {
	v, err := BumpPK(Real(1.0))
	require.NoError(t, err)
	assert.True(t, v.Real > 1.0)
}

func TestBumpPKRejectsVector(t *testing.T) {
	_, err := BumpPK(VectorValue([]float64{1, 2}))
	assert.Error(t, err)
}

func TestKindFromTypeCodeRoundTrips(t *testing.T) {
	for _, k := range []ColumnKind{ColInteger, ColReal, ColText, ColVector} {
		got, err := KindFromTypeCode(k.TypeCode())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
}

func TestKindFromTypeCodeRejectsUnknown(t *testing.T) {
	_, err := KindFromTypeCode(99)
	assert.Error(t, err)
}
