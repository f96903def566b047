package catalog

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tegdb/internal/dberr"
	"tegdb/internal/engine"
	"tegdb/internal/types"
)

func openEngine(t *testing.T) *engine.Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.teg")
	e, err := engine.Open(path, engine.Config{AutoCompact: false})
	require.NoError(t, err)
	return e
}

func sampleSchema(t *testing.T, table string) *Schema {
	t.Helper()
	cols := []*Column{
		{Name: "id", Type: types.ColumnType{Kind: types.ColInteger}, Constraints: []Constraint{ConstraintPrimaryKey}},
		{Name: "name", Type: types.ColumnType{Kind: types.ColText, Param: 8}},
	}
	s, err := NewSchema(table, cols)
	require.NoError(t, err)
	return s
}

func TestNewSchemaRejectsCompositePrimaryKey(t *testing.T) {
	cols := []*Column{
		{Name: "a", Type: types.ColumnType{Kind: types.ColInteger}, Constraints: []Constraint{ConstraintPrimaryKey}},
		{Name: "b", Type: types.ColumnType{Kind: types.ColInteger}, Constraints: []Constraint{ConstraintPrimaryKey}},
	}
	_, err := NewSchema("t", cols)
	assert.True(t, errors.Is(err, dberr.ErrSchemaError))
}

func TestNewSchemaRequiresPrimaryKey(t *testing.T) {
	cols := []*Column{{Name: "a", Type: types.ColumnType{Kind: types.ColInteger}}}
	_, err := NewSchema("t", cols)
	assert.True(t, errors.Is(err, dberr.ErrSchemaError))
}

func TestNewSchemaRejectsUnboundedTextOrVector(t *testing.T) {
	cols := []*Column{
		{Name: "id", Type: types.ColumnType{Kind: types.ColInteger}, Constraints: []Constraint{ConstraintPrimaryKey}},
		{Name: "name", Type: types.ColumnType{Kind: types.ColText}},
	}
	_, err := NewSchema("t", cols)
	assert.True(t, errors.Is(err, dberr.ErrSchemaError))
}

func TestCreateTableAndLoadRoundTrip(t *testing.T) {
	e := openEngine(t)
	defer e.Close()

	c, err := Load(e)
	require.NoError(t, err)

	schema := sampleSchema(t, "users")
	require.NoError(t, c.CreateTable(e, schema))

	c2, err := Load(e)
	require.NoError(t, err)

	got, ok := c2.TableSchema("users")
	require.True(t, ok)
	assert.Equal(t, schema.RecordSize, got.RecordSize)
	assert.Equal(t, schema.PrimaryKey, got.PrimaryKey)
	assert.Len(t, got.Columns, 2)
}

func TestCreateTableDuplicateFails(t *testing.T) {
	e := openEngine(t)
	defer e.Close()
	c, err := Load(e)
	require.NoError(t, err)

	schema := sampleSchema(t, "users")
	require.NoError(t, c.CreateTable(e, schema))

	err = c.CreateTable(e, sampleSchema(t, "users"))
	assert.True(t, errors.Is(err, dberr.ErrSchemaError))
}

func TestDropTableRemovesSchemaIndexesAndRows(t *testing.T) {
	e := openEngine(t)
	defer e.Close()
	c, err := Load(e)
	require.NoError(t, err)

	schema := sampleSchema(t, "users")
	require.NoError(t, c.CreateTable(e, schema))
	require.NoError(t, c.CreateIndex(e, &IndexDescriptor{Name: "users_name_idx", Table: "users", Column: "name"}))
	require.NoError(t, e.Set(types.TablePrefix("users"), []byte("placeholder")))

	require.NoError(t, c.DropTable(e, "users"))

	_, ok := c.TableSchema("users")
	assert.False(t, ok)
	_, ok = c.IndexByName("users_name_idx")
	assert.False(t, ok)
	_, ok = e.Get(types.TablePrefix("users"))
	assert.False(t, ok)
}

func TestDropTableUnknownFails(t *testing.T) {
	e := openEngine(t)
	defer e.Close()
	c, err := Load(e)
	require.NoError(t, err)

	err = c.DropTable(e, "nope")
	assert.True(t, errors.Is(err, dberr.ErrSchemaError))
}

func TestCreateIndexDuplicateNameFails(t *testing.T) {
	e := openEngine(t)
	defer e.Close()
	c, err := Load(e)
	require.NoError(t, err)
	require.NoError(t, c.CreateTable(e, sampleSchema(t, "users")))

	desc := &IndexDescriptor{Name: "idx1", Table: "users", Column: "name"}
	require.NoError(t, c.CreateIndex(e, desc))
	err = c.CreateIndex(e, desc)
	assert.True(t, errors.Is(err, dberr.ErrSchemaError))
}
