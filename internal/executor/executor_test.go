package executor

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

func newExecutor(t *testing.T) *Executor {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.teg")
	e, err := engine.Open(path, engine.Config{AutoCompact: false})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	ex, err := New(e)
	require.NoError(t, err)
	t.Cleanup(ex.Close)
	return ex
}

func run(t *testing.T, ex *Executor, sql string, params ...types.Value) *Result {
	t.Helper()
	res, err := ex.ExecuteSQL(sql, params)
	require.NoError(t, err)
	return res
}

func collectRows(t *testing.T, res *Result) [][]types.Value {
	t.Helper()
	var rows [][]types.Value
	for res.Rows.Next() {
		rows = append(rows, append([]types.Value(nil), res.Rows.Row()...))
	}
	require.NoError(t, res.Rows.Err())
	return rows
}

func TestCreateInsertSelectRoundTrip(t *testing.T) {
	ex := newExecutor(t)
	run(t, ex, "BEGIN")
	run(t, ex, "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT(8))")
	res := run(t, ex, "INSERT INTO t VALUES (1, 'a'), (2, 'b')")
	assert.Equal(t, 2, res.Affected)
	run(t, ex, "COMMIT")

	run(t, ex, "BEGIN")
	sel := run(t, ex, "SELECT * FROM t ORDER BY id")
	rows := collectRows(t, sel)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0][0].Int)
	assert.Equal(t, int64(2), rows[1][0].Int)
	run(t, ex, "COMMIT")
}

func TestSelectRequiresActiveTransaction(t *testing.T) {
	ex := newExecutor(t)
	run(t, ex, "BEGIN")
	run(t, ex, "CREATE TABLE t (id INTEGER PRIMARY KEY)")
	run(t, ex, "COMMIT")

	_, err := ex.ExecuteSQL("SELECT * FROM t", nil)
	assert.True(t, errors.Is(err, dberr.ErrNoActiveTransaction))
}

func TestBeginTwiceErrors(t *testing.T) {
	ex := newExecutor(t)
	run(t, ex, "BEGIN")
	_, err := ex.ExecuteSQL("BEGIN", nil)
	assert.True(t, errors.Is(err, dberr.ErrTransactionAlreadyActive))
}

func TestCommitWithoutBeginErrors(t *testing.T) {
	ex := newExecutor(t)
	_, err := ex.ExecuteSQL("COMMIT", nil)
	assert.True(t, errors.Is(err, dberr.ErrNoActiveTransaction))
}

func TestRollbackUndoesInsert(t *testing.T) {
	ex := newExecutor(t)
	run(t, ex, "BEGIN")
	run(t, ex, "CREATE TABLE t (id INTEGER PRIMARY KEY)")
	run(t, ex, "COMMIT")

	run(t, ex, "BEGIN")
	run(t, ex, "INSERT INTO t VALUES (1)")
	run(t, ex, "ROLLBACK")

	run(t, ex, "BEGIN")
	sel := run(t, ex, "SELECT * FROM t")
	rows := collectRows(t, sel)
	assert.Len(t, rows, 0)
	run(t, ex, "COMMIT")
}

func TestInsertDuplicatePrimaryKeyRejected(t *testing.T) {
	ex := newExecutor(t)
	run(t, ex, "BEGIN")
	run(t, ex, "CREATE TABLE t (id INTEGER PRIMARY KEY)")
	run(t, ex, "INSERT INTO t VALUES (1)")
	_, err := ex.ExecuteSQL("INSERT INTO t VALUES (1)", nil)
	assert.True(t, errors.Is(err, dberr.ErrConstraintViolation))
	run(t, ex, "ROLLBACK")
}

func TestUpdateChangingPrimaryKeyMovesRow(t *testing.T) {
	ex := newExecutor(t)
	run(t, ex, "BEGIN")
	run(t, ex, "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT(8))")
	run(t, ex, "INSERT INTO t VALUES (1, 'a')")
	run(t, ex, "COMMIT")

	run(t, ex, "BEGIN")
	res := run(t, ex, "UPDATE t SET id = 2 WHERE id = 1")
	assert.Equal(t, 1, res.Affected)
	run(t, ex, "COMMIT")

	run(t, ex, "BEGIN")
	sel := run(t, ex, "SELECT * FROM t WHERE id = 2")
	rows := collectRows(t, sel)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0][0].Int)

	sel2 := run(t, ex, "SELECT * FROM t WHERE id = 1")
	rows2 := collectRows(t, sel2)
	assert.Len(t, rows2, 0)
	run(t, ex, "COMMIT")
}

func TestUniqueIndexConflictRejected(t *testing.T) {
	ex := newExecutor(t)
	run(t, ex, "BEGIN")
	run(t, ex, "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT(8))")
	run(t, ex, "CREATE UNIQUE INDEX name_idx ON t (name)")
	run(t, ex, "INSERT INTO t VALUES (1, 'a')")
	_, err := ex.ExecuteSQL("INSERT INTO t VALUES (2, 'a')", nil)
	assert.True(t, errors.Is(err, dberr.ErrConstraintViolation))
	run(t, ex, "ROLLBACK")
}

func TestCreateIndexBackfillsExistingRows(t *testing.T) {
	ex := newExecutor(t)
	run(t, ex, "BEGIN")
	run(t, ex, "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT(8))")
	run(t, ex, "INSERT INTO t VALUES (1, 'a'), (2, 'a')")
	_, err := ex.ExecuteSQL("CREATE UNIQUE INDEX name_idx ON t (name)", nil)
	assert.True(t, errors.Is(err, dberr.ErrConstraintViolation))
	run(t, ex, "ROLLBACK")
}

func TestDeleteRemovesRowAndIndexEntries(t *testing.T) {
	ex := newExecutor(t)
	run(t, ex, "BEGIN")
	run(t, ex, "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT(8))")
	run(t, ex, "CREATE UNIQUE INDEX name_idx ON t (name)")
	run(t, ex, "INSERT INTO t VALUES (1, 'a')")
	run(t, ex, "COMMIT")

	run(t, ex, "BEGIN")
	res := run(t, ex, "DELETE FROM t WHERE id = 1")
	assert.Equal(t, 1, res.Affected)
	run(t, ex, "COMMIT")

	run(t, ex, "BEGIN")
	run(t, ex, "INSERT INTO t VALUES (2, 'a')")
	run(t, ex, "COMMIT")
}

func TestVectorDistanceOrderByReturnsNearestFirst(t *testing.T) {
	ex := newExecutor(t)
	run(t, ex, "BEGIN")
	run(t, ex, "CREATE TABLE e (id INTEGER PRIMARY KEY, emb VECTOR(2))")
	run(t, ex, "INSERT INTO e VALUES (1, [0, 0]), (2, [3, 4]), (3, [10, 10])")
	run(t, ex, "COMMIT")

	run(t, ex, "BEGIN")
	sel := run(t, ex, "SELECT id FROM e ORDER BY DISTANCE(emb, [0, 0]) LIMIT 2")
	rows := collectRows(t, sel)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0][0].Int)
	assert.Equal(t, int64(2), rows[1][0].Int)
	run(t, ex, "COMMIT")
}

func TestPrimaryKeyRangeScanRespectsBounds(t *testing.T) {
	ex := newExecutor(t)
	run(t, ex, "BEGIN")
	run(t, ex, "CREATE TABLE t (id INTEGER PRIMARY KEY)")
	run(t, ex, "INSERT INTO t VALUES (1), (2), (3), (4), (5)")
	run(t, ex, "COMMIT")

	run(t, ex, "BEGIN")
	sel := run(t, ex, "SELECT id FROM t WHERE id > 1 AND id <= 4")
	rows := collectRows(t, sel)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(2), rows[0][0].Int)
	assert.Equal(t, int64(4), rows[2][0].Int)
	run(t, ex, "COMMIT")
}

func TestParameterizedInsertAndSelect(t *testing.T) {
	ex := newExecutor(t)
	run(t, ex, "BEGIN")
	run(t, ex, "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT(8))")
	run(t, ex, "COMMIT")

	run(t, ex, "BEGIN")
	run(t, ex, "INSERT INTO t VALUES (?0, ?1)", types.Integer(1), types.TextValue("zed"))
	sel := run(t, ex, "SELECT name FROM t WHERE id = ?0", types.Integer(1))
	rows := collectRows(t, sel)
	require.Len(t, rows, 1)
	assert.Equal(t, "zed", rows[0][0].Text)
	run(t, ex, "COMMIT")
}

func TestDropTableRemovesRowsAndSchema(t *testing.T) {
	ex := newExecutor(t)
	run(t, ex, "BEGIN")
	run(t, ex, "CREATE TABLE t (id INTEGER PRIMARY KEY)")
	run(t, ex, "INSERT INTO t VALUES (1)")
	run(t, ex, "DROP TABLE t")
	run(t, ex, "COMMIT")

	run(t, ex, "BEGIN")
	_, err := ex.ExecuteSQL("SELECT * FROM t", nil)
	assert.True(t, errors.Is(err, dberr.ErrSchemaError))
	run(t, ex, "ROLLBACK")
}
