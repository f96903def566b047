package txn

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tegdb/internal/engine"
)

func openEngine(t *testing.T) *engine.Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.teg")
	e, err := engine.Open(path, engine.Config{AutoCompact: false})
	require.NoError(t, err)
	return e
}

func TestCommitMakesWritesVisible(t *testing.T) {
	e := openEngine(t)
	defer e.Close()

	tx := Begin(e)
	require.NoError(t, tx.Set([]byte("a"), []byte("1")))
	require.NoError(t, tx.Commit())

	v, ok := e.Get([]byte("a"))
	require.True(t, ok)
	assert.Equal(t, "1", string(v))
}

func TestRollbackUndoesWrites(t *testing.T) {
	e := openEngine(t)
	defer e.Close()

	require.NoError(t, e.Set([]byte("a"), []byte("orig")))

	tx := Begin(e)
	require.NoError(t, tx.Set([]byte("a"), []byte("changed")))
	require.NoError(t, tx.Set([]byte("b"), []byte("new")))
	require.NoError(t, tx.Delete([]byte("a")))
	require.NoError(t, tx.Rollback())

	v, ok := e.Get([]byte("a"))
	require.True(t, ok)
	assert.Equal(t, "orig", string(v))

	_, ok = e.Get([]byte("b"))
	assert.False(t, ok)
}

func TestCloseRollsBackUnfinalizedTransaction(t *testing.T) {
	e := openEngine(t)
	defer e.Close()

	tx := Begin(e)
	require.NoError(t, tx.Set([]byte("a"), []byte("1")))
	tx.Close()

	_, ok := e.Get([]byte("a"))
	assert.False(t, ok)
}

func TestCloseIsNoOpAfterCommit(t *testing.T) {
	e := openEngine(t)
	defer e.Close()

	tx := Begin(e)
	require.NoError(t, tx.Set([]byte("a"), []byte("1")))
	require.NoError(t, tx.Commit())
	tx.Close()

	v, ok := e.Get([]byte("a"))
	require.True(t, ok)
	assert.Equal(t, "1", string(v))
}

func TestDoubleFinalizeErrors(t *testing.T) {
	e := openEngine(t)
	defer e.Close()

	tx := Begin(e)
	require.NoError(t, tx.Commit())
	assert.Error(t, tx.Commit())
	assert.Error(t, tx.Rollback())
}

func TestReadOnlyCommitWritesNoMarker(t *testing.T) {
	e := openEngine(t)
	defer e.Close()

	before := e.LogSize()
	tx := Begin(e)
	_, _ = tx.Get([]byte("missing"))
	require.NoError(t, tx.Commit())

	assert.Equal(t, before, e.LogSize())
}
