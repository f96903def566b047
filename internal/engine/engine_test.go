package engine

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tegdb/internal/dberr"
)

func openTemp(t *testing.T, cfg Config) *Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.teg")
	e, err := Open(path, cfg)
	require.NoError(t, err)
	return e
}

func TestSetGetDelete(t *testing.T) {
	e := openTemp(t, Config{AutoCompact: false})
	defer e.Close()

	require.NoError(t, e.Set([]byte("a"), []byte("1")))
	v, ok := e.Get([]byte("a"))
	require.True(t, ok)
	assert.Equal(t, "1", string(v))

	require.NoError(t, e.Delete([]byte("a")))
	_, ok = e.Get([]byte("a"))
	assert.False(t, ok)
}

func TestScanOrdersByKey(t *testing.T) {
	e := openTemp(t, Config{AutoCompact: false})
	defer e.Close()

	for _, k := range []string{"c", "a", "b"} {
		require.NoError(t, e.Set([]byte(k), []byte("v")))
	}

	it := e.Scan(nil, nil)
	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestScanHalfOpenRange(t *testing.T) {
	e := openTemp(t, Config{AutoCompact: false})
	defer e.Close()

	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, e.Set([]byte(k), []byte("v")))
	}

	it := e.Scan([]byte("b"), []byte("d"))
	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	assert.Equal(t, []string{"b", "c"}, got)
}

func TestReplayRecoversCommittedWritesOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.teg")
	e, err := Open(path, Config{AutoCompact: false})
	require.NoError(t, err)

	require.NoError(t, e.Set([]byte("committed"), []byte("1")))
	require.NoError(t, e.WriteCommitMarker())
	require.NoError(t, e.Set([]byte("uncommitted"), []byte("2")))
	require.NoError(t, e.Close())

	e2, err := Open(path, Config{AutoCompact: false})
	require.NoError(t, err)
	defer e2.Close()

	v, ok := e2.Get([]byte("committed"))
	require.True(t, ok)
	assert.Equal(t, "1", string(v))

	_, ok = e2.Get([]byte("uncommitted"))
	assert.False(t, ok, "writes after the last commit marker must be rolled back on replay")
}

func TestResidentKeysCapEnforced(t *testing.T) {
	e := openTemp(t, Config{AutoCompact: false, ResidentKeysCap: 1})
	defer e.Close()

	require.NoError(t, e.Set([]byte("a"), []byte("1")))
	err := e.Set([]byte("b"), []byte("2"))
	assert.True(t, errors.Is(err, dberr.ErrOutOfMemoryQuota))
}

func TestCompactionPreservesContent(t *testing.T) {
	e := openTemp(t, Config{AutoCompact: false})
	defer e.Close()

	require.NoError(t, e.Set([]byte("a"), []byte("1")))
	require.NoError(t, e.Set([]byte("b"), []byte("2")))
	require.NoError(t, e.Set([]byte("a"), []byte("3")))
	require.NoError(t, e.Delete([]byte("b")))

	before := snapshot(e)
	require.NoError(t, e.Compact())
	after := snapshot(e)

	assert.Equal(t, before, after)
	assert.Equal(t, map[string]string{"a": "3"}, after)
}

func snapshot(e *Engine) map[string]string {
	out := map[string]string{}
	it := e.Scan(nil, nil)
	for it.Next() {
		out[string(it.Key())] = string(it.Value())
	}
	return out
}

func TestUnsupportedExtensionRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.sqlite")
	_, err := Open(path, Config{})
	assert.True(t, errors.Is(err, dberr.ErrUnsupportedExtension))
}
