package walog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tegdb/internal/dberr"
)

func openTemp(t *testing.T, cfg Config) *Log {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wal.teg")
	l, err := Open(path, cfg)
	require.NoError(t, err)
	return l
}

func TestWriteAndReplay(t *testing.T) {
	l := openTemp(t, Config{})
	defer l.Close()

	require.NoError(t, l.WriteEntry([]byte("a"), []byte("1")))
	require.NoError(t, l.WriteEntry([]byte("b"), []byte("2")))
	require.NoError(t, l.WriteEntry([]byte("a"), nil))

	var got []ReplayEntry
	require.NoError(t, l.ScanForReplay(func(e ReplayEntry) error {
		got = append(got, e)
		return nil
	}))

	require.Len(t, got, 3)
	assert.Equal(t, "a", string(got[0].Key))
	assert.False(t, got[0].IsDel)
	assert.Equal(t, "b", string(got[1].Key))
	assert.Equal(t, "a", string(got[2].Key))
	assert.True(t, got[2].IsDel)
}

func TestReopenPreservesHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.teg")
	l, err := Open(path, Config{})
	require.NoError(t, err)
	require.NoError(t, l.WriteEntry([]byte("k"), []byte("v")))
	require.NoError(t, l.Close())

	l2, err := Open(path, Config{})
	require.NoError(t, err)
	defer l2.Close()

	var count int
	require.NoError(t, l2.ScanForReplay(func(ReplayEntry) error {
		count++
		return nil
	}))
	assert.Equal(t, 1, count)
}

func TestTruncatedTailStopsCleanly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.teg")
	l, err := Open(path, Config{})
	require.NoError(t, err)
	require.NoError(t, l.WriteEntry([]byte("k"), []byte("v")))
	require.NoError(t, l.WriteEntry([]byte("k2"), []byte("v2")))

	// Simulate a crash mid-write by truncating off the last record's tail.
	require.NoError(t, l.file.Truncate(l.offset-3))
	l.offset -= 3

	var got []ReplayEntry
	require.NoError(t, l.ScanForReplay(func(e ReplayEntry) error {
		got = append(got, e)
		return nil
	}))
	require.Len(t, got, 1)
	assert.Equal(t, "k", string(got[0].Key))
}

func TestKeyTooLarge(t *testing.T) {
	l := openTemp(t, Config{MaxKeySize: 4})
	defer l.Close()

	err := l.WriteEntry([]byte("toolong"), []byte("v"))
	assert.True(t, errors.Is(err, dberr.ErrKeyTooLarge))
}

func TestValueTooLarge(t *testing.T) {
	l := openTemp(t, Config{MaxValueSize: 2})
	defer l.Close()

	err := l.WriteEntry([]byte("k"), []byte("toolong"))
	assert.True(t, errors.Is(err, dberr.ErrValueTooLarge))
}

func TestPreallocCapEnforced(t *testing.T) {
	l := openTemp(t, Config{PreallocCap: HeaderSize + 8})
	defer l.Close()

	require.NoError(t, l.WriteEntry(nil, nil))
	err := l.WriteEntry([]byte("k"), []byte("v"))
	assert.True(t, errors.Is(err, dberr.ErrOutOfDiskQuota))
}

func TestOpenRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.teg")
	l, err := Open(path, Config{})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	// Corrupt the header in place.
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("XXXX"), 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(path, Config{})
	assert.True(t, errors.Is(err, dberr.ErrCorruption))
}
