package fio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0000000001.data")

	manager, err := Open(path)
	require.NoError(t, err)
	defer manager.Close()

	n, err := manager.Write([]byte("hello world"))
	require.NoError(t, err)
	require.Equal(t, 11, n)

	buf := make([]byte, 5)
	n, err = manager.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf))

	size, err := manager.Size()
	require.NoError(t, err)
	require.Equal(t, int64(11), size)
}

func TestSync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0000000001.data")

	manager, err := Open(path)
	require.NoError(t, err)
	defer manager.Close()

	_, err = manager.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, manager.Sync())
}

func TestTruncateShrinksFileAndAppendResumesAtNewEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0000000001.data")

	manager, err := Open(path)
	require.NoError(t, err)
	defer manager.Close()

	_, err = manager.Write([]byte("hello garbage"))
	require.NoError(t, err)

	require.NoError(t, manager.Truncate(5))

	size, err := manager.Size()
	require.NoError(t, err)
	require.Equal(t, int64(5), size)

	// The file is opened O_APPEND, so the next write must land at the
	// truncated length, not at the stale pre-truncation end.
	_, err = manager.Write([]byte("!"))
	require.NoError(t, err)

	size, err = manager.Size()
	require.NoError(t, err)
	require.Equal(t, int64(6), size)

	buf := make([]byte, 6)
	_, err = manager.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, "hello!", string(buf))
}
