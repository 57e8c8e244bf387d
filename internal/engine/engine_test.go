package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cinderdb/cinder/pkg/options"
	"github.com/cinderdb/cinder/pkg/seginfo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T, mutators ...options.OptionFunc) *Config {
	t.Helper()

	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	for _, m := range mutators {
		m(&opts)
	}

	return &Config{Options: &opts, Logger: zap.NewNop().Sugar()}
}

func TestOpenCreatesFreshEngine(t *testing.T) {
	eng, err := Open(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer eng.Close()

	stats := eng.Stats()
	require.Equal(t, 0, stats.KeyCount)
	require.Equal(t, uint32(0), stats.ActiveFileID)
}

func TestPutGetDelete(t *testing.T) {
	eng, err := Open(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer eng.Close()

	require.NoError(t, eng.Put([]byte("k1"), []byte("v1")))

	value, err := eng.Get([]byte("k1"))
	require.NoError(t, err)
	require.Equal(t, "v1", string(value))

	require.NoError(t, eng.Delete([]byte("k1")))
	_, err = eng.Get([]byte("k1"))
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestPutRejectsEmptyKey(t *testing.T) {
	eng, err := Open(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer eng.Close()

	require.ErrorIs(t, eng.Put(nil, []byte("v")), ErrKeyEmpty)
}

func TestDeleteMissingKeyIsNoop(t *testing.T) {
	eng, err := Open(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer eng.Close()

	require.NoError(t, eng.Delete([]byte("missing")))
}

func TestOperationsFailAfterClose(t *testing.T) {
	eng, err := Open(context.Background(), testConfig(t))
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	require.ErrorIs(t, eng.Close(), ErrEngineClosed)
	require.ErrorIs(t, eng.Put([]byte("k"), []byte("v")), ErrEngineClosed)
	_, err = eng.Get([]byte("k"))
	require.ErrorIs(t, err, ErrEngineClosed)
}

func TestRotationCreatesNewActiveFile(t *testing.T) {
	eng, err := Open(context.Background(), testConfig(t, options.WithFileSize(options.MinFileSize)))
	require.NoError(t, err)
	defer eng.Close()

	value := make([]byte, 1024)
	for i := 0; i < 2000; i++ {
		require.NoError(t, eng.Put([]byte(fmt.Sprintf("key-%d", i)), value))
	}

	stats := eng.Stats()
	require.Greater(t, stats.DataFileCount, 1)
	require.Greater(t, stats.ActiveFileID, uint32(0))
}

func TestReopenReplaysWrites(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.DataDir = dir
	log := zap.NewNop().Sugar()

	eng, err := Open(context.Background(), &Config{Options: &opts, Logger: log})
	require.NoError(t, err)
	require.NoError(t, eng.Put([]byte("persisted"), []byte("value")))
	require.NoError(t, eng.Put([]byte("removed"), []byte("value")))
	require.NoError(t, eng.Delete([]byte("removed")))
	require.NoError(t, eng.Close())

	reopened, err := Open(context.Background(), &Config{Options: &opts, Logger: log})
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Get([]byte("persisted"))
	require.NoError(t, err)
	require.Equal(t, "value", string(value))

	_, err = reopened.Get([]byte("removed"))
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestReopenTruncatesTornWrite(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.DataDir = dir
	log := zap.NewNop().Sugar()

	eng, err := Open(context.Background(), &Config{Options: &opts, Logger: log})
	require.NoError(t, err)
	require.NoError(t, eng.Put([]byte("intact"), []byte("value")))
	require.NoError(t, eng.Close())

	path := filepath.Join(dir, seginfo.FileName(0))
	intactSize, err := os.Stat(path)
	require.NoError(t, err)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.Write([]byte{0xFF, 0xFF, 0xFF})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := Open(context.Background(), &Config{Options: &opts, Logger: log})
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Get([]byte("intact"))
	require.NoError(t, err)
	require.Equal(t, "value", string(value))

	// Bootstrap must have truncated the torn tail away, not just moved
	// the in-memory cursor back, or the next append would land past the
	// tracked write offset on disk (the file is opened O_APPEND).
	stat, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, intactSize.Size(), stat.Size())

	require.NoError(t, reopened.Put([]byte("after-recovery"), []byte("ok")))

	afterRecovery, err := reopened.Get([]byte("after-recovery"))
	require.NoError(t, err)
	require.Equal(t, "ok", string(afterRecovery))

	// And the earlier key, sharing the same file, must still be intact.
	value, err = reopened.Get([]byte("intact"))
	require.NoError(t, err)
	require.Equal(t, "value", string(value))
}

func TestOpenFailsOnMidLogCorruption(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.DataDir = dir
	log := zap.NewNop().Sugar()

	eng, err := Open(context.Background(), &Config{Options: &opts, Logger: log})
	require.NoError(t, err)
	require.NoError(t, eng.Put([]byte("k1"), []byte("v1")))
	require.NoError(t, eng.Put([]byte("k2"), []byte("v2")))
	require.NoError(t, eng.Close())

	path := filepath.Join(dir, seginfo.FileName(0))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Flip a byte inside the first record's value, well before the
	// physical end of the file. A second, intact record follows it, so
	// this is mid-log corruption, not a torn tail, and must abort Open
	// rather than be silently treated as end-of-log.
	data[20] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = Open(context.Background(), &Config{Options: &opts, Logger: log})
	require.Error(t, err)
}
