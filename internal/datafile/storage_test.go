package datafile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cinderdb/cinder/internal/codec"
	"github.com/cinderdb/cinder/pkg/seginfo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()
	return zap.NewNop().Sugar()
}

func TestOpenAssignsFileID(t *testing.T) {
	dir := t.TempDir()

	df, err := Open(dir, 7, testLogger(t))
	require.NoError(t, err)
	defer df.Close()

	require.Equal(t, uint32(7), df.ID())
	require.Equal(t, int64(0), df.WriteOffset())
}

func TestSetWriteOffset(t *testing.T) {
	dir := t.TempDir()

	df, err := Open(dir, 1, testLogger(t))
	require.NoError(t, err)
	defer df.Close()

	df.SetWriteOffset(42)
	require.Equal(t, int64(42), df.WriteOffset())
}

func TestWriteThenReadRecord(t *testing.T) {
	dir := t.TempDir()

	df, err := Open(dir, 1, testLogger(t))
	require.NoError(t, err)
	defer df.Close()

	record := codec.Record{Type: codec.RecordNormal, Key: []byte("k1"), Value: []byte("v1")}
	offset, err := df.Write(record)
	require.NoError(t, err)
	require.Equal(t, int64(0), offset)

	got, frameSize, err := df.ReadRecord(offset)
	require.NoError(t, err)
	require.Equal(t, record.Size(), frameSize)
	require.Equal(t, "k1", string(got.Key))
	require.Equal(t, "v1", string(got.Value))
}

func TestReopenPicksUpWriteOffset(t *testing.T) {
	dir := t.TempDir()

	df, err := Open(dir, 1, testLogger(t))
	require.NoError(t, err)

	record := codec.Record{Type: codec.RecordNormal, Key: []byte("a"), Value: []byte("b")}
	_, err = df.Write(record)
	require.NoError(t, err)
	require.NoError(t, df.Close())

	reopened, err := Open(dir, 1, testLogger(t))
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, record.Size(), reopened.WriteOffset())
}

func TestReadRecordPastEndOfFileIsEOF(t *testing.T) {
	dir := t.TempDir()

	df, err := Open(dir, 1, testLogger(t))
	require.NoError(t, err)
	defer df.Close()

	_, _, err = df.ReadRecord(0)
	require.ErrorIs(t, err, ErrReadDataFileEOF)
}

func TestReadRecordTruncatedTrailingFrameIsEOF(t *testing.T) {
	dir := t.TempDir()

	df, err := Open(dir, 1, testLogger(t))
	require.NoError(t, err)

	record := codec.Record{Type: codec.RecordNormal, Key: []byte("k"), Value: []byte("value")}
	offset, err := df.Write(record)
	require.NoError(t, err)
	require.NoError(t, df.Close())

	// Truncate away the last few bytes, simulating a crash mid-write.
	path := filepath.Join(dir, seginfo.FileName(1))
	require.NoError(t, os.Truncate(path, record.Size()-3))

	reopened, err := Open(dir, 1, testLogger(t))
	require.NoError(t, err)
	defer reopened.Close()

	_, _, err = reopened.ReadRecord(offset)
	require.ErrorIs(t, err, ErrReadDataFileEOF)
}

func TestReadRecordChecksumMismatchIsNotEOF(t *testing.T) {
	dir := t.TempDir()

	df, err := Open(dir, 1, testLogger(t))
	require.NoError(t, err)

	record := codec.Record{Type: codec.RecordNormal, Key: []byte("k"), Value: []byte("value")}
	offset, err := df.Write(record)
	require.NoError(t, err)
	require.NoError(t, df.Sync())
	require.NoError(t, df.Close())

	path := filepath.Join(dir, seginfo.FileName(1))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0644))

	reopened, err := Open(dir, 1, testLogger(t))
	require.NoError(t, err)
	defer reopened.Close()

	_, _, err = reopened.ReadRecord(offset)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrReadDataFileEOF))
}

func TestTruncateResetsWriteOffsetAndDiscardsTail(t *testing.T) {
	dir := t.TempDir()

	df, err := Open(dir, 1, testLogger(t))
	require.NoError(t, err)
	defer df.Close()

	record := codec.Record{Type: codec.RecordNormal, Key: []byte("a"), Value: []byte("b")}
	_, err = df.Write(record)
	require.NoError(t, err)
	_, err = df.io.Write([]byte{0xFF, 0xFF, 0xFF})
	require.NoError(t, err)

	require.NoError(t, df.Truncate(record.Size()))
	require.Equal(t, record.Size(), df.WriteOffset())

	size, err := df.io.Size()
	require.NoError(t, err)
	require.Equal(t, record.Size(), size)

	// Writing again must land immediately after the truncated record,
	// not at the stale, longer length the kernel would otherwise append to.
	next := codec.Record{Type: codec.RecordNormal, Key: []byte("c"), Value: []byte("d")}
	nextOffset, err := df.Write(next)
	require.NoError(t, err)
	require.Equal(t, record.Size(), nextOffset)

	got, _, err := df.ReadRecord(nextOffset)
	require.NoError(t, err)
	require.Equal(t, "c", string(got.Key))
}
