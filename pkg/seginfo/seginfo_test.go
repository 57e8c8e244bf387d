package seginfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileNameRoundTrip(t *testing.T) {
	name := FileName(42)
	require.Equal(t, "42.data", name)

	id, ok, err := ParseFileID(name)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(42), id)
}

func TestFileNameHasNoLeadingZeros(t *testing.T) {
	require.Equal(t, "0.data", FileName(0))
}

func TestParseFileIDIgnoresNonDataFiles(t *testing.T) {
	_, ok, err := ParseFileID("notes.txt")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParseFileIDRejectsLeadingZeros(t *testing.T) {
	_, ok, err := ParseFileID("007.data")
	require.True(t, ok)
	require.Error(t, err)
}

func TestParseFileIDRejectsNonNumericStem(t *testing.T) {
	_, ok, err := ParseFileID("abc.data")
	require.True(t, ok)
	require.Error(t, err)
}

func TestListDataFileIDsSortsAscending(t *testing.T) {
	dir := t.TempDir()

	for _, id := range []uint32{3, 1, 2} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName(id)), nil, 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hint.txt"), nil, 0644))

	ids, err := ListDataFileIDs(dir)
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2, 3}, ids)
}

func TestListDataFileIDsFailsOnInvalidDataFileName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc.data"), nil, 0644))

	_, err := ListDataFileIDs(dir)
	require.Error(t, err)
}
