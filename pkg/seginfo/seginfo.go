// Package seginfo names and parses cinder's data files. Each file on disk
// is named "{file_id}.data", where file_id is the decimal representation
// of a u32 with no leading zeros.
//
// Filename Format: N.data
//
// Example filenames:
//
//	0.data
//	1.data
package seginfo

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/cinderdb/cinder/pkg/errors"
	"github.com/cinderdb/cinder/pkg/filesys"
)

// DataFileExtension is the fixed suffix every data file carries.
const DataFileExtension = ".data"

// FileName formats the on-disk filename for the given data file id.
func FileName(id uint32) string {
	return fmt.Sprintf("%d%s", id, DataFileExtension)
}

// ParseFileID extracts the file id from a data file's base name. ok is
// false when name does not end in DataFileExtension at all — such files
// are foreign and must be ignored by the caller. A name that does end in
// DataFileExtension but whose stem is not a valid u32 (or carries leading
// zeros) returns ok=true with a non-nil error: the caller must treat this
// as fatal, per spec.md §4.E step 3.
func ParseFileID(name string) (id uint32, ok bool, err error) {
	if !strings.HasSuffix(name, DataFileExtension) {
		return 0, false, nil
	}

	idStr := strings.TrimSuffix(name, DataFileExtension)
	if idStr == "" || (len(idStr) > 1 && idStr[0] == '0') {
		return 0, true, fmt.Errorf("seginfo: %q does not encode a valid file id", name)
	}

	parsed, parseErr := strconv.ParseUint(idStr, 10, 32)
	if parseErr != nil {
		return 0, true, fmt.Errorf("seginfo: %q does not encode a valid file id: %w", name, parseErr)
	}

	return uint32(parsed), true, nil
}

// ListDataFileIDs scans dataDir and returns every discovered data file id
// in ascending order, the order bootstrap replay must process them in. A
// ".data" file whose name doesn't parse as a file id is fatal
// (DataDirectoryInvalid); non-".data" names are ignored.
func ListDataFileIDs(dataDir string) ([]uint32, error) {
	names, err := filesys.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("seginfo: failed to read data directory %s: %w", dataDir, err)
	}

	ids := make([]uint32, 0, len(names))
	for _, name := range names {
		if filepath.Ext(name) != DataFileExtension {
			continue
		}

		id, matched, parseErr := ParseFileID(name)
		if !matched {
			continue
		}
		if parseErr != nil {
			return nil, errors.NewDataDirectoryInvalidError(name, filepath.Join(dataDir, name), parseErr)
		}

		ids = append(ids, id)
	}

	slices.Sort(ids)
	return ids, nil
}
