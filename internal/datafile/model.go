package datafile

import (
	"sync/atomic"

	"github.com/cinderdb/cinder/internal/fio"
	"go.uber.org/zap"
)

// DataFile represents a single append-only file on disk, named
// "{file_id}.data" by pkg/seginfo. Exactly one DataFile per engine is
// ever the active (writable) one; the rest are read-only once rotated
// past. Size bookkeeping is kept in an atomic so readers never need to
// take a lock just to check the current write offset.
type DataFile struct {
	id          uint32
	io          fio.IOManager
	writeOffset atomic.Int64
	log         *zap.SugaredLogger
}

// ID returns the file id encoded in this data file's name.
func (df *DataFile) ID() uint32 {
	return df.id
}

// WriteOffset returns the current end-of-file write cursor.
func (df *DataFile) WriteOffset() int64 {
	return df.writeOffset.Load()
}

// SetWriteOffset overwrites the write cursor without touching the
// underlying file. Exposed for callers that have independently verified
// the file's physical length already matches offset; recovery from a
// torn write must use Truncate instead, since the file is opened
// O_APPEND and a shorter cursor alone would not shrink it.
func (df *DataFile) SetWriteOffset(offset int64) {
	df.writeOffset.Store(offset)
}

// Truncate discards everything in the file past offset and resets the
// write cursor to match. Bootstrap replay calls this when it stops
// before the physical end of the file — a torn write left by a crash —
// so the file's O_APPEND cursor and the tracked write offset agree
// again; otherwise the next append would land past offset, at the
// file's true (garbage-laden) end, while the index records offset.
func (df *DataFile) Truncate(offset int64) error {
	if err := df.io.Truncate(offset); err != nil {
		return err
	}
	df.writeOffset.Store(offset)
	return nil
}
