// Package fio is the I/O Manager: the thin capability boundary between a
// data file and the raw file descriptor backing it. Everything above this
// package talks to IOManager, never to *os.File directly.
package fio

import (
	"os"
	"sync"

	"github.com/cinderdb/cinder/pkg/errors"
)

// IOManager is the minimal set of operations a data file needs from the
// underlying file handle: positional reads, appending writes, durability,
// and lifecycle.
type IOManager interface {
	// ReadAt reads len(buf) bytes starting at the given offset.
	ReadAt(buf []byte, offset int64) (int, error)

	// Write appends buf to the file and returns the number of bytes written.
	Write(buf []byte) (int, error)

	// Sync flushes any buffered data to stable storage.
	Sync() error

	// Size returns the current file size in bytes.
	Size() (int64, error)

	// Truncate shrinks (or grows) the file to exactly size bytes. Used
	// during recovery to discard a torn write past the last valid record.
	Truncate(size int64) error

	// Close releases the underlying file handle.
	Close() error
}

// fileManager is the only IOManager implementation: a single *os.File
// guarded by a mutex so concurrent writers never interleave partial writes.
type fileManager struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// Open opens (creating if necessary) the file at path for append-only
// writes plus positional reads.
func Open(path string) (IOManager, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, path, filenameOf(path))
	}

	return &fileManager{file: file, path: path}, nil
}

func filenameOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

func (f *fileManager) ReadAt(buf []byte, offset int64) (int, error) {
	n, err := f.file.ReadAt(buf, offset)
	if err != nil {
		return n, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read from data file").
			WithPath(f.path).
			WithOffset(int(offset))
	}
	return n, nil
}

func (f *fileManager) Write(buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, err := f.file.Write(buf)
	if err != nil {
		return n, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write to data file").
			WithPath(f.path)
	}
	return n, nil
}

func (f *fileManager) Sync() error {
	if err := f.file.Sync(); err != nil {
		return errors.ClassifySyncError(err, filenameOf(f.path), f.path, 0)
	}
	return nil
}

func (f *fileManager) Size() (int64, error) {
	stat, err := f.file.Stat()
	if err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat data file").
			WithPath(f.path)
	}
	return stat.Size(), nil
}

func (f *fileManager) Truncate(size int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.file.Truncate(size); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to truncate data file").
			WithPath(f.path).
			WithOffset(int(size))
	}
	return nil
}

func (f *fileManager) Close() error {
	return f.file.Close()
}
