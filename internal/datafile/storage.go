// Package datafile implements the Data File component: one append-only
// file on disk plus the logic to append to and positionally read
// cinder's record log. Rotating between files is done by the engine.
package datafile

import (
	stderrors "errors"
	"io"
	"path/filepath"

	"github.com/cinderdb/cinder/internal/codec"
	"github.com/cinderdb/cinder/internal/fio"
	"github.com/cinderdb/cinder/pkg/errors"
	"github.com/cinderdb/cinder/pkg/seginfo"
	"go.uber.org/zap"
)

// ErrReadDataFileEOF marks a read that lands at or past the end of the
// log, or against a trailing frame torn by a crash mid-write. It is the
// internal end-of-log signal spec.md §7 names "ReadDataFileEOF": bootstrap
// replay treats it as the tail of the log, and it never surfaces from
// Put/Get/Delete.
var ErrReadDataFileEOF = stderrors.New("datafile: read past end of log")

// Open opens (creating if necessary) the data file identified by id
// inside dataDir, positioning its write cursor at the current end of
// the file as reported by the filesystem. Bootstrap replay corrects this
// cursor afterward if the file was truncated mid-record by a crash.
func Open(dataDir string, id uint32, log *zap.SugaredLogger) (*DataFile, error) {
	path := filepath.Join(dataDir, seginfo.FileName(id))

	manager, err := fio.Open(path)
	if err != nil {
		return nil, err
	}

	size, err := manager.Size()
	if err != nil {
		_ = manager.Close()
		return nil, err
	}

	df := &DataFile{id: id, io: manager, log: log}
	df.writeOffset.Store(size)

	return df, nil
}

// Write appends record to the file and returns the offset its frame
// starts at.
func (df *DataFile) Write(record codec.Record) (int64, error) {
	frame := codec.Encode(record)
	offset := df.writeOffset.Load()

	n, err := df.io.Write(frame)
	if err != nil {
		return 0, err
	}

	df.writeOffset.Add(int64(n))
	return offset, nil
}

// ReadRecord reads and decodes the frame beginning at offset, returning
// the decoded record and the frame's total size on disk. It returns
// ErrReadDataFileEOF when offset is at or past the end of the file, or
// when the header or payload is truncated; any other failure — an I/O
// error, or a checksum mismatch in the middle of the log — is real
// corruption and is returned as-is, distinct from ErrReadDataFileEOF.
func (df *DataFile) ReadRecord(offset int64) (codec.Record, int64, error) {
	header, err := df.readHeader(offset)
	if err != nil {
		return codec.Record{}, 0, err
	}

	frameSize := int64(codec.HeaderSize) + header.PayloadSize()
	buf := make([]byte, frameSize)

	if _, err := df.io.ReadAt(buf, offset); err != nil {
		if stderrors.Is(err, io.EOF) {
			return codec.Record{}, 0, ErrReadDataFileEOF
		}
		return codec.Record{}, 0, errors.NewStorageError(
			err, errors.ErrorCodePayloadReadFailure, "failed to read record payload",
		).WithOffset(int(offset))
	}

	record, err := codec.Decode(buf)
	if err != nil {
		return codec.Record{}, 0, errors.NewStorageError(
			err, errors.ErrorCodeSegmentCorrupted, "record failed checksum verification",
		).WithOffset(int(offset))
	}

	return record, frameSize, nil
}

// readHeader reads just the fixed-width header at offset, the first
// phase of the two-phase header-then-body read ReadRecord performs.
func (df *DataFile) readHeader(offset int64) (codec.Header, error) {
	buf := make([]byte, codec.HeaderSize)

	if _, err := df.io.ReadAt(buf, offset); err != nil {
		if stderrors.Is(err, io.EOF) {
			return codec.Header{}, ErrReadDataFileEOF
		}
		return codec.Header{}, errors.NewStorageError(
			err, errors.ErrorCodeHeaderReadFailure, "failed to read record header",
		).WithOffset(int(offset))
	}

	return codec.DecodeHeader(buf)
}

// Sync flushes the file's buffered writes to stable storage.
func (df *DataFile) Sync() error {
	return df.io.Sync()
}

// Close releases the underlying file handle.
func (df *DataFile) Close() error {
	return df.io.Close()
}
