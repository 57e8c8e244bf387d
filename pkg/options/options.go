// Package options provides the configuration surface for cinder. It defines
// the parameters that control the engine's on-disk layout, durability, and
// index backend, along with functional options for building them up.
package options

import (
	"strings"

	"github.com/cinderdb/cinder/pkg/errors"
)

// IndexType selects which in-memory index implementation backs the engine.
type IndexType string

const (
	// IndexTypeBTree selects the sorted-map index (github.com/petar/GoLLRB).
	IndexTypeBTree IndexType = "btree"

	// IndexTypeSkipList is accepted by the configuration surface but not
	// implemented; index.New rejects it with a ValidationError.
	IndexTypeSkipList IndexType = "skiplist"
)

// Options defines the configuration parameters for a cinder database.
type Options struct {
	// DataDir is the directory where data files live.
	DataDir string `json:"dataDir"`

	// FileSize is the maximum size, in bytes, an active data file is
	// allowed to reach before the engine rotates to a new one.
	FileSize int64 `json:"fileSize"`

	// Sync controls whether each write is fsynced before returning.
	// When false, durability is bounded by the OS page cache flush interval.
	Sync bool `json:"sync"`

	// IndexType selects the in-memory index backend.
	IndexType IndexType `json:"indexType"`
}

// OptionFunc mutates an Options value; used by Open to apply overrides
// on top of NewDefaultOptions.
type OptionFunc func(*Options)

// WithDataDir sets the directory cinder stores its data files in.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithFileSize sets the rotation threshold for active data files.
func WithFileSize(size int64) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.FileSize = size
		}
	}
}

// WithSync enables or disables fsync-on-write.
func WithSync(sync bool) OptionFunc {
	return func(o *Options) {
		o.Sync = sync
	}
}

// WithIndexType selects the index backend.
func WithIndexType(t IndexType) OptionFunc {
	return func(o *Options) {
		o.IndexType = t
	}
}

// Validate checks that o describes a usable configuration, returning a
// ValidationError identifying the first offending field.
func (o *Options) Validate() error {
	if strings.TrimSpace(o.DataDir) == "" {
		return errors.NewRequiredFieldError("DataDir")
	}

	if o.FileSize < MinFileSize || o.FileSize > MaxFileSize {
		return errors.NewFieldRangeError("FileSize", o.FileSize, MinFileSize, MaxFileSize)
	}

	switch o.IndexType {
	case IndexTypeBTree, IndexTypeSkipList:
	default:
		return errors.NewFieldFormatError("IndexType", o.IndexType, string(IndexTypeBTree))
	}

	return nil
}
