// Package cinder provides a high-performance, embeddable key/value data
// store inspired by Bitcask. It combines an in-memory sorted index with
// an append-only log structure on disk to achieve high throughput, and
// is designed for applications requiring fast read and write operations
// such as caching, session storage, and event logging.
package cinder

import (
	"context"

	"github.com/cinderdb/cinder/internal/engine"
	"github.com/cinderdb/cinder/pkg/logger"
	"github.com/cinderdb/cinder/pkg/options"
)

// DB is an open cinder database. It is safe for concurrent use by
// multiple goroutines.
type DB struct {
	engine  *engine.Engine
	options *options.Options
}

// Open creates or reopens a cinder database, replaying its data files to
// rebuild the in-memory index before returning.
func Open(ctx context.Context, service string, opts ...options.OptionFunc) (*DB, error) {
	log := logger.New(service)

	cfg := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	eng, err := engine.Open(ctx, &engine.Config{Logger: log, Options: &cfg})
	if err != nil {
		return nil, err
	}

	return &DB{engine: eng, options: &cfg}, nil
}

// Put stores a key-value pair in the database. If the key already
// exists, its value is overwritten. The write is appended to the
// on-disk log before this call returns.
func (db *DB) Put(ctx context.Context, key string, value []byte) error {
	return db.engine.Put([]byte(key), value)
}

// Get retrieves the value associated with the given key.
func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	return db.engine.Get([]byte(key))
}

// Delete removes a key-value pair from the database by appending a
// tombstone record and dropping the key from the index.
func (db *DB) Delete(ctx context.Context, key string) error {
	return db.engine.Delete([]byte(key))
}

// Stats reports the database's current key count and data file layout.
func (db *DB) Stats() engine.Stats {
	return db.engine.Stats()
}

// Close gracefully shuts down the database, closing the index and every
// open data file. It does not fsync the files first.
func (db *DB) Close(ctx context.Context) error {
	return db.engine.Close()
}
