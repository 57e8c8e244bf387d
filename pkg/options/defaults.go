package options

const (
	// DefaultDataDir is used when no directory is supplied to Open.
	DefaultDataDir = "/var/lib/cinderdb"

	// MinFileSize is the smallest data file size cinder will accept.
	MinFileSize int64 = 1 * 1024 * 1024

	// MaxFileSize is the largest data file size cinder will accept.
	MaxFileSize int64 = 4 * 1024 * 1024 * 1024

	// DefaultFileSize is the active data file rotation threshold used
	// when the caller does not set one explicitly.
	DefaultFileSize int64 = 256 * 1024 * 1024

	// DefaultSync controls whether every write is flushed to disk
	// before Put/Delete return.
	DefaultSync = false

	// DefaultIndexType selects the in-memory index backing implementation.
	DefaultIndexType = IndexTypeBTree
)

// defaultOptions holds the baseline configuration applied before any
// functional options run.
var defaultOptions = Options{
	DataDir:   DefaultDataDir,
	FileSize:  DefaultFileSize,
	Sync:      DefaultSync,
	IndexType: DefaultIndexType,
}

// NewDefaultOptions returns a fresh copy of cinder's default configuration.
func NewDefaultOptions() Options {
	return defaultOptions
}
