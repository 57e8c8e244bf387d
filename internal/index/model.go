package index

// RecordPosition locates a single record on disk: which data file it
// lives in, the byte offset its frame starts at, and the frame's total
// size (header + key + value), so a read can fetch it in one call.
type RecordPosition struct {
	FileID uint32
	Offset int64
	Size   int64
}

// Indexer is the capability set the engine needs from the in-memory
// key-directory: point lookups, updates, deletion, and an ordered walk
// over every live key. A concrete implementation need not be the sorted
// map this package ships (BTreeIndex); anything satisfying Indexer plugs
// into the engine unchanged.
type Indexer interface {
	// Put records or overwrites the position for key.
	Put(key []byte, pos RecordPosition) error

	// Get returns the position for key, and false if it has no live entry.
	Get(key []byte) (RecordPosition, bool)

	// Delete removes key's entry. It is not an error to delete a key
	// that is not present.
	Delete(key []byte) error

	// Ascend walks every live key in ascending order, calling fn with
	// each key and its position. Iteration stops early if fn returns false.
	Ascend(fn func(key []byte, pos RecordPosition) bool)

	// Len returns the number of live keys in the index.
	Len() int

	// Close releases any resources held by the index.
	Close() error
}
