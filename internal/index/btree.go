package index

import (
	"sync"
	"sync/atomic"

	"github.com/petar/GoLLRB/llrb"
)

// entry is the llrb.Item stored in the tree: a key plus its RecordPosition.
// Ordering is purely by key, matching the sorted-map semantics spec'd for
// the index's Ascend walk.
type entry struct {
	key string
	pos RecordPosition
}

func (e *entry) Less(than llrb.Item) bool {
	return e.key < than.(*entry).key
}

// BTreeIndex is the sorted-map Indexer implementation: a left-leaning
// red-black tree guarded by a single RWMutex. All entries stay resident
// in memory; only values live on disk.
type BTreeIndex struct {
	mu     sync.RWMutex
	tree   *llrb.LLRB
	closed atomic.Bool
}

// NewBTreeIndex returns an empty BTreeIndex.
func NewBTreeIndex() *BTreeIndex {
	return &BTreeIndex{tree: llrb.New()}
}

func (b *BTreeIndex) Put(key []byte, pos RecordPosition) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tree.ReplaceOrInsert(&entry{key: string(key), pos: pos})
	return nil
}

func (b *BTreeIndex) Get(key []byte) (RecordPosition, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	item := b.tree.Get(&entry{key: string(key)})
	if item == nil {
		return RecordPosition{}, false
	}

	return item.(*entry).pos, true
}

func (b *BTreeIndex) Delete(key []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tree.Delete(&entry{key: string(key)})
	return nil
}

func (b *BTreeIndex) Ascend(fn func(key []byte, pos RecordPosition) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	b.tree.AscendGreaterOrEqual(&entry{key: ""}, func(item llrb.Item) bool {
		e := item.(*entry)
		return fn([]byte(e.key), e.pos)
	})
}

func (b *BTreeIndex) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.tree.Len()
}

func (b *BTreeIndex) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tree = llrb.New()
	return nil
}
