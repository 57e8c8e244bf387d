// Package index provides the in-memory key-directory: a capability
// (Indexer) over one concrete sorted-map implementation (BTreeIndex),
// mapping every live key to the on-disk position of its most recent write.
package index

import (
	"github.com/cinderdb/cinder/pkg/errors"
	"github.com/cinderdb/cinder/pkg/options"
)

// New builds the Indexer configured by indexType. IndexTypeBTree is the
// only backend implemented, and an empty indexType also selects it; any
// other value is rejected rather than
// silently falling back, since a silent fallback would hide a
// misconfiguration until the data no longer fits in memory the way the
// caller expected.
func New(indexType options.IndexType) (Indexer, error) {
	switch indexType {
	case options.IndexTypeBTree, "":
		return NewBTreeIndex(), nil
	default:
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "unsupported index type",
		).WithField("IndexType").WithRule("supported_value").WithProvided(indexType).WithExpected(options.IndexTypeBTree)
	}
}
