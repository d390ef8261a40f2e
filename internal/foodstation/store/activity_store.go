package store

import (
	"context"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

// ActivityStore persists the deposit/retrieval history as an append-only log.
type ActivityStore interface {
	Append(ctx context.Context, entry types.ActivityLogEntry) error
	List(ctx context.Context, filter types.ActivityFilter) ([]types.ActivityLogEntry, error)
}

// Ledger commits a rack change and its activity entry atomically: both are
// written or neither is.
type Ledger interface {
	CommitRack(ctx context.Context, change RackChange, entry types.ActivityLogEntry) error
}
