package dataset

import (
	"context"

	"ecomdash/internal/core"
)

// Ports for inbound dataset adapters.
type (
	// OrderReader loads the full order dataset, parsed and sorted by approval.
	OrderReader interface {
		ReadOrders(ctx context.Context) ([]core.Order, error)
	}

	// SnapshotReader is implemented by readers that can name the stored copy
	// they return, so a reload for an already loaded snapshot can be skipped.
	SnapshotReader interface {
		ReadSnapshot(ctx context.Context) (Snapshot, error)
	}
)

// Snapshot is a dataset together with the identifier of the stored copy it came from.
type Snapshot struct {
	ID     string
	Orders []core.Order
}
