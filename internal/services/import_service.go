package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ecomdash/internal/core"
	"ecomdash/internal/dataset"
	"ecomdash/internal/storage"
)

// SnapshotWriter stores imported datasets.
type SnapshotWriter interface {
	SaveSnapshot(ctx context.Context, source string, orders []core.Order) (storage.Snapshot, error)
	PruneSnapshots(ctx context.Context, keep int) (int, error)
}

// ReloadPublisher notifies running servers that a snapshot is ready.
type ReloadPublisher interface {
	PublishDatasetReload(ctx context.Context, snapshotID string, rows int, source string) error
}

// ImportService copies the dataset from a source into the snapshot store and
// announces it.
type ImportService struct {
	source     dataset.OrderReader
	sourceName string
	store      SnapshotWriter
	publisher  ReloadPublisher
	keep       int
}

// NewImportService wires an importer. publisher may be nil; keep is the number
// of snapshots retained after a successful import (minimum 1).
func NewImportService(source dataset.OrderReader, sourceName string, store SnapshotWriter, publisher ReloadPublisher, keep int) *ImportService {
	if keep < 1 {
		keep = 1
	}
	return &ImportService{
		source:     source,
		sourceName: sourceName,
		store:      store,
		publisher:  publisher,
		keep:       keep,
	}
}

// Import reads, stores and announces one snapshot. A failed notification is
// logged but does not fail the import: the snapshot is already durable and
// servers pick it up on their next start.
func (s *ImportService) Import(ctx context.Context) (storage.Snapshot, error) {
	if s.source == nil || s.store == nil {
		return storage.Snapshot{}, errors.New("import service not configured")
	}
	start := time.Now()

	orders, err := s.source.ReadOrders(ctx)
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("read dataset: %w", err)
	}

	snap, err := s.store.SaveSnapshot(ctx, s.sourceName, orders)
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	if _, err := s.store.PruneSnapshots(ctx, s.keep); err != nil {
		slog.WarnContext(ctx, "Failed to prune old snapshots", "error", err)
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping reload message", "snapshot_id", snap.ID)
	} else if err := s.publisher.PublishDatasetReload(ctx, snap.ID, snap.Rows, s.sourceName); err != nil {
		slog.ErrorContext(ctx, "Failed to publish reload message", "snapshot_id", snap.ID, "error", err)
	}

	slog.InfoContext(ctx, "Dataset imported",
		"snapshot_id", snap.ID,
		"source", s.sourceName,
		"rows", snap.Rows,
		"duration_ms", time.Since(start).Milliseconds())
	return snap, nil
}
