// Package worker keeps the dashboard's session in step with the dataset
// source: on startup, on reload notifications, and optionally on a timer.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"ecomdash/internal/amqp"
	"ecomdash/internal/analytics"
	"ecomdash/internal/core"
	"ecomdash/internal/dataset"
)

// Reloader rebuilds the session from a reader and publishes it through a
// Holder. Concurrent reloads collapse into one read.
type Reloader struct {
	reader dataset.OrderReader
	holder *analytics.Holder
	group  singleflight.Group
	now    func() time.Time
}

func NewReloader(reader dataset.OrderReader, holder *analytics.Holder) *Reloader {
	return &Reloader{
		reader: reader,
		holder: holder,
		now:    time.Now,
	}
}

// Reload reads the dataset and swaps in a new session. Readers that know
// their snapshot id keep it; otherwise the session gets a fresh id.
func (r *Reloader) Reload(ctx context.Context) (*analytics.Session, error) {
	v, err, shared := r.group.Do("reload", func() (interface{}, error) {
		return r.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.DebugContext(ctx, "Reload shared with a concurrent caller")
	}
	return v.(*analytics.Session), nil
}

func (r *Reloader) load(ctx context.Context) (*analytics.Session, error) {
	start := r.now()

	var (
		id     string
		orders []core.Order
	)
	if sr, ok := r.reader.(dataset.SnapshotReader); ok {
		snap, err := sr.ReadSnapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		id, orders = snap.ID, snap.Orders
	} else {
		var err error
		orders, err = r.reader.ReadOrders(ctx)
		if err != nil {
			return nil, fmt.Errorf("read orders: %w", err)
		}
		id = uuid.NewString()
	}
	dataset.SortByApproval(orders)

	session := analytics.NewSession(id, orders, r.now())
	previous := r.holder.Store(session)

	attrs := []any{
		"snapshot_id", id,
		"rows", session.Len(),
		"range", session.Bounds().String(),
		"duration_ms", r.now().Sub(start).Milliseconds(),
	}
	if previous != nil {
		attrs = append(attrs, "previous_snapshot_id", previous.ID())
	}
	slog.InfoContext(ctx, "Dataset session loaded", attrs...)
	return session, nil
}

// HandleReloadMessage reloads unless the message names the snapshot already
// being served.
func (r *Reloader) HandleReloadMessage(ctx context.Context, msg *amqp.DatasetReloadMessage) error {
	if current := r.holder.Load(); current != nil && current.ID() == msg.SnapshotID {
		slog.InfoContext(ctx, "Snapshot already loaded, skipping reload", "snapshot_id", msg.SnapshotID)
		return nil
	}

	session, err := r.Reload(ctx)
	if err != nil {
		return fmt.Errorf("reload for snapshot %s: %w", msg.SnapshotID, err)
	}
	if session.ID() != msg.SnapshotID {
		slog.WarnContext(ctx, "Loaded snapshot differs from the announced one",
			"announced", msg.SnapshotID,
			"loaded", session.ID())
	}
	return nil
}

// Run reloads every interval until ctx is done. Failures keep the previous
// session in place.
func (r *Reloader) Run(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.Reload(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic reload failed", "error", err)
			}
		}
	}
}
