// Package storage keeps imported datasets as snapshots in SQLite so the
// dashboard can reload without refetching the remote CSV.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ecomdash/internal/core"
	"ecomdash/internal/dataset"
)

// ErrNoSnapshot is returned when no dataset has been imported yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

const timestampLayout = time.RFC3339Nano

// Snapshot describes one stored import.
type Snapshot struct {
	ID        string
	Source    string
	Rows      int
	CreatedAt time.Time
}

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

// Ensure interface conformance
var (
	_ dataset.OrderReader    = (*SQLiteRepository)(nil)
	_ dataset.SnapshotReader = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveSnapshot stores orders as a new snapshot in a single transaction.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, source string, orders []core.Order) (Snapshot, error) {
	snap := Snapshot{
		ID:        uuid.NewString(),
		Source:    source,
		Rows:      len(orders),
		CreatedAt: r.now().UTC(),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.CreateSnapshot(ctx, snapshotRow{
		ID:        snap.ID,
		Source:    snap.Source,
		RowCount:  int64(snap.Rows),
		CreatedAt: snap.CreatedAt.UnixNano(),
	}); err != nil {
		return Snapshot{}, fmt.Errorf("create snapshot: %w", err)
	}

	stmt, err := q.PrepareInsertOrder(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, o := range orders {
		if _, err := stmt.ExecContext(ctx, insertOrderArgs(snap.ID, i, toRow(o))...); err != nil {
			return Snapshot{}, fmt.Errorf("insert order %s (row %d): %w", o.OrderID, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("commit snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot saved to SQLite",
		"snapshot_id", snap.ID,
		"source", snap.Source,
		"rows", snap.Rows)
	return snap, nil
}

// LatestSnapshot returns the most recent snapshot's metadata.
func (r *SQLiteRepository) LatestSnapshot(ctx context.Context) (Snapshot, error) {
	row, err := r.queries.LatestSnapshot(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("latest snapshot: %w", err)
	}
	return fromSnapshotRow(row), nil
}

// GetSnapshot returns the metadata of the snapshot with the given id.
func (r *SQLiteRepository) GetSnapshot(ctx context.Context, id string) (Snapshot, error) {
	row, err := r.queries.GetSnapshot(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("snapshot %s: %w", id, ErrNoSnapshot)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot %s: %w", id, err)
	}
	return fromSnapshotRow(row), nil
}

// ReadSnapshot loads the latest snapshot with its orders in import order.
func (r *SQLiteRepository) ReadSnapshot(ctx context.Context) (dataset.Snapshot, error) {
	meta, err := r.LatestSnapshot(ctx)
	if err != nil {
		return dataset.Snapshot{}, err
	}
	orders, err := r.readOrders(ctx, meta.ID)
	if err != nil {
		return dataset.Snapshot{}, err
	}
	return dataset.Snapshot{ID: meta.ID, Orders: orders}, nil
}

// ReadOrders loads the orders of the latest snapshot.
func (r *SQLiteRepository) ReadOrders(ctx context.Context) ([]core.Order, error) {
	snap, err := r.ReadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Orders, nil
}

func (r *SQLiteRepository) readOrders(ctx context.Context, snapshotID string) ([]core.Order, error) {
	rows, err := r.queries.ListOrders(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("list orders of %s: %w", snapshotID, err)
	}
	orders := make([]core.Order, 0, len(rows))
	for i, row := range rows {
		o, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("decode order row %d of %s: %w", i, snapshotID, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// PruneSnapshots deletes all but the keep most recent snapshots and returns
// how many were removed.
func (r *SQLiteRepository) PruneSnapshots(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	ids, err := q.StaleSnapshotIDs(ctx, keep)
	if err != nil {
		return 0, fmt.Errorf("list stale snapshots: %w", err)
	}
	for _, id := range ids {
		if err := q.DeleteSnapshot(ctx, id); err != nil {
			return 0, fmt.Errorf("delete snapshot %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	if len(ids) > 0 {
		slog.InfoContext(ctx, "Pruned old snapshots", "removed", len(ids), "kept", keep)
	}
	return len(ids), nil
}

func fromSnapshotRow(row snapshotRow) Snapshot {
	return Snapshot{
		ID:        row.ID,
		Source:    row.Source,
		Rows:      int(row.RowCount),
		CreatedAt: time.Unix(0, row.CreatedAt).UTC(),
	}
}

func toRow(o core.Order) orderRow {
	return orderRow{
		OrderID:             o.OrderID,
		CustomerID:          o.CustomerID,
		CustomerState:       o.CustomerState,
		CustomerCity:        o.CustomerCity,
		ProductID:           o.ProductID,
		ProductCategory:     o.ProductCategory,
		OrderStatus:         o.OrderStatus,
		DeliveryStatus:      o.DeliveryStatus,
		ReviewScore:         int64(o.ReviewScore),
		PaymentCents:        o.Payment.Cents,
		PurchasedAt:         nullTime(o.PurchasedAt),
		ApprovedAt:          nullTime(o.ApprovedAt),
		DeliveredCarrierAt:  nullTime(o.DeliveredCarrierAt),
		DeliveredCustomerAt: nullTime(o.DeliveredCustomerAt),
		EstimatedDeliveryAt: nullTime(o.EstimatedDeliveryAt),
		ShippingLimitAt:     nullTime(o.ShippingLimitAt),
	}
}

func fromRow(row orderRow) (core.Order, error) {
	o := core.Order{
		OrderID:         row.OrderID,
		CustomerID:      row.CustomerID,
		CustomerState:   row.CustomerState,
		CustomerCity:    row.CustomerCity,
		ProductID:       row.ProductID,
		ProductCategory: row.ProductCategory,
		OrderStatus:     row.OrderStatus,
		DeliveryStatus:  row.DeliveryStatus,
		ReviewScore:     int(row.ReviewScore),
		Payment:         core.Money{Cents: row.PaymentCents},
	}
	fields := []struct {
		src sql.NullString
		dst *time.Time
	}{
		{row.PurchasedAt, &o.PurchasedAt},
		{row.ApprovedAt, &o.ApprovedAt},
		{row.DeliveredCarrierAt, &o.DeliveredCarrierAt},
		{row.DeliveredCustomerAt, &o.DeliveredCustomerAt},
		{row.EstimatedDeliveryAt, &o.EstimatedDeliveryAt},
		{row.ShippingLimitAt, &o.ShippingLimitAt},
	}
	for _, f := range fields {
		if !f.src.Valid {
			continue
		}
		t, err := time.Parse(timestampLayout, f.src.String)
		if err != nil {
			return core.Order{}, fmt.Errorf("%w: %q", dataset.ErrMalformedTimestamp, f.src.String)
		}
		*f.dst = t.UTC()
	}
	return o, nil
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timestampLayout), Valid: true}
}
