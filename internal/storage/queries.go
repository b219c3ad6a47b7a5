package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the SQL used by the repository.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type snapshotRow struct {
	ID        string
	Source    string
	RowCount  int64
	CreatedAt int64
}

type orderRow struct {
	OrderID             string
	CustomerID          string
	CustomerState       string
	CustomerCity        string
	ProductID           string
	ProductCategory     string
	OrderStatus         string
	DeliveryStatus      string
	ReviewScore         int64
	PaymentCents        int64
	PurchasedAt         sql.NullString
	ApprovedAt          sql.NullString
	DeliveredCarrierAt  sql.NullString
	DeliveredCustomerAt sql.NullString
	EstimatedDeliveryAt sql.NullString
	ShippingLimitAt     sql.NullString
}

const createSnapshot = `INSERT INTO snapshots (id, source, row_count, created_at) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateSnapshot(ctx context.Context, s snapshotRow) error {
	_, err := q.db.ExecContext(ctx, createSnapshot, s.ID, s.Source, s.RowCount, s.CreatedAt)
	return err
}

const insertOrder = `INSERT INTO orders (
    snapshot_id, seq, order_id, customer_id, customer_state, customer_city,
    product_id, product_category, order_status, delivery_status, review_score,
    payment_cents, purchased_at, approved_at, delivered_carrier_at,
    delivered_customer_at, estimated_delivery_at, shipping_limit_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// PrepareInsertOrder returns a statement taking snapshot id, seq and the
// orderRow columns in declaration order.
func (q *Queries) PrepareInsertOrder(ctx context.Context) (*sql.Stmt, error) {
	return q.db.PrepareContext(ctx, insertOrder)
}

func insertOrderArgs(snapshotID string, seq int, o orderRow) []interface{} {
	return []interface{}{
		snapshotID, seq, o.OrderID, o.CustomerID, o.CustomerState, o.CustomerCity,
		o.ProductID, o.ProductCategory, o.OrderStatus, o.DeliveryStatus, o.ReviewScore,
		o.PaymentCents, o.PurchasedAt, o.ApprovedAt, o.DeliveredCarrierAt,
		o.DeliveredCustomerAt, o.EstimatedDeliveryAt, o.ShippingLimitAt,
	}
}

const latestSnapshot = `SELECT id, source, row_count, created_at FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT 1`

func (q *Queries) LatestSnapshot(ctx context.Context) (snapshotRow, error) {
	var s snapshotRow
	err := q.db.QueryRowContext(ctx, latestSnapshot).Scan(&s.ID, &s.Source, &s.RowCount, &s.CreatedAt)
	return s, err
}

const getSnapshot = `SELECT id, source, row_count, created_at FROM snapshots WHERE id = ?`

func (q *Queries) GetSnapshot(ctx context.Context, id string) (snapshotRow, error) {
	var s snapshotRow
	err := q.db.QueryRowContext(ctx, getSnapshot, id).Scan(&s.ID, &s.Source, &s.RowCount, &s.CreatedAt)
	return s, err
}

const listOrders = `SELECT
    order_id, customer_id, customer_state, customer_city, product_id,
    product_category, order_status, delivery_status, review_score, payment_cents,
    purchased_at, approved_at, delivered_carrier_at, delivered_customer_at,
    estimated_delivery_at, shipping_limit_at
FROM orders WHERE snapshot_id = ? ORDER BY seq`

func (q *Queries) ListOrders(ctx context.Context, snapshotID string) ([]orderRow, error) {
	rows, err := q.db.QueryContext(ctx, listOrders, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []orderRow
	for rows.Next() {
		var o orderRow
		if err := rows.Scan(
			&o.OrderID, &o.CustomerID, &o.CustomerState, &o.CustomerCity, &o.ProductID,
			&o.ProductCategory, &o.OrderStatus, &o.DeliveryStatus, &o.ReviewScore, &o.PaymentCents,
			&o.PurchasedAt, &o.ApprovedAt, &o.DeliveredCarrierAt, &o.DeliveredCustomerAt,
			&o.EstimatedDeliveryAt, &o.ShippingLimitAt,
		); err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

const staleSnapshots = `SELECT id FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT -1 OFFSET ?`

func (q *Queries) StaleSnapshotIDs(ctx context.Context, keep int) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, staleSnapshots, keep)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const deleteSnapshotOrders = `DELETE FROM orders WHERE snapshot_id = ?`

const deleteSnapshot = `DELETE FROM snapshots WHERE id = ?`

func (q *Queries) DeleteSnapshot(ctx context.Context, id string) error {
	if _, err := q.db.ExecContext(ctx, deleteSnapshotOrders, id); err != nil {
		return err
	}
	_, err := q.db.ExecContext(ctx, deleteSnapshot, id)
	return err
}
