package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ironingOrderManagement/models"
)

// ErrStaleOrder reports that the stored order changed status after it was loaded.
var ErrStaleOrder = errors.New("order status changed since it was loaded")

// OrderRepository persists Order aggregates: the orders row plus its items, timeline and documents.
type OrderRepository struct {
	db DBTX
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *OrderRepository) WithTx(tx *sql.Tx) *OrderRepository {
	return &OrderRepository{db: tx}
}

const orderColumns = `id, customer_id, customer_name, service_provider_id, service_provider_name, total_amount,
delivery_option, address, notes, status, sla_due, created_at, updated_at`

// Create inserts the order with its items, timeline and documents. The id is chosen by the caller.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	if o == nil {
		return errors.New("order is nil")
	}
	if o.ID == "" {
		return errors.New("order id is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `INSERT INTO orders (`+orderColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.ID, o.CustomerID, o.CustomerName, nullString(o.ServiceProviderID), nullString(o.ServiceProviderName),
		o.TotalAmount.String(), string(o.DeliveryOption), o.Address, o.Notes, string(o.Status),
		nullTime(o.SLADue), formatTime(o.CreatedAt), formatTime(o.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.ID, err)
	}
	if err := r.insertItems(ctx, o.ID, o.Items); err != nil {
		return err
	}
	if err := r.insertTimeline(ctx, o.ID, 0, o.Timeline); err != nil {
		return err
	}
	return r.insertDocuments(ctx, o.ID, 0, o.Documents)
}

// GetByID fetches an order and its children. Returns (nil, nil) when absent.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadChildren(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Update writes the mutable columns and replaces the items. Timeline and documents are append-only
// and go through AppendTimeline and AppendDocuments.
func (r *OrderRepository) Update(ctx context.Context, o *models.Order) error {
	return r.UpdateFrom(ctx, o, "")
}

// UpdateFrom is Update guarded by the status the caller loaded. If the stored order has moved
// on since, nothing is written and ErrStaleOrder is returned. An empty from skips the guard.
func (r *OrderRepository) UpdateFrom(ctx context.Context, o *models.Order, from models.OrderStatus) error {
	if o == nil {
		return errors.New("order is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	query := `
UPDATE orders
SET service_provider_id = ?, service_provider_name = ?, total_amount = ?, delivery_option = ?,
    address = ?, notes = ?, status = ?, sla_due = ?, updated_at = ?
WHERE id = ?`
	args := []any{
		nullString(o.ServiceProviderID), nullString(o.ServiceProviderName), o.TotalAmount.String(),
		string(o.DeliveryOption), o.Address, o.Notes, string(o.Status), nullTime(o.SLADue),
		formatTime(o.UpdatedAt), o.ID,
	}
	if from != "" {
		query += ` AND status = ?`
		args = append(args, string(from))
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update order %s: %w", o.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if from != "" {
			existing, err := r.GetByID(ctx, o.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("update order %s: %w", o.ID, ErrStaleOrder)
			}
		}
		return fmt.Errorf("update order %s: %w", o.ID, sql.ErrNoRows)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, o.ID); err != nil {
		return err
	}
	return r.insertItems(ctx, o.ID, o.Items)
}

// AppendTimeline adds entries after the ones already stored.
func (r *OrderRepository) AppendTimeline(ctx context.Context, orderID string, entries ...models.TimelineEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start, err := r.count(ctx, `SELECT COUNT(*) FROM order_timeline WHERE order_id = ?`, orderID)
	if err != nil {
		return err
	}
	return r.insertTimeline(ctx, orderID, start, entries)
}

// AppendDocuments adds documents after the ones already stored.
func (r *OrderRepository) AppendDocuments(ctx context.Context, orderID string, docs ...models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start, err := r.count(ctx, `SELECT COUNT(*) FROM order_documents WHERE order_id = ?`, orderID)
	if err != nil {
		return err
	}
	return r.insertDocuments(ctx, orderID, start, docs)
}

func (r *OrderRepository) count(ctx context.Context, query, orderID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, orderID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *OrderRepository) insertItems(ctx context.Context, orderID string, items []models.OrderItem) error {
	for i, it := range items {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO order_items (order_id, position, cloth_type, quantity, unit_price) VALUES (?,?,?,?,?)`,
			orderID, i, it.ClothType, it.Quantity, it.UnitPrice.String()); err != nil {
			return fmt.Errorf("insert item %d of %s: %w", i, orderID, err)
		}
	}
	return nil
}

func (r *OrderRepository) insertTimeline(ctx context.Context, orderID string, start int, entries []models.TimelineEntry) error {
	for i, e := range entries {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO order_timeline (order_id, seq, status, timestamp, actor_name) VALUES (?,?,?,?,?)`,
			orderID, start+i, string(e.Status), formatTime(e.Timestamp), e.ActorName); err != nil {
			return fmt.Errorf("insert timeline entry for %s: %w", orderID, err)
		}
	}
	return nil
}

func (r *OrderRepository) insertDocuments(ctx context.Context, orderID string, start int, docs []models.Document) error {
	for i, d := range docs {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO order_documents (order_id, seq, name, url) VALUES (?,?,?,?)`,
			orderID, start+i, d.Name, d.URL); err != nil {
			return fmt.Errorf("insert document for %s: %w", orderID, err)
		}
	}
	return nil
}

// loadChildren fills items, timeline and documents. Each query is drained before the next one
// starts because the store runs on a single connection.
func (r *OrderRepository) loadChildren(ctx context.Context, o *models.Order) error {
	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return err
	}
	o.Items = items
	timeline, err := r.loadTimeline(ctx, o.ID)
	if err != nil {
		return err
	}
	o.Timeline = timeline
	docs, err := r.loadDocuments(ctx, o.ID)
	if err != nil {
		return err
	}
	o.Documents = docs
	return nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT cloth_type, quantity, unit_price FROM order_items WHERE order_id = ? ORDER BY position`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		var price string
		if err := rows.Scan(&it.ClothType, &it.Quantity, &price); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("order %s: unit price %q: %w", orderID, price, err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *OrderRepository) loadTimeline(ctx context.Context, orderID string) ([]models.TimelineEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, timestamp, actor_name FROM order_timeline WHERE order_id = ? ORDER BY seq`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.TimelineEntry
	for rows.Next() {
		var e models.TimelineEntry
		var status, ts string
		if err := rows.Scan(&status, &ts, &e.ActorName); err != nil {
			return nil, err
		}
		e.Status = models.OrderStatus(status)
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *OrderRepository) loadDocuments(ctx context.Context, orderID string) ([]models.Document, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, url FROM order_documents WHERE order_id = ? ORDER BY seq`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.Name, &d.URL); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var spID, spName, slaDue sql.NullString
	var total, delivery, status, createdAt, updatedAt string
	if err := row.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &spID, &spName, &total,
		&delivery, &o.Address, &o.Notes, &status, &slaDue, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("order %s: total %q: %w", o.ID, total, err)
	}
	o.ServiceProviderID = stringPtr(spID)
	o.ServiceProviderName = stringPtr(spName)
	o.DeliveryOption = models.DeliveryOption(delivery)
	o.Status = models.OrderStatus(status)
	if slaDue.Valid {
		due, err := parseTime(slaDue.String)
		if err != nil {
			return nil, err
		}
		o.SLADue = &due
	}
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}
