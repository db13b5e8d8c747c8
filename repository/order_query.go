package repository

import (
	"context"
	"strings"
	"time"

	"ironingOrderManagement/models"
)

// OrderQuery filters List. Zero values match everything.
type OrderQuery struct {
	Statuses   []models.OrderStatus
	CustomerID string
	// ProviderID matches orders assigned to this provider; with IncludeUnassigned it also
	// matches orders nobody has accepted yet.
	ProviderID        string
	IncludeUnassigned bool
	OpenOnly          bool
	// Limit caps the result; zero or less returns every match.
	Limit int
}

// List returns orders matching q, newest first (created_at desc, id desc).
func (r *OrderRepository) List(ctx context.Context, q OrderQuery) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var where []string
	var args []any

	if len(q.Statuses) > 0 {
		placeholders := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		where = append(where, "status IN ("+strings.Join(placeholders, ",")+")")
	}
	if q.OpenOnly {
		where = append(where, "status NOT IN (?, ?)")
		args = append(args, string(models.OrderStatusDelivered), string(models.OrderStatusPicked))
	}
	if q.CustomerID != "" {
		where = append(where, "customer_id = ?")
		args = append(args, q.CustomerID)
	}
	if q.ProviderID != "" {
		if q.IncludeUnassigned {
			where = append(where, "(service_provider_id = ? OR service_provider_id IS NULL OR service_provider_id = '')")
		} else {
			where = append(where, "service_provider_id = ?")
		}
		args = append(args, q.ProviderID)
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	orders, err := r.queryOrders(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if err := r.loadChildren(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// ListOpen returns every order not yet Delivered or Picked.
func (r *OrderRepository) ListOpen(ctx context.Context) ([]models.Order, error) {
	return r.List(ctx, OrderQuery{OpenOnly: true})
}

// queryOrders scans and closes the result set before any child rows are loaded.
func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
