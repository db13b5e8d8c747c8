package dashboard

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"ironingOrderManagement/internal/authz"
	"ironingOrderManagement/internal/permissions"
	"ironingOrderManagement/models"
)

var exportHeader = []string{
	"id", "customer", "service_provider", "status", "delivery_option", "address",
	"items", "item_count", "total_amount", "sla_due", "sla_status", "created_at", "updated_at",
	"last_changed_by",
}

// ExportOrdersCSV writes the orders actor may see as CSV and returns how many rows were written.
func (s *Service) ExportOrdersCSV(ctx context.Context, actor models.Actor, w io.Writer, f OrderFilter) (int, error) {
	const op = "exportOrders"
	if err := authz.Require(op, actor, permissions.Export); err != nil {
		return 0, err
	}
	orders, err := s.ListOrders(ctx, actor, f)
	if err != nil {
		return 0, err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	for i := range orders {
		if err := cw.Write(exportRow(&orders[i])); err != nil {
			return i, fmt.Errorf("%s: %w", op, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.InfoContext(ctx, "orders exported", "actor", actor.ID, "rows", len(orders))
	return len(orders), nil
}

func exportRow(o *models.Order) []string {
	items := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, fmt.Sprintf("%s x%d @ %s", it.ClothType, it.Quantity, it.UnitPrice.StringFixed(2)))
	}
	provider := ""
	if o.ServiceProviderName != nil {
		provider = *o.ServiceProviderName
	}
	due := ""
	if o.SLADue != nil {
		due = o.SLADue.Format(time.RFC3339)
	}
	changedBy := ""
	if last, ok := o.LastTimeline(); ok {
		changedBy = last.ActorName
	}
	return []string{
		o.ID,
		o.CustomerName,
		provider,
		string(o.Status),
		string(o.DeliveryOption),
		o.Address,
		strings.Join(items, "; "),
		strconv.Itoa(o.ItemCount()),
		o.TotalAmount.StringFixed(2),
		due,
		string(o.SLAStatus),
		o.CreatedAt.Format(time.RFC3339),
		o.UpdatedAt.Format(time.RFC3339),
		changedBy,
	}
}
