package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the current progress of an order.
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "Created"
	OrderStatusAccepted  OrderStatus = "Accepted"
	OrderStatusIroning   OrderStatus = "Ironing"
	OrderStatusReady     OrderStatus = "Ready"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusPicked    OrderStatus = "Picked"
)

// OrderStatuses lists the workflow stages in order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusCreated,
		OrderStatusAccepted,
		OrderStatusIroning,
		OrderStatusReady,
		OrderStatusDelivered,
		OrderStatusPicked,
	}
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses() {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusPicked
}

// DeliveryOption selects how a finished order reaches the customer.
type DeliveryOption string

const (
	DeliveryDoorstep       DeliveryOption = "Doorstep"
	DeliveryCustomerPickup DeliveryOption = "Customer Pickup"
)

// Valid reports whether d is a known delivery option.
func (d DeliveryOption) Valid() bool {
	return d == DeliveryDoorstep || d == DeliveryCustomerPickup
}

// TerminalStatus is the finishing status that matches the delivery option.
func (d DeliveryOption) TerminalStatus() OrderStatus {
	if d == DeliveryCustomerPickup {
		return OrderStatusPicked
	}
	return OrderStatusDelivered
}

// SLAStatus is derived from SLADue, Status and the current time. It is never the source of truth.
type SLAStatus string

const (
	SLACompleted     SLAStatus = "Completed"
	SLABreach        SLAStatus = "SLA Breach"
	SLAWithin        SLAStatus = "Within SLA"
	SLANotApplicable SLAStatus = "N/A"
)

// OrderItem is one line of garments at a unit price.
type OrderItem struct {
	ClothType string          `json:"cloth_type" yaml:"cloth_type"`
	Quantity  int             `json:"quantity" yaml:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" yaml:"unit_price"`
}

// Subtotal is Quantity × UnitPrice.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// TimelineEntry records one status change.
type TimelineEntry struct {
	Status    OrderStatus `json:"status" yaml:"status"`
	Timestamp time.Time   `json:"timestamp" yaml:"timestamp"`
	ActorName string      `json:"actor" yaml:"actor"`
}

// Document is an attachment such as a delivery proof.
type Document struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// Order is an ironing job placed by a customer and fulfilled by a service provider.
// ServiceProviderID is nil until the order is accepted.
type Order struct {
	ID                  string          `db:"id" json:"id"`
	CustomerID          string          `db:"customer_id" json:"customer_id"`
	CustomerName        string          `db:"customer_name" json:"customer_name"`
	ServiceProviderID   *string         `db:"service_provider_id" json:"service_provider_id"`
	ServiceProviderName *string         `db:"service_provider_name" json:"service_provider_name"`
	Items               []OrderItem     `json:"items"`
	TotalAmount         decimal.Decimal `db:"total_amount" json:"total_amount"`
	DeliveryOption      DeliveryOption  `db:"delivery_option" json:"delivery_option"`
	Address             string          `db:"address" json:"address,omitempty"`
	Notes               string          `db:"notes" json:"notes,omitempty"`
	Status              OrderStatus     `db:"status" json:"status"`
	Timeline            []TimelineEntry `json:"timeline"`
	SLADue              *time.Time      `db:"sla_due" json:"sla_due,omitempty"`
	// SLAStatus is filled on read; it is not stored.
	SLAStatus SLAStatus  `json:"sla_status"`
	Documents []Document `json:"documents"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// TotalOf sums quantity × unit price over items.
func TotalOf(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// SetItems replaces the items and recomputes TotalAmount.
func (o *Order) SetItems(items []OrderItem) {
	o.Items = append([]OrderItem(nil), items...)
	o.TotalAmount = TotalOf(o.Items)
}

// ItemCount is the total number of garments across all items.
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// IsAssigned reports whether a service provider has accepted the order.
func (o *Order) IsAssigned() bool {
	return o.ServiceProviderID != nil && *o.ServiceProviderID != ""
}

// AssignedTo reports whether the order is assigned to the provider with the given id.
func (o *Order) AssignedTo(providerID string) bool {
	return o.IsAssigned() && *o.ServiceProviderID == providerID
}

// LastTimeline returns the most recent timeline entry, if any.
func (o *Order) LastTimeline() (TimelineEntry, bool) {
	if len(o.Timeline) == 0 {
		return TimelineEntry{}, false
	}
	return o.Timeline[len(o.Timeline)-1], true
}

// Clone returns a deep copy so callers can stage changes without touching o.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	if o.ServiceProviderID != nil {
		v := *o.ServiceProviderID
		c.ServiceProviderID = &v
	}
	if o.ServiceProviderName != nil {
		v := *o.ServiceProviderName
		c.ServiceProviderName = &v
	}
	if o.SLADue != nil {
		v := *o.SLADue
		c.SLADue = &v
	}
	if o.Items != nil {
		c.Items = append([]OrderItem(nil), o.Items...)
	}
	if o.Timeline != nil {
		c.Timeline = append([]TimelineEntry(nil), o.Timeline...)
	}
	if o.Documents != nil {
		c.Documents = append([]Document(nil), o.Documents...)
	}
	return &c
}
