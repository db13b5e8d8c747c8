package models

import "time"

// Severity classifies an activity for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
)

// ActivityType names what happened.
type ActivityType string

const (
	ActivityOrderPlaced      ActivityType = "Order Placed"
	ActivityOrderAccepted    ActivityType = "Order Accepted"
	ActivityOrderIroning     ActivityType = "Order Ironing"
	ActivityOrderReady       ActivityType = "Order Ready"
	ActivityOrderDelivered   ActivityType = "Order Delivered"
	ActivityOrderPicked      ActivityType = "Order Picked"
	ActivityOrderUpdated     ActivityType = "Order Updated"
	ActivityDeliveryUpdated  ActivityType = "Delivery Option Updated"
	ActivityRateAdded        ActivityType = "Rate Added"
	ActivityRateUpdated      ActivityType = "Rate Updated"
	ActivityPartnerOnboarded ActivityType = "New Partner Onboarded"
	ActivityPartnerUpdated   ActivityType = "Partner Info Updated"
)

// Activity is one append-only audit entry. Entries are never rewritten or removed.
type Activity struct {
	ID        string       `db:"id" json:"id" yaml:"id"`
	Type      ActivityType `db:"type" json:"type" yaml:"type"`
	Entity    string       `db:"entity" json:"entity" yaml:"entity"`
	Role      Role         `db:"role" json:"role" yaml:"role"`
	ActorID   string       `db:"actor_id" json:"actor_id" yaml:"actor_id"`
	Actor     string       `db:"actor" json:"actor" yaml:"actor"`
	Timestamp time.Time    `db:"timestamp" json:"timestamp" yaml:"timestamp"`
	Severity  Severity     `db:"severity" json:"severity" yaml:"severity"`
}
