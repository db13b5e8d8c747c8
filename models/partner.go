package models

// PartnerStatus marks whether a service partner takes work.
type PartnerStatus string

const (
	PartnerActive   PartnerStatus = "Active"
	PartnerInactive PartnerStatus = "Inactive"
)

// Partner is a service provider business profile managed by admins.
type Partner struct {
	ID             string        `db:"id" json:"id" yaml:"id"`
	Name           string        `db:"name" json:"name" yaml:"name"`
	Contact        string        `db:"contact" json:"contact" yaml:"contact"`
	Email          string        `db:"email" json:"email" yaml:"email"`
	Phone          string        `db:"phone" json:"phone" yaml:"phone"`
	Status         PartnerStatus `db:"status" json:"status" yaml:"status"`
	AssignedOrders int           `db:"assigned_orders" json:"assigned_orders" yaml:"assigned_orders"`
}
