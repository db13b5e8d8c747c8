// Package permissions holds the fixed role → capability table.
//
// Capabilities form a closed set. Lookups never fail: an unknown role, an
// out-of-range capability or an unrecognised capability name is simply not granted.
package permissions

import "ironingOrderManagement/models"

// Capability is a named permission checked against an actor's role.
type Capability uint8

const (
	ViewDashboard Capability = iota
	ViewOrders
	ViewPartners
	ViewRates
	ManageRates
	ManagePartners
	ViewCustomers
	ViewAllActivities
	ViewOwnActivities
	Export
	AccessAuditLogs
	PerformBulkActions
	InlineEdit
	CreateOrder
	UpdateOrder

	numCapabilities
)

var capabilityNames = [numCapabilities]string{
	ViewDashboard:      "canViewDashboard",
	ViewOrders:         "canViewOrders",
	ViewPartners:       "canViewPartners",
	ViewRates:          "canViewRates",
	ManageRates:        "canManageRates",
	ManagePartners:     "canManagePartners",
	ViewCustomers:      "canViewCustomers",
	ViewAllActivities:  "canViewAllActivities",
	ViewOwnActivities:  "canViewOwnActivities",
	Export:             "canExport",
	AccessAuditLogs:    "canAccessAuditLogs",
	PerformBulkActions: "canPerformBulkActions",
	InlineEdit:         "canInlineEdit",
	CreateOrder:        "canCreateOrder",
	UpdateOrder:        "canUpdateOrder",
}

func (c Capability) String() string {
	if c >= numCapabilities {
		return "unknown"
	}
	return capabilityNames[c]
}

// All returns every capability in declaration order.
func All() []Capability {
	out := make([]Capability, 0, numCapabilities)
	for c := Capability(0); c < numCapabilities; c++ {
		out = append(out, c)
	}
	return out
}

// Parse maps a capability name such as "canUpdateOrder" to its Capability.
func Parse(name string) (Capability, bool) {
	for c, n := range capabilityNames {
		if n == name {
			return Capability(c), true
		}
	}
	return 0, false
}

// Set is a bitmask of granted capabilities.
type Set uint32

func setOf(caps ...Capability) Set {
	var s Set
	for _, c := range caps {
		s |= 1 << c
	}
	return s
}

// Has reports whether c is in s.
func (s Set) Has(c Capability) bool {
	if c >= numCapabilities {
		return false
	}
	return s&(1<<c) != 0
}

// List returns the capabilities in s in declaration order.
func (s Set) List() []Capability {
	var out []Capability
	for _, c := range All() {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

var table = map[models.Role]Set{
	models.RoleAdmin: setOf(
		ViewDashboard, ViewOrders, ViewPartners, ViewRates, ManageRates, ManagePartners,
		ViewCustomers, ViewAllActivities, Export, AccessAuditLogs, PerformBulkActions,
		InlineEdit, UpdateOrder,
	),
	models.RoleCustomer: setOf(
		ViewDashboard, ViewOrders, ViewRates, ViewOwnActivities, Export, CreateOrder, UpdateOrder,
	),
	models.RoleServiceProvider: setOf(
		ViewDashboard, ViewOrders, ViewRates, ViewOwnActivities, Export, InlineEdit, UpdateOrder,
	),
}

// For returns the capability set of role; unknown roles get the empty set.
func For(role models.Role) Set {
	return table[role]
}

// Has reports whether role holds capability c.
func Has(role models.Role, c Capability) bool {
	return table[role].Has(c)
}

// HasNamed is Has keyed by capability name. Unlisted names are not granted.
func HasNamed(role models.Role, name string) bool {
	c, ok := Parse(name)
	if !ok {
		return false
	}
	return Has(role, c)
}
