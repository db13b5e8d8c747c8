// Package authz decides whether an actor may see or change a specific record, combining
// the role capability table with ownership of the record.
package authz

import (
	"ironingOrderManagement/internal/apperr"
	"ironingOrderManagement/internal/lifecycle"
	"ironingOrderManagement/internal/permissions"
	"ironingOrderManagement/models"
)

// AccessKind is the kind of access requested.
type AccessKind int

const (
	View AccessKind = iota
	Mutate
)

func (k AccessKind) String() string {
	if k == Mutate {
		return "mutate"
	}
	return "view"
}

// AuditLog stands for the order audit trail as a record, for CanAccessRecord.
type AuditLog struct{}

// CanAccessRecord reports whether actor may access record. Supported records are orders,
// partners, rates, activities and AuditLog, by value or pointer. Anything else is denied.
// Order mutation here only checks the capability and the actor's relation to the order;
// use CanApply for a specific transition.
func CanAccessRecord(actor models.Actor, record any, kind AccessKind) bool {
	switch r := record.(type) {
	case *models.Order:
		return r != nil && canAccessOrder(actor, r, kind)
	case models.Order:
		return canAccessOrder(actor, &r, kind)
	case *models.Partner, models.Partner:
		return allowed(actor, kind, permissions.ViewPartners, permissions.ManagePartners)
	case *models.Rate, models.Rate:
		return allowed(actor, kind, permissions.ViewRates, permissions.ManageRates)
	case *models.Activity:
		return r != nil && kind == View && CanViewActivity(actor, *r)
	case models.Activity:
		return kind == View && CanViewActivity(actor, r)
	case AuditLog, *AuditLog:
		return kind == View && permissions.Has(actor.Role, permissions.AccessAuditLogs)
	}
	return false
}

func allowed(actor models.Actor, kind AccessKind, view, manage permissions.Capability) bool {
	if kind == Mutate {
		return permissions.Has(actor.Role, manage)
	}
	return permissions.Has(actor.Role, view)
}

func canAccessOrder(actor models.Actor, o *models.Order, kind AccessKind) bool {
	if kind == Mutate {
		if !permissions.Has(actor.Role, permissions.UpdateOrder) {
			return false
		}
		switch actor.Role {
		case models.RoleCustomer:
			return o.CustomerID == actor.ID
		case models.RoleServiceProvider:
			return !o.IsAssigned() || o.AssignedTo(actor.ID)
		}
		return false
	}
	return CanViewOrder(actor, o)
}

// CanViewOrder applies the order visibility rule: admins see everything, customers their
// own orders, service providers their assignments plus the unassigned pool.
func CanViewOrder(actor models.Actor, o *models.Order) bool {
	if o == nil || !permissions.Has(actor.Role, permissions.ViewOrders) {
		return false
	}
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCustomer:
		return o.CustomerID == actor.ID
	case models.RoleServiceProvider:
		return !o.IsAssigned() || o.AssignedTo(actor.ID)
	}
	return false
}

// CanViewActivity lets holders of canViewAllActivities see every entry and holders of
// canViewOwnActivities see entries they produced.
func CanViewActivity(actor models.Actor, a models.Activity) bool {
	if permissions.Has(actor.Role, permissions.ViewAllActivities) {
		return true
	}
	return permissions.Has(actor.Role, permissions.ViewOwnActivities) && a.ActorID == actor.ID
}

// CanApply checks the capability and the transition's actor rule for o.
func CanApply(actor models.Actor, o *models.Order, t lifecycle.Transition) error {
	return lifecycle.CheckActor(o, actor, t)
}

// Require returns PermissionDenied unless actor's role holds c.
func Require(op string, actor models.Actor, c permissions.Capability) error {
	if !actor.Role.Valid() {
		return apperr.PermissionDenied(op, "no active actor")
	}
	if !permissions.Has(actor.Role, c) {
		return apperr.PermissionDenied(op, "%s lacks %s", actor.Role, c)
	}
	return nil
}

// FilterOrders keeps the orders actor may view, preserving order.
func FilterOrders(actor models.Actor, orders []models.Order) []models.Order {
	out := make([]models.Order, 0, len(orders))
	for i := range orders {
		if CanViewOrder(actor, &orders[i]) {
			out = append(out, orders[i])
		}
	}
	return out
}

// FilterActivities keeps the activities actor may view, preserving order.
func FilterActivities(actor models.Actor, list []models.Activity) []models.Activity {
	out := make([]models.Activity, 0, len(list))
	for _, a := range list {
		if CanViewActivity(actor, a) {
			out = append(out, a)
		}
	}
	return out
}
