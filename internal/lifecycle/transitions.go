// Package lifecycle is the order state machine: Created → Accepted → Ironing → Ready → Delivered | Picked.
//
// Every operation works on a copy of the order. The caller's value is only replaced by the
// result when the whole transition succeeded, so a rejected call has no partial effects.
package lifecycle

import (
	"strings"

	"ironingOrderManagement/models"
)

// Transition names an operation on an existing order.
type Transition string

const (
	Accept         Transition = "accept"
	MarkIroning    Transition = "markIroning"
	MarkReady      Transition = "markReady"
	Finalize       Transition = "finalize"
	UpdateDelivery Transition = "updateDelivery"
	UpdateItems    Transition = "updateItems"
)

// Transitions lists every transition in workflow order.
func Transitions() []Transition {
	return []Transition{Accept, MarkIroning, MarkReady, Finalize, UpdateDelivery, UpdateItems}
}

// ParseTransition accepts the transition name case-insensitively, plus "acceptOrder".
func ParseTransition(s string) (Transition, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "acceptorder" {
		return Accept, true
	}
	for _, t := range Transitions() {
		if strings.ToLower(string(t)) == key {
			return t, true
		}
	}
	return "", false
}

// party is who may drive a transition.
type party int

const (
	// anyProvider: any service provider; the order is taken from the unassigned pool.
	anyProvider party = iota
	// assignedProvider: only the provider the order is assigned to.
	assignedProvider
	// owningCustomer: only the customer who placed the order.
	owningCustomer
)

type rule struct {
	from     models.OrderStatus
	by       party
	to       models.OrderStatus // empty when the target comes from the payload or status is kept
	activity models.ActivityType
	severity models.Severity
}

// rules is the complete transition table. A (status, transition) pair not listed here is rejected.
var rules = map[Transition]rule{
	Accept:         {from: models.OrderStatusCreated, by: anyProvider, to: models.OrderStatusAccepted, activity: models.ActivityOrderAccepted, severity: models.SeveritySuccess},
	MarkIroning:    {from: models.OrderStatusAccepted, by: assignedProvider, to: models.OrderStatusIroning, activity: models.ActivityOrderIroning, severity: models.SeverityWarning},
	MarkReady:      {from: models.OrderStatusIroning, by: assignedProvider, to: models.OrderStatusReady, activity: models.ActivityOrderReady, severity: models.SeveritySuccess},
	Finalize:       {from: models.OrderStatusReady, by: assignedProvider, severity: models.SeveritySuccess},
	UpdateDelivery: {from: models.OrderStatusCreated, by: owningCustomer, activity: models.ActivityDeliveryUpdated, severity: models.SeverityInfo},
	UpdateItems:    {from: models.OrderStatusCreated, by: owningCustomer, activity: models.ActivityOrderUpdated, severity: models.SeverityInfo},
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s models.OrderStatus) []models.OrderStatus {
	switch s {
	case models.OrderStatusCreated:
		return []models.OrderStatus{models.OrderStatusAccepted}
	case models.OrderStatusAccepted:
		return []models.OrderStatus{models.OrderStatusIroning}
	case models.OrderStatusIroning:
		return []models.OrderStatus{models.OrderStatusReady}
	case models.OrderStatusReady:
		return []models.OrderStatus{models.OrderStatusDelivered, models.OrderStatusPicked}
	}
	return nil
}

// CanTransition reports whether status from may move to status to.
func CanTransition(from, to models.OrderStatus) bool {
	for _, s := range NextStatuses(from) {
		if s == to {
			return true
		}
	}
	return false
}

func terminalActivity(s models.OrderStatus) models.ActivityType {
	if s == models.OrderStatusPicked {
		return models.ActivityOrderPicked
	}
	return models.ActivityOrderDelivered
}
