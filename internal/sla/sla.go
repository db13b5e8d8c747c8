// Package sla derives service-level status for orders and keeps the derived flags fresh.
package sla

import (
	"time"

	"ironingOrderManagement/models"
)

const (
	// DefaultWindow is the time a new order has to be fulfilled.
	DefaultWindow = 24 * time.Hour
	// DefaultSweepInterval is how often open orders are re-evaluated.
	DefaultSweepInterval = 30 * time.Second
)

// Due returns the SLA deadline for an order created at createdAt.
func Due(createdAt time.Time, window time.Duration) time.Time {
	if window <= 0 {
		window = DefaultWindow
	}
	return createdAt.Add(window)
}

// Compute derives the SLA status. Rules apply in order: terminal statuses are always
// Completed, a missing deadline is N/A, a passed deadline is a breach, otherwise within SLA.
// It has no side effects.
func Compute(due *time.Time, status models.OrderStatus, now time.Time) models.SLAStatus {
	if status.IsTerminal() {
		return models.SLACompleted
	}
	if due == nil || due.IsZero() {
		return models.SLANotApplicable
	}
	if now.After(*due) {
		return models.SLABreach
	}
	return models.SLAWithin
}

// Apply sets o.SLAStatus from its deadline and status. Only the derived flag is written.
func Apply(o *models.Order, now time.Time) {
	if o == nil {
		return
	}
	o.SLAStatus = Compute(o.SLADue, o.Status, now)
}
