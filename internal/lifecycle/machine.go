package lifecycle

import (
	"strings"
	"time"

	"ironingOrderManagement/internal/apperr"
	"ironingOrderManagement/internal/permissions"
	"ironingOrderManagement/internal/sla"
	"ironingOrderManagement/models"
)

// Payload carries transition-specific input.
type Payload struct {
	// TargetStatus is Delivered or Picked for Finalize.
	TargetStatus models.OrderStatus
	// ProofDocuments are appended to the order's documents on Finalize.
	ProofDocuments []models.Document
	// DeliveryOption and Address apply to UpdateDelivery.
	DeliveryOption models.DeliveryOption
	Address        string
	// Items replaces the order's items on UpdateItems.
	Items []models.OrderItem
}

// Effect describes what a successful operation did, for auditing.
type Effect struct {
	Transition    Transition
	From          models.OrderStatus
	To            models.OrderStatus
	StatusChanged bool
	Activity      models.ActivityType
	Severity      models.Severity
}

// Machine applies transitions. It holds no order state of its own.
type Machine struct {
	now            func() time.Time
	slaWindow      time.Duration
	strictTerminal bool
}

// Option configures a Machine.
type Option func(*Machine)

func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

func WithSLAWindow(d time.Duration) Option {
	return func(m *Machine) { m.slaWindow = d }
}

// WithStrictTerminal makes Finalize reject the terminal status that does not match the
// order's delivery option (Doorstep → Delivered, Customer Pickup → Picked).
func WithStrictTerminal(strict bool) Option {
	return func(m *Machine) { m.strictTerminal = strict }
}

func New(opts ...Option) *Machine {
	m := &Machine{now: time.Now, slaWindow: sla.DefaultWindow}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) clock() time.Time {
	return m.now().UTC()
}

// Create places a new order for customer. id is assigned by the caller's store.
func (m *Machine) Create(id string, customer models.Actor, d Draft) (*models.Order, Effect, error) {
	const op = "create"
	if !customer.IsCustomer() || !permissions.Has(customer.Role, permissions.CreateOrder) {
		return nil, Effect{}, apperr.PermissionDenied(op, "%s cannot place orders", customer.Role)
	}
	if err := ValidateDraft(d); err != nil {
		return nil, Effect{}, err
	}

	now := m.clock()
	due := sla.Due(now, m.slaWindow)
	o := &models.Order{
		ID:             id,
		CustomerID:     customer.ID,
		CustomerName:   customer.Name,
		DeliveryOption: d.DeliveryOption,
		Address:        normalizedAddress(d.DeliveryOption, d.Address),
		Notes:          strings.TrimSpace(d.Notes),
		Status:         models.OrderStatusCreated,
		Timeline:       []models.TimelineEntry{{Status: models.OrderStatusCreated, Timestamp: now, ActorName: customer.Name}},
		SLADue:         &due,
		Documents:      append([]models.Document{}, d.Documents...),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	o.SetItems(d.Items)
	sla.Apply(o, now)

	return o, Effect{
		From:          "",
		To:            models.OrderStatusCreated,
		StatusChanged: true,
		Activity:      models.ActivityOrderPlaced,
		Severity:      models.SeverityInfo,
	}, nil
}

// Apply runs transition t on a copy of o on behalf of actor and returns the updated copy.
// On any error o is returned to the caller untouched and nothing else is produced.
func (m *Machine) Apply(o *models.Order, actor models.Actor, t Transition, p Payload) (*models.Order, Effect, error) {
	op := string(t)
	r, ok := rules[t]
	if !ok {
		return nil, Effect{}, apperr.InvalidTransition(op, "unknown transition %q", t)
	}
	if o == nil {
		return nil, Effect{}, apperr.NotFound(op, "order", "")
	}
	if err := CheckActor(o, actor, t); err != nil {
		return nil, Effect{}, err
	}

	to := r.to
	switch t {
	case Finalize:
		if !p.TargetStatus.IsTerminal() {
			return nil, Effect{}, apperr.InvalidTransition(op, "target status %q is not Delivered or Picked", p.TargetStatus)
		}
		if m.strictTerminal && p.TargetStatus != o.DeliveryOption.TerminalStatus() {
			return nil, Effect{}, apperr.InvalidTransition(op, "%s orders finish as %s, not %s",
				o.DeliveryOption, o.DeliveryOption.TerminalStatus(), p.TargetStatus)
		}
		if err := validateDocuments("proofDocuments", p.ProofDocuments); err != nil {
			return nil, Effect{}, err
		}
		to = p.TargetStatus
	case UpdateDelivery:
		if err := apperr.Validation(op, deliveryFields(p.DeliveryOption, p.Address)...); err != nil {
			return nil, Effect{}, err
		}
	case UpdateItems:
		if err := apperr.Validation(op, itemFields(p.Items)...); err != nil {
			return nil, Effect{}, err
		}
	}

	now := m.clock()
	next := o.Clone()
	eff := Effect{Transition: t, From: o.Status, To: o.Status, Activity: r.activity, Severity: r.severity}

	switch t {
	case Accept:
		id, name := actor.ID, actor.Name
		next.ServiceProviderID = &id
		next.ServiceProviderName = &name
	case Finalize:
		next.Documents = append(next.Documents, p.ProofDocuments...)
		eff.Activity = terminalActivity(to)
	case UpdateDelivery:
		next.DeliveryOption = p.DeliveryOption
		next.Address = normalizedAddress(p.DeliveryOption, p.Address)
	case UpdateItems:
		next.SetItems(p.Items)
	}

	if to != "" {
		next.Status = to
		next.Timeline = append(next.Timeline, models.TimelineEntry{Status: to, Timestamp: now, ActorName: actor.Name})
		eff.To = to
		eff.StatusChanged = true
	}
	next.UpdatedAt = now
	sla.Apply(next, now)
	return next, eff, nil
}

// CheckActor reports whether actor may drive t on o in its current status. Capability and
// party are checked first (PermissionDenied), then the status precondition
// (InvalidStateTransition), then assignment or ownership (PermissionDenied).
func CheckActor(o *models.Order, actor models.Actor, t Transition) error {
	op := string(t)
	r, ok := rules[t]
	if !ok {
		return apperr.InvalidTransition(op, "unknown transition %q", t)
	}
	if !permissions.Has(actor.Role, permissions.UpdateOrder) {
		return apperr.PermissionDenied(op, "%s lacks %s", actor.Role, permissions.UpdateOrder)
	}
	switch r.by {
	case anyProvider, assignedProvider:
		if !actor.IsServiceProvider() {
			return apperr.PermissionDenied(op, "only a service provider can %s an order", t)
		}
	case owningCustomer:
		if !actor.IsCustomer() {
			return apperr.PermissionDenied(op, "only the ordering customer can %s", t)
		}
	}
	if o.Status != r.from {
		return apperr.InvalidTransition(op, "order %s is %s; %s requires %s", o.ID, o.Status, t, r.from)
	}
	switch r.by {
	case anyProvider:
		if o.IsAssigned() {
			return apperr.PermissionDenied(op, "order %s is already assigned", o.ID)
		}
	case assignedProvider:
		if !o.AssignedTo(actor.ID) {
			return apperr.PermissionDenied(op, "order %s is not assigned to %s", o.ID, actor.ID)
		}
	case owningCustomer:
		if o.CustomerID != actor.ID {
			return apperr.PermissionDenied(op, "order %s belongs to another customer", o.ID)
		}
	}
	return nil
}

// Available lists the transitions actor may apply to o now. For a Ready order only the
// terminal status matching the delivery option is offered, via TerminalOption.
func (m *Machine) Available(o *models.Order, actor models.Actor) []Transition {
	var out []Transition
	for _, t := range Transitions() {
		if CheckActor(o, actor, t) == nil {
			out = append(out, t)
		}
	}
	return out
}

// TerminalOption is the finishing status presented for o.
func TerminalOption(o *models.Order) models.OrderStatus {
	return o.DeliveryOption.TerminalStatus()
}
