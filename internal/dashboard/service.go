// Package dashboard is the operation surface of the ironing dashboard: order listing and
// submission, lifecycle transitions, the activity feed, partner and rate upkeep, role
// summaries and export. Every operation takes the acting user explicitly and runs against
// one session store.
package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ironingOrderManagement/internal/apperr"
	"ironingOrderManagement/internal/audit"
	"ironingOrderManagement/internal/authz"
	"ironingOrderManagement/internal/lifecycle"
	"ironingOrderManagement/internal/permissions"
	"ironingOrderManagement/internal/sla"
	"ironingOrderManagement/models"
	"ironingOrderManagement/repository"
)

// Service runs dashboard operations against one session store.
type Service struct {
	db         *sql.DB
	users      *repository.UserRepository
	orders     *repository.OrderRepository
	partners   *repository.PartnerRepository
	rates      *repository.RateRepository
	activities *repository.ActivityRepository
	seqs       *repository.SequenceRepository

	machine  *lifecycle.Machine
	recorder *audit.Recorder
	now      func() time.Time
	logger   *slog.Logger

	slaWindow         time.Duration
	strictTerminal    bool
	recentActivities  int
	upcomingDeadlines int
}

// Option configures a Service.
type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithSLAWindow(d time.Duration) Option {
	return func(s *Service) { s.slaWindow = d }
}

func WithStrictTerminal(strict bool) Option {
	return func(s *Service) { s.strictTerminal = strict }
}

// WithLimits bounds the summary's recent activity feed and deadline list.
func WithLimits(recentActivities, upcomingDeadlines int) Option {
	return func(s *Service) {
		s.recentActivities = recentActivities
		s.upcomingDeadlines = upcomingDeadlines
	}
}

// New creates a Service over a migrated and seeded store.
func New(d *sql.DB, opts ...Option) *Service {
	s := &Service{
		db:                d,
		users:             repository.NewUserRepository(d),
		orders:            repository.NewOrderRepository(d),
		partners:          repository.NewPartnerRepository(d),
		rates:             repository.NewRateRepository(d),
		activities:        repository.NewActivityRepository(d),
		seqs:              repository.NewSequenceRepository(d),
		now:               time.Now,
		logger:            slog.Default(),
		slaWindow:         sla.DefaultWindow,
		recentActivities:  5,
		upcomingDeadlines: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "dashboard")
	s.machine = lifecycle.New(
		lifecycle.WithClock(s.now),
		lifecycle.WithSLAWindow(s.slaWindow),
		lifecycle.WithStrictTerminal(s.strictTerminal),
	)
	s.recorder = audit.NewRecorder(s.activities, audit.WithClock(s.now), audit.WithLogger(s.logger))
	return s
}

// Users exposes the user directory, for session login.
func (s *Service) Users() *repository.UserRepository { return s.users }

// Orders exposes the order repository, for the SLA sweep.
func (s *Service) Orders() *repository.OrderRepository { return s.orders }

func (s *Service) clock() time.Time { return s.now().UTC() }

// OrderFilter narrows ListOrders. Zero values match everything visible.
type OrderFilter struct {
	Statuses []models.OrderStatus
	SLA      models.SLAStatus
}

// ListOrders returns the orders actor may see, newest first, with SLA flags evaluated now.
func (s *Service) ListOrders(ctx context.Context, actor models.Actor, f OrderFilter) ([]models.Order, error) {
	const op = "listOrders"
	if err := authz.Require(op, actor, permissions.ViewOrders); err != nil {
		return nil, err
	}
	q := repository.OrderQuery{Statuses: f.Statuses}
	switch actor.Role {
	case models.RoleCustomer:
		q.CustomerID = actor.ID
	case models.RoleServiceProvider:
		q.ProviderID = actor.ID
		q.IncludeUnassigned = true
	}
	list, err := s.orders.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	list = authz.FilterOrders(actor, list)
	now := s.clock()
	out := list[:0]
	for i := range list {
		sla.Apply(&list[i], now)
		if f.SLA != "" && list[i].SLAStatus != f.SLA {
			continue
		}
		out = append(out, list[i])
	}
	return out, nil
}

// GetOrder returns one order if actor may see it.
func (s *Service) GetOrder(ctx context.Context, actor models.Actor, id string) (*models.Order, error) {
	const op = "getOrder"
	if err := authz.Require(op, actor, permissions.ViewOrders); err != nil {
		return nil, err
	}
	o, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanAccessRecord(actor, o, authz.View) {
		return nil, apperr.PermissionDenied(op, "%s may not view order %s", actor.ID, id)
	}
	sla.Apply(o, s.clock())
	return o, nil
}

func (s *Service) load(ctx context.Context, op, id string) (*models.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: load order %s: %w", op, id, err)
	}
	if o == nil {
		return nil, apperr.NotFound(op, "order", id)
	}
	return o, nil
}

// SubmitOrder places a new order for a customer. Each item is priced from the Active rate for
// its cloth type; the draft's own unit prices are ignored.
func (s *Service) SubmitOrder(ctx context.Context, actor models.Actor, d lifecycle.Draft) (*models.Order, error) {
	const op = "submitOrder"
	if err := authz.Require(op, actor, permissions.CreateOrder); err != nil {
		return nil, err
	}
	if !actor.IsCustomer() {
		return nil, apperr.PermissionDenied(op, "only customers place orders")
	}
	priced, rateFields, err := s.priceItems(ctx, d.Items)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	d.Items = priced
	if len(rateFields) > 0 || hasUnpriced(priced) {
		// Prices come from rates, so an unpriced item is already reported by its cloth type.
		for _, f := range lifecycle.DraftFields(d) {
			if !strings.HasSuffix(f.Field, ".unitPrice") {
				rateFields = append(rateFields, f)
			}
		}
		return nil, apperr.Validation(op, rateFields...)
	}

	var created *models.Order
	err = repository.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		n, err := s.seqs.WithTx(tx).Next(ctx, repository.SeqOrders)
		if err != nil {
			return err
		}
		o, eff, err := s.machine.Create(orderID(n), actor, d)
		if err != nil {
			return err
		}
		if err := s.orders.WithTx(tx).Create(ctx, o); err != nil {
			return err
		}
		if _, err := s.recorder.WithStore(s.activities.WithTx(tx)).Record(ctx, eff.Activity, o.ID, actor, eff.Severity); err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindUnknown {
			s.logger.InfoContext(ctx, "order rejected", "actor", actor.ID, "err", err)
			return nil, err
		}
		s.logger.ErrorContext(ctx, "submit order failed", "actor", actor.ID, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.InfoContext(ctx, "order placed", "order", created.ID, "actor", actor.ID, "total", created.TotalAmount.StringFixed(2))
	return created, nil
}

// priceItems replaces each item's price with its Active rate. Items with a bad quantity are
// left for draft validation to report; unknown cloth types and quantities under the rate's
// minimum come back as field errors.
func (s *Service) priceItems(ctx context.Context, items []models.OrderItem) ([]models.OrderItem, []apperr.FieldError, error) {
	out := make([]models.OrderItem, len(items))
	var fields []apperr.FieldError
	for i, it := range items {
		out[i] = it
		out[i].UnitPrice = decimal.Zero
		if strings.TrimSpace(it.ClothType) == "" {
			continue
		}
		r, err := s.rates.FindActiveByClothType(ctx, it.ClothType)
		if err != nil {
			return nil, nil, err
		}
		if r == nil {
			fields = append(fields, apperr.Field(fmt.Sprintf("items[%d].clothType", i), "no active rate for %q", it.ClothType))
			continue
		}
		out[i].ClothType = r.ClothType
		out[i].UnitPrice = r.PricePerUnit
		if it.Quantity > 0 && it.Quantity < r.MinQty {
			fields = append(fields, apperr.Field(fmt.Sprintf("items[%d].quantity", i), "minimum for %s is %d", r.ClothType, r.MinQty))
		}
	}
	return out, fields, nil
}

func hasUnpriced(items []models.OrderItem) bool {
	for _, it := range items {
		if !it.UnitPrice.IsPositive() {
			return true
		}
	}
	return false
}

func orderID(n int64) string {
	s := strconv.FormatInt(n, 10)
	for len(s) < 3 {
		s = "0" + s
	}
	return "ORD" + s
}

// ApplyTransition runs a named lifecycle transition. On any error the stored order is unchanged
// and no activity is recorded.
func (s *Service) ApplyTransition(ctx context.Context, actor models.Actor, orderID string, name string, p lifecycle.Payload) (*models.Order, error) {
	const op = "applyTransition"
	t, ok := lifecycle.ParseTransition(name)
	if !ok {
		return nil, apperr.InvalidTransition(op, "unknown transition %q", name)
	}
	o, err := s.load(ctx, op, orderID)
	if err != nil {
		return nil, err
	}
	if !authz.CanViewOrder(actor, o) {
		return nil, apperr.PermissionDenied(string(t), "%s may not act on order %s", actor.ID, orderID)
	}
	if t == lifecycle.UpdateItems && len(p.Items) > 0 {
		if err := authz.CanApply(actor, o, t); err != nil {
			return nil, err
		}
		priced, fields, err := s.priceItems(ctx, p.Items)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if len(fields) > 0 {
			return nil, apperr.Validation(string(t), fields...)
		}
		p.Items = priced
	}
	next, eff, err := s.machine.Apply(o, actor, t, p)
	if err != nil {
		s.logger.InfoContext(ctx, "transition rejected", "order", orderID, "transition", t, "actor", actor.ID, "err", err)
		return nil, err
	}

	err = repository.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		orders := s.orders.WithTx(tx)
		if err := orders.UpdateFrom(ctx, next, o.Status); err != nil {
			return err
		}
		if err := orders.AppendTimeline(ctx, next.ID, next.Timeline[len(o.Timeline):]...); err != nil {
			return err
		}
		if err := orders.AppendDocuments(ctx, next.ID, next.Documents[len(o.Documents):]...); err != nil {
			return err
		}
		_, err := s.recorder.WithStore(s.activities.WithTx(tx)).Record(ctx, eff.Activity, next.ID, actor, eff.Severity)
		return err
	})
	if errors.Is(err, repository.ErrStaleOrder) {
		s.logger.InfoContext(ctx, "transition lost a race", "order", orderID, "transition", t, "from", o.Status)
		return nil, apperr.InvalidTransition(string(t), "order %s is no longer %s", orderID, o.Status)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "persist transition failed", "order", orderID, "transition", t, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.InfoContext(ctx, "transition applied", "order", next.ID, "transition", t, "from", eff.From, "to", eff.To, "actor", actor.ID)
	return next, nil
}

// Action is a transition the actor can apply right now. Target is set for Finalize.
type Action struct {
	Transition lifecycle.Transition `json:"transition"`
	Target     models.OrderStatus   `json:"target,omitempty"`
}

// AvailableTransitions lists what actor may do to an order now. For a Ready order only the
// terminal status matching its delivery option is offered.
func (s *Service) AvailableTransitions(ctx context.Context, actor models.Actor, orderID string) ([]Action, error) {
	o, err := s.GetOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	var out []Action
	for _, t := range s.machine.Available(o, actor) {
		a := Action{Transition: t}
		if t == lifecycle.Finalize {
			a.Target = lifecycle.TerminalOption(o)
		}
		out = append(out, a)
	}
	return out, nil
}

// OrderTimeline returns an order's status history. It is part of the audit log.
func (s *Service) OrderTimeline(ctx context.Context, actor models.Actor, orderID string) ([]models.TimelineEntry, error) {
	const op = "orderTimeline"
	if !authz.CanAccessRecord(actor, authz.AuditLog{}, authz.View) {
		return nil, apperr.PermissionDenied(op, "%s lacks %s", actor.Role, permissions.AccessAuditLogs)
	}
	o, err := s.load(ctx, op, orderID)
	if err != nil {
		return nil, err
	}
	return o.Timeline, nil
}
