package sla

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ironingOrderManagement/models"
)

// OpenOrderLister returns every order that has not reached a terminal status.
type OpenOrderLister interface {
	ListOpen(ctx context.Context) ([]models.Order, error)
}

// ChangeFunc is called when an order's derived SLA flag changes between sweeps.
type ChangeFunc func(orderID string, from, to models.SLAStatus)

// Sweeper periodically recomputes SLA flags for open orders. It reads orders and
// writes only its own flag table; order status and timeline are never touched.
type Sweeper struct {
	orders   OpenOrderLister
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	onChange ChangeFunc

	mu    sync.RWMutex
	flags map[string]models.SLAStatus
}

// Option configures a Sweeper.
type Option func(*Sweeper)

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) { s.logger = l }
}

func WithOnChange(fn ChangeFunc) Option {
	return func(s *Sweeper) { s.onChange = fn }
}

// NewSweeper creates a sweeper over orders. A non-positive interval uses DefaultSweepInterval.
func NewSweeper(orders OpenOrderLister, interval time.Duration, opts ...Option) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	s := &Sweeper{
		orders:   orders,
		interval: interval,
		now:      time.Now,
		logger:   slog.Default(),
		flags:    map[string]models.SLAStatus{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "sla")
	return s
}

// SweepOnce evaluates every open order once and returns how many flags changed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	list, err := s.orders.ListOpen(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	next := make(map[string]models.SLAStatus, len(list))
	for i := range list {
		next[list[i].ID] = Compute(list[i].SLADue, list[i].Status, now)
	}

	s.mu.Lock()
	prev := s.flags
	s.flags = next
	s.mu.Unlock()

	changed := 0
	for id, to := range next {
		from, seen := prev[id]
		if seen && from == to {
			continue
		}
		changed++
		if to == models.SLABreach {
			s.logger.WarnContext(ctx, "order breached SLA", "order_id", id)
		}
		if s.onChange != nil {
			s.onChange(id, from, to)
		}
	}
	return changed, nil
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "sla sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// status returns the last computed flag for an open order.
func (s *Sweeper) status(orderID string) (models.SLAStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.flags[orderID]
	return st, ok
}

// Snapshot returns a copy of the current flags keyed by order id.
func (s *Sweeper) Snapshot() map[string]models.SLAStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.SLAStatus, len(s.flags))
	for k, v := range s.flags {
		out[k] = v
	}
	return out
}

// Counts tallies the current flags, for periodic status logging.
func (s *Sweeper) Counts() map[models.SLAStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[models.SLAStatus]int)
	for _, v := range s.flags {
		out[v]++
	}
	return out
}
