// Package audit records the append-only activity log.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ironingOrderManagement/models"
)

// Appender persists an activity. Implementations only ever insert.
type Appender interface {
	Append(ctx context.Context, a *models.Activity) error
}

// Recorder builds activity entries and appends them to a store.
type Recorder struct {
	store  Appender
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(r *Recorder) { r.newID = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

func NewRecorder(store Appender, opts ...Option) *Recorder {
	r := &Recorder{
		store:  store,
		now:    time.Now,
		newID:  func() string { return "act-" + uuid.New().String() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "audit")
	return r
}

// WithStore returns a copy of r appending to store, typically a transaction-bound repository.
func (r *Recorder) WithStore(store Appender) *Recorder {
	c := *r
	c.store = store
	return &c
}

// Record appends one entry describing what actor did to entityID.
func (r *Recorder) Record(ctx context.Context, typ models.ActivityType, entityID string, actor models.Actor, severity models.Severity) (*models.Activity, error) {
	if r.store == nil {
		return nil, errors.New("audit: no store")
	}
	if severity == "" {
		severity = models.SeverityInfo
	}
	a := &models.Activity{
		ID:        r.newID(),
		Type:      typ,
		Entity:    entityID,
		Role:      actor.Role,
		ActorID:   actor.ID,
		Actor:     actor.Name,
		Timestamp: r.now().UTC(),
		Severity:  severity,
	}
	if err := r.store.Append(ctx, a); err != nil {
		return nil, err
	}
	r.logger.DebugContext(ctx, "activity recorded", "type", a.Type, "entity", a.Entity, "actor", a.ActorID)
	return a, nil
}
