// Package session owns the login lifecycle. Login opens and seeds a fresh store, builds the
// dashboard service over it and starts the SLA sweep; logout stops the sweep and drops the
// store. At most one session is active per Manager.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ironingOrderManagement/internal/apperr"
	"ironingOrderManagement/internal/auth"
	"ironingOrderManagement/internal/config"
	"ironingOrderManagement/internal/dashboard"
	"ironingOrderManagement/internal/db"
	"ironingOrderManagement/internal/seed"
	"ironingOrderManagement/internal/sla"
	"ironingOrderManagement/models"
	"ironingOrderManagement/repository"
)

// ErrNoSession is returned when an operation needs a logged-in actor and there is none.
var ErrNoSession = errors.New("session: not logged in")

// Session is one logged-in actor and the store scoped to it.
type Session struct {
	ID        string
	Actor     models.Actor
	Token     string
	ExpiresAt time.Time

	Service *dashboard.Service
	Sweeper *sla.Sweeper

	db     *sql.DB
	cancel context.CancelFunc
	done   chan struct{}
}

// Context returns ctx carrying the session's principal.
func (s *Session) Context(ctx context.Context) context.Context {
	return auth.WithPrincipal(ctx, &auth.Principal{SessionID: s.ID, Actor: s.Actor, ExpiresAt: s.ExpiresAt})
}

// Manager creates and tears down sessions.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	current *Session
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(cfg *config.Config, opts ...Option) *Manager {
	m := &Manager{cfg: cfg, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "session")
	return m
}

// Login starts a session for who, which is either a role name ("Admin", "customer",
// "service provider") selecting the first seeded user of that role, or a user id. An active
// session is logged out first.
func (m *Manager) Login(ctx context.Context, who string) (*Session, error) {
	const op = "login"
	who = strings.TrimSpace(who)
	if who == "" {
		return nil, apperr.Validation(op, apperr.Field("user", "role or user id is required"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		if err := m.teardown(m.current); err != nil {
			m.logger.WarnContext(ctx, "close previous session", "session", m.current.ID, "error", err)
		}
		m.current = nil
	}

	id := uuid.NewString()
	d, err := m.openStore(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := lookup(ctx, repository.NewUserRepository(d), who)
	if err != nil {
		_ = d.Close()
		return nil, err
	}

	now := m.now()
	actor := user.Actor()
	token, err := auth.Issue(m.cfg.Session.Secret, auth.Principal{SessionID: id, Actor: actor}, m.cfg.Session.TTL, now)
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("%s: issue token: %w", op, err)
	}

	logger := m.logger.With("session", id, "actor", actor.ID)
	svc := dashboard.New(d,
		dashboard.WithClock(m.now),
		dashboard.WithLogger(logger),
		dashboard.WithSLAWindow(m.cfg.SLA.Window),
		dashboard.WithStrictTerminal(m.cfg.Lifecycle.StrictTerminal),
		dashboard.WithLimits(m.cfg.Dashboard.RecentActivities, m.cfg.Dashboard.UpcomingDeadlines),
	)
	sweeper := sla.NewSweeper(svc.Orders(), m.cfg.SLA.SweepInterval,
		sla.WithClock(m.now),
		sla.WithLogger(logger),
		sla.WithOnChange(func(orderID string, from, to models.SLAStatus) {
			logger.Debug("sla flag changed", "order_id", orderID, "from", from, "to", to)
		}),
	)

	runCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        id,
		Actor:     actor,
		Token:     token,
		ExpiresAt: now.Add(m.cfg.Session.TTL),
		Service:   svc,
		Sweeper:   sweeper,
		db:        d,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		sweeper.Run(runCtx)
	}()
	m.current = s
	logger.InfoContext(ctx, "logged in", "role", actor.Role, "name", actor.Name)
	return s, nil
}

func (m *Manager) openStore(ctx context.Context, id string) (*sql.DB, error) {
	var (
		d   *sql.DB
		err error
	)
	if m.cfg.Store.DSN != "" {
		d, err = db.Open(m.cfg.Store.DSN)
	} else {
		d, err = db.OpenMemory("session_" + id)
	}
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// A persistent store is seeded once.
	existing, err := repository.NewUserRepository(d).List(ctx, 1, 0)
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	if len(existing) > 0 {
		return d, nil
	}
	f, err := seed.LoadFile(m.cfg.Seed.File)
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	if err := f.Apply(ctx, d); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("seed store: %w", err)
	}
	return d, nil
}

func lookup(ctx context.Context, users *repository.UserRepository, who string) (*models.User, error) {
	var (
		u   *models.User
		err error
	)
	if role, perr := models.ParseRole(who); perr == nil {
		u, err = users.FirstByRole(ctx, role)
	} else {
		u, err = users.GetByID(ctx, who)
	}
	if err != nil {
		return nil, fmt.Errorf("login: find user %s: %w", who, err)
	}
	if u == nil {
		return nil, apperr.NotFound("login", "user", who)
	}
	return u, nil
}

// Logout stops the active session's sweep and closes its store. It is a no-op without one.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	err := m.teardown(m.current)
	m.current = nil
	return err
}

func (m *Manager) teardown(s *Session) error {
	s.cancel()
	<-s.done
	err := s.db.Close()
	m.logger.Info("logged out", "session", s.ID, "actor", s.Actor.ID)
	return err
}

// Current returns the active session, if any.
func (m *Manager) Current() (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.current != nil
}

// Resume returns the active session when token was issued for it and has not expired.
func (m *Manager) Resume(token string) (*Session, error) {
	const op = "resume"
	p, err := auth.ParseBearer(token, m.cfg.Session.Secret)
	if err != nil {
		return nil, apperr.PermissionDenied(op, "invalid session token: %v", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoSession
	}
	if p.SessionID != m.current.ID || p.Actor.ID != m.current.Actor.ID {
		return nil, apperr.PermissionDenied(op, "token belongs to another session")
	}
	return m.current, nil
}
