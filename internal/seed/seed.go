// Package seed loads the demo fixture into a fresh session store.
package seed

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"ironingOrderManagement/internal/lifecycle"
	"ironingOrderManagement/models"
	"ironingOrderManagement/repository"
)

//go:embed seed.yaml
var defaultFixture []byte

// Fixture is the parsed seed document.
type Fixture struct {
	Sequences  map[string]int64  `yaml:"sequences"`
	Users      []models.User     `yaml:"users"`
	Partners   []models.Partner  `yaml:"partners"`
	Rates      []models.Rate     `yaml:"rates"`
	Orders     []OrderFixture    `yaml:"orders"`
	Activities []models.Activity `yaml:"activities"`
}

// OrderFixture names parties by user id; names are resolved from Users.
type OrderFixture struct {
	ID             string                 `yaml:"id"`
	Customer       string                 `yaml:"customer"`
	Provider       string                 `yaml:"provider"`
	Items          []models.OrderItem     `yaml:"items"`
	Total          *decimal.Decimal       `yaml:"total"`
	DeliveryOption models.DeliveryOption  `yaml:"delivery_option"`
	Address        string                 `yaml:"address"`
	Notes          string                 `yaml:"notes"`
	Status         models.OrderStatus     `yaml:"status"`
	CreatedAt      time.Time              `yaml:"created_at"`
	UpdatedAt      time.Time              `yaml:"updated_at"`
	SLADue         *time.Time             `yaml:"sla_due"`
	Timeline       []models.TimelineEntry `yaml:"timeline"`
	Documents      []models.Document      `yaml:"documents"`
}

// Default returns the embedded fixture.
func Default() (*Fixture, error) {
	return Parse(defaultFixture)
}

// LoadFile reads a fixture from disk; an empty path means the embedded one.
func LoadFile(path string) (*Fixture, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and checks a fixture document.
func Parse(raw []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if err := f.check(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) usersByID() map[string]models.User {
	m := make(map[string]models.User, len(f.Users))
	for _, u := range f.Users {
		m[u.ID] = u
	}
	return m
}

func (f *Fixture) check() error {
	users := f.usersByID()
	if len(users) != len(f.Users) {
		return fmt.Errorf("seed: duplicate user id")
	}
	for _, u := range f.Users {
		if u.ID == "" || !u.Role.Valid() {
			return fmt.Errorf("seed: user %q has invalid role %q", u.ID, u.Role)
		}
	}
	for _, r := range f.Rates {
		if !r.Status.Valid() {
			return fmt.Errorf("seed: rate %s has invalid status %q", r.ID, r.Status)
		}
	}
	for _, o := range f.Orders {
		if c, ok := users[o.Customer]; !ok || c.Role != models.RoleCustomer {
			return fmt.Errorf("seed: order %s: %q is not a customer", o.ID, o.Customer)
		}
		if o.Provider != "" {
			if p, ok := users[o.Provider]; !ok || p.Role != models.RoleServiceProvider {
				return fmt.Errorf("seed: order %s: %q is not a service provider", o.ID, o.Provider)
			}
		}
		if !o.Status.Valid() || !o.DeliveryOption.Valid() {
			return fmt.Errorf("seed: order %s: invalid status or delivery option", o.ID)
		}
		if len(o.Items) == 0 {
			return fmt.Errorf("seed: order %s has no items", o.ID)
		}
		for i, it := range o.Items {
			if it.Quantity <= 0 || !it.UnitPrice.IsPositive() {
				return fmt.Errorf("seed: order %s: item %d needs a positive quantity and unit price", o.ID, i)
			}
		}
		if o.DeliveryOption == models.DeliveryDoorstep && strings.TrimSpace(o.Address) == "" {
			return fmt.Errorf("seed: order %s: doorstep delivery needs an address", o.ID)
		}
		// Only the assigned provider can move an accepted order on.
		if o.Status != models.OrderStatusCreated && o.Provider == "" {
			return fmt.Errorf("seed: order %s: a %s order needs a provider", o.ID, o.Status)
		}
		if o.Status == models.OrderStatusCreated && o.Provider != "" {
			return fmt.Errorf("seed: order %s: a Created order cannot have a provider", o.ID)
		}
		if err := checkTimeline(o); err != nil {
			return err
		}
		if o.Total != nil && !o.Total.Equal(models.TotalOf(o.Items)) {
			return fmt.Errorf("seed: order %s: total %s does not match items %s", o.ID, o.Total, models.TotalOf(o.Items))
		}
	}
	return nil
}

// checkTimeline requires a timeline that starts at Created, moves one legal step per entry,
// never goes back in time and ends in the order's status.
func checkTimeline(o OrderFixture) error {
	if len(o.Timeline) == 0 || o.Timeline[0].Status != models.OrderStatusCreated {
		return fmt.Errorf("seed: order %s: timeline must start with %s", o.ID, models.OrderStatusCreated)
	}
	for i := 1; i < len(o.Timeline); i++ {
		prev, cur := o.Timeline[i-1], o.Timeline[i]
		if !lifecycle.CanTransition(prev.Status, cur.Status) {
			return fmt.Errorf("seed: order %s: timeline cannot go from %s to %s", o.ID, prev.Status, cur.Status)
		}
		if cur.Timestamp.Before(prev.Timestamp) {
			return fmt.Errorf("seed: order %s: timeline out of order", o.ID)
		}
	}
	if last := o.Timeline[len(o.Timeline)-1]; last.Status != o.Status {
		return fmt.Errorf("seed: order %s: timeline must end in %s", o.ID, o.Status)
	}
	return nil
}

// order builds the stored order for an OrderFixture.
func (f *Fixture) order(of OrderFixture, users map[string]models.User) *models.Order {
	o := &models.Order{
		ID:             of.ID,
		CustomerID:     of.Customer,
		CustomerName:   users[of.Customer].Name,
		DeliveryOption: of.DeliveryOption,
		Notes:          of.Notes,
		Status:         of.Status,
		Timeline:       of.Timeline,
		SLADue:         of.SLADue,
		Documents:      of.Documents,
		CreatedAt:      of.CreatedAt,
		UpdatedAt:      of.UpdatedAt,
	}
	if of.DeliveryOption == models.DeliveryDoorstep {
		o.Address = of.Address
	}
	if of.Provider != "" {
		id, name := of.Provider, users[of.Provider].Name
		o.ServiceProviderID, o.ServiceProviderName = &id, &name
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}
	o.SetItems(of.Items)
	return o
}

// Apply writes the fixture into d in a single transaction.
func (f *Fixture) Apply(ctx context.Context, d *sql.DB) error {
	users := f.usersByID()
	byName := make(map[string]string, len(f.Users))
	for _, u := range f.Users {
		byName[u.Name] = u.ID
	}
	return repository.RunInTx(ctx, d, func(tx *sql.Tx) error {
		userRepo := repository.NewUserRepository(d).WithTx(tx)
		for i := range f.Users {
			if err := userRepo.Create(ctx, &f.Users[i]); err != nil {
				return fmt.Errorf("seed user %s: %w", f.Users[i].ID, err)
			}
		}
		partners := repository.NewPartnerRepository(d).WithTx(tx)
		for i := range f.Partners {
			if err := partners.Create(ctx, &f.Partners[i]); err != nil {
				return err
			}
		}
		rates := repository.NewRateRepository(d).WithTx(tx)
		for i := range f.Rates {
			if err := rates.Create(ctx, &f.Rates[i]); err != nil {
				return err
			}
		}
		orders := repository.NewOrderRepository(d).WithTx(tx)
		for _, of := range f.Orders {
			if err := orders.Create(ctx, f.order(of, users)); err != nil {
				return err
			}
		}
		// Stored oldest first so the feed's tie-break on insertion order stays stable.
		activities := repository.NewActivityRepository(d).WithTx(tx)
		for i := len(f.Activities) - 1; i >= 0; i-- {
			a := f.Activities[i]
			if a.ActorID == "" {
				a.ActorID = byName[a.Actor]
			}
			if a.Severity == "" {
				a.Severity = models.SeverityInfo
			}
			if err := activities.Append(ctx, &a); err != nil {
				return err
			}
		}
		seqs := repository.NewSequenceRepository(d).WithTx(tx)
		for name, v := range f.Sequences {
			if err := seqs.Set(ctx, name, v); err != nil {
				return fmt.Errorf("seed sequence %s: %w", name, err)
			}
		}
		return nil
	})
}
