package repository

import (
	"context"

	"ironingOrderManagement/models"
)

// UserRepositoryI defines lookups on seeded users (the actors of a session).
type UserRepositoryI interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	FirstByRole(ctx context.Context, role models.Role) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

// OrderRepositoryI defines operations on Order aggregates.
type OrderRepositoryI interface {
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, q OrderQuery) ([]models.Order, error)
	ListOpen(ctx context.Context) ([]models.Order, error)
	Update(ctx context.Context, o *models.Order) error
	UpdateFrom(ctx context.Context, o *models.Order, from models.OrderStatus) error
	AppendTimeline(ctx context.Context, orderID string, entries ...models.TimelineEntry) error
	AppendDocuments(ctx context.Context, orderID string, docs ...models.Document) error
}

// PartnerRepositoryI defines operations on ironing partners.
type PartnerRepositoryI interface {
	Create(ctx context.Context, p *models.Partner) error
	Update(ctx context.Context, p *models.Partner) error
	GetByID(ctx context.Context, id string) (*models.Partner, error)
	List(ctx context.Context) ([]models.Partner, error)
}

// RateRepositoryI defines operations on per-cloth rates.
type RateRepositoryI interface {
	Create(ctx context.Context, r *models.Rate) error
	Update(ctx context.Context, r *models.Rate) error
	GetByID(ctx context.Context, id string) (*models.Rate, error)
	FindActiveByClothType(ctx context.Context, clothType string) (*models.Rate, error)
	List(ctx context.Context) ([]models.Rate, error)
}

// ActivityRepositoryI is the append-only activity log.
type ActivityRepositoryI interface {
	Append(ctx context.Context, a *models.Activity) error
	List(ctx context.Context, limit int) ([]models.Activity, error)
	ListByEntity(ctx context.Context, entity string) ([]models.Activity, error)
}

// SequenceRepositoryI hands out monotonically increasing ids.
type SequenceRepositoryI interface {
	Next(ctx context.Context, name string) (int64, error)
	Set(ctx context.Context, name string, value int64) error
}

var (
	_ UserRepositoryI     = (*UserRepository)(nil)
	_ OrderRepositoryI    = (*OrderRepository)(nil)
	_ PartnerRepositoryI  = (*PartnerRepository)(nil)
	_ RateRepositoryI     = (*RateRepository)(nil)
	_ ActivityRepositoryI = (*ActivityRepository)(nil)
	_ SequenceRepositoryI = (*SequenceRepository)(nil)
)
