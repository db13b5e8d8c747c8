package auth

import (
	"context"

	"ironingOrderManagement/internal/apperr"
	"ironingOrderManagement/models"
)

type principalKey struct{}

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the principal from context (if any).
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// RequirePrincipal ensures a principal is present in context.
func RequirePrincipal(ctx context.Context) (*Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return nil, apperr.PermissionDenied("auth", "no active session")
	}
	return p, nil
}

// UserLookup resolves seeded users.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// RequireKnownActor ensures the principal names an existing user with the same role, so a token
// cannot claim a role its subject does not have.
func RequireKnownActor(ctx context.Context, users UserLookup) (*Principal, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		return nil, apperr.PermissionDenied("auth", "users repository not configured")
	}
	u, err := users.GetByID(ctx, p.Actor.ID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Role != p.Actor.Role {
		return nil, apperr.PermissionDenied("auth", "unknown actor %s", p.Actor.ID)
	}
	return p, nil
}
