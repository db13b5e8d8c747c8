package dashboard

import (
	"context"
	"fmt"

	"ironingOrderManagement/internal/apperr"
	"ironingOrderManagement/internal/authz"
	"ironingOrderManagement/internal/permissions"
	"ironingOrderManagement/models"
)

// ListActivities returns the activity feed newest first: everything for holders of
// canViewAllActivities, otherwise only the actor's own entries.
func (s *Service) ListActivities(ctx context.Context, actor models.Actor) ([]models.Activity, error) {
	return s.listActivities(ctx, "listActivities", actor, 0)
}

func (s *Service) listActivities(ctx context.Context, op string, actor models.Actor, limit int) ([]models.Activity, error) {
	if !permissions.Has(actor.Role, permissions.ViewAllActivities) && !permissions.Has(actor.Role, permissions.ViewOwnActivities) {
		return nil, apperr.PermissionDenied(op, "%s may not view activities", actor.Role)
	}
	list, err := s.activities.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	list = authz.FilterActivities(actor, list)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}
