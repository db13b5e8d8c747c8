package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"ironingOrderManagement/internal/apperr"
	"ironingOrderManagement/internal/authz"
	"ironingOrderManagement/internal/permissions"
	"ironingOrderManagement/models"
	"ironingOrderManagement/repository"
)

// ListPartners returns every ironing partner.
func (s *Service) ListPartners(ctx context.Context, actor models.Actor) ([]models.Partner, error) {
	const op = "listPartners"
	if err := authz.Require(op, actor, permissions.ViewPartners); err != nil {
		return nil, err
	}
	list, err := s.partners.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// UpsertPartner onboards a partner when p.ID is empty and updates the existing one otherwise.
func (s *Service) UpsertPartner(ctx context.Context, actor models.Actor, p models.Partner) (*models.Partner, error) {
	const op = "upsertPartner"
	if !authz.CanAccessRecord(actor, p, authz.Mutate) {
		return nil, apperr.PermissionDenied(op, "%s lacks %s", actor.Role, permissions.ManagePartners)
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	if p.ID == "" && p.Status == "" {
		p.Status = models.PartnerActive
	}
	if err := validatePartner(op, p); err != nil {
		return nil, err
	}

	activity, severity := models.ActivityPartnerUpdated, models.SeverityInfo
	err := repository.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		partners := s.partners.WithTx(tx)
		if p.ID == "" {
			n, err := s.seqs.WithTx(tx).Next(ctx, repository.SeqPartners)
			if err != nil {
				return err
			}
			p.ID = "partner" + strconv.FormatInt(n, 10)
			activity, severity = models.ActivityPartnerOnboarded, models.SeveritySuccess
			if err := partners.Create(ctx, &p); err != nil {
				return err
			}
		} else {
			existing, err := partners.GetByID(ctx, p.ID)
			if err != nil {
				return err
			}
			if existing == nil {
				return apperr.NotFound(op, "partner", p.ID)
			}
			if err := partners.Update(ctx, &p); err != nil {
				return err
			}
		}
		_, err := s.recorder.WithStore(s.activities.WithTx(tx)).Record(ctx, activity, p.Name, actor, severity)
		return err
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindUnknown {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.InfoContext(ctx, "partner saved", "partner", p.ID, "activity", activity, "actor", actor.ID)
	return &p, nil
}

func validatePartner(op string, p models.Partner) error {
	var fields []apperr.FieldError
	if p.Name == "" {
		fields = append(fields, apperr.Field("name", "name is required"))
	}
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			fields = append(fields, apperr.Field("email", "not a valid address"))
		}
	}
	if p.Status != models.PartnerActive && p.Status != models.PartnerInactive {
		fields = append(fields, apperr.Field("status", "must be %q or %q", models.PartnerActive, models.PartnerInactive))
	}
	if p.AssignedOrders < 0 {
		fields = append(fields, apperr.Field("assignedOrders", "must not be negative"))
	}
	return apperr.Validation(op, fields...)
}

// ListRates returns every rate, including drafts.
func (s *Service) ListRates(ctx context.Context, actor models.Actor) ([]models.Rate, error) {
	const op = "listRates"
	if err := authz.Require(op, actor, permissions.ViewRates); err != nil {
		return nil, err
	}
	list, err := s.rates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// UpsertRate adds a rate when r.ID is empty and updates the existing one otherwise. A cloth
// type may have at most one Active rate.
func (s *Service) UpsertRate(ctx context.Context, actor models.Actor, r models.Rate) (*models.Rate, error) {
	const op = "upsertRate"
	if !authz.CanAccessRecord(actor, r, authz.Mutate) {
		return nil, apperr.PermissionDenied(op, "%s lacks %s", actor.Role, permissions.ManageRates)
	}
	r.ClothType = strings.TrimSpace(r.ClothType)
	if r.ID == "" {
		if r.Status == "" {
			r.Status = models.RateActive
		}
		if r.MinQty == 0 {
			r.MinQty = 1
		}
	}
	if err := validateRate(op, r); err != nil {
		return nil, err
	}

	activity := models.ActivityRateUpdated
	err := repository.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		rates := s.rates.WithTx(tx)
		if r.Status == models.RateActive {
			active, err := rates.FindActiveByClothType(ctx, r.ClothType)
			if err != nil {
				return err
			}
			if active != nil && active.ID != r.ID {
				return apperr.Validation(op, apperr.Field("clothType", "%s already has an active rate (%s)", active.ClothType, active.ID))
			}
		}
		if r.ID == "" {
			n, err := s.seqs.WithTx(tx).Next(ctx, repository.SeqRates)
			if err != nil {
				return err
			}
			r.ID = "rate" + strconv.FormatInt(n, 10)
			activity = models.ActivityRateAdded
			if err := rates.Create(ctx, &r); err != nil {
				return err
			}
		} else {
			existing, err := rates.GetByID(ctx, r.ID)
			if err != nil {
				return err
			}
			if existing == nil {
				return apperr.NotFound(op, "rate", r.ID)
			}
			if err := rates.Update(ctx, &r); err != nil {
				return err
			}
		}
		_, err := s.recorder.WithStore(s.activities.WithTx(tx)).Record(ctx, activity, r.ClothType+" Rate", actor, models.SeverityInfo)
		return err
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindUnknown {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.InfoContext(ctx, "rate saved", "rate", r.ID, "activity", activity, "actor", actor.ID)
	return &r, nil
}

func validateRate(op string, r models.Rate) error {
	var fields []apperr.FieldError
	if r.ClothType == "" {
		fields = append(fields, apperr.Field("clothType", "cloth type is required"))
	}
	if !r.PricePerUnit.IsPositive() {
		fields = append(fields, apperr.Field("pricePerUnit", "must be greater than 0"))
	}
	if r.MinQty < 1 {
		fields = append(fields, apperr.Field("minQty", "must be at least 1"))
	}
	if !r.Status.Valid() {
		fields = append(fields, apperr.Field("status", "must be Active, Draft or Inactive"))
	}
	return apperr.Validation(op, fields...)
}
