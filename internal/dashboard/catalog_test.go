package dashboard

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ironingOrderManagement/internal/apperr"
	"ironingOrderManagement/models"
)

func TestUpsertRateAddsPriceableClothType(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	r, err := s.UpsertRate(ctx, admin, models.Rate{ClothType: " Curtains ", PricePerUnit: decimal.RequireFromString("4.00")})
	require.NoError(t, err)
	assert.Equal(t, "rate5", r.ID)
	assert.Equal(t, "Curtains", r.ClothType)
	assert.Equal(t, models.RateActive, r.Status)
	assert.Equal(t, 1, r.MinQty)

	acts, err := s.activities.ListByEntity(ctx, "Curtains Rate")
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, models.ActivityRateAdded, acts[0].Type)

	o, err := s.SubmitOrder(ctx, bob, doorstepDraft(item("curtains", 3)))
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(12)))
}

func TestUpsertRateActivatesDraft(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	_, err := s.UpsertRate(ctx, admin, models.Rate{ID: "rate4", ClothType: "Bed Sheets", PricePerUnit: decimal.RequireFromString("7.50"), MinQty: 2, Status: models.RateActive})
	require.NoError(t, err)

	acts, err := s.activities.ListByEntity(ctx, "Bed Sheets Rate")
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, models.ActivityRateUpdated, acts[0].Type)

	_, err = s.SubmitOrder(ctx, bob, doorstepDraft(item("Bed Sheets", 1)))
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "items[0].quantity", apperr.FieldsOf(err)[0].Field)

	o, err := s.SubmitOrder(ctx, bob, doorstepDraft(item("Bed Sheets", 2)))
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(15)))
}

func TestUpsertRateRejections(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	before := activityCount(t, s)

	_, err := s.UpsertRate(ctx, admin, models.Rate{ClothType: "SHIRTS", PricePerUnit: decimal.NewFromInt(3)})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "clothType", apperr.FieldsOf(err)[0].Field)

	_, err = s.UpsertRate(ctx, admin, models.Rate{ClothType: "Jackets", MinQty: -1})
	require.ErrorIs(t, err, apperr.ErrValidation)
	var names []string
	for _, f := range apperr.FieldsOf(err) {
		names = append(names, f.Field)
	}
	assert.ElementsMatch(t, []string{"pricePerUnit", "minQty"}, names)

	_, err = s.UpsertRate(ctx, admin, models.Rate{ID: "rate99", ClothType: "Jackets", PricePerUnit: decimal.NewFromInt(3), MinQty: 1, Status: models.RateDraft})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	for _, a := range []models.Actor{bob, charlie} {
		_, err = s.UpsertRate(ctx, a, models.Rate{ClothType: "Jackets", PricePerUnit: decimal.NewFromInt(3)})
		assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	}

	assert.Equal(t, before, activityCount(t, s))
	list, err := s.ListRates(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, list, 4)
}

func TestListRatesVisibleToAllRoles(t *testing.T) {
	s, _ := newService(t)
	for _, a := range []models.Actor{admin, bob, charlie} {
		list, err := s.ListRates(context.Background(), a)
		require.NoError(t, err, a.Role)
		assert.Len(t, list, 4)
	}
}

func TestUpsertPartner(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	p, err := s.UpsertPartner(ctx, admin, models.Partner{Name: "Press Perfect", Contact: "Frank", Email: "frank@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "partner4", p.ID)
	assert.Equal(t, models.PartnerActive, p.Status)

	p3 := models.Partner{ID: "partner3", Name: "CreaseAway Co.", Contact: "Eve Mender", Email: "eve@ironeclipse.com", Status: models.PartnerActive}
	_, err = s.UpsertPartner(ctx, admin, p3)
	require.NoError(t, err)

	list, err := s.ListPartners(ctx, admin)
	require.NoError(t, err)
	require.Len(t, list, 4)

	got, err := s.partners.GetByID(ctx, "partner3")
	require.NoError(t, err)
	assert.Equal(t, models.PartnerActive, got.Status)

	onboarded, err := s.activities.ListByEntity(ctx, "Press Perfect")
	require.NoError(t, err)
	require.Len(t, onboarded, 1)
	assert.Equal(t, models.ActivityPartnerOnboarded, onboarded[0].Type)
	assert.Equal(t, models.SeveritySuccess, onboarded[0].Severity)

	updated, err := s.activities.ListByEntity(ctx, "CreaseAway Co.")
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, models.ActivityPartnerUpdated, updated[0].Type)
}

func TestUpsertPartnerRejections(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	before := activityCount(t, s)

	_, err := s.UpsertPartner(ctx, admin, models.Partner{Name: "Ghost", ID: "partner99", Status: models.PartnerActive})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.UpsertPartner(ctx, admin, models.Partner{Name: " ", Email: "not-an-email", AssignedOrders: -2})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Len(t, apperr.FieldsOf(err), 3)

	_, err = s.UpsertPartner(ctx, charlie, models.Partner{Name: "Mine"})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	_, err = s.ListPartners(ctx, charlie)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	_, err = s.ListPartners(ctx, bob)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	assert.Equal(t, before, activityCount(t, s))
}
