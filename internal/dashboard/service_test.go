package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ironingOrderManagement/internal/apperr"
	"ironingOrderManagement/internal/lifecycle"
	"ironingOrderManagement/internal/logging"
	"ironingOrderManagement/internal/seed"
	"ironingOrderManagement/internal/testutil"
	"ironingOrderManagement/models"
)

var (
	admin   = testutil.Admin
	bob     = testutil.Customer
	sarah   = testutil.Customer2
	charlie = testutil.Provider
	diana   = testutil.Provider2
)

// seededNow sits between the seeded orders' SLA deadlines: ORD001, ORD003 and ORD004 are
// overdue, ORD002, ORD006 and ORD007 are not.
var seededNow = time.Date(2023, 10, 28, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T, opts ...Option) (*Service, *testutil.Clock) {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, t.Name())
	f, err := seed.Default()
	require.NoError(t, err)
	require.NoError(t, f.Apply(context.Background(), d))
	clock := testutil.NewClock(seededNow)
	base := []Option{WithClock(clock.Now), WithLogger(logging.Discard())}
	return New(d, append(base, opts...)...), clock
}

func stored(t *testing.T, s *Service, id string) *models.Order {
	t.Helper()
	o, err := s.orders.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, o)
	return o
}

func activityCount(t *testing.T, s *Service) int {
	t.Helper()
	list, err := s.activities.List(context.Background(), 0)
	require.NoError(t, err)
	return len(list)
}

func doorstepDraft(items ...models.OrderItem) lifecycle.Draft {
	return lifecycle.Draft{Items: items, DeliveryOption: models.DeliveryDoorstep, Address: "123 Main St"}
}

func item(cloth string, qty int) models.OrderItem {
	return models.OrderItem{ClothType: cloth, Quantity: qty}
}

func TestSubmitOrderPricesFromRates(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	o, err := s.SubmitOrder(ctx, bob, doorstepDraft(item("Shirts", 5), item("trousers", 2)))
	require.NoError(t, err)

	assert.Equal(t, "ORD101", o.ID)
	assert.Equal(t, models.OrderStatusCreated, o.Status)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("18.50")), o.TotalAmount.String())
	assert.Equal(t, "Trousers", o.Items[1].ClothType, "cloth type is canonicalised from the rate")
	require.Len(t, o.Timeline, 1)
	require.NotNil(t, o.SLADue)
	assert.True(t, o.SLADue.Equal(seededNow.Add(24*time.Hour)))
	assert.Nil(t, o.ServiceProviderID)

	got := stored(t, s, "ORD101")
	assert.True(t, got.TotalAmount.Equal(o.TotalAmount))
	assert.Len(t, got.Items, 2)

	acts, err := s.activities.ListByEntity(ctx, "ORD101")
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, models.ActivityOrderPlaced, acts[0].Type)
	assert.Equal(t, "cust1", acts[0].ActorID)
	assert.Equal(t, models.SeverityInfo, acts[0].Severity)
}

func TestSubmitOrderValidation(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	before := activityCount(t, s)

	tests := []struct {
		name   string
		draft  lifecycle.Draft
		fields []string
	}{
		{"unknown cloth", doorstepDraft(item("Curtains", 1)), []string{"items[0].clothType"}},
		{"draft rate", doorstepDraft(item("Bed Sheets", 1)), []string{"items[0].clothType"}},
		{"zero quantity", doorstepDraft(item("Shirts", 0)), []string{"items[0].quantity"}},
		{"blank cloth", doorstepDraft(item(" ", 1)), []string{"items[0].clothType"}},
		{"no items", doorstepDraft(), []string{"items"}},
		{"missing address", lifecycle.Draft{Items: []models.OrderItem{item("Shirts", 1)}, DeliveryOption: models.DeliveryDoorstep}, []string{"address"}},
		{"mixed", lifecycle.Draft{Items: []models.OrderItem{item("Curtains", 1), item("Shirts", -1)}, DeliveryOption: models.DeliveryDoorstep}, []string{"items[0].clothType", "items[1].quantity", "address"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SubmitOrder(ctx, bob, tt.draft)
			require.ErrorIs(t, err, apperr.ErrValidation)
			var names []string
			for _, f := range apperr.FieldsOf(err) {
				names = append(names, f.Field)
			}
			assert.ElementsMatch(t, tt.fields, names)
		})
	}
	assert.Equal(t, before, activityCount(t, s), "rejected submissions are not audited")

	o, err := s.SubmitOrder(ctx, bob, doorstepDraft(item("Shirts", 1)))
	require.NoError(t, err)
	assert.Equal(t, "ORD101", o.ID, "rejected submissions do not consume ids")
}

func TestSubmitOrderRequiresCustomer(t *testing.T) {
	s, _ := newService(t)
	for _, a := range []models.Actor{admin, charlie, {ID: "ghost"}} {
		_, err := s.SubmitOrder(context.Background(), a, doorstepDraft(item("Shirts", 1)))
		assert.ErrorIs(t, err, apperr.ErrPermissionDenied, a.Role)
	}
}

func TestScenarioProviderAcceptsUnassignedOrder(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	o, err := s.ApplyTransition(ctx, charlie, "ORD007", "accept", lifecycle.Payload{})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAccepted, o.Status)
	assert.True(t, o.AssignedTo("sp1"))
	assert.Len(t, o.Timeline, 2)

	got := stored(t, s, "ORD007")
	assert.Equal(t, models.OrderStatusAccepted, got.Status)
	require.NotNil(t, got.ServiceProviderName)
	assert.Equal(t, "Charlie Ironer", *got.ServiceProviderName)
	assert.Len(t, got.Timeline, 2)
	assert.True(t, got.UpdatedAt.Equal(seededNow))

	acts, err := s.activities.ListByEntity(ctx, "ORD007")
	require.NoError(t, err)
	last := acts[len(acts)-1]
	assert.Equal(t, models.ActivityOrderAccepted, last.Type)
	assert.Equal(t, models.SeveritySuccess, last.Severity)

	_, err = s.ApplyTransition(ctx, diana, "ORD007", "accept", lifecycle.Payload{})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied, "no longer in the pool")
}

func TestRejectedTransitionsLeaveOrderUntouched(t *testing.T) {
	tests := []struct {
		name       string
		actor      models.Actor
		order      string
		transition string
		payload    lifecycle.Payload
		want       error
	}{
		{"admin marks ironing", admin, "ORD001", "markIroning", lifecycle.Payload{}, apperr.ErrPermissionDenied},
		{"customer edits delivery after acceptance", bob, "ORD001", "updateDelivery", lifecycle.Payload{DeliveryOption: models.DeliveryCustomerPickup}, apperr.ErrInvalidTransition},
		{"other provider marks ironing", diana, "ORD001", "markIroning", lifecycle.Payload{}, apperr.ErrPermissionDenied},
		{"ready before ironing", charlie, "ORD001", "markReady", lifecycle.Payload{}, apperr.ErrInvalidTransition},
		{"other customer's order", sarah, "ORD007", "updateDelivery", lifecycle.Payload{DeliveryOption: models.DeliveryCustomerPickup}, apperr.ErrPermissionDenied},
		{"finalize to non-terminal", diana, "ORD004", "finalize", lifecycle.Payload{TargetStatus: models.OrderStatusIroning}, apperr.ErrInvalidTransition},
		{"doorstep without address", bob, "ORD007", "updateDelivery", lifecycle.Payload{DeliveryOption: models.DeliveryDoorstep}, apperr.ErrValidation},
		{"unknown transition", charlie, "ORD001", "teleport", lifecycle.Payload{}, apperr.ErrInvalidTransition},
		{"missing order", charlie, "ORD999", "accept", lifecycle.Payload{}, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newService(t)
			var before *models.Order
			if tt.order != "ORD999" {
				before = stored(t, s, tt.order)
			}
			acts := activityCount(t, s)

			_, err := s.ApplyTransition(context.Background(), tt.actor, tt.order, tt.transition, tt.payload)
			require.ErrorIs(t, err, tt.want)

			if before != nil {
				assert.Equal(t, before, stored(t, s, tt.order))
			}
			assert.Equal(t, acts, activityCount(t, s))
		})
	}
}

func TestFullLifecycleToDelivered(t *testing.T) {
	s, clock := newService(t)
	ctx := context.Background()

	o, err := s.GetOrder(ctx, charlie, "ORD001")
	require.NoError(t, err)
	assert.Equal(t, models.SLABreach, o.SLAStatus, "accepted and past due")

	for _, step := range []string{"markIroning", "markReady"} {
		clock.Advance(time.Hour)
		_, err := s.ApplyTransition(ctx, charlie, "ORD001", step, lifecycle.Payload{})
		require.NoError(t, err, step)
	}
	clock.Advance(time.Hour)
	proof := models.Document{Name: "delivered.jpg", URL: "https://example.com/delivered.jpg"}
	o, err = s.ApplyTransition(ctx, charlie, "ORD001", "finalize", lifecycle.Payload{TargetStatus: models.OrderStatusDelivered, ProofDocuments: []models.Document{proof}})
	require.NoError(t, err)
	assert.Equal(t, models.SLACompleted, o.SLAStatus)

	got, err := s.GetOrder(ctx, admin, "ORD001")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, got.Status)
	assert.Equal(t, models.SLACompleted, got.SLAStatus)
	require.Len(t, got.Timeline, 5)
	last, _ := got.LastTimeline()
	assert.Equal(t, got.Status, last.Status)
	assert.True(t, last.Timestamp.Equal(seededNow.Add(3*time.Hour)))
	assert.Equal(t, []string{"Order_001_Photo.jpg", "delivered.jpg"}, []string{got.Documents[0].Name, got.Documents[1].Name})

	acts, err := s.activities.ListByEntity(ctx, "ORD001")
	require.NoError(t, err)
	assert.Equal(t, models.ActivityOrderDelivered, acts[len(acts)-1].Type)
}

func TestStrictTerminal(t *testing.T) {
	s, _ := newService(t, WithStrictTerminal(true))
	_, err := s.ApplyTransition(context.Background(), diana, "ORD004", "finalize", lifecycle.Payload{TargetStatus: models.OrderStatusPicked})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	o, err := s.ApplyTransition(context.Background(), diana, "ORD004", "finalize", lifecycle.Payload{TargetStatus: models.OrderStatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, o.Status)
}

func TestPermissiveTerminalAcceptsEitherBranch(t *testing.T) {
	s, _ := newService(t)
	o, err := s.ApplyTransition(context.Background(), diana, "ORD004", "finalize", lifecycle.Payload{TargetStatus: models.OrderStatusPicked})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPicked, o.Status)
}

func TestUpdateDeliveryIsAuditedWithoutTimeline(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	o, err := s.ApplyTransition(ctx, bob, "ORD007", "updateDelivery", lifecycle.Payload{DeliveryOption: models.DeliveryCustomerPickup, Address: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryCustomerPickup, o.DeliveryOption)
	assert.Empty(t, o.Address)

	got := stored(t, s, "ORD007")
	assert.Equal(t, models.OrderStatusCreated, got.Status)
	assert.Len(t, got.Timeline, 1)
	assert.Equal(t, models.DeliveryCustomerPickup, got.DeliveryOption)

	acts, err := s.activities.ListByEntity(ctx, "ORD007")
	require.NoError(t, err)
	assert.Equal(t, models.ActivityDeliveryUpdated, acts[len(acts)-1].Type)
}

func TestUpdateItemsWhileCreated(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	o, err := s.ApplyTransition(ctx, bob, "ORD007", "updateItems", lifecycle.Payload{Items: []models.OrderItem{testutil.Item("Trousers", 6, "3.00")}})
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(18)))

	got := stored(t, s, "ORD007")
	require.Len(t, got.Items, 1)
	assert.Equal(t, 6, got.Items[0].Quantity)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(18)))
	assert.Len(t, got.Timeline, 1)

	_, err = s.ApplyTransition(ctx, bob, "ORD001", "updateItems", lifecycle.Payload{Items: []models.OrderItem{testutil.Item("Unknown Cloth", 1, "1.00")}})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "status is checked before the items are priced")
}

func TestOrderVisibility(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	ids := func(list []models.Order) []string {
		var out []string
		for _, o := range list {
			out = append(out, o.ID)
		}
		return out
	}

	all, err := s.ListOrders(ctx, admin, OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 8)

	mine, err := s.ListOrders(ctx, bob, OrderFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ORD001", "ORD003", "ORD005", "ORD007"}, ids(mine))

	work, err := s.ListOrders(ctx, charlie, OrderFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ORD001", "ORD003", "ORD006", "ORD002", "ORD007"}, ids(work))

	breached, err := s.ListOrders(ctx, admin, OrderFilter{SLA: models.SLABreach})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ORD001", "ORD003", "ORD004"}, ids(breached))

	created, err := s.ListOrders(ctx, charlie, OrderFilter{Statuses: []models.OrderStatus{models.OrderStatusCreated}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ORD002", "ORD007"}, ids(created))

	_, err = s.GetOrder(ctx, bob, "ORD002")
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	_, err = s.GetOrder(ctx, charlie, "ORD004")
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	_, err = s.GetOrder(ctx, admin, "ORD999")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.ListOrders(ctx, models.Actor{ID: "x", Role: "Guest"}, OrderFilter{})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
}

func TestAvailableTransitions(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	got, err := s.AvailableTransitions(ctx, diana, "ORD004")
	require.NoError(t, err)
	assert.Equal(t, []Action{{Transition: lifecycle.Finalize, Target: models.OrderStatusDelivered}}, got)

	got, err = s.AvailableTransitions(ctx, bob, "ORD007")
	require.NoError(t, err)
	assert.Equal(t, []Action{{Transition: lifecycle.UpdateDelivery}, {Transition: lifecycle.UpdateItems}}, got)

	got, err = s.AvailableTransitions(ctx, charlie, "ORD002")
	require.NoError(t, err)
	assert.Equal(t, []Action{{Transition: lifecycle.Accept}}, got)

	got, err = s.AvailableTransitions(ctx, admin, "ORD001")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.AvailableTransitions(ctx, sarah, "ORD001")
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
}

func TestOrderTimelineNeedsAuditAccess(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	tl, err := s.OrderTimeline(ctx, admin, "ORD005")
	require.NoError(t, err)
	assert.Len(t, tl, 5)

	_, err = s.OrderTimeline(ctx, bob, "ORD005")
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	_, err = s.OrderTimeline(ctx, admin, "ORD999")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListActivities(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	all, err := s.ListActivities(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 10)
	assert.Equal(t, "act1", all[0].ID)

	own, err := s.ListActivities(ctx, charlie)
	require.NoError(t, err)
	require.Len(t, own, 3)
	for _, a := range own {
		assert.Equal(t, "sp1", a.ActorID)
	}

	_, err = s.ApplyTransition(ctx, charlie, "ORD002", "accept", lifecycle.Payload{})
	require.NoError(t, err)
	own, err = s.ListActivities(ctx, charlie)
	require.NoError(t, err)
	assert.Len(t, own, 4)
	assert.Equal(t, "ORD002", own[0].Entity, "newest first")

	_, err = s.ListActivities(ctx, models.Actor{ID: "x"})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
}
