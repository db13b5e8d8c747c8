package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ironingOrderManagement/models"
)

type sliceStore struct {
	entries []models.Activity
	err     error
}

func (s *sliceStore) Append(ctx context.Context, a *models.Activity) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, *a)
	return nil
}

var charlie = models.Actor{ID: "sp1", Name: "Charlie Ironer", Role: models.RoleServiceProvider}

func TestRecordAppends(t *testing.T) {
	at := time.Date(2023, 10, 27, 15, 0, 0, 0, time.UTC)
	store := &sliceStore{}
	r := NewRecorder(store, WithClock(func() time.Time { return at }))

	a, err := r.Record(context.Background(), models.ActivityOrderAccepted, "ORD006", charlie, models.SeveritySuccess)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a.ID, "act-"))
	assert.Equal(t, models.Activity{
		ID:        a.ID,
		Type:      models.ActivityOrderAccepted,
		Entity:    "ORD006",
		Role:      models.RoleServiceProvider,
		ActorID:   "sp1",
		Actor:     "Charlie Ironer",
		Timestamp: at,
		Severity:  models.SeveritySuccess,
	}, *a)

	_, err = r.Record(context.Background(), models.ActivityDeliveryUpdated, "ORD006", charlie, "")
	require.NoError(t, err)
	require.Len(t, store.entries, 2)
	assert.Equal(t, models.SeverityInfo, store.entries[1].Severity)
	assert.NotEqual(t, store.entries[0].ID, store.entries[1].ID)
	assert.Equal(t, *a, store.entries[0], "earlier entries are left as written")
}

func TestRecordStoreFailure(t *testing.T) {
	r := NewRecorder(&sliceStore{err: errors.New("disk full")})
	a, err := r.Record(context.Background(), models.ActivityOrderReady, "ORD1", charlie, models.SeveritySuccess)
	assert.Error(t, err)
	assert.Nil(t, a)

	_, err = NewRecorder(nil).Record(context.Background(), models.ActivityOrderReady, "ORD1", charlie, "")
	assert.Error(t, err)
}

func TestWithStoreDoesNotShareState(t *testing.T) {
	first, second := &sliceStore{}, &sliceStore{}
	n := 0
	r := NewRecorder(first, WithIDGenerator(func() string { n++; return "act" + string(rune('0'+n)) }))
	scoped := r.WithStore(second)

	_, err := scoped.Record(context.Background(), models.ActivityRateAdded, "Shirts", charlie, "")
	require.NoError(t, err)
	assert.Empty(t, first.entries)
	require.Len(t, second.entries, 1)
	assert.Equal(t, "act1", second.entries[0].ID)
}
