package dashboard

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ironingOrderManagement/internal/apperr"
	"ironingOrderManagement/models"
)

func TestExportOrdersCSV(t *testing.T) {
	s, _ := newService(t)
	var buf bytes.Buffer

	n, err := s.ExportOrdersCSV(context.Background(), bob, &buf, OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, exportHeader, records[0])

	byID := make(map[string][]string)
	for _, r := range records[1:] {
		byID[r[0]] = r
	}
	row := byID["ORD001"]
	require.NotNil(t, row)
	assert.Equal(t, "Charlie Ironer", row[2])
	assert.Equal(t, "Shirts x5 @ 2.50; Trousers x2 @ 3.00", row[6])
	assert.Equal(t, "7", row[7])
	assert.Equal(t, "18.50", row[8])
	assert.Equal(t, string(models.SLABreach), row[10])
	assert.Equal(t, "Charlie Ironer", row[13], "last timeline entry")
	assert.Equal(t, "Bob Customer", byID["ORD007"][13])
	assert.Empty(t, byID["ORD007"][2], "unassigned orders have no provider")
}

func TestExportHonoursFilter(t *testing.T) {
	s, _ := newService(t)
	var buf bytes.Buffer

	n, err := s.ExportOrdersCSV(context.Background(), admin, &buf, OrderFilter{Statuses: []models.OrderStatus{models.OrderStatusDelivered, models.OrderStatusPicked}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestExportRequiresCapability(t *testing.T) {
	s, _ := newService(t)
	var buf bytes.Buffer
	_, err := s.ExportOrdersCSV(context.Background(), models.Actor{ID: "x", Role: "Guest"}, &buf, OrderFilter{})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	assert.Zero(t, buf.Len())
}
