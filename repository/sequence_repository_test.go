package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ironingOrderManagement/internal/testutil"
)

func TestSequenceRepository(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, t.Name())
	repo := NewSequenceRepository(d)
	ctx := context.Background()

	v, err := repo.Next(ctx, SeqOrders)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)

	require.NoError(t, repo.Set(ctx, SeqOrders, 100))
	v, err = repo.Next(ctx, SeqOrders)
	require.NoError(t, err)
	assert.EqualValues(t, 101, v)

	v, err = repo.Next(ctx, SeqRates)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v, "sequences are independent")
}
