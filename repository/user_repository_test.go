package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ironingOrderManagement/internal/testutil"
	"ironingOrderManagement/models"
)

func TestUserRepository(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, t.Name())
	repo := NewUserRepository(d)
	ctx := context.Background()

	users := []models.User{
		{ID: "sp2", Name: "Diana Presser", Role: models.RoleServiceProvider},
		{ID: "admin1", Name: "Alice Admin", Role: models.RoleAdmin, Email: "admin@ironeclipse.com"},
		{ID: "sp1", Name: "Charlie Ironer", Role: models.RoleServiceProvider},
	}
	for i := range users {
		require.NoError(t, repo.Create(ctx, &users[i]))
	}

	got, err := repo.GetByID(ctx, "admin1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, users[1], *got)

	missing, err := repo.GetByID(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	first, err := repo.FirstByRole(ctx, models.RoleServiceProvider)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "sp2", first.ID, "first inserted wins")

	none, err := repo.FirstByRole(ctx, models.RoleCustomer)
	require.NoError(t, err)
	assert.Nil(t, none)

	list, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "admin1", list[0].ID)
}

func TestUserRoleConstraint(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, t.Name())
	err := NewUserRepository(d).Create(context.Background(), &models.User{ID: "x", Name: "X", Role: "Janitor"})
	assert.Error(t, err)
}
