package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoodService_CRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewFoodService(env.store.Foods())
	inStock := true

	_, err := svc.CreateFood(ctx, FoodInput{Name: "Burger", Price: 10})
	assert.ErrorIs(t, err, ErrInvalidInput)

	f, err := svc.CreateFood(ctx, FoodInput{Name: " Burger ", Price: 10, Category: "Mains", InStock: &inStock, ImageURL: "/b.png"})
	require.NoError(t, err)
	assert.Equal(t, "Burger", f.Name)

	soldOut := false
	upd, err := svc.UpdateFood(ctx, f.ID.String(), FoodInput{Name: "Burger", Price: 12.5, Category: "Mains", InStock: &soldOut, ImageURL: "/b.png"})
	require.NoError(t, err)
	assert.Equal(t, 12.5, upd.Price)
	assert.False(t, upd.InStock)

	got, err := svc.GetFood(ctx, f.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Burger", got.Name)

	list, err := svc.ListFoods(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.UpdateFood(ctx, "nope", FoodInput{})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.UpdateFood(ctx, uuid.NewString(), FoodInput{Name: "x", Price: 1, Category: "c", InStock: &inStock, ImageURL: "u"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.DeleteFood(ctx, f.ID.String()))
	assert.ErrorIs(t, svc.DeleteFood(ctx, f.ID.String()), ErrNotFound)
}
