package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCartStore(t *testing.T) (CartStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCartStore(client, time.Hour), mr
}

func TestRedisCartStore_GetMissingIsEmpty(t *testing.T) {
	store, _ := setupCartStore(t)

	lines, err := store.Get(context.Background(), "sid", 1)
	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
}

func TestRedisCartStore_SaveAndGet(t *testing.T) {
	store, mr := setupCartStore(t)
	ctx := context.Background()

	lines := []model.CartLine{
		{ServiceID: 7, Name: "Deep Clean", Quantity: 2},
		{ServiceID: 3, Name: "Sofa Shampoo", Quantity: 1},
	}
	require.NoError(t, store.Save(ctx, "sid", 5, lines))

	got, err := store.Get(ctx, "sid", 5)
	require.NoError(t, err)
	assert.Equal(t, lines, got)

	raw, err := mr.Get("session:sid:quote_cart_5")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"service_id":7,"name":"Deep Clean","quantity":2},{"service_id":3,"name":"Sofa Shampoo","quantity":1}]`, raw)
	assert.Equal(t, time.Hour, mr.TTL("session:sid:quote_cart_5"))
}

func TestRedisCartStore_ScopedBySessionAndBusiness(t *testing.T) {
	store, _ := setupCartStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", 1, []model.CartLine{{ServiceID: 1, Name: "x", Quantity: 1}}))

	other, err := store.Get(ctx, "a", 2)
	require.NoError(t, err)
	assert.Empty(t, other)

	otherSession, err := store.Get(ctx, "b", 1)
	require.NoError(t, err)
	assert.Empty(t, otherSession)
}

func TestRedisCartStore_ClearIsIdempotent(t *testing.T) {
	store, _ := setupCartStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid", 1, []model.CartLine{{ServiceID: 1, Name: "x", Quantity: 1}}))
	require.NoError(t, store.Clear(ctx, "sid", 1))
	require.NoError(t, store.Clear(ctx, "sid", 1))

	lines, err := store.Get(ctx, "sid", 1)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRedisCartStore_CorruptValueReadsEmpty(t *testing.T) {
	store, mr := setupCartStore(t)
	require.NoError(t, mr.Set("session:sid:quote_cart_1", "not json"))

	lines, err := store.Get(context.Background(), "sid", 1)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRedisCartStore_Expires(t *testing.T) {
	store, mr := setupCartStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid", 1, []model.CartLine{{ServiceID: 1, Name: "x", Quantity: 1}}))
	mr.FastForward(2 * time.Hour)

	lines, err := store.Get(ctx, "sid", 1)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
