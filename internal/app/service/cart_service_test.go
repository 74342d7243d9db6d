package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shopper is a signed-in customer; carts never look the user up.
var shopper = Actor{UserID: 42, Role: model.RoleUser}

func TestCoerceQuantity(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want int
	}{
		{"missing", nil, 1},
		{"int", 3, 3},
		{"zero", 0, 1},
		{"negative", -4, 1},
		{"int64", int64(5), 5},
		{"float integral", float64(2), 2},
		{"float fractional", 2.5, 1},
		{"json number", json.Number("6"), 6},
		{"string", " 4 ", 4},
		{"garbage string", "many", 1},
		{"bool", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceQuantity(tt.in))
		})
	}
}

func TestCartService_AddMergesSameService(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleUser)
	business := env.createBusiness(t, owner, env.createCategory(t, "Cleaning"), "Sparkle", true)
	deepClean := env.createService(t, business, "Deep Clean")
	sofa := env.createService(t, business, "Sofa Shampoo")

	svc := env.cartService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "sid", shopper, business.ID, deepClean.ID, 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "sid", shopper, business.ID, sofa.ID, nil)
	require.NoError(t, err)
	lines, err := svc.Add(ctx, "sid", shopper, business.ID, deepClean.ID, "3")
	require.NoError(t, err)

	require.Len(t, lines, 2)
	assert.Equal(t, model.CartLine{ServiceID: deepClean.ID, Name: "Deep Clean", Quantity: 5}, lines[0])
	assert.Equal(t, model.CartLine{ServiceID: sofa.ID, Name: "Sofa Shampoo", Quantity: 1}, lines[1])

	stored, err := svc.Read(ctx, "sid", business.ID)
	require.NoError(t, err)
	assert.Equal(t, lines, stored)

	series, err := testutil.GatherAndCount(env.metrics.Registry(), "test_cart_mutations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, series)
}

func TestCartService_AddRejections(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleUser)
	admin := env.createUser(t, "admin", model.RoleAdmin)
	stranger := env.createUser(t, "stranger", model.RoleUser)
	category := env.createCategory(t, "Cleaning")
	hidden := env.createBusiness(t, owner, category, "Pending Co", false)
	hiddenService := env.createService(t, hidden, "Window Wash")
	visible := env.createBusiness(t, owner, category, "Open Co", true)

	svc := env.cartService()
	ctx := context.Background()

	t.Run("anonymous visitor", func(t *testing.T) {
		_, err := svc.Add(ctx, "sid", Actor{}, visible.ID, hiddenService.ID, 1)
		assert.ErrorIs(t, err, ErrAuthenticationRequired)
	})
	t.Run("no session", func(t *testing.T) {
		_, err := svc.Add(ctx, "", shopper, visible.ID, hiddenService.ID, 1)
		assert.ErrorIs(t, err, ErrSessionRequired)
	})
	t.Run("unknown business", func(t *testing.T) {
		_, err := svc.Add(ctx, "sid", shopper, 9999, hiddenService.ID, 1)
		assert.ErrorIs(t, err, ErrBusinessNotFound)
	})
	t.Run("hidden business for stranger", func(t *testing.T) {
		_, err := svc.Add(ctx, "sid", actorFor(stranger), hidden.ID, hiddenService.ID, 1)
		assert.ErrorIs(t, err, ErrBusinessNotAvailable)
	})
	t.Run("service of another business", func(t *testing.T) {
		_, err := svc.Add(ctx, "sid", shopper, visible.ID, hiddenService.ID, 1)
		assert.ErrorIs(t, err, ErrServiceNotFound)
	})
	t.Run("owner previews hidden business", func(t *testing.T) {
		lines, err := svc.Add(ctx, "owner-sid", actorFor(owner), hidden.ID, hiddenService.ID, 1)
		require.NoError(t, err)
		assert.Len(t, lines, 1)
	})
	t.Run("superuser previews hidden business", func(t *testing.T) {
		lines, err := svc.Add(ctx, "admin-sid", actorFor(admin), hidden.ID, hiddenService.ID, 1)
		require.NoError(t, err)
		assert.Len(t, lines, 1)
	})
}

func TestCartService_RemoveAndClear(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleUser)
	business := env.createBusiness(t, owner, env.createCategory(t, "Cleaning"), "Sparkle", true)
	a := env.createService(t, business, "A")
	b := env.createService(t, business, "B")

	svc := env.cartService()
	ctx := context.Background()
	_, err := svc.Add(ctx, "sid", shopper, business.ID, a.ID, 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "sid", shopper, business.ID, b.ID, 1)
	require.NoError(t, err)

	lines, err := svc.Remove(ctx, "sid", business.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, b.ID, lines[0].ServiceID)

	// Removing an absent service leaves the cart unchanged.
	lines, err = svc.Remove(ctx, "sid", business.ID, a.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	_, err = svc.Remove(ctx, "sid", 9999, a.ID)
	assert.ErrorIs(t, err, ErrBusinessNotFound)

	require.NoError(t, svc.Clear(ctx, "sid", business.ID))
	lines, err = svc.Read(ctx, "sid", business.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	assert.NoError(t, svc.Clear(ctx, "", business.ID))
}

func TestCartService_CartsAreScopedPerBusinessAndSession(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.createUser(t, "owner", model.RoleUser)
	category := env.createCategory(t, "Cleaning")
	first := env.createBusiness(t, owner, category, "First", true)
	second := env.createBusiness(t, owner, category, "Second", true)
	service := env.createService(t, first, "Deep Clean")

	svc := env.cartService()
	ctx := context.Background()
	_, err := svc.Add(ctx, "sid", shopper, first.ID, service.ID, 1)
	require.NoError(t, err)

	other, err := svc.Read(ctx, "sid", second.ID)
	require.NoError(t, err)
	assert.Empty(t, other)

	otherSession, err := svc.Read(ctx, "other-sid", first.ID)
	require.NoError(t, err)
	assert.Empty(t, otherSession)

	anonymous, err := svc.Read(ctx, "", first.ID)
	require.NoError(t, err)
	assert.Empty(t, anonymous)
}
