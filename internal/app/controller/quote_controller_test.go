package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/ikkim/bizmarket-backend/internal/app/model"
	apperrors "github.com/ikkim/bizmarket-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// submitQuote fills the client's cart with the shop's service and submits.
func submitQuote(t *testing.T, c *client, s shop) map[string]interface{} {
	t.Helper()
	w := c.do(http.MethodPost, cartPath(s.business.ID), map[string]interface{}{"service_id": s.service.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	form := validQuoteForm()
	form["location_id"] = s.location.ID
	w = c.do(http.MethodPost, quotesPath(s.business.ID), form)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["quote"].(map[string]interface{})
}

func TestQuoteController_Submit(t *testing.T) {
	h := newHarness(t)
	s := h.createShop()
	c := h.shopper()

	quote := submitQuote(t, c, s)

	assert.Equal(t, string(model.QuoteStatusNew), quote["status"])
	assert.Equal(t, "Asha Rao", quote["full_name"])
	assert.Equal(t, float64(s.location.ID), quote["location_id"])

	items := quote["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "Deep Clean", item["custom_label"])
	assert.Equal(t, float64(2), item["quantity"])

	w := c.do(http.MethodGet, cartPath(s.business.ID), nil)
	assert.Empty(t, cartItems(t, decode(t, w)), "cart should be cleared after submit")

	w = c.do(http.MethodGet, fmt.Sprintf("/quotes/%d", uint(quote["id"].(float64))), nil)
	assert.Equal(t, http.StatusOK, w.Code, "submitter should see the confirmation")
}

func TestQuoteController_SubmitBindsLoggedInCustomer(t *testing.T) {
	h := newHarness(t)
	s := h.createShop()
	customer := h.createUser("asha", model.RoleUser)

	quote := submitQuote(t, h.as(customer), s)

	assert.Equal(t, float64(customer.ID), quote["customer_id"])
}

func TestQuoteController_AnonymousCannotRequestQuote(t *testing.T) {
	h := newHarness(t)
	s := h.createShop()
	c := h.anonymous()

	w := c.do(http.MethodGet, fmt.Sprintf("/businesses/%d/quote-form", s.business.ID), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = c.do(http.MethodPost, quotesPath(s.business.ID), validQuoteForm())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.AuthUnauthorized, decode(t, w)["error"])

	var count int64
	require.NoError(t, h.db.Model(&model.QuoteRequest{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestQuoteController_SubmitRejections(t *testing.T) {
	h := newHarness(t)
	s := h.createShop()

	t.Run("empty cart", func(t *testing.T) {
		w := h.shopper().do(http.MethodPost, quotesPath(s.business.ID), validQuoteForm())
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.CartEmpty, decode(t, w)["error"])
	})

	t.Run("invalid contact form keeps cart", func(t *testing.T) {
		c := h.shopper()
		c.do(http.MethodPost, cartPath(s.business.ID), map[string]interface{}{"service_id": s.service.ID})

		w := c.do(http.MethodPost, quotesPath(s.business.ID), map[string]interface{}{
			"full_name": "  ",
			"email":     "nope",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		fields := decode(t, w)["fields"].(map[string]interface{})
		assert.Contains(t, fields, "full_name")
		assert.Contains(t, fields, "email")

		w = c.do(http.MethodGet, cartPath(s.business.ID), nil)
		assert.Len(t, cartItems(t, decode(t, w)), 1)
	})

	t.Run("unknown business", func(t *testing.T) {
		w := h.shopper().do(http.MethodPost, quotesPath(9999), validQuoteForm())
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("location from another business is ignored", func(t *testing.T) {
		other := h.createBusiness(s.owner, s.category, "Other Co", true)
		foreign := h.createLocation(other, "Delhi")
		c := h.shopper()
		c.do(http.MethodPost, cartPath(s.business.ID), map[string]interface{}{"service_id": s.service.ID})

		form := validQuoteForm()
		form["location_id"] = foreign.ID
		w := c.do(http.MethodPost, quotesPath(s.business.ID), form)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.NotContains(t, decode(t, w)["quote"], "location_id")
	})
}

func TestQuoteController_QuoteForm(t *testing.T) {
	h := newHarness(t)
	s := h.createShop()
	customer := h.createUser("asha", model.RoleUser)
	c := h.as(customer)

	w := c.do(http.MethodGet, fmt.Sprintf("/businesses/%d/quote-form", s.business.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.CartEmpty, decode(t, w)["error"])

	c.do(http.MethodPost, cartPath(s.business.ID), map[string]interface{}{"service_id": s.service.ID})

	w = c.do(http.MethodGet, fmt.Sprintf("/businesses/%d/quote-form", s.business.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)

	initial := body["initial"].(map[string]interface{})
	assert.Equal(t, "asha", initial["full_name"])
	assert.Equal(t, "asha@example.com", initial["email"])
	assert.Len(t, cartItems(t, body), 1)
	assert.Len(t, body["locations"], 1)
}

func TestQuoteController_GetQuoteAccess(t *testing.T) {
	h := newHarness(t)
	s := h.createShop()
	customer := h.createUser("asha", model.RoleUser)
	stranger := h.createUser("stranger", model.RoleUser)
	admin := h.createUser("root", model.RoleAdmin)

	quote := submitQuote(t, h.as(customer), s)
	path := fmt.Sprintf("/quotes/%d", uint(quote["id"].(float64)))

	tests := []struct {
		name       string
		client     *client
		wantStatus int
	}{
		{"anonymous", h.anonymous(), http.StatusUnauthorized},
		{"customer", h.as(customer), http.StatusOK},
		{"owner", h.as(s.owner), http.StatusOK},
		{"superuser", h.as(admin), http.StatusOK},
		{"stranger", h.as(stranger), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.client.do(http.MethodGet, path, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	w := h.as(customer).do(http.MethodGet, "/quotes/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.QuoteNotFound, decode(t, w)["error"])
}
