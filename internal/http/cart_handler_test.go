package httpapi

import (
	"errors"
	"math"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lolobw32/ecom-oslan/internal/middleware"
)

const sessionHeader = middleware.HeaderSessionID

func TestCart_MintsSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sid := rec.Header().Get(sessionHeader)
	assert.NotEmpty(t, sid)

	body := decode[cartResponse](t, rec)
	assert.Empty(t, body.Items)
	require.NotNil(t, body.Quote)
	assert.True(t, body.Quote.Total.IsZero())
}

func TestCart_AddAndPrice(t *testing.T) {
	env := newTestEnv(t)

	for range 2 {
		rec := env.do(t, http.MethodPost, "/api/cart/items", addItemRequest{ProductID: "tshirt-blanc", Size: "M"}, sessionHeader, "s1")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	body := decode[cartResponse](t, env.do(t, http.MethodGet, "/api/cart", nil, sessionHeader, "s1"))
	require.Len(t, body.Items, 1)
	assert.Equal(t, 2, body.Items[0].Quantity)
	assert.Equal(t, 2, body.Count)
	assert.True(t, body.Quote.Subtotal.Equal(decimal.NewFromInt(90)))
	assert.True(t, body.Quote.ShippingFee.IsZero())

	other := decode[cartResponse](t, env.do(t, http.MethodGet, "/api/cart", nil, sessionHeader, "s2"))
	assert.Empty(t, other.Items, "sessions are isolated")
}

func TestCart_FlatShipping(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/cart/items", addItemRequest{ProductID: "robe-noire", Size: "S"}, sessionHeader, "s1")

	body := decode[cartResponse](t, env.do(t, http.MethodGet, "/api/cart", nil, sessionHeader, "s1"))
	assert.True(t, body.Quote.Total.Equal(decimal.RequireFromString("14.99")))
}

func TestCart_ChangeQuantity(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/cart/items", addItemRequest{ProductID: "robe-noire", Size: "S"}, sessionHeader, "s1")

	tests := map[string]struct {
		path       string
		body       any
		wantStatus int
	}{
		"bad index":    {path: "/api/cart/items/x", body: changeQuantityRequest{Delta: 1}, wantStatus: http.StatusBadRequest},
		"zero delta":   {path: "/api/cart/items/0", body: changeQuantityRequest{}, wantStatus: http.StatusBadRequest},
		"out of range": {path: "/api/cart/items/5", body: changeQuantityRequest{Delta: 1}, wantStatus: http.StatusNotFound},
		"bad json":     {path: "/api/cart/items/0", body: "nope", wantStatus: http.StatusBadRequest},
		"huge delta":   {path: "/api/cart/items/0", body: changeQuantityRequest{Delta: math.MaxInt}, wantStatus: http.StatusUnprocessableEntity},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodPatch, tc.path, tc.body, sessionHeader, "s1")
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}

	body := decode[cartResponse](t, env.do(t, http.MethodPatch, "/api/cart/items/0", changeQuantityRequest{Delta: 1}, sessionHeader, "s1"))
	assert.Equal(t, 2, body.Items[0].Quantity)

	env.do(t, http.MethodPatch, "/api/cart/items/0", changeQuantityRequest{Delta: -1}, sessionHeader, "s1")
	body = decode[cartResponse](t, env.do(t, http.MethodPatch, "/api/cart/items/0", changeQuantityRequest{Delta: -1}, sessionHeader, "s1"))
	assert.Empty(t, body.Items, "decrementing quantity one removes the line")
}

func TestCart_Remove(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/cart/items", addItemRequest{ProductID: "robe-noire"}, sessionHeader, "s1")
	env.do(t, http.MethodPost, "/api/cart/items", addItemRequest{ProductID: "tshirt-blanc"}, sessionHeader, "s1")

	body := decode[cartResponse](t, env.do(t, http.MethodDelete, "/api/cart/items/0", nil, sessionHeader, "s1"))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "tshirt-blanc", body.Items[0].ProductID)
}

func TestCart_Promo(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/cart/items", addItemRequest{ProductID: "tshirt-blanc"}, sessionHeader, "s1")
	env.do(t, http.MethodPost, "/api/cart/items", addItemRequest{ProductID: "tshirt-blanc"}, sessionHeader, "s1")

	rec := env.do(t, http.MethodPost, "/api/cart/promo", promoRequest{Code: " oslan10 "}, sessionHeader, "s1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[cartResponse](t, rec)
	assert.Equal(t, "OSLAN10", body.Quote.PromoCode)
	assert.True(t, body.Quote.Discount.Equal(decimal.NewFromInt(9)))

	rec = env.do(t, http.MethodPost, "/api/cart/promo", promoRequest{Code: "FREE"}, sessionHeader, "s1")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body = decode[cartResponse](t, env.do(t, http.MethodGet, "/api/cart", nil, sessionHeader, "s1"))
	assert.Equal(t, "OSLAN10", body.Quote.PromoCode, "unknown code keeps the previous one")
}

func TestCart_Celebrate(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/cart/items", addItemRequest{ProductID: "tshirt-blanc"}, sessionHeader, "s1")

	first := decode[map[string]bool](t, env.do(t, http.MethodGet, "/api/cart/celebrate", nil, sessionHeader, "s1"))
	second := decode[map[string]bool](t, env.do(t, http.MethodGet, "/api/cart/celebrate", nil, sessionHeader, "s1"))
	assert.True(t, first["celebrate"])
	assert.False(t, second["celebrate"])
}

func TestCart_CatalogOutageKeepsItems(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/cart/items", addItemRequest{ProductID: "tshirt-blanc"}, sessionHeader, "s1")
	env.products.listErr = errors.New("timeout")

	rec := env.do(t, http.MethodGet, "/api/cart", nil, sessionHeader, "s1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[cartResponse](t, rec)
	assert.Len(t, body.Items, 1)
	assert.Nil(t, body.Quote)
	assert.NotEmpty(t, body.Warning)
}

func TestCart_MissingProduct(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/cart/items", addItemRequest{}, sessionHeader, "s1")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
