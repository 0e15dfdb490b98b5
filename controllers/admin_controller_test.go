package controllers

import (
	"net/http"
	"testing"

	"github.com/kendall-kelly/tee-store-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminStats(t *testing.T) {
	t.Run("Empty store", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := performRequest(t, router, http.MethodGet, "/api/v1/admin/stats", adminID, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		data := responseData(t, w)
		assert.Equal(t, float64(0), data["total_products"])
		assert.Equal(t, float64(0), data["total_orders"])
		assert.Equal(t, "0", data["total_revenue"])
	})

	t.Run("Counts sales and revenue", func(t *testing.T) {
		router, f := setupTestRouter(t)
		id := placeOrder(t, router, f)
		f.SeedProduct(t, "tee-2", "Harmattan Haze Tee", 12000, true)
		performRequest(t, router, http.MethodPost, "/api/v1/wishlist", customerID, AddWishlistRequest{ProductID: "tee-2"})
		submitRequest(t, router, customerID, map[string]string{"description": "A tee with my cat"})
		f.Verifier.SetResult("TX-OK", services.VerificationSuccessful)
		require.Equal(t, http.StatusOK, performRequest(t, router, http.MethodPost, "/api/v1/orders/"+id+"/verify", customerID, VerifyPaymentRequest{TransactionID: "TX-OK"}).Code)

		w := performRequest(t, router, http.MethodGet, "/api/v1/admin/stats", adminID, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		data := responseData(t, w)
		assert.Equal(t, float64(2), data["total_products"])
		assert.Equal(t, float64(1), data["available_products"])
		assert.Equal(t, float64(1), data["sold_products"])
		assert.Equal(t, float64(1), data["total_wishlists"])
		assert.Equal(t, float64(1), data["pending_requests"])
		assert.Equal(t, float64(1), data["total_orders"])
		assert.Equal(t, "17000", data["total_revenue"])
		assert.Equal(t, map[string]interface{}{"Completed": float64(1)}, data["orders_by_status"])
	})

	t.Run("Admins only", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := performRequest(t, router, http.MethodGet, "/api/v1/admin/stats", customerID, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "FORBIDDEN", errorCode(t, w))

		w = performRequest(t, router, http.MethodGet, "/api/v1/admin/stats", "auth0|no-profile", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = performRequest(t, router, http.MethodGet, "/api/v1/admin/stats", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
