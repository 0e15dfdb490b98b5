package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cartItems(t *testing.T, data map[string]interface{}) []interface{} {
	t.Helper()
	items, ok := data["items"].([]interface{})
	require.True(t, ok, "items should be a list")
	return items
}

func TestGetCart(t *testing.T) {
	t.Run("Anonymous visitor gets an empty cart", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := performRequest(t, router, http.MethodGet, "/api/v1/cart", "", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		data := responseData(t, w)
		assert.Empty(t, cartItems(t, data))
		assert.Equal(t, float64(0), data["total_items"])
		assert.Equal(t, "0", data["total_price"])
	})

	t.Run("Signed-in user with no cart row", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := performRequest(t, router, http.MethodGet, "/api/v1/cart", customerID, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, cartItems(t, responseData(t, w)))
	})
}

func TestAddCartItem(t *testing.T) {
	t.Run("Add a one-of-one product", func(t *testing.T) {
		router, f := setupTestRouter(t)
		f.SeedProduct(t, "tee-1", "Lagos Sunset Tee", 15000, true)

		w := performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, AddCartItemRequest{
			ProductID: "tee-1",
			Size:      "M",
			Color:     "Black",
			Quantity:  3,
		})

		assert.Equal(t, http.StatusOK, w.Code)
		response := parseEnvelope(t, w)
		assert.Equal(t, "added", response["outcome"])
		assert.Equal(t, "Lagos Sunset Tee has been added.", response["notice"])

		data := responseData(t, w)
		items := cartItems(t, data)
		require.Len(t, items, 1)
		item := items[0].(map[string]interface{})
		assert.Equal(t, "tee-1-M-Black", item["id"])
		assert.Equal(t, "Lagos Sunset Tee", item["name"])
		assert.Equal(t, "15000", item["price"])
		assert.Equal(t, float64(1), item["quantity"], "Unique items are capped at one")
		assert.Equal(t, true, item["is_one_of_one"])
		assert.Equal(t, float64(1), data["total_items"])
		assert.Equal(t, "15000", data["total_price"])
	})

	t.Run("Client price is ignored", func(t *testing.T) {
		router, f := setupTestRouter(t)
		f.SeedProduct(t, "tee-1", "Lagos Sunset Tee", 15000, true)

		w := performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, map[string]interface{}{
			"product_id": "tee-1",
			"size":       "M",
			"color":      "Black",
			"price":      "1",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "15000", responseData(t, w)["total_price"])
	})

	t.Run("Unique item already in cart", func(t *testing.T) {
		router, f := setupTestRouter(t)
		f.SeedProduct(t, "tee-1", "Lagos Sunset Tee", 15000, true)
		body := AddCartItemRequest{ProductID: "tee-1", Size: "M", Color: "Black"}
		require.Equal(t, http.StatusOK, performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, body).Code)

		w := performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, body)

		assert.Equal(t, http.StatusOK, w.Code)
		response := parseEnvelope(t, w)
		assert.Equal(t, "already_in_cart", response["outcome"])
		assert.Equal(t, "Lagos Sunset Tee is a unique item and is already in your cart.", response["notice"])
		assert.Len(t, cartItems(t, responseData(t, w)), 1)
	})

	t.Run("Repeatable product merges quantities", func(t *testing.T) {
		router, f := setupTestRouter(t)
		f.SeedProduct(t, "tee-basic", "Plain Tee", 8000, false)
		body := AddCartItemRequest{ProductID: "tee-basic", Size: "L", Color: "White", Quantity: 2}
		require.Equal(t, http.StatusOK, performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, body).Code)

		w := performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, body)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "quantity_increased", parseEnvelope(t, w)["outcome"])
		data := responseData(t, w)
		assert.Equal(t, float64(4), data["total_items"])
		assert.Equal(t, "32000", data["total_price"])
	})

	t.Run("Different size is a separate line", func(t *testing.T) {
		router, f := setupTestRouter(t)
		f.SeedProduct(t, "tee-basic", "Plain Tee", 8000, false)
		performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, AddCartItemRequest{ProductID: "tee-basic", Size: "S", Color: "White"})

		w := performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, AddCartItemRequest{ProductID: "tee-basic", Size: "L", Color: "White"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, cartItems(t, responseData(t, w)), 2)
	})

	t.Run("Missing size or color", func(t *testing.T) {
		router, f := setupTestRouter(t)
		f.SeedProduct(t, "tee-1", "Lagos Sunset Tee", 15000, true)

		w := performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, AddCartItemRequest{ProductID: "tee-1", Size: "M"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "SELECTION_INCOMPLETE", errorCode(t, w))
	})

	t.Run("Neither product nor custom request", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, AddCartItemRequest{Size: "M", Color: "Black"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_ITEM", errorCode(t, w))
	})

	t.Run("Unknown product", func(t *testing.T) {
		router, _ := setupTestRouter(t)

		w := performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, AddCartItemRequest{ProductID: "missing", Size: "M", Color: "Black"})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(t, w))
	})

	t.Run("Sold product cannot be added", func(t *testing.T) {
		router, f := setupTestRouter(t)
		f.SeedProduct(t, "tee-1", "Lagos Sunset Tee", 15000, true)
		require.Equal(t, http.StatusOK, performRequest(t, router, http.MethodPost, "/api/v1/admin/products/tee-1/sold", adminID, nil).Code)

		w := performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, AddCartItemRequest{ProductID: "tee-1", Size: "M", Color: "Black"})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "ITEM_UNAVAILABLE", errorCode(t, w))
	})

	t.Run("Negative quantity is rejected", func(t *testing.T) {
		router, f := setupTestRouter(t)
		f.SeedProduct(t, "tee-1", "Lagos Sunset Tee", 15000, true)

		w := performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, AddCartItemRequest{ProductID: "tee-1", Size: "M", Color: "Black", Quantity: -1})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
	})

	t.Run("Anonymous visitors must log in", func(t *testing.T) {
		router, f := setupTestRouter(t)
		f.SeedProduct(t, "tee-1", "Lagos Sunset Tee", 15000, true)

		w := performRequest(t, router, http.MethodPost, "/api/v1/cart/items", "", AddCartItemRequest{ProductID: "tee-1", Size: "M", Color: "Black"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Cart survives a reload", func(t *testing.T) {
		router, f := setupTestRouter(t)
		f.SeedProduct(t, "tee-1", "Lagos Sunset Tee", 15000, true)
		performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, AddCartItemRequest{ProductID: "tee-1", Size: "M", Color: "Black"})

		f.Services.Cart.Evict(customerID)
		w := performRequest(t, router, http.MethodGet, "/api/v1/cart", customerID, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, cartItems(t, responseData(t, w)), 1)
	})
}

func TestUpdateCartItem(t *testing.T) {
	setup := func(t *testing.T) *gin.Engine {
		router, f := setupTestRouter(t)
		f.SeedProduct(t, "tee-1", "Lagos Sunset Tee", 15000, true)
		f.SeedProduct(t, "tee-basic", "Plain Tee", 8000, false)
		performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, AddCartItemRequest{ProductID: "tee-1", Size: "M", Color: "Black"})
		performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, AddCartItemRequest{ProductID: "tee-basic", Size: "L", Color: "White"})
		return router
	}

	t.Run("Set quantity of a repeatable line", func(t *testing.T) {
		router, f := setupTestRouter(t)
		f.SeedProduct(t, "tee-basic", "Plain Tee", 8000, false)
		performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, AddCartItemRequest{ProductID: "tee-basic", Size: "L", Color: "White"})

		w := performRequest(t, router, http.MethodPut, "/api/v1/cart/items/tee-basic-L-White", customerID, map[string]int{"quantity": 3})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "updated", parseEnvelope(t, w)["outcome"])
		data := responseData(t, w)
		assert.Equal(t, float64(3), data["total_items"])
		assert.Equal(t, "24000", data["total_price"])
	})

	t.Run("Unique line cannot go above one", func(t *testing.T) {
		router := setup(t)

		w := performRequest(t, router, http.MethodPut, "/api/v1/cart/items/tee-1-M-Black", customerID, map[string]int{"quantity": 2})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "UNIQUE_ITEM_QUANTITY", errorCode(t, w))
	})

	t.Run("Zero removes the line", func(t *testing.T) {
		router := setup(t)

		w := performRequest(t, router, http.MethodPut, "/api/v1/cart/items/tee-1-M-Black", customerID, map[string]int{"quantity": 0})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "removed", parseEnvelope(t, w)["outcome"])
		assert.Len(t, cartItems(t, responseData(t, w)), 1)
	})

	t.Run("Unknown line is unchanged", func(t *testing.T) {
		router := setup(t)

		w := performRequest(t, router, http.MethodPut, "/api/v1/cart/items/nope", customerID, map[string]int{"quantity": 2})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "unchanged", parseEnvelope(t, w)["outcome"])
	})

	t.Run("Quantity is required", func(t *testing.T) {
		router := setup(t)

		w := performRequest(t, router, http.MethodPut, "/api/v1/cart/items/tee-1-M-Black", customerID, map[string]int{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
	})
}

func TestRemoveCartItem(t *testing.T) {
	router, f := setupTestRouter(t)
	f.SeedProduct(t, "tee-1", "Lagos Sunset Tee", 15000, true)
	performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, AddCartItemRequest{ProductID: "tee-1", Size: "M", Color: "Black"})

	w := performRequest(t, router, http.MethodDelete, "/api/v1/cart/items/tee-1-M-Black", customerID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	response := parseEnvelope(t, w)
	assert.Equal(t, "removed", response["outcome"])
	assert.Equal(t, "Item has been removed.", response["notice"])
	assert.Empty(t, cartItems(t, responseData(t, w)))

	w = performRequest(t, router, http.MethodDelete, "/api/v1/cart/items/tee-1-M-Black", customerID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "unchanged", parseEnvelope(t, w)["outcome"])
}

func TestClearCart(t *testing.T) {
	router, f := setupTestRouter(t)
	f.SeedProduct(t, "tee-1", "Lagos Sunset Tee", 15000, true)
	f.SeedProduct(t, "tee-basic", "Plain Tee", 8000, false)
	performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, AddCartItemRequest{ProductID: "tee-1", Size: "M", Color: "Black"})
	performRequest(t, router, http.MethodPost, "/api/v1/cart/items", customerID, AddCartItemRequest{ProductID: "tee-basic", Size: "L", Color: "White"})

	w := performRequest(t, router, http.MethodDelete, "/api/v1/cart", customerID, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	response := parseEnvelope(t, w)
	assert.Equal(t, "cleared", response["outcome"])
	assert.Equal(t, "Your shopping cart is now empty.", response["notice"])
	data := responseData(t, w)
	assert.Empty(t, cartItems(t, data))
	assert.Equal(t, "0", data["total_price"])

	f.Services.Cart.Evict(customerID)
	w = performRequest(t, router, http.MethodGet, "/api/v1/cart", customerID, nil)
	assert.Empty(t, cartItems(t, responseData(t, w)), "The empty cart is persisted")
}

func TestLogout(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := performRequest(t, router, http.MethodPost, "/api/v1/session/logout", customerID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, responseData(t, w)["logged_out"])

	w = performRequest(t, router, http.MethodPost, "/api/v1/session/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
