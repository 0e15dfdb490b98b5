package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tee-store-api/middleware"
	"github.com/kendall-kelly/tee-store-api/models"
	"github.com/kendall-kelly/tee-store-api/services"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AddCartItemRequest identifies what to add. Name, price and image always
// come from the store, never from the client.
type AddCartItemRequest struct {
	ProductID       string `json:"product_id"`
	CustomRequestID string `json:"custom_request_id"`
	CustomMockupID  string `json:"custom_mockup_id"`
	Size            string `json:"size"`
	Color           string `json:"color"`
	Quantity        int    `json:"quantity" binding:"omitempty,gte=0"`
}

// UpdateCartItemRequest sets the quantity of one line
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// CartView is the cart as sent to clients
type CartView struct {
	Items      models.CartItems `json:"items"`
	Version    int64            `json:"version"`
	TotalItems int              `json:"total_items"`
	TotalPrice decimal.Decimal  `json:"total_price"`
}

func newCartView(cart services.Cart) CartView {
	items := cart.Items
	if items == nil {
		items = models.CartItems{}
	}
	return CartView{
		Items:      items,
		Version:    cart.Version,
		TotalItems: cart.TotalItems(),
		TotalPrice: cart.TotalPrice(),
	}
}

// CartController serves the shopping cart
type CartController struct {
	cart     *services.CartService
	catalog  *services.CatalogService
	requests *services.CustomRequestService
	log      *zap.Logger
}

// NewCartController creates a cart controller
func NewCartController(cart *services.CartService, catalog *services.CatalogService, requests *services.CustomRequestService, log *zap.Logger) *CartController {
	return &CartController{cart: cart, catalog: catalog, requests: requests, log: log}
}

// GetCart handles GET /api/v1/cart. Anonymous visitors get an empty cart.
func (cc *CartController) GetCart(c *gin.Context) {
	cart, err := cc.cart.Load(c.Request.Context(), middleware.OptionalUserID(c))
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	respondOK(c, http.StatusOK, newCartView(cart))
}

// AddItem handles POST /api/v1/cart/items
func (cc *CartController) AddItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	userID := middleware.OptionalUserID(c)
	if userID == "" {
		respondError(c, cc.log, services.ErrAuthRequired)
		return
	}

	input, err := cc.resolveItem(c, userID, req)
	if err != nil {
		respondError(c, cc.log, err)
		return
	}

	result, err := cc.cart.AddItem(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	respondOutcome(c, http.StatusOK, newCartView(result.Cart), result.Outcome, result.Notice)
}

// resolveItem fills in the display data and price of the item from the
// catalog or from the owner's custom request.
func (cc *CartController) resolveItem(c *gin.Context, userID string, req AddCartItemRequest) (services.CartItemInput, error) {
	ctx := c.Request.Context()
	input := services.CartItemInput{
		Size:     strings.TrimSpace(req.Size),
		Color:    strings.TrimSpace(req.Color),
		Quantity: req.Quantity,
	}

	switch {
	case req.ProductID != "":
		product, err := cc.catalog.GetProduct(ctx, req.ProductID)
		if err != nil {
			return input, err
		}
		if !product.Available {
			return input, services.ErrUnavailable
		}
		available := product.Available
		input.ProductID = product.ID
		input.Name = product.Name
		input.Price = product.Price
		input.ImageURL = product.ImageURL
		input.IsOneOfOne = product.IsOneOfOne
		input.Available = &available
	case req.CustomRequestID != "":
		request, mockup, err := cc.requests.ResolveMockup(ctx, userID, req.CustomRequestID, req.CustomMockupID)
		if err != nil {
			return input, err
		}
		input.CustomRequestID = request.ID
		input.CustomMockupID = mockup.ID
		input.Name = mockup.Name
		input.Price = mockup.Price
		input.ImageURL = mockup.URL
		input.IsCustom = true
		if input.Color == "" {
			input.Color = request.ShirtColor
		}
	default:
		return input, services.ErrInvalidItem
	}
	return input, nil
}

// UpdateItem handles PUT /api/v1/cart/items/:itemId
func (cc *CartController) UpdateItem(c *gin.Context) {
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	result, err := cc.cart.UpdateQuantity(c.Request.Context(), middleware.OptionalUserID(c), c.Param("itemId"), *req.Quantity)
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	respondOutcome(c, http.StatusOK, newCartView(result.Cart), result.Outcome, result.Notice)
}

// RemoveItem handles DELETE /api/v1/cart/items/:itemId
func (cc *CartController) RemoveItem(c *gin.Context) {
	result, err := cc.cart.RemoveItem(c.Request.Context(), middleware.OptionalUserID(c), c.Param("itemId"))
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	respondOutcome(c, http.StatusOK, newCartView(result.Cart), result.Outcome, result.Notice)
}

// ClearCart handles DELETE /api/v1/cart
func (cc *CartController) ClearCart(c *gin.Context) {
	result, err := cc.cart.Clear(c.Request.Context(), middleware.OptionalUserID(c), false)
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	respondOutcome(c, http.StatusOK, newCartView(result.Cart), result.Outcome, result.Notice)
}

// Logout handles POST /api/v1/session/logout. Sign-out itself happens at the
// identity provider; the API only drops the cached cart.
func (cc *CartController) Logout(c *gin.Context) {
	if userID := middleware.OptionalUserID(c); userID != "" {
		cc.cart.Evict(userID)
	}
	respondOK(c, http.StatusOK, gin.H{"logged_out": true})
}
