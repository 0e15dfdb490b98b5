package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tee-store-api/middleware"
	"github.com/kendall-kelly/tee-store-api/services"
	"go.uber.org/zap"
)

// AddWishlistRequest is the body of POST /wishlist
type AddWishlistRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

// WishlistController serves the signed-in user's wishlist
type WishlistController struct {
	wishlist *services.WishlistService
	log      *zap.Logger
}

// NewWishlistController creates a wishlist controller
func NewWishlistController(wishlist *services.WishlistService, log *zap.Logger) *WishlistController {
	return &WishlistController{wishlist: wishlist, log: log}
}

// List handles GET /api/v1/wishlist
func (wc *WishlistController) List(c *gin.Context) {
	entries, err := wc.wishlist.List(c.Request.Context(), middleware.OptionalUserID(c))
	if err != nil {
		respondError(c, wc.log, err)
		return
	}
	respondOK(c, http.StatusOK, entries)
}

// Add handles POST /api/v1/wishlist
func (wc *WishlistController) Add(c *gin.Context) {
	var req AddWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	result, err := wc.wishlist.Add(c.Request.Context(), middleware.OptionalUserID(c), req.ProductID)
	if err != nil {
		respondError(c, wc.log, err)
		return
	}

	status := http.StatusCreated
	if result.Outcome == services.OutcomeAlreadyInWishlist {
		status = http.StatusOK
	}
	respondOutcome(c, status, result, result.Outcome, result.Notice)
}

// Remove handles DELETE /api/v1/wishlist/:productId
func (wc *WishlistController) Remove(c *gin.Context) {
	result, err := wc.wishlist.Remove(c.Request.Context(), middleware.OptionalUserID(c), c.Param("productId"))
	if err != nil {
		respondError(c, wc.log, err)
		return
	}
	respondOutcome(c, http.StatusOK, result, result.Outcome, result.Notice)
}

// Recount handles POST /api/v1/admin/products/:id/wishlist-count
func (wc *WishlistController) Recount(c *gin.Context) {
	productID := c.Param("id")
	count, err := wc.wishlist.RecountWishlist(c.Request.Context(), productID)
	if err != nil {
		respondError(c, wc.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"product_id": productID, "wishlist_count": count})
}
