package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tee-store-api/middleware"
	"github.com/kendall-kelly/tee-store-api/models"
	"github.com/kendall-kelly/tee-store-api/services"
	"github.com/kendall-kelly/tee-store-api/utils"
	"go.uber.org/zap"
)

// VerifyPaymentRequest is the body of POST /orders/:id/verify
type VerifyPaymentRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
}

// UpdateOrderStatusRequest is the body of PUT /admin/orders/:id/status.
// Force skips the transition table.
type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Force  bool               `json:"force"`
}

// PaymentInstructions is what the buyer needs to pay by bank transfer
type PaymentInstructions struct {
	Order         models.Order `json:"order"`
	Cart          CartView     `json:"cart"`
	PaymentCode   string       `json:"payment_code"`
	AmountDisplay string       `json:"amount_display"`
}

// OrderController serves checkout, order history and the admin order tools
type OrderController struct {
	orders *services.OrderService
	log    *zap.Logger
}

// NewOrderController creates an order controller
func NewOrderController(orders *services.OrderService, log *zap.Logger) *OrderController {
	return &OrderController{orders: orders, log: log}
}

// Checkout handles POST /api/v1/checkout
func (oc *OrderController) Checkout(c *gin.Context) {
	var req services.CheckoutInput
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	result, err := oc.orders.Checkout(c.Request.Context(), middleware.OptionalUserID(c), req)
	if err != nil {
		respondError(c, oc.log, err)
		return
	}

	respondOK(c, http.StatusCreated, PaymentInstructions{
		Order:         result.Order,
		Cart:          newCartView(result.Cart),
		PaymentCode:   result.Order.PaymentCode,
		AmountDisplay: utils.FormatNaira(result.Order.TotalAmount),
	})
}

// Quote handles GET /api/v1/shipping?region=
func (oc *OrderController) Quote(c *gin.Context) {
	totals, err := oc.orders.Quote(c.Request.Context(), middleware.OptionalUserID(c), c.Query("region"))
	if err != nil {
		respondError(c, oc.log, err)
		return
	}
	respondOK(c, http.StatusOK, totals)
}

// ListOrders handles GET /api/v1/orders
func (oc *OrderController) ListOrders(c *gin.Context) {
	orders, err := oc.orders.ListOrders(c.Request.Context(), middleware.OptionalUserID(c))
	if err != nil {
		respondError(c, oc.log, err)
		return
	}
	respondOK(c, http.StatusOK, orders)
}

// GetOrder handles GET /api/v1/orders/:id
func (oc *OrderController) GetOrder(c *gin.Context) {
	order, err := oc.orders.GetOrder(c.Request.Context(), middleware.OptionalUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, oc.log, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

// UploadReceipt handles POST /api/v1/orders/:id/receipt with a "receipt" file
func (oc *OrderController) UploadReceipt(c *gin.Context) {
	file, err := c.FormFile("receipt")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "NO_FILE", "No receipt file provided")
		return
	}

	order, err := oc.orders.SubmitReceipt(c.Request.Context(), middleware.OptionalUserID(c), c.Param("id"), file)
	if err != nil {
		respondError(c, oc.log, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

// VerifyPayment handles POST /api/v1/orders/:id/verify
func (oc *OrderController) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	result, err := oc.orders.VerifyPayment(c.Request.Context(), middleware.OptionalUserID(c), c.Param("id"), req.TransactionID)
	if err != nil {
		respondError(c, oc.log, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// ListAllOrders handles GET /api/v1/admin/orders?status=
func (oc *OrderController) ListAllOrders(c *gin.Context) {
	orders, err := oc.orders.ListAllOrders(c.Request.Context(), models.OrderStatus(c.Query("status")))
	if err != nil {
		respondError(c, oc.log, err)
		return
	}
	respondOK(c, http.StatusOK, orders)
}

// UpdateStatus handles PUT /api/v1/admin/orders/:id/status
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	order, err := oc.orders.UpdateStatus(c.Request.Context(), middleware.OptionalUserID(c), c.Param("id"), req.Status, req.Force)
	if err != nil {
		respondError(c, oc.log, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

// ConfirmPayment handles POST /api/v1/admin/orders/:id/confirm
func (oc *OrderController) ConfirmPayment(c *gin.Context) {
	order, err := oc.orders.ConfirmPayment(c.Request.Context(), middleware.OptionalUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, oc.log, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

// ReceiptURL handles GET /api/v1/admin/orders/:id/receipt
func (oc *OrderController) ReceiptURL(c *gin.Context) {
	url, err := oc.orders.ReceiptURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, oc.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"url": url})
}

// History handles GET /api/v1/admin/orders/:id/history
func (oc *OrderController) History(c *gin.Context) {
	entries, err := oc.orders.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, oc.log, err)
		return
	}
	respondOK(c, http.StatusOK, entries)
}
