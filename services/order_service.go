package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/kendall-kelly/tee-store-api/models"
	"github.com/kendall-kelly/tee-store-api/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	paymentMethodBankTransfer = "Bank Transfer"
	orderLockTTL              = 30 * time.Second
	paymentCodeAttempts       = 5
)

// CheckoutInput is the contact and delivery data collected at checkout
type CheckoutInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

func (in *CheckoutInput) trim() {
	for _, f := range []*string{&in.Name, &in.Email, &in.Phone, &in.Address, &in.City, &in.State, &in.ZipCode, &in.Country} {
		*f = strings.TrimSpace(*f)
	}
}

// missingField returns the label of the first blank required field
func (in CheckoutInput) missingField() string {
	required := []struct {
		label string
		value string
	}{
		{"name", in.Name},
		{"email", in.Email},
		{"phone number", in.Phone},
		{"address", in.Address},
		{"city", in.City},
		{"state", in.State},
	}
	for _, f := range required {
		if f.value == "" {
			return f.label
		}
	}
	return ""
}

// CheckoutResult is a placed order and the cart left behind
type CheckoutResult struct {
	Order models.Order
	Cart  Cart
}

// PaymentVerification is the outcome of checking a transaction with the provider
type PaymentVerification struct {
	Status string       `json:"status"` // provider status: successful, pending or anything else
	Order  models.Order `json:"order"`
}

// OrderDeps are the collaborators of OrderService
type OrderDeps struct {
	DB             *gorm.DB
	Cart           *CartService
	Storage        StorageService
	Verifier       PaymentVerifier
	Locker         Locker
	Audit          AuditLog
	Shipping       ShippingRates
	Codes          *PaymentCodeGenerator
	ReceiptsBucket string
	ReceiptURLTTL  time.Duration
	Log            *zap.Logger
}

// OrderService runs checkout, payment evidence and the fulfillment lifecycle
type OrderService struct {
	OrderDeps
}

// NewOrderService creates an order service
func NewOrderService(deps OrderDeps) *OrderService {
	return &OrderService{OrderDeps: deps}
}

// Checkout turns the user's cart into an order awaiting bank transfer. On
// failure the cart is left untouched.
func (s *OrderService) Checkout(ctx context.Context, userID string, in CheckoutInput) (CheckoutResult, error) {
	if userID == "" {
		return CheckoutResult{}, ErrAuthRequired
	}

	in.trim()
	if field := in.missingField(); field != "" {
		return CheckoutResult{}, ValidationError("MISSING_FIELD", fmt.Sprintf("Please fill in your %s.", field))
	}

	cart, err := s.Cart.Load(ctx, userID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if len(cart.Items) == 0 {
		return CheckoutResult{}, ErrEmptyCart
	}
	if err := s.ensureAvailable(ctx, cart.Items); err != nil {
		return CheckoutResult{}, err
	}

	code, err := s.uniquePaymentCode(ctx)
	if err != nil {
		return CheckoutResult{}, err
	}

	subtotal := cart.TotalPrice()
	shipping := s.Shipping.Cost(in.State)
	details, lines := snapshot(cart.Items)

	order := models.Order{
		UserID:       userID,
		Subtotal:     subtotal,
		ShippingCost: shipping,
		TotalAmount:  subtotal.Add(shipping),
		Status:       models.OrderAwaitingPayment,
		PaymentCode:  code,
		ShippingAddress: models.ShippingAddress{
			Name:    in.Name,
			Address: in.Address,
			City:    in.City,
			State:   in.State,
			ZipCode: in.ZipCode,
			Country: in.Country,
			Phone:   in.Phone,
		},
		ContactEmail:   in.Email,
		PaymentDetails: map[string]string{"method": paymentMethodBankTransfer},
		ItemsDetails:   details,
		Items:          lines,
	}

	// The order and its lines are inserted in one transaction
	if err := s.DB.WithContext(ctx).Create(&order).Error; err != nil {
		s.Log.Error("failed to create order", zap.String("user_id", userID), zap.Error(err))
		return CheckoutResult{}, StoreError(err)
	}

	s.Log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("payment_code", order.PaymentCode),
		zap.String("total", order.TotalAmount.String()),
	)
	s.audit(ctx, AuditEntry{
		Entity:   "order",
		EntityID: order.ID,
		Action:   AuditOrderCreated,
		Actor:    userID,
		To:       string(order.Status),
		Data:     map[string]interface{}{"payment_code": order.PaymentCode, "total": order.TotalAmount.String()},
	})

	cleared, err := s.Cart.Clear(ctx, userID, true)
	if err != nil {
		// The order stands; the cart can still be cleared by hand
		s.Log.Warn("failed to clear cart after checkout", zap.String("user_id", userID), zap.Error(err))
		cleared.Cart = cart
	}

	return CheckoutResult{Order: order, Cart: cleared.Cart}, nil
}

// ensureAvailable refuses checkout when a product was sold, or a custom
// request was closed or paid for, after it was put in the cart.
func (s *OrderService) ensureAvailable(ctx context.Context, items models.CartItems) error {
	var productIDs, requestIDs []string
	for _, item := range items {
		switch {
		case item.ProductID != "":
			productIDs = append(productIDs, item.ProductID)
		case item.IsCustom && item.CustomRequestID != "":
			requestIDs = append(requestIDs, item.CustomRequestID)
		}
	}

	open := make(map[string]bool, len(productIDs)+len(requestIDs))
	if len(productIDs) > 0 {
		var products []models.Product
		if err := s.DB.WithContext(ctx).Select("id", "available").Where("id IN ?", productIDs).Find(&products).Error; err != nil {
			return StoreError(err)
		}
		for _, p := range products {
			open[p.ID] = p.Available
		}
	}
	if len(requestIDs) > 0 {
		var requests []models.CustomDesignRequest
		if err := s.DB.WithContext(ctx).Select("id", "status", "order_id").Where("id IN ?", requestIDs).Find(&requests).Error; err != nil {
			return StoreError(err)
		}
		for _, r := range requests {
			open[r.ID] = r.OrderID == nil && !r.Status.IsTerminal()
		}
	}

	for _, item := range items {
		id := item.ProductID
		if id == "" && item.IsCustom {
			id = item.CustomRequestID
		}
		if id != "" && !open[id] {
			return &Error{
				Kind:    ErrUnavailable.Kind,
				Code:    ErrUnavailable.Code,
				Message: fmt.Sprintf("%s is no longer available. Please remove it from your cart.", item.Name),
			}
		}
	}
	return nil
}

func (s *OrderService) uniquePaymentCode(ctx context.Context) (string, error) {
	for i := 0; i < paymentCodeAttempts; i++ {
		code := s.Codes.Generate()
		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.Order{}).Where("payment_code = ?", code).Count(&count).Error; err != nil {
			return "", StoreError(err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", &Error{Kind: KindConflict, Code: "PAYMENT_CODE_EXHAUSTED", Message: "Could not generate a payment code, please retry"}
}

// snapshot copies the cart into the immutable order details and the
// relational order lines.
func snapshot(items models.CartItems) ([]models.OrderItemDetail, []models.OrderItem) {
	details := make([]models.OrderItemDetail, 0, len(items))
	lines := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		details = append(details, models.OrderItemDetail{
			CartItemID:      item.ID,
			ProductID:       item.ProductID,
			CustomRequestID: item.CustomRequestID,
			CustomMockupID:  item.CustomMockupID,
			Name:            item.Name,
			PriceAtPurchase: item.Price,
			Quantity:        item.Quantity,
			Size:            item.Size,
			Color:           item.Color,
			ImageURL:        item.ImageURL,
			IsOneOfOne:      item.IsOneOfOne,
			IsCustom:        item.IsCustom,
		})
		lines = append(lines, models.OrderItem{
			ProductID:       optional(item.ProductID),
			CustomRequestID: optional(item.CustomRequestID),
			Quantity:        item.Quantity,
			PriceAtPurchase: item.Price,
		})
	}
	return details, lines
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// GetOrder returns an order owned by userID
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (models.Order, error) {
	if userID == "" {
		return models.Order{}, ErrAuthRequired
	}
	var order models.Order
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Order{}, NotFoundError("Order")
	}
	if err != nil {
		return models.Order{}, StoreError(err)
	}
	return order, nil
}

// ListOrders returns the user's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	if userID == "" {
		return nil, ErrAuthRequired
	}
	orders := []models.Order{}
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, StoreError(err)
	}
	return orders, nil
}

// ListAllOrders returns every order, optionally filtered by status
func (s *OrderService) ListAllOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	q := s.DB.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		if !status.Valid() {
			return nil, ValidationError("INVALID_STATUS", fmt.Sprintf("Unknown order status %q", status))
		}
		q = q.Where("status = ?", string(status))
	}
	orders := []models.Order{}
	if err := q.Find(&orders).Error; err != nil {
		return nil, StoreError(err)
	}
	return orders, nil
}

// SubmitReceipt stores the payment receipt for an order and moves it to
// Pending Confirmation. Uploading again replaces the previous receipt.
func (s *OrderService) SubmitReceipt(ctx context.Context, userID, orderID string, fileHeader *multipart.FileHeader) (models.Order, error) {
	if userID == "" {
		return models.Order{}, ErrAuthRequired
	}
	if err := utils.ValidateReceiptFile(fileHeader); err != nil {
		return models.Order{}, uploadError(err)
	}

	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if err := receiptAccepted(order.Status); err != nil {
		return models.Order{}, err
	}

	content, err := utils.ReadUploadedFile(fileHeader)
	if err != nil {
		return models.Order{}, ValidationError("UNREADABLE_FILE", err.Error())
	}

	unlock, err := s.Locker.Lock(ctx, "order:"+order.ID, orderLockTTL)
	if err != nil {
		return models.Order{}, &Error{Kind: KindConflict, Code: "ORDER_BUSY", Message: "Order is being updated, please retry", Err: err}
	}
	defer unlock()

	// The status may have moved while we waited for the lock
	if order, err = s.GetOrder(ctx, userID, order.ID); err != nil {
		return models.Order{}, err
	}
	if err := receiptAccepted(order.Status); err != nil {
		return models.Order{}, err
	}

	key := fmt.Sprintf("%s/%s%s", userID, order.ID, utils.Ext(fileHeader.Filename))
	if _, err := s.Storage.Upload(ctx, s.ReceiptsBucket, key, content, utils.ContentType(fileHeader.Filename), true); err != nil {
		s.Log.Error("failed to upload receipt", zap.String("order_id", order.ID), zap.Error(err))
		return models.Order{}, StoreError(err)
	}

	from := order.Status
	res := s.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status IN ?", order.ID, []string{string(models.OrderAwaitingPayment), string(models.OrderPendingConfirmation)}).
		Updates(map[string]interface{}{
			"payment_receipt_path": key,
			"status":               string(models.OrderPendingConfirmation),
		})
	if res.Error != nil {
		s.Log.Error("failed to record receipt", zap.String("order_id", order.ID), zap.Error(res.Error))
		return models.Order{}, StoreError(res.Error)
	}
	if res.RowsAffected == 0 {
		s.Log.Warn("order left the payment stage before the receipt was recorded",
			zap.String("order_id", order.ID), zap.String("receipt", key))
		return models.Order{}, ErrInvalidTransition
	}

	s.audit(ctx, AuditEntry{
		Entity:   "order",
		EntityID: order.ID,
		Action:   AuditReceiptSubmitted,
		Actor:    userID,
		From:     string(from),
		To:       string(models.OrderPendingConfirmation),
		Data:     map[string]interface{}{"receipt": key},
	})

	return s.GetOrder(ctx, userID, order.ID)
}

// receiptAccepted reports whether an order in status can take a receipt
func receiptAccepted(status models.OrderStatus) error {
	if status == models.OrderAwaitingPayment || status == models.OrderPendingConfirmation {
		return nil
	}
	return &Error{
		Kind:    ErrInvalidTransition.Kind,
		Code:    ErrInvalidTransition.Code,
		Message: fmt.Sprintf("A receipt cannot be submitted for an order that is %s", status),
	}
}

// ReceiptURL returns a time-limited link to an order's receipt
func (s *OrderService) ReceiptURL(ctx context.Context, orderID string) (string, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).Select("id", "payment_receipt_path").First(&order, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", NotFoundError("Order")
	}
	if err != nil {
		return "", StoreError(err)
	}
	if order.PaymentReceiptPath == nil || *order.PaymentReceiptPath == "" {
		return "", NotFoundError("Receipt")
	}

	url, err := s.Storage.SignedURL(ctx, s.ReceiptsBucket, *order.PaymentReceiptPath, s.ReceiptURLTTL)
	if err != nil {
		s.Log.Error("failed to sign receipt url", zap.String("order_id", orderID), zap.Error(err))
		return "", StoreError(err)
	}
	return url, nil
}

// VerifyPayment asks the payment provider about transactionRef. A
// successful payment settles the order, a pending one leaves it as is and
// any other answer marks it failed.
func (s *OrderService) VerifyPayment(ctx context.Context, userID, orderID, transactionRef string) (PaymentVerification, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return PaymentVerification{}, err
	}
	transactionRef = strings.TrimSpace(transactionRef)
	if transactionRef == "" {
		return PaymentVerification{}, ValidationError("MISSING_TRANSACTION", "Transaction reference is required")
	}

	result, err := s.Verifier.Verify(ctx, transactionRef)
	if err != nil {
		s.Log.Error("payment verification failed", zap.String("order_id", order.ID), zap.Error(err))
		return PaymentVerification{}, UpstreamError("PAYMENT_VERIFICATION_FAILED", err)
	}

	s.audit(ctx, AuditEntry{
		Entity:   "order",
		EntityID: order.ID,
		Action:   AuditPaymentVerified,
		Actor:    userID,
		Data:     map[string]interface{}{"transaction_id": transactionRef, "provider_status": result.Status},
	})

	details := map[string]string{"transaction_id": transactionRef, "provider_status": result.Status}
	switch result.Status {
	case VerificationSuccessful:
		order, err = s.Settle(ctx, userID, order.ID, models.OrderCompleted, details)
	case VerificationPending:
	default:
		order, err = s.markFailed(ctx, userID, order.ID, details)
	}
	if err != nil {
		return PaymentVerification{}, err
	}
	return PaymentVerification{Status: result.Status, Order: order}, nil
}

// ConfirmPayment records an operator-confirmed bank transfer and settles
// the order into Processing.
func (s *OrderService) ConfirmPayment(ctx context.Context, actor, orderID string) (models.Order, error) {
	return s.Settle(ctx, actor, orderID, models.OrderProcessing, map[string]string{
		"confirmed_by": actor,
		"confirmed_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// Settle marks an order paid. The status and payment details, the sale of
// every one-of-one product and the completion of every custom request in
// the order are written in one transaction. Settling a settled order
// changes nothing, so the call is safe to retry.
func (s *OrderService) Settle(ctx context.Context, actor, orderID string, target models.OrderStatus, details map[string]string) (models.Order, error) {
	if !target.IsSettled() {
		return models.Order{}, ValidationError("INVALID_STATUS", fmt.Sprintf("%s is not a paid status", target))
	}

	var order models.Order
	var from models.OrderStatus
	changed := false
	err := s.withOrderLock(ctx, orderID, func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return err
		}
		from = order.Status
		if order.Status.IsSettled() {
			return nil
		}
		if order.Status == models.OrderCancelled {
			return &Error{Kind: ErrInvalidTransition.Kind, Code: ErrInvalidTransition.Code, Message: "A cancelled order cannot be settled"}
		}
		changed = true
		return settleTx(tx, &order, target, details)
	})
	if err != nil {
		return models.Order{}, s.orderError("settle", orderID, err)
	}

	if changed {
		s.Log.Info("order settled", zap.String("order_id", orderID), zap.String("status", string(target)))
		s.audit(ctx, AuditEntry{
			Entity:   "order",
			EntityID: orderID,
			Action:   AuditOrderSettled,
			Actor:    actor,
			From:     string(from),
			To:       string(target),
			Data:     stringMap(details),
		})
	}
	return order, nil
}

// settleTx writes the paid state of order inside tx
func settleTx(tx *gorm.DB, order *models.Order, target models.OrderStatus, details map[string]string) error {
	merged := make(map[string]string, len(order.PaymentDetails)+len(details))
	for k, v := range order.PaymentDetails {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}

	if err := tx.Model(order).Select("status", "payment_details").Updates(&models.Order{
		Status:         target,
		PaymentDetails: merged,
	}).Error; err != nil {
		return err
	}
	order.Status = target
	order.PaymentDetails = merged

	now := time.Now().UTC()
	for _, line := range order.ItemsDetails {
		if line.IsOneOfOne && line.ProductID != "" {
			err := tx.Model(&models.Product{}).Where("id = ?", line.ProductID).
				Updates(map[string]interface{}{"available": false, "sold_at": now}).Error
			if err != nil {
				return fmt.Errorf("mark product %s sold: %w", line.ProductID, err)
			}
		}
		if line.IsCustom && line.CustomRequestID != "" {
			err := tx.Model(&models.CustomDesignRequest{}).Where("id = ?", line.CustomRequestID).
				Updates(map[string]interface{}{
					"status":      string(models.RequestCompleted),
					"final_price": line.PriceAtPurchase,
					"order_id":    order.ID,
				}).Error
			if err != nil {
				return fmt.Errorf("complete custom request %s: %w", line.CustomRequestID, err)
			}
		}
	}
	return nil
}

// markFailed records a failed payment unless the order was already paid
func (s *OrderService) markFailed(ctx context.Context, actor, orderID string, details map[string]string) (models.Order, error) {
	var order models.Order
	var from models.OrderStatus
	changed := false
	err := s.withOrderLock(ctx, orderID, func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return err
		}
		from = order.Status
		if order.Status.IsSettled() || order.Status.IsTerminal() {
			return nil
		}
		merged := order.PaymentDetails
		if merged == nil {
			merged = map[string]string{}
		}
		for k, v := range details {
			merged[k] = v
		}
		changed = true
		order.Status = models.OrderFailed
		order.PaymentDetails = merged
		return tx.Model(&order).Select("status", "payment_details").Updates(&models.Order{
			Status:         models.OrderFailed,
			PaymentDetails: merged,
		}).Error
	})
	if err != nil {
		return models.Order{}, s.orderError("mark failed", orderID, err)
	}
	if changed {
		s.audit(ctx, AuditEntry{
			Entity:   "order",
			EntityID: orderID,
			Action:   AuditOrderStatusChanged,
			Actor:    actor,
			From:     string(from),
			To:       string(models.OrderFailed),
			Data:     stringMap(details),
		})
	}
	return order, nil
}

// UpdateStatus moves an order through the fulfillment lifecycle. Unless
// force is set the move must follow the transition table. Entering a paid
// status from an unpaid one applies the settlement writes as well.
func (s *OrderService) UpdateStatus(ctx context.Context, actor, orderID string, status models.OrderStatus, force bool) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, ValidationError("INVALID_STATUS", fmt.Sprintf("Unknown order status %q", status))
	}

	var order models.Order
	var from models.OrderStatus
	err := s.withOrderLock(ctx, orderID, func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return err
		}
		from = order.Status
		if from == status {
			return nil
		}
		if !force && !from.CanTransitionTo(status) {
			return &Error{
				Kind:    ErrInvalidTransition.Kind,
				Code:    ErrInvalidTransition.Code,
				Message: fmt.Sprintf("Cannot move an order from %s to %s", from, status),
			}
		}
		if status.IsSettled() && !from.IsSettled() {
			return settleTx(tx, &order, status, map[string]string{"confirmed_by": actor})
		}
		order.Status = status
		return tx.Model(&order).Update("status", string(status)).Error
	})
	if err != nil {
		return models.Order{}, s.orderError("update status", orderID, err)
	}

	if from != status {
		s.Log.Info("order status changed",
			zap.String("order_id", orderID),
			zap.String("from", string(from)),
			zap.String("to", string(status)),
			zap.Bool("forced", force),
		)
		s.audit(ctx, AuditEntry{
			Entity:   "order",
			EntityID: orderID,
			Action:   AuditOrderStatusChanged,
			Actor:    actor,
			From:     string(from),
			To:       string(status),
			Data:     map[string]interface{}{"forced": force},
		})
	}
	return order, nil
}

// History returns the audit trail of an order
func (s *OrderService) History(ctx context.Context, orderID string) ([]AuditEntry, error) {
	entries, err := s.Audit.History(ctx, "order", orderID, 100)
	if err != nil {
		return nil, StoreError(err)
	}
	return entries, nil
}

// withOrderLock runs fn in a transaction while holding the order's lock
func (s *OrderService) withOrderLock(ctx context.Context, orderID string, fn func(tx *gorm.DB) error) error {
	unlock, err := s.Locker.Lock(ctx, "order:"+orderID, orderLockTTL)
	if err != nil {
		return &Error{Kind: KindConflict, Code: "ORDER_BUSY", Message: "Order is being updated, please retry", Err: err}
	}
	defer unlock()
	return s.DB.WithContext(ctx).Transaction(fn)
}

func (s *OrderService) orderError(op, orderID string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError("Order")
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	s.Log.Error("order write failed", zap.String("op", op), zap.String("order_id", orderID), zap.Error(err))
	return StoreError(err)
}

// audit records entry; audit failures never fail the operation
func (s *OrderService) audit(ctx context.Context, entry AuditEntry) {
	if err := s.Audit.Record(ctx, entry); err != nil {
		s.Log.Warn("failed to record audit entry", zap.String("action", entry.Action), zap.String("entity_id", entry.EntityID), zap.Error(err))
	}
}

func stringMap(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// OrderTotals is what a cart would cost delivered to region
type OrderTotals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Total        decimal.Decimal `json:"total"`
}

// Quote prices the user's current cart for region
func (s *OrderService) Quote(ctx context.Context, userID, region string) (OrderTotals, error) {
	cart, err := s.Cart.Load(ctx, userID)
	if err != nil {
		return OrderTotals{}, err
	}
	subtotal := cart.TotalPrice()
	shipping := s.Shipping.Cost(region)
	return OrderTotals{Subtotal: subtotal, ShippingCost: shipping, Total: subtotal.Add(shipping)}, nil
}
