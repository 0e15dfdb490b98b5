package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ShippingAddress is the delivery snapshot taken at checkout
type ShippingAddress struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country,omitempty"`
	Phone   string `json:"phone"`
}

// OrderItemDetail is the denormalized copy of a cart line at purchase time.
// It is never rewritten after the order is created.
type OrderItemDetail struct {
	CartItemID      string          `json:"id"`
	ProductID       string          `json:"product_id,omitempty"`
	CustomRequestID string          `json:"custom_request_id,omitempty"`
	CustomMockupID  string          `json:"custom_mockup_id,omitempty"`
	Name            string          `json:"name"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Quantity        int             `json:"quantity"`
	Size            string          `json:"size,omitempty"`
	Color           string          `json:"color,omitempty"`
	ImageURL        string          `json:"image_url,omitempty"`
	IsOneOfOne      bool            `json:"is_one_of_one"`
	IsCustom        bool            `json:"is_custom"`
}

// Order represents a checkout paid by bank transfer
type Order struct {
	ID                 string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID             string            `gorm:"type:varchar(128);not null;index" json:"user_id"`
	Subtotal           decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	ShippingCost       decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"shipping_cost"`
	TotalAmount        decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status             OrderStatus       `gorm:"type:varchar(32);not null;index" json:"status"`
	PaymentCode        string            `gorm:"type:varchar(32);not null;uniqueIndex" json:"payment_code"`
	ShippingAddress    ShippingAddress   `gorm:"serializer:json;type:text" json:"shipping_address"`
	ContactEmail       string            `json:"contact_email"`
	PaymentDetails     map[string]string `gorm:"serializer:json;type:text" json:"payment_details"`
	ItemsDetails       []OrderItemDetail `gorm:"column:order_items_details;serializer:json;type:text" json:"order_items_details"`
	PaymentReceiptPath *string           `json:"payment_receipt_path"` // nullable, storage key of the uploaded receipt
	Items              []OrderItem       `gorm:"foreignKey:OrderID" json:"-"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate assigns a uuid when the caller did not choose an id
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderItem is the relational form of a snapshot line. It exists so the
// catalog can tell whether a product is referenced by any order.
type OrderItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         string          `gorm:"type:varchar(36);not null;index" json:"order_id"`
	ProductID       *string         `gorm:"type:varchar(36);index" json:"product_id"`
	CustomRequestID *string         `gorm:"type:varchar(36);index" json:"custom_request_id"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	PriceAtPurchase decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_at_purchase"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}
