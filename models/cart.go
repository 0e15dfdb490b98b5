package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one cart line. Its ID is the composite cart id, so the same
// product in a different size or color is a separate line.
type CartItem struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id,omitempty"`
	CustomRequestID string          `json:"custom_request_id,omitempty"`
	CustomMockupID  string          `json:"custom_mockup_id,omitempty"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	ImageURL        string          `json:"image_url,omitempty"`
	Size            string          `json:"size,omitempty"`
	Color           string          `json:"color,omitempty"`
	Quantity        int             `json:"quantity"`
	IsOneOfOne      bool            `json:"is_one_of_one"`
	IsCustom        bool            `json:"is_custom"`
	Available       bool            `json:"available"`
}

// IsUnique reports whether the line is limited to a single unit
func (i CartItem) IsUnique() bool {
	return i.IsOneOfOne || i.IsCustom
}

// LineTotal is price times quantity
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartItems is an ordered cart collection
type CartItems []CartItem

// Index returns the position of the line with the given composite id, or -1
func (c CartItems) Index(id string) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// TotalItems is the sum of quantities
func (c CartItems) TotalItems() int {
	total := 0
	for _, item := range c {
		total += item.Quantity
	}
	return total
}

// TotalPrice is the sum of price times quantity
func (c CartItems) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Clone returns a copy that can be mutated without touching c
func (c CartItems) Clone() CartItems {
	out := make(CartItems, len(c))
	copy(out, c)
	return out
}

// Value stores the collection as a JSON array
func (c CartItems) Value() (driver.Value, error) {
	if c == nil {
		c = CartItems{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a JSON array written by Value
func (c *CartItems) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*c = CartItems{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into CartItems", src)
	}
	if len(raw) == 0 {
		*c = CartItems{}
		return nil
	}
	return json.Unmarshal(raw, c)
}

// UserCart is the persisted cart of one user. The whole collection is
// written on every change; Version guards against lost updates.
type UserCart struct {
	UserID    string    `gorm:"primaryKey;type:varchar(128)" json:"user_id"`
	Items     CartItems `gorm:"column:cart_data;type:text" json:"items"`
	Version   int64     `gorm:"not null;default:0" json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the UserCart model
func (UserCart) TableName() string {
	return "user_carts"
}
