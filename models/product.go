package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog design. One-of-one products are sold exactly once.
type Product struct {
	ID            string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name          string           `gorm:"not null" json:"name"`
	Description   string           `gorm:"type:text" json:"description"`
	Price         decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price"`
	OriginalPrice *decimal.Decimal `gorm:"type:decimal(12,2)" json:"original_price,omitempty"` // nullable, shown struck through when on sale
	ImageURL      string           `json:"image_url"`
	ImageKey      string           `json:"-"` // storage key inside the product images bucket
	Category      string           `gorm:"index" json:"category"`
	Sizes         []string         `gorm:"serializer:json;type:text" json:"sizes"`
	Colors        []string         `gorm:"serializer:json;type:text" json:"colors"`
	Available     bool             `gorm:"not null;index" json:"available"`
	IsOneOfOne    bool             `gorm:"not null" json:"is_one_of_one"`
	WishlistCount int              `gorm:"not null;default:0" json:"wishlist_count"`
	SoldAt        *time.Time       `gorm:"index" json:"sold_at"` // null while available
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// BeforeCreate assigns a uuid when the caller did not choose an id
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
