package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Mockup is a priced draft produced in response to a custom design request
type Mockup struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	URL   string          `json:"url"`
}

// CustomDesignRequest is a customer's request for a bespoke design
type CustomDesignRequest struct {
	ID              string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID          *string          `gorm:"type:varchar(128);index" json:"user_id"` // nullable for guest submissions
	UserName        string           `gorm:"not null" json:"user_name"`
	UserEmail       string           `gorm:"not null;index" json:"user_email"`
	Description     string           `gorm:"type:text;not null" json:"description"`
	ShirtColor      string           `json:"shirt_color"`
	ShirtStyle      string           `json:"shirt_style"`
	ReferenceImages []string         `gorm:"serializer:json;type:text" json:"reference_images"`
	Status          RequestStatus    `gorm:"type:varchar(32);not null;index" json:"status"`
	Mockups         []Mockup         `gorm:"serializer:json;type:text" json:"mockups"`
	FinalPrice      *decimal.Decimal `gorm:"type:decimal(12,2)" json:"final_price"`
	BaseProductID   *string          `gorm:"type:varchar(36)" json:"base_product_id,omitempty"` // set when derived from an existing design
	BaseProductName string           `json:"base_product_name,omitempty"`
	BaseImageURL    string           `json:"base_image_url,omitempty"`
	OrderID         *string          `gorm:"type:varchar(36);index" json:"order_id"` // set once the design is paid for
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TableName specifies the table name for the CustomDesignRequest model
func (CustomDesignRequest) TableName() string {
	return "custom_design_requests"
}

// BeforeCreate assigns a uuid when the caller did not choose an id
func (r *CustomDesignRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// FindMockup returns the mockup with the given id
func (r *CustomDesignRequest) FindMockup(id string) (Mockup, bool) {
	for _, m := range r.Mockups {
		if m.ID == id {
			return m, true
		}
	}
	return Mockup{}, false
}
