package models

import "time"

// WishlistEntry links a user to a product they saved
type WishlistEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_wishlist_user_product" json:"user_id"`
	ProductID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_wishlist_user_product;index" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the WishlistEntry model
func (WishlistEntry) TableName() string {
	return "wishlists"
}

// All returns every model in migration order
func All() []interface{} {
	return []interface{}{
		&Profile{},
		&Product{},
		&UserCart{},
		&Order{},
		&OrderItem{},
		&CustomDesignRequest{},
		&WishlistEntry{},
	}
}
