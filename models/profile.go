package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Profile represents a storefront user (customer or admin)
type Profile struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // identity provider subject, also the owner key on carts and orders
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Role      string         `gorm:"not null;default:'customer'" json:"role"` // "customer" or "admin"
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Profile model
func (Profile) TableName() string {
	return "profiles"
}

// IsAdmin reports whether the profile may use the admin dashboard
func (p Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}
