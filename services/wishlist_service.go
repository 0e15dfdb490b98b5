package services

import (
	"context"
	"errors"

	"github.com/kendall-kelly/tee-store-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Wishlist outcomes
const (
	OutcomeWishlisted        = "added"
	OutcomeAlreadyInWishlist = "already_in_wishlist"
	OutcomeUnwishlisted      = "removed"
	OutcomeNotInWishlist     = "not_in_wishlist"
)

// WishlistResult reports what a wishlist change did
type WishlistResult struct {
	ProductID string `json:"product_id"`
	Outcome   string `json:"outcome"`
	Notice    string `json:"notice,omitempty"`
}

// WishlistService manages wishlist membership and the denormalized
// wishlist_count on products.
type WishlistService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewWishlistService creates a wishlist service backed by db
func NewWishlistService(db *gorm.DB, log *zap.Logger) *WishlistService {
	return &WishlistService{db: db, log: log}
}

// List returns the user's wishlisted products, most recent first
func (s *WishlistService) List(ctx context.Context, userID string) ([]models.WishlistEntry, error) {
	if userID == "" {
		return []models.WishlistEntry{}, nil
	}
	entries := []models.WishlistEntry{}
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&entries).Error
	if err != nil {
		s.log.Error("failed to load wishlist", zap.String("user_id", userID), zap.Error(err))
		return nil, StoreError(err)
	}
	return entries, nil
}

// Contains reports whether productID is on the user's wishlist
func (s *WishlistService) Contains(ctx context.Context, userID, productID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.WishlistEntry{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, StoreError(err)
	}
	return count > 0, nil
}

// Add saves a product to the wishlist. A duplicate add is a no-op.
func (s *WishlistService) Add(ctx context.Context, userID, productID string) (WishlistResult, error) {
	if userID == "" {
		return WishlistResult{}, ErrAuthRequired
	}
	if productID == "" {
		return WishlistResult{}, ValidationError("INVALID_PRODUCT", "Product id is required")
	}

	var product models.Product
	if err := s.db.WithContext(ctx).Select("id", "name").First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return WishlistResult{}, NotFoundError("Product")
		}
		return WishlistResult{}, StoreError(err)
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.WishlistEntry{UserID: userID, ProductID: productID})
	if res.Error != nil {
		s.log.Error("failed to add to wishlist", zap.String("user_id", userID), zap.String("product_id", productID), zap.Error(res.Error))
		return WishlistResult{}, StoreError(res.Error)
	}
	if res.RowsAffected == 0 {
		return WishlistResult{ProductID: productID, Outcome: OutcomeAlreadyInWishlist, Notice: product.Name + " is already in your wishlist."}, nil
	}

	s.adjustCount(ctx, productID, 1)
	return WishlistResult{ProductID: productID, Outcome: OutcomeWishlisted, Notice: product.Name + " has been added to your wishlist."}, nil
}

// Remove deletes a product from the wishlist
func (s *WishlistService) Remove(ctx context.Context, userID, productID string) (WishlistResult, error) {
	if userID == "" {
		return WishlistResult{}, ErrAuthRequired
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistEntry{})
	if res.Error != nil {
		s.log.Error("failed to remove from wishlist", zap.String("user_id", userID), zap.String("product_id", productID), zap.Error(res.Error))
		return WishlistResult{}, StoreError(res.Error)
	}
	if res.RowsAffected == 0 {
		return WishlistResult{ProductID: productID, Outcome: OutcomeNotInWishlist}, nil
	}

	s.adjustCount(ctx, productID, -1)
	return WishlistResult{ProductID: productID, Outcome: OutcomeUnwishlisted, Notice: "Removed from your wishlist."}, nil
}

// adjustCount moves wishlist_count by delta in a single statement. Failures
// are logged only; the membership change stands.
func (s *WishlistService) adjustCount(ctx context.Context, productID string, delta int) {
	q := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID)
	var expr clause.Expr
	if delta > 0 {
		expr = gorm.Expr("wishlist_count + ?", delta)
	} else {
		q = q.Where("wishlist_count > 0")
		expr = gorm.Expr("wishlist_count - ?", -delta)
	}
	// UpdateColumn leaves updated_at alone
	if err := q.UpdateColumn("wishlist_count", expr).Error; err != nil {
		s.log.Warn("failed to adjust wishlist count",
			zap.String("product_id", productID),
			zap.Int("delta", delta),
			zap.Error(err),
		)
	}
}

// RecountWishlist recomputes wishlist_count from membership and returns it
func (s *WishlistService) RecountWishlist(ctx context.Context, productID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Select("id").First(&product, "id = ?", productID).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.WishlistEntry{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		return tx.Model(&models.Product{}).Where("id = ?", productID).UpdateColumn("wishlist_count", count).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, NotFoundError("Product")
	}
	if err != nil {
		return 0, StoreError(err)
	}
	return count, nil
}
