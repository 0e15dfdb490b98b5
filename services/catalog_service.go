package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/kendall-kelly/tee-store-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	defaultSizes  = []string{"S", "M", "L", "XL"}
	defaultColors = []string{"Black", "White", "Navy"}
)

// ProductFilter narrows a catalog listing
type ProductFilter struct {
	Category      string
	Search        string
	AvailableOnly bool
}

// ProductInput is the editable part of a product
type ProductInput struct {
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	Category      string           `json:"category"`
	Sizes         []string         `json:"sizes"`
	Colors        []string         `json:"colors"`
	ImageURL      string           `json:"image_url"`
	IsOneOfOne    *bool            `json:"is_one_of_one"`
	Available     *bool            `json:"available"`
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ValidationError("MISSING_FIELD", "Name and Price are required.")
	}
	if !in.Price.IsPositive() {
		return ValidationError("INVALID_PRICE", "Price must be greater than zero")
	}
	if in.OriginalPrice != nil && in.OriginalPrice.IsNegative() {
		return ValidationError("INVALID_PRICE", "Original price cannot be negative")
	}
	return nil
}

// CatalogService manages products and their images
type CatalogService struct {
	db           *gorm.DB
	images       ImageService
	audit        AuditLog
	imagesBucket string
	log          *zap.Logger
}

// NewCatalogService creates a catalog service
func NewCatalogService(db *gorm.DB, images ImageService, audit AuditLog, imagesBucket string, log *zap.Logger) *CatalogService {
	return &CatalogService{db: db, images: images, audit: audit, imagesBucket: imagesBucket, log: log}
}

// ListProducts returns the catalog, newest first
func (s *CatalogService) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.AvailableOnly {
		q = q.Where("available = ?", true)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	products := []models.Product{}
	if err := q.Find(&products).Error; err != nil {
		s.log.Error("failed to list products", zap.Error(err))
		return nil, StoreError(err)
	}
	return products, nil
}

// ListSold returns the sold archive, most recent sale first
func (s *CatalogService) ListSold(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.WithContext(ctx).Where("sold_at IS NOT NULL").Order("sold_at DESC").Find(&products).Error
	if err != nil {
		return nil, StoreError(err)
	}
	return products, nil
}

// GetProduct returns one product
func (s *CatalogService) GetProduct(ctx context.Context, id string) (models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, NotFoundError("Product")
	}
	if err != nil {
		return models.Product{}, StoreError(err)
	}
	return product, nil
}

// UploadProductImage validates, downscales and stores a product image
func (s *CatalogService) UploadProductImage(ctx context.Context, fileHeader *multipart.FileHeader) (UploadedImage, error) {
	img, err := s.images.UploadImage(ctx, s.imagesBucket, "products", fileHeader)
	if err != nil {
		return UploadedImage{}, uploadError(err)
	}
	return img, nil
}

// CreateProduct adds a product, storing image first when one is given
func (s *CatalogService) CreateProduct(ctx context.Context, actor string, in ProductInput, image *multipart.FileHeader) (models.Product, error) {
	if err := in.validate(); err != nil {
		return models.Product{}, err
	}

	product := models.Product{
		Sizes:      defaultSizes,
		Colors:     defaultColors,
		Available:  true,
		IsOneOfOne: true,
	}
	applyProductInput(&product, in)

	if image != nil {
		img, err := s.UploadProductImage(ctx, image)
		if err != nil {
			return models.Product{}, err
		}
		product.ImageURL, product.ImageKey = img.URL, img.Key
	}

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		s.log.Error("failed to create product", zap.Error(err))
		s.removeImage(ctx, product.ImageKey)
		return models.Product{}, StoreError(err)
	}

	s.log.Info("product created", zap.String("product_id", product.ID), zap.String("actor", actor))
	return product, nil
}

// UpdateProduct edits a product. A new image replaces the stored one.
func (s *CatalogService) UpdateProduct(ctx context.Context, actor, id string, in ProductInput, image *multipart.FileHeader) (models.Product, error) {
	if err := in.validate(); err != nil {
		return models.Product{}, err
	}
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, err
	}

	oldKey := product.ImageKey
	applyProductInput(&product, in)
	if image != nil {
		img, err := s.UploadProductImage(ctx, image)
		if err != nil {
			return models.Product{}, err
		}
		product.ImageURL, product.ImageKey = img.URL, img.Key
	}

	if err := s.db.WithContext(ctx).Save(&product).Error; err != nil {
		s.log.Error("failed to update product", zap.String("product_id", id), zap.Error(err))
		if product.ImageKey != oldKey {
			s.removeImage(ctx, product.ImageKey)
		}
		return models.Product{}, StoreError(err)
	}

	if product.ImageKey != oldKey {
		s.removeImage(ctx, oldKey)
	}
	return product, nil
}

func applyProductInput(p *models.Product, in ProductInput) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.OriginalPrice = in.OriginalPrice
	p.Category = in.Category
	if len(in.Sizes) > 0 {
		p.Sizes = in.Sizes
	}
	if len(in.Colors) > 0 {
		p.Colors = in.Colors
	}
	if in.ImageURL != "" && in.ImageURL != p.ImageURL {
		// An external URL carries no stored object
		p.ImageURL, p.ImageKey = in.ImageURL, ""
	}
	if in.IsOneOfOne != nil {
		p.IsOneOfOne = *in.IsOneOfOne
	}
	if in.Available != nil && *in.Available != p.Available {
		p.Available = *in.Available
		if p.Available {
			p.SoldAt = nil
		} else {
			now := time.Now().UTC()
			p.SoldAt = &now
		}
	}
}

// DeleteProduct removes a product that no order references and then its
// stored image. Referenced products must be marked unavailable instead.
func (s *CatalogService) DeleteProduct(ctx context.Context, actor, id string) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrProductReferenced
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.WishlistEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, "id = ?", id).Error
	})
	if errors.Is(err, ErrProductReferenced) {
		return ErrProductReferenced
	}
	if err != nil {
		s.log.Error("failed to delete product", zap.String("product_id", id), zap.Error(err))
		return StoreError(err)
	}

	s.removeImage(ctx, product.ImageKey)
	s.record(ctx, AuditEntry{Entity: "product", EntityID: id, Action: AuditProductDeleted, Actor: actor, Data: map[string]interface{}{"name": product.Name}})
	return nil
}

// MarkSold takes a product off sale
func (s *CatalogService) MarkSold(ctx context.Context, actor, id string) (models.Product, error) {
	now := time.Now().UTC()
	return s.setAvailability(ctx, actor, id, false, &now)
}

// MarkAvailable puts a product back on sale
func (s *CatalogService) MarkAvailable(ctx context.Context, actor, id string) (models.Product, error) {
	return s.setAvailability(ctx, actor, id, true, nil)
}

func (s *CatalogService) setAvailability(ctx context.Context, actor, id string, available bool, soldAt *time.Time) (models.Product, error) {
	res := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).
		Updates(map[string]interface{}{"available": available, "sold_at": soldAt})
	if res.Error != nil {
		s.log.Error("failed to change availability", zap.String("product_id", id), zap.Error(res.Error))
		return models.Product{}, StoreError(res.Error)
	}
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	s.record(ctx, AuditEntry{
		Entity:   "product",
		EntityID: id,
		Action:   AuditProductAvailability,
		Actor:    actor,
		To:       fmt.Sprintf("available=%t", available),
	})
	return product, nil
}

func (s *CatalogService) removeImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.DeleteImage(ctx, s.imagesBucket, key); err != nil {
		s.log.Warn("product image left in storage", zap.String("key", key), zap.Error(err))
	}
}

func (s *CatalogService) record(ctx context.Context, entry AuditEntry) {
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.Warn("failed to record audit entry", zap.String("action", entry.Action), zap.Error(err))
	}
}
