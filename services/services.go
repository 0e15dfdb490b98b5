package services

import (
	"github.com/kendall-kelly/tee-store-api/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Backends are the external systems the services run against
type Backends struct {
	DB       *gorm.DB
	Storage  StorageService
	Verifier PaymentVerifier
	UserInfo UserInfoProvider
	Locker   Locker
	Audit    AuditLog
}

// Services groups every workflow of the store
type Services struct {
	Cart     *CartService
	Wishlist *WishlistService
	Catalog  *CatalogService
	Requests *CustomRequestService
	Orders   *OrderService
	Profiles *ProfileService
	Stats    *StatsService
}

// New wires the services to their backends
func New(cfg *config.Config, b Backends, log *zap.Logger) *Services {
	images := NewImageService(b.Storage, log)
	cart := NewCartService(b.DB, log)

	return &Services{
		Cart:     cart,
		Wishlist: NewWishlistService(b.DB, log),
		Catalog:  NewCatalogService(b.DB, images, b.Audit, cfg.BucketProductImages, log),
		Requests: NewCustomRequestService(b.DB, images, b.Locker, b.Audit, cfg.BucketProductImages, log),
		Orders: NewOrderService(OrderDeps{
			DB:             b.DB,
			Cart:           cart,
			Storage:        b.Storage,
			Verifier:       b.Verifier,
			Locker:         b.Locker,
			Audit:          b.Audit,
			Shipping:       NewShippingRates(cfg),
			Codes:          NewPaymentCodeGenerator(cfg.PaymentCodePrefix),
			ReceiptsBucket: cfg.BucketPaymentReceipts,
			ReceiptURLTTL:  cfg.ReceiptURLTTL,
			Log:            log,
		}),
		Profiles: NewProfileService(b.DB, b.UserInfo, log),
		Stats:    NewStatsService(b.DB, log),
	}
}
