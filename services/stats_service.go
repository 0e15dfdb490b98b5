package services

import (
	"context"

	"github.com/kendall-kelly/tee-store-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DashboardStats are the admin dashboard counters
type DashboardStats struct {
	TotalProducts     int64            `json:"total_products"`
	AvailableProducts int64            `json:"available_products"`
	SoldProducts      int64            `json:"sold_products"`
	TotalWishlists    int64            `json:"total_wishlists"`
	PendingRequests   int64            `json:"pending_requests"`
	TotalOrders       int64            `json:"total_orders"`
	TotalRevenue      decimal.Decimal  `json:"total_revenue"`
	OrdersByStatus    map[string]int64 `json:"orders_by_status"`
}

// StatsService computes dashboard figures from the store
type StatsService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewStatsService creates a stats service
func NewStatsService(db *gorm.DB, log *zap.Logger) *StatsService {
	return &StatsService{db: db, log: log}
}

// Dashboard returns catalog, wishlist, request and revenue figures.
// Orders and revenue only count completed orders.
func (s *StatsService) Dashboard(ctx context.Context) (DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := DashboardStats{OrdersByStatus: map[string]int64{}}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalProducts, db.Model(&models.Product{})},
		{&stats.AvailableProducts, db.Model(&models.Product{}).Where("available = ?", true)},
		{&stats.SoldProducts, db.Model(&models.Product{}).Where("available = ? AND sold_at IS NOT NULL", false)},
		{&stats.PendingRequests, db.Model(&models.CustomDesignRequest{}).
			Where("status IN ?", []string{string(models.RequestUnderReview), string(models.RequestInProgress)})},
		{&stats.TotalOrders, db.Model(&models.Order{}).Where("status = ?", string(models.OrderCompleted))},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			s.log.Error("failed to compute dashboard stats", zap.Error(err))
			return DashboardStats{}, StoreError(err)
		}
	}

	if err := db.Model(&models.Product{}).Select("COALESCE(SUM(wishlist_count), 0)").Scan(&stats.TotalWishlists).Error; err != nil {
		return DashboardStats{}, StoreError(err)
	}

	// Summed in Go so every driver returns exact decimals
	var totals []decimal.Decimal
	if err := db.Model(&models.Order{}).Where("status = ?", string(models.OrderCompleted)).Pluck("total_amount", &totals).Error; err != nil {
		return DashboardStats{}, StoreError(err)
	}
	stats.TotalRevenue = decimal.Sum(decimal.Zero, totals...)

	var byStatus []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&models.Order{}).Select("status, COUNT(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
		return DashboardStats{}, StoreError(err)
	}
	for _, row := range byStatus {
		stats.OrdersByStatus[row.Status] = row.Count
	}

	return stats, nil
}
