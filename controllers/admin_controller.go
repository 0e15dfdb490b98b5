package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tee-store-api/services"
	"go.uber.org/zap"
)

// AdminController serves the dashboard figures
type AdminController struct {
	stats *services.StatsService
	log   *zap.Logger
}

// NewAdminController creates an admin controller
func NewAdminController(stats *services.StatsService, log *zap.Logger) *AdminController {
	return &AdminController{stats: stats, log: log}
}

// Stats handles GET /api/v1/admin/stats
func (ac *AdminController) Stats(c *gin.Context) {
	stats, err := ac.stats.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}
