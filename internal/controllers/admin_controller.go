package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fund-analytics-api/internal/services"
)

// AdminController exposes maintenance endpoints gated by the admin
// middleware
type AdminController struct {
	fundService      *services.FundService
	analyticsService *services.AnalyticsService
	logger           *logrus.Logger
}

// NewAdminController creates a new admin controller
func NewAdminController(fundService *services.FundService, analyticsService *services.AnalyticsService, logger *logrus.Logger) *AdminController {
	return &AdminController{
		fundService:      fundService,
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// RegisterRoutes wires the admin endpoints onto the router group
func (c *AdminController) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/funds/:schemeCode/refresh-nav", c.RefreshNAV)
	r.POST("/funds/:schemeCode/recalculate", c.Recalculate)
	r.POST("/funds/import/:schemeCode", c.ImportFund)
	r.POST("/recalculate", c.RecalculatePending)
	r.GET("/stats", c.GetStats)
}

// RecalculatePending precomputes metrics and scores for all funds
// flagged stale, up to ?limit (default 200, max 1000)
func (c *AdminController) RecalculatePending(ctx *gin.Context) {
	limit := 200
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
			return
		}
		limit = parsed
	}

	computed, failed, err := c.analyticsService.RecalculatePending(ctx.Request.Context(), limit)
	if err != nil {
		c.logger.WithError(err).Error("Bulk recalculation failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to recalculate funds"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"computed": computed,
		"failed":   failed,
	})
}

// RefreshNAV pulls the latest NAV series from the upstream provider
func (c *AdminController) RefreshNAV(ctx *gin.Context) {
	schemeCode := ctx.Param("schemeCode")

	written, err := c.fundService.RefreshNAV(ctx.Request.Context(), schemeCode)
	if err != nil {
		respondFundError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"scheme_code": schemeCode,
		"written":     written,
	})
}

// Recalculate forces a metrics recomputation for a fund
func (c *AdminController) Recalculate(ctx *gin.Context) {
	schemeCode := ctx.Param("schemeCode")

	metrics, err := c.analyticsService.RecalculateFund(ctx.Request.Context(), schemeCode)
	if err != nil {
		respondAnalyticsError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"scheme_code": schemeCode,
		"metrics":     metrics,
	})
}

// ImportFund fetches a scheme from the upstream provider and registers it
func (c *AdminController) ImportFund(ctx *gin.Context) {
	schemeCode := ctx.Param("schemeCode")

	fund, err := c.fundService.ImportFund(ctx.Request.Context(), schemeCode)
	if err != nil {
		c.logger.WithError(err).WithField("scheme_code", schemeCode).Error("Fund import failed")
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "failed to import fund"})
		return
	}

	ctx.JSON(http.StatusCreated, fund)
}

// GetStats returns aggregate fund statistics
func (c *AdminController) GetStats(ctx *gin.Context) {
	stats, err := c.fundService.GetFundStats(ctx.Request.Context())
	if err != nil {
		c.logger.WithError(err).Error("Failed to get fund stats")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	ctx.JSON(http.StatusOK, stats)
}
