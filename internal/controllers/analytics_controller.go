package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"fund-analytics-api/internal/analytics"
	"fund-analytics-api/internal/repositories"
	"fund-analytics-api/internal/services"
)

// AnalyticsController exposes the derived-analytics endpoints
type AnalyticsController struct {
	analyticsService *services.AnalyticsService
	logger           *logrus.Logger
}

// NewAnalyticsController creates a new analytics controller
func NewAnalyticsController(analyticsService *services.AnalyticsService, logger *logrus.Logger) *AnalyticsController {
	return &AnalyticsController{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// RegisterRoutes wires the analytics endpoints onto the router group
func (c *AnalyticsController) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/funds/:schemeCode/risk", c.GetRiskMetrics)
	r.GET("/funds/:schemeCode/score", c.GetSmartScore)
	r.GET("/funds/:schemeCode/score/history", c.GetScoreHistory)
	r.GET("/funds/:schemeCode/sip-analysis", c.GetSIPAnalysis)
	r.GET("/funds/:schemeCode/prediction", c.GetPrediction)
	r.POST("/funds/compare", c.CompareFunds)
	r.POST("/funds/overlap", c.GetOverlap)
}

// GetRiskMetrics returns the full risk profile for a fund. Query
// params: benchmark (overrides the configured benchmark scheme) and
// months (history window, 0 means full history).
func (c *AnalyticsController) GetRiskMetrics(ctx *gin.Context) {
	schemeCode := ctx.Param("schemeCode")

	months, err := strconv.Atoi(ctx.DefaultQuery("months", "0"))
	if err != nil || months < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "months must be a non-negative integer"})
		return
	}

	opts := services.RiskOptions{
		Benchmark: ctx.Query("benchmark"),
		Months:    months,
	}

	result, err := c.analyticsService.GetRiskMetrics(ctx.Request.Context(), schemeCode, opts)
	if err != nil {
		respondAnalyticsError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// GetSmartScore returns the composite score for a fund
func (c *AnalyticsController) GetSmartScore(ctx *gin.Context) {
	schemeCode := ctx.Param("schemeCode")

	result, err := c.analyticsService.GetSmartScore(ctx.Request.Context(), schemeCode)
	if err != nil {
		respondAnalyticsError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// GetScoreHistory returns persisted score snapshots, newest first
func (c *AnalyticsController) GetScoreHistory(ctx *gin.Context) {
	schemeCode := ctx.Param("schemeCode")
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "90"))

	snapshots, err := c.analyticsService.GetScoreHistory(ctx.Request.Context(), schemeCode, limit)
	if err != nil {
		respondAnalyticsError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"scheme_code": schemeCode,
		"history":     snapshots,
		"count":       len(snapshots),
	})
}

// CompareFundsRequest names the two funds to compare
type CompareFundsRequest struct {
	SchemeCodeA string `json:"scheme_code_a" binding:"required,schemecode"`
	SchemeCodeB string `json:"scheme_code_b" binding:"required,schemecode"`
}

// CompareFunds scores two funds and declares a winner or a tie
func (c *AnalyticsController) CompareFunds(ctx *gin.Context) {
	var req CompareFundsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := c.analyticsService.CompareFunds(ctx.Request.Context(), req.SchemeCodeA, req.SchemeCodeB)
	if err != nil {
		respondAnalyticsError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// GetSIPAnalysis ranks calendar days of the month by historical SIP
// outcome. Query params: amount (installment, default 10000) and
// window_months (0 means full history).
func (c *AnalyticsController) GetSIPAnalysis(ctx *gin.Context) {
	schemeCode := ctx.Param("schemeCode")

	amount := decimal.NewFromInt(10000)
	if amountParam := ctx.Query("amount"); amountParam != "" {
		parsed, err := decimal.NewFromString(amountParam)
		if err != nil || parsed.LessThanOrEqual(decimal.Zero) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive number"})
			return
		}
		amount = parsed
	}

	windowMonths, err := strconv.Atoi(ctx.DefaultQuery("window_months", "0"))
	if err != nil || windowMonths < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "window_months must be a non-negative integer"})
		return
	}

	result, aerr := c.analyticsService.GetSIPAnalysis(ctx.Request.Context(), schemeCode, amount, windowMonths)
	if aerr != nil {
		respondAnalyticsError(ctx, c.logger, aerr)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// OverlapRequest names the funds whose holdings should be intersected
type OverlapRequest struct {
	SchemeCodes []string `json:"scheme_codes" binding:"required,min=2,max=10,dive,schemecode"`
}

// GetOverlap computes the holdings overlap across 2 to 10 funds
func (c *AnalyticsController) GetOverlap(ctx *gin.Context) {
	var req OverlapRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := c.analyticsService.GetOverlap(ctx.Request.Context(), req.SchemeCodes)
	if err != nil {
		respondAnalyticsError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// GetPrediction runs the technical model over a fund's NAV history
func (c *AnalyticsController) GetPrediction(ctx *gin.Context) {
	schemeCode := ctx.Param("schemeCode")

	result, err := c.analyticsService.GetPrediction(ctx.Request.Context(), schemeCode)
	if err != nil {
		respondAnalyticsError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// respondAnalyticsError maps analytics domain errors onto HTTP statuses
func respondAnalyticsError(ctx *gin.Context, logger *logrus.Logger, err error) {
	switch {
	case errors.Is(err, repositories.ErrFundNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "fund not found"})
	case errors.Is(err, analytics.ErrInsufficientData):
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, analytics.ErrInvalidFundCount):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.WithError(err).Error("Analytics operation failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
