package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fund-analytics-api/internal/models"
	"fund-analytics-api/internal/repositories"
	"fund-analytics-api/internal/services"
)

// FundController exposes fund and NAV endpoints
type FundController struct {
	fundService *services.FundService
	logger      *logrus.Logger
}

// NewFundController creates a new fund controller
func NewFundController(fundService *services.FundService, logger *logrus.Logger) *FundController {
	return &FundController{
		fundService: fundService,
		logger:      logger,
	}
}

// RegisterRoutes wires the fund endpoints onto the router group
func (c *FundController) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/funds", c.ListFunds)
	r.POST("/funds", c.CreateFund)
	r.GET("/funds/:schemeCode", c.GetFund)
	r.PUT("/funds/:schemeCode", c.UpdateFund)
	r.DELETE("/funds/:schemeCode", c.DeleteFund)
	r.GET("/funds/:schemeCode/nav", c.GetNAVHistory)
	r.GET("/managers/:name", c.GetManagerRecord)
}

// ListFunds returns funds with optional category filter and pagination
func (c *FundController) ListFunds(ctx *gin.Context) {
	category := ctx.Query("category")
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	funds, err := c.fundService.ListFunds(ctx.Request.Context(), category, limit, offset)
	if err != nil {
		c.logger.WithError(err).Error("Failed to list funds")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list funds"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"funds": funds,
		"count": len(funds),
	})
}

// GetFund returns a single fund by scheme code
func (c *FundController) GetFund(ctx *gin.Context) {
	schemeCode := ctx.Param("schemeCode")

	fund, err := c.fundService.GetFund(ctx.Request.Context(), schemeCode)
	if err != nil {
		respondFundError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, fund)
}

// CreateFund registers a new fund
func (c *FundController) CreateFund(ctx *gin.Context) {
	var fund models.Fund
	if err := ctx.ShouldBindJSON(&fund); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := c.fundService.CreateFund(ctx.Request.Context(), &fund); err != nil {
		c.logger.WithError(err).WithField("scheme_code", fund.SchemeCode).Error("Failed to create fund")
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, fund)
}

// UpdateFund replaces a fund's mutable attributes
func (c *FundController) UpdateFund(ctx *gin.Context) {
	schemeCode := ctx.Param("schemeCode")

	var fund models.Fund
	if err := ctx.ShouldBindJSON(&fund); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fund.SchemeCode = schemeCode

	if err := c.fundService.UpdateFund(ctx.Request.Context(), &fund); err != nil {
		respondFundError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, fund)
}

// DeleteFund removes a fund
func (c *FundController) DeleteFund(ctx *gin.Context) {
	schemeCode := ctx.Param("schemeCode")

	if err := c.fundService.DeleteFund(ctx.Request.Context(), schemeCode); err != nil {
		respondFundError(ctx, c.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "fund deleted", "scheme_code": schemeCode})
}

// GetNAVHistory returns a fund's NAV series, optionally bounded by
// from/to query dates (YYYY-MM-DD)
func (c *FundController) GetNAVHistory(ctx *gin.Context) {
	schemeCode := ctx.Param("schemeCode")

	fromParam := ctx.Query("from")
	toParam := ctx.Query("to")

	var navs []models.NAVPoint
	var err error

	if fromParam != "" || toParam != "" {
		from, to, perr := parseDateRange(fromParam, toParam)
		if perr != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": perr.Error()})
			return
		}
		navs, err = c.fundService.GetNAVHistoryRange(ctx.Request.Context(), schemeCode, from, to)
	} else {
		navs, err = c.fundService.GetNAVHistory(ctx.Request.Context(), schemeCode)
	}

	if err != nil {
		c.logger.WithError(err).WithField("scheme_code", schemeCode).Error("Failed to get NAV history")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get NAV history"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"scheme_code": schemeCode,
		"nav_history": navs,
		"count":       len(navs),
	})
}

// GetManagerRecord returns a manager's assembled track record
func (c *FundController) GetManagerRecord(ctx *gin.Context) {
	name := ctx.Param("name")

	record, err := c.fundService.GetManagerRecord(ctx.Request.Context(), name)
	if err != nil {
		if errors.Is(err, repositories.ErrFundNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "no funds found for manager"})
			return
		}
		c.logger.WithError(err).WithField("manager", name).Error("Failed to assemble manager record")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get manager record"})
		return
	}

	ctx.JSON(http.StatusOK, record)
}

func parseDateRange(fromParam, toParam string) (time.Time, time.Time, error) {
	const layout = "2006-01-02"

	from := time.Time{}
	to := time.Now()

	if fromParam != "" {
		parsed, err := time.Parse(layout, fromParam)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from date, expected YYYY-MM-DD")
		}
		from = parsed
	}
	if toParam != "" {
		parsed, err := time.Parse(layout, toParam)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid to date, expected YYYY-MM-DD")
		}
		to = parsed
	}

	return from, to, nil
}

// respondFundError maps domain errors onto HTTP statuses
func respondFundError(ctx *gin.Context, logger *logrus.Logger, err error) {
	if errors.Is(err, repositories.ErrFundNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "fund not found"})
		return
	}

	logger.WithError(err).Error("Fund operation failed")
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
