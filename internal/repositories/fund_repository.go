package repositories

import (
	"context"
	"errors"

	"fund-analytics-api/internal/models"
)

// ErrFundNotFound is returned when a scheme code matches no fund
var ErrFundNotFound = errors.New("fund not found")

// FundRepository defines the interface for fund data operations
type FundRepository interface {
	// Create creates a new fund
	Create(ctx context.Context, fund *models.Fund) error

	// GetBySchemeCode retrieves a fund by its scheme code
	GetBySchemeCode(ctx context.Context, schemeCode string) (*models.Fund, error)

	// GetBySchemeCodes retrieves multiple funds at once
	GetBySchemeCodes(ctx context.Context, schemeCodes []string) ([]*models.Fund, error)

	// Update updates an existing fund
	Update(ctx context.Context, fund *models.Fund) error

	// UpdateMetrics replaces only the computed metrics and metadata
	UpdateMetrics(ctx context.Context, schemeCode string, metrics models.FundMetrics, metadata models.FundMetadata) error

	// Delete deletes a fund by scheme code
	Delete(ctx context.Context, schemeCode string) error

	// List retrieves funds with optional category filter and pagination
	List(ctx context.Context, category string, limit, offset int) ([]*models.Fund, error)

	// GetNeedingRecalculation retrieves funds flagged for metric recomputation
	GetNeedingRecalculation(ctx context.Context, limit int) ([]*models.Fund, error)

	// MarkForRecalculation flags a fund for the precompute job
	MarkForRecalculation(ctx context.Context, schemeCode string) error

	// GetByManager retrieves every fund run by the named manager
	GetByManager(ctx context.Context, managerName string) ([]*models.Fund, error)

	// GetFundStats retrieves aggregate statistics across all funds
	GetFundStats(ctx context.Context) (*FundStats, error)
}

// FundStats represents aggregate fund statistics
type FundStats struct {
	TotalFunds          int64          `json:"total_funds"`
	FundsByCategory     map[string]int `json:"funds_by_category"`
	NeedsRecalculation  int64          `json:"needs_recalculation"`
	AverageExpenseRatio float64        `json:"average_expense_ratio"`
}
