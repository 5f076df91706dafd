package repositories

import (
	"context"
	"time"

	"fund-analytics-api/internal/models"
)

// NAVRepository defines the interface for NAV history operations
type NAVRepository interface {
	// Upsert inserts or replaces a single NAV observation
	Upsert(ctx context.Context, record *models.NAVRecord) error

	// BulkUpsert inserts or replaces a batch of NAV observations
	BulkUpsert(ctx context.Context, records []models.NAVRecord) (int64, error)

	// GetHistory retrieves the full NAV series for a scheme, oldest first
	GetHistory(ctx context.Context, schemeCode string) ([]models.NAVPoint, error)

	// GetHistoryRange retrieves NAV observations within a date range
	GetHistoryRange(ctx context.Context, schemeCode string, from, to time.Time) ([]models.NAVPoint, error)

	// GetLatest retrieves the most recent NAV observation for a scheme
	GetLatest(ctx context.Context, schemeCode string) (*models.NAVRecord, error)

	// Count returns the number of stored observations for a scheme
	Count(ctx context.Context, schemeCode string) (int64, error)

	// DeleteBefore removes observations older than the cutoff
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
