package repositories

import (
	"context"
	"time"

	"fund-analytics-api/internal/models"
)

// SnapshotRepository defines the interface for score snapshot operations.
// Snapshots record a fund's composite score over time so score drift can
// be charted.
type SnapshotRepository interface {
	// Create persists a new score snapshot
	Create(ctx context.Context, snapshot *models.ScoreSnapshot) error

	// BulkCreate persists a batch of snapshots from the precompute job
	BulkCreate(ctx context.Context, snapshots []models.ScoreSnapshot) error

	// GetHistory retrieves snapshots for a scheme, newest first
	GetHistory(ctx context.Context, schemeCode string, limit int) ([]models.ScoreSnapshot, error)

	// GetLatest retrieves the most recent snapshot for a scheme
	GetLatest(ctx context.Context, schemeCode string) (*models.ScoreSnapshot, error)

	// DeleteOlderThan removes snapshots past the retention window
	DeleteOlderThan(ctx context.Context, olderThan time.Duration) (int64, error)
}
