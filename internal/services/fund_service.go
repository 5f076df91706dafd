package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"fund-analytics-api/internal/clients"
	"fund-analytics-api/internal/models"
	"fund-analytics-api/internal/repositories"
)

// CacheInterface is the cache surface the services depend on
type CacheInterface interface {
	SetFund(ctx context.Context, schemeCode string, fund interface{}) error
	GetFund(ctx context.Context, schemeCode string, dest interface{}) error
	SetNAVHistory(ctx context.Context, schemeCode string, navs interface{}) error
	GetNAVHistory(ctx context.Context, schemeCode string, dest interface{}) error
	SetScore(ctx context.Context, schemeCode string, score interface{}) error
	GetScore(ctx context.Context, schemeCode string, dest interface{}) error
	SetRiskMetrics(ctx context.Context, schemeCode string, metrics interface{}) error
	GetRiskMetrics(ctx context.Context, schemeCode string, dest interface{}) error
	SetSIPAnalysis(ctx context.Context, schemeCode string, windowMonths int, analysis interface{}) error
	GetSIPAnalysis(ctx context.Context, schemeCode string, windowMonths int, dest interface{}) error
	SetOverlap(ctx context.Context, comparisonKey string, analysis interface{}) error
	GetOverlap(ctx context.Context, comparisonKey string, dest interface{}) error
	SetPrediction(ctx context.Context, schemeCode string, prediction interface{}) error
	GetPrediction(ctx context.Context, schemeCode string, dest interface{}) error
	InvalidateFund(ctx context.Context, schemeCode string) error
}

// NAVClientInterface is the upstream NAV provider surface
type NAVClientInterface interface {
	FetchScheme(ctx context.Context, schemeCode string) (*clients.SchemeData, error)
	IsHealthy(ctx context.Context) bool
}

// FundService manages fund records and their NAV history
// MetricsRecorder receives computation and ingestion observations.
// Optional on both services; a nil recorder disables instrumentation.
type MetricsRecorder interface {
	ObserveComputation(computationType string, duration time.Duration, err error)
	ObserveCache(hit bool)
	AddNAVPointsIngested(n int64)
}

type FundService struct {
	fundRepo  repositories.FundRepository
	navRepo   repositories.NAVRepository
	cache     CacheInterface
	navClient NAVClientInterface
	metrics   MetricsRecorder
	logger    *logrus.Logger
}

// SetMetrics attaches a metrics recorder to the service
func (fs *FundService) SetMetrics(m MetricsRecorder) {
	fs.metrics = m
}

// NewFundService creates a new fund service
func NewFundService(
	fundRepo repositories.FundRepository,
	navRepo repositories.NAVRepository,
	cache CacheInterface,
	navClient NAVClientInterface,
	logger *logrus.Logger,
) *FundService {
	return &FundService{
		fundRepo:  fundRepo,
		navRepo:   navRepo,
		cache:     cache,
		navClient: navClient,
		logger:    logger,
	}
}

// GetFund retrieves a fund by scheme code, cache first
func (fs *FundService) GetFund(ctx context.Context, schemeCode string) (*models.Fund, error) {
	var cached models.Fund
	if err := fs.cache.GetFund(ctx, schemeCode, &cached); err == nil {
		fs.logger.WithField("scheme_code", schemeCode).Debug("Fund retrieved from cache")
		return &cached, nil
	}

	fund, err := fs.fundRepo.GetBySchemeCode(ctx, schemeCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get fund: %w", err)
	}

	_ = fs.cache.SetFund(ctx, schemeCode, fund)

	return fund, nil
}

// ListFunds retrieves funds with optional category filter and pagination
func (fs *FundService) ListFunds(ctx context.Context, category string, limit, offset int) ([]*models.Fund, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	funds, err := fs.fundRepo.List(ctx, category, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}

	return funds, nil
}

// CreateFund registers a new fund
func (fs *FundService) CreateFund(ctx context.Context, fund *models.Fund) error {
	if err := fund.Validate(); err != nil {
		return fmt.Errorf("invalid fund: %w", err)
	}

	now := time.Now()
	fund.CreatedAt = now
	fund.UpdatedAt = now
	fund.Metadata.NeedsRecalculation = true
	fund.Metadata.CalculationVersion = calculationVersion

	if err := fs.fundRepo.Create(ctx, fund); err != nil {
		return fmt.Errorf("failed to create fund: %w", err)
	}

	fs.logger.WithFields(logrus.Fields{
		"scheme_code": fund.SchemeCode,
		"name":        fund.Name,
	}).Info("Fund created")

	return nil
}

// UpdateFund replaces a fund's mutable attributes and invalidates its cache
func (fs *FundService) UpdateFund(ctx context.Context, fund *models.Fund) error {
	if err := fund.Validate(); err != nil {
		return fmt.Errorf("invalid fund: %w", err)
	}

	fund.UpdatedAt = time.Now()
	if err := fs.fundRepo.Update(ctx, fund); err != nil {
		return fmt.Errorf("failed to update fund: %w", err)
	}

	_ = fs.cache.InvalidateFund(ctx, fund.SchemeCode)

	return nil
}

// DeleteFund removes a fund and its cached artifacts
func (fs *FundService) DeleteFund(ctx context.Context, schemeCode string) error {
	if err := fs.fundRepo.Delete(ctx, schemeCode); err != nil {
		return fmt.Errorf("failed to delete fund: %w", err)
	}

	_ = fs.cache.InvalidateFund(ctx, schemeCode)

	fs.logger.WithField("scheme_code", schemeCode).Info("Fund deleted")
	return nil
}

// GetNAVHistory retrieves a fund's full NAV series, oldest first, cache first
func (fs *FundService) GetNAVHistory(ctx context.Context, schemeCode string) ([]models.NAVPoint, error) {
	var cached []models.NAVPoint
	if err := fs.cache.GetNAVHistory(ctx, schemeCode, &cached); err == nil && len(cached) > 0 {
		return cached, nil
	}

	navs, err := fs.navRepo.GetHistory(ctx, schemeCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get NAV history: %w", err)
	}

	if len(navs) > 0 {
		_ = fs.cache.SetNAVHistory(ctx, schemeCode, navs)
	}

	return navs, nil
}

// GetNAVHistoryRange retrieves NAV observations between two dates inclusive
func (fs *FundService) GetNAVHistoryRange(ctx context.Context, schemeCode string, from, to time.Time) ([]models.NAVPoint, error) {
	navs, err := fs.navRepo.GetHistoryRange(ctx, schemeCode, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get NAV range: %w", err)
	}
	return navs, nil
}

// RefreshNAV pulls the latest NAV series from the upstream provider,
// persists new observations, and flags the fund for metric recomputation.
// Returns the number of observations written.
func (fs *FundService) RefreshNAV(ctx context.Context, schemeCode string) (int64, error) {
	fund, err := fs.fundRepo.GetBySchemeCode(ctx, schemeCode)
	if err != nil {
		return 0, fmt.Errorf("failed to get fund: %w", err)
	}

	scheme, err := fs.navClient.FetchScheme(ctx, schemeCode)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch NAV data: %w", err)
	}

	if len(scheme.NAVs) == 0 {
		fs.logger.WithField("scheme_code", schemeCode).Warn("Provider returned no NAV observations")
		return 0, nil
	}

	records := make([]models.NAVRecord, 0, len(scheme.NAVs))
	for _, point := range scheme.NAVs {
		records = append(records, models.NAVRecord{
			SchemeCode: schemeCode,
			Date:       point.Date,
			NAV:        point.NAV,
		})
	}

	written, err := fs.navRepo.BulkUpsert(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("failed to persist NAV records: %w", err)
	}

	if fs.metrics != nil {
		fs.metrics.AddNAVPointsIngested(written)
	}

	fund.Metadata.LastNAVRefresh = time.Now()
	fund.Metadata.LastNAVDate = scheme.NAVs[len(scheme.NAVs)-1].Date
	fund.Metadata.NAVPointsCount = len(scheme.NAVs)
	fund.MarkForRecalculation()

	if err := fs.fundRepo.Update(ctx, fund); err != nil {
		fs.logger.WithError(err).WithField("scheme_code", schemeCode).
			Warn("Failed to update fund metadata after NAV refresh")
	}

	_ = fs.cache.InvalidateFund(ctx, schemeCode)

	fs.logger.WithFields(logrus.Fields{
		"scheme_code": schemeCode,
		"written":     written,
		"points":      len(scheme.NAVs),
	}).Info("NAV history refreshed")

	return written, nil
}

// ImportFund fetches a scheme from the upstream provider and registers it
// as a new fund with its full NAV history
func (fs *FundService) ImportFund(ctx context.Context, schemeCode string) (*models.Fund, error) {
	scheme, err := fs.navClient.FetchScheme(ctx, schemeCode)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scheme: %w", err)
	}

	fund := &models.Fund{
		SchemeCode: scheme.Meta.SchemeCode,
		Name:       scheme.Meta.SchemeName,
		FundHouse:  scheme.Meta.FundHouse,
		Category:   scheme.Meta.Category,
	}

	if err := fs.CreateFund(ctx, fund); err != nil {
		return nil, err
	}

	if _, err := fs.RefreshNAV(ctx, fund.SchemeCode); err != nil {
		fs.logger.WithError(err).WithField("scheme_code", fund.SchemeCode).
			Warn("Fund imported but initial NAV load failed")
	}

	return fund, nil
}

// IngestNAVUpdate records a single NAV observation pushed from the NAV
// feed and invalidates derived caches
func (fs *FundService) IngestNAVUpdate(ctx context.Context, schemeCode string, date time.Time, nav float64) error {
	record := &models.NAVRecord{
		SchemeCode: schemeCode,
		Date:       date,
		NAV:        nav,
	}

	if err := fs.navRepo.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to upsert NAV record: %w", err)
	}

	if fs.metrics != nil {
		fs.metrics.AddNAVPointsIngested(1)
	}

	if err := fs.fundRepo.MarkForRecalculation(ctx, schemeCode); err != nil {
		fs.logger.WithError(err).WithField("scheme_code", schemeCode).
			Warn("Failed to flag fund for recalculation")
	}

	_ = fs.cache.InvalidateFund(ctx, schemeCode)

	return nil
}

// GetFundStats retrieves aggregate statistics across all funds
func (fs *FundService) GetFundStats(ctx context.Context) (*repositories.FundStats, error) {
	stats, err := fs.fundRepo.GetFundStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get fund stats: %w", err)
	}
	return stats, nil
}

// GetManagerRecord assembles a manager's track record from the funds
// they currently run. The record is derived on demand, never persisted.
func (fs *FundService) GetManagerRecord(ctx context.Context, managerName string) (*models.ManagerRecord, error) {
	funds, err := fs.fundRepo.GetByManager(ctx, managerName)
	if err != nil {
		return nil, fmt.Errorf("failed to get funds for manager: %w", err)
	}

	if len(funds) == 0 {
		return nil, repositories.ErrFundNotFound
	}

	record := &models.ManagerRecord{
		Name:       managerName,
		FundCount:  len(funds),
		AssembleAt: time.Now(),
	}

	var returnSum float64
	var returnCount int
	var bestReturn float64

	for _, fund := range funds {
		record.Funds = append(record.Funds, models.ManagerTenure{
			SchemeCode: fund.SchemeCode,
			FundName:   fund.Name,
			Start:      fund.LaunchDate,
		})

		if fund.Metrics.Return3Y != nil {
			r := *fund.Metrics.Return3Y
			returnSum += r
			returnCount++
			if record.BestFund == "" || r > bestReturn {
				bestReturn = r
				record.BestFund = fund.Name
			}
		}
	}

	if returnCount > 0 {
		avg := returnSum / float64(returnCount)
		record.AvgReturn = &avg
	}

	return record, nil
}

// IsProviderHealthy reports whether the upstream NAV provider is reachable
func (fs *FundService) IsProviderHealthy(ctx context.Context) bool {
	return fs.navClient.IsHealthy(ctx)
}
