package services

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"fund-analytics-api/internal/clients"
	"fund-analytics-api/internal/models"
	"fund-analytics-api/internal/repositories"
)

// Mock implementations

type MockFundRepository struct {
	mock.Mock
}

func (m *MockFundRepository) Create(ctx context.Context, fund *models.Fund) error {
	args := m.Called(ctx, fund)
	return args.Error(0)
}

func (m *MockFundRepository) GetBySchemeCode(ctx context.Context, schemeCode string) (*models.Fund, error) {
	args := m.Called(ctx, schemeCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Fund), args.Error(1)
}

func (m *MockFundRepository) GetBySchemeCodes(ctx context.Context, schemeCodes []string) ([]*models.Fund, error) {
	args := m.Called(ctx, schemeCodes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Fund), args.Error(1)
}

func (m *MockFundRepository) Update(ctx context.Context, fund *models.Fund) error {
	args := m.Called(ctx, fund)
	return args.Error(0)
}

func (m *MockFundRepository) UpdateMetrics(ctx context.Context, schemeCode string, metrics models.FundMetrics, metadata models.FundMetadata) error {
	args := m.Called(ctx, schemeCode, metrics, metadata)
	return args.Error(0)
}

func (m *MockFundRepository) Delete(ctx context.Context, schemeCode string) error {
	args := m.Called(ctx, schemeCode)
	return args.Error(0)
}

func (m *MockFundRepository) List(ctx context.Context, category string, limit, offset int) ([]*models.Fund, error) {
	args := m.Called(ctx, category, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Fund), args.Error(1)
}

func (m *MockFundRepository) GetNeedingRecalculation(ctx context.Context, limit int) ([]*models.Fund, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Fund), args.Error(1)
}

func (m *MockFundRepository) MarkForRecalculation(ctx context.Context, schemeCode string) error {
	args := m.Called(ctx, schemeCode)
	return args.Error(0)
}

func (m *MockFundRepository) GetByManager(ctx context.Context, managerName string) ([]*models.Fund, error) {
	args := m.Called(ctx, managerName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Fund), args.Error(1)
}

func (m *MockFundRepository) GetFundStats(ctx context.Context) (*repositories.FundStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.FundStats), args.Error(1)
}

type MockNAVRepository struct {
	mock.Mock
}

func (m *MockNAVRepository) Upsert(ctx context.Context, record *models.NAVRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockNAVRepository) BulkUpsert(ctx context.Context, records []models.NAVRecord) (int64, error) {
	args := m.Called(ctx, records)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNAVRepository) GetHistory(ctx context.Context, schemeCode string) ([]models.NAVPoint, error) {
	args := m.Called(ctx, schemeCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.NAVPoint), args.Error(1)
}

func (m *MockNAVRepository) GetHistoryRange(ctx context.Context, schemeCode string, from, to time.Time) ([]models.NAVPoint, error) {
	args := m.Called(ctx, schemeCode, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.NAVPoint), args.Error(1)
}

func (m *MockNAVRepository) GetLatest(ctx context.Context, schemeCode string) (*models.NAVRecord, error) {
	args := m.Called(ctx, schemeCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NAVRecord), args.Error(1)
}

func (m *MockNAVRepository) Count(ctx context.Context, schemeCode string) (int64, error) {
	args := m.Called(ctx, schemeCode)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNAVRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) Create(ctx context.Context, snapshot *models.ScoreSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotRepository) BulkCreate(ctx context.Context, snapshots []models.ScoreSnapshot) error {
	args := m.Called(ctx, snapshots)
	return args.Error(0)
}

func (m *MockSnapshotRepository) GetHistory(ctx context.Context, schemeCode string, limit int) ([]models.ScoreSnapshot, error) {
	args := m.Called(ctx, schemeCode, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScoreSnapshot), args.Error(1)
}

func (m *MockSnapshotRepository) GetLatest(ctx context.Context, schemeCode string) (*models.ScoreSnapshot, error) {
	args := m.Called(ctx, schemeCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScoreSnapshot), args.Error(1)
}

func (m *MockSnapshotRepository) DeleteOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

type MockScorePublisher struct {
	mock.Mock
}

func (m *MockScorePublisher) PublishScoreUpdated(ctx context.Context, schemeCode string, score float64, grade string) error {
	args := m.Called(ctx, schemeCode, score, grade)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) SetFund(ctx context.Context, schemeCode string, fund interface{}) error {
	args := m.Called(ctx, schemeCode, fund)
	return args.Error(0)
}

func (m *MockCache) GetFund(ctx context.Context, schemeCode string, dest interface{}) error {
	args := m.Called(ctx, schemeCode, dest)
	return args.Error(0)
}

func (m *MockCache) SetNAVHistory(ctx context.Context, schemeCode string, navs interface{}) error {
	args := m.Called(ctx, schemeCode, navs)
	return args.Error(0)
}

func (m *MockCache) GetNAVHistory(ctx context.Context, schemeCode string, dest interface{}) error {
	args := m.Called(ctx, schemeCode, dest)
	return args.Error(0)
}

func (m *MockCache) SetScore(ctx context.Context, schemeCode string, score interface{}) error {
	args := m.Called(ctx, schemeCode, score)
	return args.Error(0)
}

func (m *MockCache) GetScore(ctx context.Context, schemeCode string, dest interface{}) error {
	args := m.Called(ctx, schemeCode, dest)
	return args.Error(0)
}

func (m *MockCache) SetRiskMetrics(ctx context.Context, schemeCode string, metrics interface{}) error {
	args := m.Called(ctx, schemeCode, metrics)
	return args.Error(0)
}

func (m *MockCache) GetRiskMetrics(ctx context.Context, schemeCode string, dest interface{}) error {
	args := m.Called(ctx, schemeCode, dest)
	return args.Error(0)
}

func (m *MockCache) SetSIPAnalysis(ctx context.Context, schemeCode string, windowMonths int, analysis interface{}) error {
	args := m.Called(ctx, schemeCode, windowMonths, analysis)
	return args.Error(0)
}

func (m *MockCache) GetSIPAnalysis(ctx context.Context, schemeCode string, windowMonths int, dest interface{}) error {
	args := m.Called(ctx, schemeCode, windowMonths, dest)
	return args.Error(0)
}

func (m *MockCache) SetOverlap(ctx context.Context, comparisonKey string, analysis interface{}) error {
	args := m.Called(ctx, comparisonKey, analysis)
	return args.Error(0)
}

func (m *MockCache) GetOverlap(ctx context.Context, comparisonKey string, dest interface{}) error {
	args := m.Called(ctx, comparisonKey, dest)
	return args.Error(0)
}

func (m *MockCache) SetPrediction(ctx context.Context, schemeCode string, prediction interface{}) error {
	args := m.Called(ctx, schemeCode, prediction)
	return args.Error(0)
}

func (m *MockCache) GetPrediction(ctx context.Context, schemeCode string, dest interface{}) error {
	args := m.Called(ctx, schemeCode, dest)
	return args.Error(0)
}

func (m *MockCache) InvalidateFund(ctx context.Context, schemeCode string) error {
	args := m.Called(ctx, schemeCode)
	return args.Error(0)
}

type MockNAVClient struct {
	mock.Mock
}

func (m *MockNAVClient) FetchScheme(ctx context.Context, schemeCode string) (*clients.SchemeData, error) {
	args := m.Called(ctx, schemeCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.SchemeData), args.Error(1)
}

func (m *MockNAVClient) IsHealthy(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
