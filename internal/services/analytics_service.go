package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"fund-analytics-api/internal/analytics"
	"fund-analytics-api/internal/models"
	"fund-analytics-api/internal/repositories"
)

// calculationVersion tags persisted metrics so stale computations can be
// detected after a model change
const calculationVersion = "2.1.0"

// ScorePublisherInterface is the event surface for score broadcasts
type ScorePublisherInterface interface {
	PublishScoreUpdated(ctx context.Context, schemeCode string, score float64, grade string) error
}

// AnalyticsService computes and caches derived analytics for funds
type AnalyticsService struct {
	fundRepo     repositories.FundRepository
	navRepo      repositories.NAVRepository
	snapshotRepo repositories.SnapshotRepository
	cache        CacheInterface
	publisher    ScorePublisherInterface
	metrics      MetricsRecorder
	riskEngine   *analytics.RiskEngine
	sipOptimizer *analytics.SIPOptimizer
	predictor    *analytics.Predictor
	cfg          analytics.Config
	logger       *logrus.Logger
}

// SetScorePublisher enables score-updated event broadcasts. Optional;
// without a publisher scores are only cached and snapshotted.
func (as *AnalyticsService) SetScorePublisher(p ScorePublisherInterface) {
	as.publisher = p
}

// SetMetrics attaches a metrics recorder to the service
func (as *AnalyticsService) SetMetrics(m MetricsRecorder) {
	as.metrics = m
}

func (as *AnalyticsService) observeCache(hit bool) {
	if as.metrics != nil {
		as.metrics.ObserveCache(hit)
	}
}

func (as *AnalyticsService) observeComputation(computationType string, started time.Time, err error) {
	if as.metrics != nil {
		as.metrics.ObserveComputation(computationType, time.Since(started), err)
	}
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(
	fundRepo repositories.FundRepository,
	navRepo repositories.NAVRepository,
	snapshotRepo repositories.SnapshotRepository,
	cache CacheInterface,
	cfg analytics.Config,
	logger *logrus.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		fundRepo:     fundRepo,
		navRepo:      navRepo,
		snapshotRepo: snapshotRepo,
		cache:        cache,
		riskEngine:   analytics.NewRiskEngine(cfg),
		sipOptimizer: analytics.NewSIPOptimizer(cfg),
		predictor:    analytics.NewPredictor(cfg),
		cfg:          cfg,
		logger:       logger,
	}
}

// RiskMetricsResult wraps risk metrics with their provenance
type RiskMetricsResult struct {
	SchemeCode   string                 `json:"scheme_code"`
	Metrics      analytics.RiskMetrics  `json:"metrics"`
	DataPoints   int                    `json:"data_points"`
	BenchmarkUse string                 `json:"benchmark_used,omitempty"`
	CalculatedAt time.Time              `json:"calculated_at"`
}

// SmartScoreResponse wraps a score with identity and history context
type SmartScoreResponse struct {
	SchemeCode   string                     `json:"scheme_code"`
	FundName     string                     `json:"fund_name"`
	Result       analytics.SmartScoreResult `json:"result"`
	CalculatedAt time.Time                  `json:"calculated_at"`
}

// RiskOptions narrows a risk computation. Benchmark overrides the
// fund's configured benchmark scheme; Months bounds the history window
// (0 means full history).
type RiskOptions struct {
	Benchmark string
	Months    int
}

// GetRiskMetrics computes the full risk profile for a fund. Results for
// the default options are cached; market returns come from the benchmark
// scheme when one resolves, otherwise beta defaults to 1.
func (as *AnalyticsService) GetRiskMetrics(ctx context.Context, schemeCode string, opts RiskOptions) (*RiskMetricsResult, error) {
	cacheable := opts.Benchmark == "" && opts.Months == 0
	if cacheable {
		var cached RiskMetricsResult
		if err := as.cache.GetRiskMetrics(ctx, schemeCode, &cached); err == nil {
			as.observeCache(true)
			return &cached, nil
		}
		as.observeCache(false)
	}
	started := time.Now()

	fund, err := as.fundRepo.GetBySchemeCode(ctx, schemeCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get fund: %w", err)
	}

	navs, err := as.navRepo.GetHistory(ctx, schemeCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get NAV history: %w", err)
	}
	navs = trimToWindow(navs, opts.Months, as.cfg.MinDataPoints)
	if len(navs) < as.cfg.MinDataPoints {
		as.observeComputation("risk", started, analytics.ErrInsufficientData)
		return nil, fmt.Errorf("%w: need at least %d NAV points, got %d",
			analytics.ErrInsufficientData, as.cfg.MinDataPoints, len(navs))
	}

	benchmark := opts.Benchmark
	if benchmark == "" {
		benchmark = fund.Benchmark
	}

	returns := analytics.ReturnsFromNAVs(navs)
	market := as.benchmarkReturns(ctx, benchmark)

	result := &RiskMetricsResult{
		SchemeCode:   schemeCode,
		Metrics:      as.riskEngine.Metrics(returns, market),
		DataPoints:   len(navs),
		BenchmarkUse: benchmark,
		CalculatedAt: time.Now(),
	}

	if cacheable {
		_ = as.cache.SetRiskMetrics(ctx, schemeCode, result)
	}
	as.observeComputation("risk", started, nil)

	return result, nil
}

// trimToWindow keeps only observations within the trailing months
// window, unless trimming would leave too little history
func trimToWindow(navs []models.NAVPoint, months, minPoints int) []models.NAVPoint {
	if months <= 0 || len(navs) == 0 {
		return navs
	}

	sorted := analytics.SortNAVs(navs)
	cutoff := sorted[len(sorted)-1].Date.AddDate(0, -months, 0)
	trimmed := make([]models.NAVPoint, 0, len(sorted))
	for _, n := range sorted {
		if !n.Date.Before(cutoff) {
			trimmed = append(trimmed, n)
		}
	}

	if len(trimmed) < minPoints {
		return sorted
	}
	return trimmed
}

// benchmarkReturns resolves a benchmark scheme's return series. Missing
// or empty benchmarks yield nil, which the risk engine treats as "no
// market data".
func (as *AnalyticsService) benchmarkReturns(ctx context.Context, benchmark string) []float64 {
	if benchmark == "" {
		return nil
	}

	navs, err := as.navRepo.GetHistory(ctx, benchmark)
	if err != nil || len(navs) < 2 {
		return nil
	}

	return analytics.ReturnsFromNAVs(navs)
}

// GetSmartScore computes the composite score for a fund, cache first,
// and records a snapshot for score history
func (as *AnalyticsService) GetSmartScore(ctx context.Context, schemeCode string) (*SmartScoreResponse, error) {
	var cached SmartScoreResponse
	if err := as.cache.GetScore(ctx, schemeCode, &cached); err == nil {
		as.observeCache(true)
		return &cached, nil
	}
	as.observeCache(false)

	fund, err := as.fundRepo.GetBySchemeCode(ctx, schemeCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get fund: %w", err)
	}

	metrics, err := as.resolveMetrics(ctx, fund)
	if err != nil {
		return nil, err
	}

	response := &SmartScoreResponse{
		SchemeCode:   schemeCode,
		FundName:     fund.Name,
		Result:       analytics.ComputeSmartScore(metrics),
		CalculatedAt: time.Now(),
	}

	_ = as.cache.SetScore(ctx, schemeCode, response)

	snapshot := &models.ScoreSnapshot{
		SchemeCode: schemeCode,
		Score:      response.Result.Score,
		Grade:      response.Result.Grade,
		Timestamp:  response.CalculatedAt,
	}
	if err := as.snapshotRepo.Create(ctx, snapshot); err != nil {
		as.logger.WithError(err).WithField("scheme_code", schemeCode).
			Warn("Failed to persist score snapshot")
	}

	if as.publisher != nil {
		if err := as.publisher.PublishScoreUpdated(ctx, schemeCode, response.Result.Score, response.Result.Grade); err != nil {
			as.logger.WithError(err).WithField("scheme_code", schemeCode).
				Warn("Failed to publish score update event")
		}
	}

	return response, nil
}

// resolveMetrics returns the fund's stored metrics, recomputing them
// first when they are flagged stale and NAV history allows it
func (as *AnalyticsService) resolveMetrics(ctx context.Context, fund *models.Fund) (models.FundMetrics, error) {
	if !fund.Metadata.NeedsRecalculation {
		return fund.Metrics, nil
	}

	metrics, err := as.RecalculateFund(ctx, fund.SchemeCode)
	if err != nil {
		// Stale metrics still score; insufficient history is the only
		// case where stored values may be all we have
		as.logger.WithError(err).WithField("scheme_code", fund.SchemeCode).
			Debug("Recalculation failed, scoring with stored metrics")
		return fund.Metrics, nil
	}

	return *metrics, nil
}

// GetScoreHistory retrieves persisted score snapshots, newest first
func (as *AnalyticsService) GetScoreHistory(ctx context.Context, schemeCode string, limit int) ([]models.ScoreSnapshot, error) {
	if limit <= 0 || limit > 365 {
		limit = 90
	}
	snapshots, err := as.snapshotRepo.GetHistory(ctx, schemeCode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get score history: %w", err)
	}
	return snapshots, nil
}

// FundComparison is the two-fund verdict with identities attached
type FundComparison struct {
	SchemeCodeA string                     `json:"scheme_code_a"`
	SchemeCodeB string                     `json:"scheme_code_b"`
	FundNameA   string                     `json:"fund_name_a"`
	FundNameB   string                     `json:"fund_name_b"`
	Result      analytics.ComparisonResult `json:"result"`
}

// CompareFunds scores two funds and declares a winner or a tie
func (as *AnalyticsService) CompareFunds(ctx context.Context, codeA, codeB string) (*FundComparison, error) {
	fundA, err := as.fundRepo.GetBySchemeCode(ctx, codeA)
	if err != nil {
		return nil, fmt.Errorf("failed to get fund %s: %w", codeA, err)
	}
	fundB, err := as.fundRepo.GetBySchemeCode(ctx, codeB)
	if err != nil {
		return nil, fmt.Errorf("failed to get fund %s: %w", codeB, err)
	}

	metricsA, err := as.resolveMetrics(ctx, fundA)
	if err != nil {
		return nil, err
	}
	metricsB, err := as.resolveMetrics(ctx, fundB)
	if err != nil {
		return nil, err
	}

	return &FundComparison{
		SchemeCodeA: codeA,
		SchemeCodeB: codeB,
		FundNameA:   fundA.Name,
		FundNameB:   fundB.Name,
		Result:      analytics.CompareFunds(metricsA, metricsB),
	}, nil
}

// GetSIPAnalysis ranks calendar days of the month by historical SIP
// outcome for a fund, cache first
func (as *AnalyticsService) GetSIPAnalysis(ctx context.Context, schemeCode string, amount decimal.Decimal, windowMonths int) (*analytics.SIPAnalysis, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		amount = decimal.NewFromInt(10000)
	}

	// Cached only for the default installment; day ranks are amount
	// independent but the simulated unit totals are not
	cacheable := amount.Equal(decimal.NewFromInt(10000))
	if cacheable {
		var cached analytics.SIPAnalysis
		if err := as.cache.GetSIPAnalysis(ctx, schemeCode, windowMonths, &cached); err == nil {
			as.observeCache(true)
			return &cached, nil
		}
		as.observeCache(false)
	}
	started := time.Now()

	navs, err := as.navRepo.GetHistory(ctx, schemeCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get NAV history: %w", err)
	}

	result, err := as.sipOptimizer.Analyze(navs, amount, windowMonths)
	as.observeComputation("sip", started, err)
	if err != nil {
		return nil, err
	}

	if cacheable {
		_ = as.cache.SetSIPAnalysis(ctx, schemeCode, windowMonths, result)
	}

	return result, nil
}

// GetOverlap computes the holdings overlap across the given funds,
// cache first. The cache key is order independent.
func (as *AnalyticsService) GetOverlap(ctx context.Context, schemeCodes []string) (*analytics.OverlapAnalysis, error) {
	key := overlapKey(schemeCodes)

	var cached analytics.OverlapAnalysis
	if err := as.cache.GetOverlap(ctx, key, &cached); err == nil {
		as.observeCache(true)
		return &cached, nil
	}
	as.observeCache(false)
	started := time.Now()

	funds, err := as.fundRepo.GetBySchemeCodes(ctx, schemeCodes)
	if err != nil {
		return nil, fmt.Errorf("failed to get funds: %w", err)
	}
	if len(funds) != len(schemeCodes) {
		return nil, repositories.ErrFundNotFound
	}

	holdings := make([]analytics.FundHoldings, 0, len(funds))
	for _, fund := range funds {
		holdings = append(holdings, analytics.FundHoldings{
			SchemeCode: fund.SchemeCode,
			Name:       fund.Name,
			Holdings:   fund.Holdings,
		})
	}

	result, err := analytics.AnalyzeOverlap(holdings)
	as.observeComputation("overlap", started, err)
	if err != nil {
		return nil, err
	}

	_ = as.cache.SetOverlap(ctx, key, result)

	return result, nil
}

// overlapKey builds an order-independent cache key from scheme codes
func overlapKey(schemeCodes []string) string {
	sorted := make([]string, len(schemeCodes))
	copy(sorted, schemeCodes)
	sort.Strings(sorted)
	return strings.Join(sorted, ":")
}

// GetPrediction runs the technical model over a fund's NAV history,
// cache first
func (as *AnalyticsService) GetPrediction(ctx context.Context, schemeCode string) (*analytics.Prediction, error) {
	var cached analytics.Prediction
	if err := as.cache.GetPrediction(ctx, schemeCode, &cached); err == nil {
		as.observeCache(true)
		return &cached, nil
	}
	as.observeCache(false)
	started := time.Now()

	navs, err := as.navRepo.GetHistory(ctx, schemeCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get NAV history: %w", err)
	}

	result := as.predictor.Predict(navs)
	as.observeComputation("prediction", started, nil)

	_ = as.cache.SetPrediction(ctx, schemeCode, result)

	return result, nil
}

// RecalculateFund recomputes a fund's stored metrics from its NAV
// history and persists them. Attributes with no data source stay unset.
func (as *AnalyticsService) RecalculateFund(ctx context.Context, schemeCode string) (*models.FundMetrics, error) {
	started := time.Now()

	fund, err := as.fundRepo.GetBySchemeCode(ctx, schemeCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get fund: %w", err)
	}

	navs, err := as.navRepo.GetHistory(ctx, schemeCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get NAV history: %w", err)
	}
	if len(navs) < as.cfg.MinDataPoints {
		return nil, fmt.Errorf("%w: need at least %d NAV points, got %d",
			analytics.ErrInsufficientData, as.cfg.MinDataPoints, len(navs))
	}

	sorted := analytics.SortNAVs(navs)
	returns := analytics.ReturnsFromNAVs(sorted)
	market := as.benchmarkReturns(ctx, fund.Benchmark)
	risk := as.riskEngine.Metrics(returns, market)

	metrics := models.FundMetrics{
		Alpha:            ptr(risk.Alpha),
		Beta:             ptr(risk.Beta),
		StdDev:           ptr(risk.Volatility),
		SharpeRatio:      ptr(risk.SharpeRatio),
		SortinoRatio:     ptr(risk.SortinoRatio),
		MaxDrawdown:      ptr(risk.MaxDrawdown),
		InformationRatio: ptr(risk.InformationRatio),
	}

	if r, ok := trailingReturn(sorted, 1); ok {
		metrics.Return1Y = ptr(r)
	}
	if r, ok := trailingReturn(sorted, 3); ok {
		metrics.Return3Y = ptr(r)
	}
	if r, ok := trailingReturn(sorted, 5); ok {
		metrics.Return5Y = ptr(r)
	}
	if ci, ok := consistencyIndex(returns); ok {
		metrics.ConsistencyIndex = ptr(ci)
	}

	if fund.ExpenseRatio > 0 {
		metrics.ExpenseRatio = ptr(fund.ExpenseRatio)
	}
	if aum, _ := fund.AUM.Float64(); aum > 0 {
		metrics.AUM = ptr(aum)
	}

	metadata := fund.Metadata
	metadata.LastCalculated = time.Now()
	metadata.LastNAVDate = sorted[len(sorted)-1].Date
	metadata.NAVPointsCount = len(sorted)
	metadata.CalculationVersion = calculationVersion
	metadata.NeedsRecalculation = false
	metadata.CalculationDuration = time.Since(started).Milliseconds()

	if err := as.fundRepo.UpdateMetrics(ctx, schemeCode, metrics, metadata); err != nil {
		return nil, fmt.Errorf("failed to persist metrics: %w", err)
	}

	_ = as.cache.InvalidateFund(ctx, schemeCode)

	as.logger.WithFields(logrus.Fields{
		"scheme_code": schemeCode,
		"nav_points":  len(sorted),
		"duration_ms": metadata.CalculationDuration,
	}).Info("Fund metrics recalculated")
	as.observeComputation("recalculation", started, nil)

	return &metrics, nil
}

// RecalculatePending recomputes metrics and scores for funds flagged
// stale, up to limit. Per-fund failures are counted, not fatal; the
// loop stops early when ctx expires.
func (as *AnalyticsService) RecalculatePending(ctx context.Context, limit int) (computed, failed int, err error) {
	funds, err := as.fundRepo.GetNeedingRecalculation(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list flagged funds: %w", err)
	}

	for _, fund := range funds {
		if ctx.Err() != nil {
			return computed, failed, ctx.Err()
		}
		if _, err := as.RecalculateFund(ctx, fund.SchemeCode); err != nil {
			failed++
			as.logger.WithError(err).WithField("scheme_code", fund.SchemeCode).
				Debug("Recalculation skipped for fund")
			continue
		}
		if _, err := as.GetSmartScore(ctx, fund.SchemeCode); err != nil {
			as.logger.WithError(err).WithField("scheme_code", fund.SchemeCode).
				Debug("Score precompute skipped for fund")
		}
		computed++
	}

	return computed, failed, nil
}

// trailingReturn computes the annualized trailing return over the last
// `years` calendar years of NAV history. Requires an observation at or
// before the window start.
func trailingReturn(sorted []models.NAVPoint, years int) (float64, bool) {
	if len(sorted) < 2 {
		return 0, false
	}

	latest := sorted[len(sorted)-1]
	windowStart := latest.Date.AddDate(-years, 0, 0)

	var base *models.NAVPoint
	for i := range sorted {
		if sorted[i].Date.After(windowStart) {
			break
		}
		base = &sorted[i]
	}
	if base == nil || base.NAV <= 0 {
		return 0, false
	}

	total := latest.NAV / base.NAV
	if total <= 0 {
		return 0, false
	}
	if years == 1 {
		return (total - 1) * 100, true
	}

	annualized := math.Pow(total, 1.0/float64(years)) - 1
	return annualized * 100, true
}

// consistencyIndex is the share of rolling 12-month-equivalent windows
// with a positive return, expressed 0-100. Uses trading-day windows of
// 252 observations.
func consistencyIndex(returns []float64) (float64, bool) {
	const window = 252
	if len(returns) < window {
		return 0, false
	}

	var positive, total int
	cumulative := 1.0
	prefix := make([]float64, len(returns)+1)
	prefix[0] = 1.0
	for i, r := range returns {
		cumulative *= 1 + r/100
		prefix[i+1] = cumulative
	}

	for start := 0; start+window <= len(returns); start += 21 {
		total++
		if prefix[start+window]/prefix[start] > 1 {
			positive++
		}
	}

	if total == 0 {
		return 0, false
	}
	return float64(positive) / float64(total) * 100, true
}

func ptr(v float64) *float64 {
	return &v
}
