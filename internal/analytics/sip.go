package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fund-analytics-api/internal/models"
)

// Calendar days 29-31 don't occur in every month and would bias the
// ranking toward long months, so only days 1-28 are considered.
const maxSIPDay = 28

// Fixed reference dates the historical simulation always covers
var referenceSIPDays = []int{5, 15, 25}

// SIPDayStat summarizes one calendar day-of-month bucket
type SIPDayStat struct {
	Day              int     `json:"day"`
	AvgNAV           float64 `json:"avg_nav"`
	AvgUnits         float64 `json:"avg_units"`
	Observations     int     `json:"observations"`
	Rank             int     `json:"rank"`
	Rating           string  `json:"rating"`
	ReturnPercentage float64 `json:"return_percentage"` // shortfall vs the best day, <= 0
}

// SIPSimulation is a realized historical SIP outcome for one fixed date
type SIPSimulation struct {
	Day              int             `json:"day"`
	Installments     int             `json:"installments"`
	TotalUnits       float64         `json:"total_units"`
	TotalInvested    decimal.Decimal `json:"total_invested"`
	CurrentValue     decimal.Decimal `json:"current_value"`
	ReturnPercentage float64         `json:"return_percentage"`
}

// SIPAnalysis is the full optimizer output
type SIPAnalysis struct {
	OptimalDay            int             `json:"optimal_day"`
	BestDays              []int           `json:"best_days"`
	DayStats              []SIPDayStat    `json:"day_stats"`
	PotentialExtraReturns float64         `json:"potential_extra_returns"`
	ConsistencyScore      float64         `json:"consistency_score"`
	Simulations           []SIPSimulation `json:"simulations"`
	InvestmentAmount      decimal.Decimal `json:"investment_amount"`
	AnalysisWindowMonths  int             `json:"analysis_window_months"`
	DataPoints            int             `json:"data_points"`
}

// SIPOptimizer ranks calendar days-of-month by the average units a fixed
// periodic investment would have purchased historically.
type SIPOptimizer struct {
	cfg Config
}

// NewSIPOptimizer creates an optimizer with the given assumptions
func NewSIPOptimizer(cfg Config) *SIPOptimizer {
	if cfg.MinDataPoints <= 0 {
		cfg.MinDataPoints = DefaultConfig().MinDataPoints
	}
	return &SIPOptimizer{cfg: cfg}
}

// Analyze buckets the NAV history by calendar day-of-month and ranks days
// by average units purchasable per installment. Fewer than the configured
// minimum of NAV points is a hard failure, not a degenerate answer.
func (o *SIPOptimizer) Analyze(navs []models.NAVPoint, investment decimal.Decimal, windowMonths int) (*SIPAnalysis, error) {
	if len(navs) < o.cfg.MinDataPoints {
		return nil, fmt.Errorf("%w: need at least %d NAV points, got %d",
			ErrInsufficientData, o.cfg.MinDataPoints, len(navs))
	}

	sorted := SortNAVs(navs)
	if windowMonths > 0 {
		cutoff := sorted[len(sorted)-1].Date.AddDate(0, -windowMonths, 0)
		trimmed := make([]models.NAVPoint, 0, len(sorted))
		for _, n := range sorted {
			if !n.Date.Before(cutoff) {
				trimmed = append(trimmed, n)
			}
		}
		if len(trimmed) >= o.cfg.MinDataPoints {
			sorted = trimmed
		}
	}

	investmentFloat, _ := investment.Float64()

	// Bucket by calendar day-of-month
	buckets := make(map[int][]float64)
	for _, n := range sorted {
		day := n.Date.Day()
		if day > maxSIPDay || n.NAV <= 0 {
			continue
		}
		buckets[day] = append(buckets[day], n.NAV)
	}

	stats := make([]SIPDayStat, 0, len(buckets))
	for day, navValues := range buckets {
		avgNAV := Mean(navValues)
		if avgNAV <= 0 {
			continue
		}
		stats = append(stats, SIPDayStat{
			Day:          day,
			AvgNAV:       avgNAV,
			AvgUnits:     investmentFloat / avgNAV,
			Observations: len(navValues),
		})
	}

	if len(stats) == 0 {
		return nil, fmt.Errorf("%w: no NAV observations on days 1-%d", ErrInsufficientData, maxSIPDay)
	}

	// More units per fixed installment means a historically lower average
	// price on that day
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].AvgUnits > stats[j].AvgUnits
	})

	bestUnits := stats[0].AvgUnits
	worstUnits := stats[len(stats)-1].AvgUnits

	bestDays := make([]int, 0, 3)
	for i := range stats {
		stats[i].Rank = i + 1
		stats[i].Rating = sipRating(i + 1)
		stats[i].ReturnPercentage = (stats[i].AvgUnits - bestUnits) / bestUnits * 100
		if i < 3 {
			bestDays = append(bestDays, stats[i].Day)
		}
	}

	potentialExtra := 0.0
	if worstUnits > 0 {
		potentialExtra = (bestUnits - worstUnits) / worstUnits * 100
	}

	analysis := &SIPAnalysis{
		OptimalDay:            stats[0].Day,
		BestDays:              bestDays,
		DayStats:              stats,
		PotentialExtraReturns: potentialExtra,
		ConsistencyScore:      sipConsistency(stats, bestUnits),
		InvestmentAmount:      investment,
		AnalysisWindowMonths:  windowMonths,
		DataPoints:            len(sorted),
	}

	simDays := append([]int{}, referenceSIPDays...)
	if !containsInt(simDays, analysis.OptimalDay) {
		simDays = append(simDays, analysis.OptimalDay)
	}
	latestNAV := sorted[len(sorted)-1].NAV
	for _, day := range simDays {
		analysis.Simulations = append(analysis.Simulations, simulateSIP(sorted, day, investment, latestNAV))
	}

	return analysis, nil
}

func sipRating(rank int) string {
	switch {
	case rank <= 3:
		return "Best"
	case rank <= 8:
		return "Good"
	case rank <= 20:
		return "Average"
	default:
		return "Below Average"
	}
}

// sipConsistency measures how tightly the day buckets cluster around the
// best day: 100 means the date choice barely matters.
func sipConsistency(stats []SIPDayStat, bestUnits float64) float64 {
	if bestUnits <= 0 || len(stats) == 0 {
		return 0
	}

	sumAbsDev := 0.0
	for _, s := range stats {
		sumAbsDev += math.Abs(s.AvgUnits - bestUnits)
	}
	avgAbsDev := sumAbsDev / float64(len(stats))

	penalty := avgAbsDev / bestUnits * 200
	if penalty > 100 {
		penalty = 100
	}
	return 100 - penalty
}

// simulateSIP replays a fixed monthly investment on the given calendar
// day across the whole window, buying at the NAV observation closest to
// that day within each month, and values the accumulated units at the
// latest NAV.
func simulateSIP(sorted []models.NAVPoint, day int, installment decimal.Decimal, latestNAV float64) SIPSimulation {
	type monthKey struct {
		year  int
		month time.Month
	}

	closest := make(map[monthKey]models.NAVPoint)
	for _, n := range sorted {
		key := monthKey{n.Date.Year(), n.Date.Month()}
		current, ok := closest[key]
		if !ok || dayDistance(n.Date.Day(), day) < dayDistance(current.Date.Day(), day) {
			closest[key] = n
		}
	}

	installmentFloat, _ := installment.Float64()

	totalUnits := 0.0
	installments := 0
	for _, n := range closest {
		if n.NAV <= 0 {
			continue
		}
		totalUnits += installmentFloat / n.NAV
		installments++
	}

	totalInvested := installment.Mul(decimal.NewFromInt(int64(installments)))
	currentValue := decimal.NewFromFloat(totalUnits * latestNAV)

	returnPct := 0.0
	if investedFloat, _ := totalInvested.Float64(); investedFloat > 0 {
		valueFloat, _ := currentValue.Float64()
		returnPct = (valueFloat - investedFloat) / investedFloat * 100
	}

	return SIPSimulation{
		Day:              day,
		Installments:     installments,
		TotalUnits:       totalUnits,
		TotalInvested:    totalInvested,
		CurrentValue:     currentValue,
		ReturnPercentage: returnPct,
	}
}

func dayDistance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
