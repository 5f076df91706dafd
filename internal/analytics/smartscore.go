package analytics

import (
	"math"

	"fund-analytics-api/internal/models"
)

// Composite weights for the smart score dimensions
const (
	weightReturn      = 0.35
	weightRisk        = 0.25
	weightConsistency = 0.20
	weightCost        = 0.10
	weightAlpha       = 0.10
)

// ScoreBreakdown holds the per-dimension component scores, each 0-100
type ScoreBreakdown struct {
	ReturnScore      float64 `json:"return_score"`
	RiskScore        float64 `json:"risk_score"`
	ConsistencyScore float64 `json:"consistency_score"`
	CostScore        float64 `json:"cost_score"`
	AlphaScore       float64 `json:"alpha_score"`
}

// SmartScoreResult is the composite scoring output for a single fund
type SmartScoreResult struct {
	Score          float64        `json:"score"`
	Grade          string         `json:"grade"`
	Breakdown      ScoreBreakdown `json:"breakdown"`
	Insights       []string       `json:"insights"`
	Recommendation string         `json:"recommendation"`
}

// ComparisonResult is the verdict of comparing two funds by smart score
type ComparisonResult struct {
	ScoreA  SmartScoreResult `json:"score_a"`
	ScoreB  SmartScoreResult `json:"score_b"`
	Winner  string           `json:"winner"` // "a", "b" or "tie"
	Margin  float64          `json:"margin"`
	Verdict string           `json:"verdict"`
}

// normalize linear-scales value into [0,100] over [min,max], clamped.
// With inverse set the scale is flipped, for attributes where lower raw
// values are better (expense ratio, volatility, beta, drawdown).
func normalize(value, min, max float64, inverse bool) float64 {
	if max == min {
		return 50
	}

	scaled := (value - min) / (max - min) * 100
	if scaled < 0 {
		scaled = 0
	}
	if scaled > 100 {
		scaled = 100
	}

	if inverse {
		return 100 - scaled
	}
	return scaled
}

// scoreTerm is one attribute's contribution to a component score
type scoreTerm struct {
	value   *float64
	weight  float64
	min     float64
	max     float64
	inverse bool
	direct  bool // already on a 0-100 scale, no normalization
}

// blend averages the present terms by weight. Absent attributes are
// excluded from the average entirely, never zero-filled. A component with
// no present attributes defaults to the neutral 50.
func blend(terms []scoreTerm) float64 {
	sum := 0.0
	totalWeight := 0.0

	for _, t := range terms {
		if t.value == nil {
			continue
		}
		score := *t.value
		if !t.direct {
			score = normalize(*t.value, t.min, t.max, t.inverse)
		}
		sum += score * t.weight
		totalWeight += t.weight
	}

	if totalWeight == 0 {
		return 50
	}
	return sum / totalWeight
}

// ComputeSmartScore normalizes a fund's heterogeneous attributes into a
// single 0-100 composite with grade, per-dimension breakdown, insights
// and a recommendation.
func ComputeSmartScore(input models.FundMetrics) SmartScoreResult {
	breakdown := ScoreBreakdown{
		ReturnScore: blend([]scoreTerm{
			{value: input.Return1Y, weight: 0.3, min: -20, max: 50},
			{value: input.Return3Y, weight: 0.4, min: 0, max: 30},
			{value: input.Return5Y, weight: 0.3, min: 5, max: 25},
		}),
		RiskScore: blend([]scoreTerm{
			{value: input.Beta, weight: 1, min: 0.5, max: 1.5, inverse: true},
			{value: input.StdDev, weight: 1, min: 5, max: 30, inverse: true},
			{value: input.SharpeRatio, weight: 1, min: -0.5, max: 2.5},
			{value: absDrawdown(input.MaxDrawdown), weight: 1, min: 5, max: 40, inverse: true},
		}),
		ConsistencyScore: blend([]scoreTerm{
			{value: input.ConsistencyIndex, weight: 1, direct: true},
			{value: input.SortinoRatio, weight: 1, min: 0, max: 3},
			{value: input.InformationRatio, weight: 1, min: -0.5, max: 1.5},
		}),
		// AUM contributes at half the weight of expense ratio inside the
		// cost dimension. Preserved exactly; tests depend on it.
		CostScore: blend([]scoreTerm{
			{value: input.ExpenseRatio, weight: 1, min: 0.5, max: 3, inverse: true},
			{value: input.AUM, weight: 0.5, min: 100, max: 10000},
		}),
		AlphaScore: blend([]scoreTerm{
			{value: input.Alpha, weight: 1, min: -5, max: 10},
		}),
	}

	score := weightReturn*breakdown.ReturnScore +
		weightRisk*breakdown.RiskScore +
		weightConsistency*breakdown.ConsistencyScore +
		weightCost*breakdown.CostScore +
		weightAlpha*breakdown.AlphaScore
	score = math.Round(score*10) / 10

	return SmartScoreResult{
		Score:          score,
		Grade:          gradeFor(score),
		Breakdown:      breakdown,
		Insights:       insightsFor(breakdown),
		Recommendation: recommendationFor(score),
	}
}

// CompareFunds scores both inputs and declares a winner, or a tie when
// the scores are within 2 points of each other.
func CompareFunds(a, b models.FundMetrics) ComparisonResult {
	scoreA := ComputeSmartScore(a)
	scoreB := ComputeSmartScore(b)

	result := ComparisonResult{
		ScoreA: scoreA,
		ScoreB: scoreB,
		Margin: math.Abs(scoreA.Score - scoreB.Score),
	}

	switch {
	case result.Margin < 2:
		result.Winner = "tie"
		result.Verdict = "Both funds score comparably; the difference is within the noise band"
	case scoreA.Score > scoreB.Score:
		result.Winner = "a"
		result.Verdict = "The first fund scores meaningfully higher on the composite"
	default:
		result.Winner = "b"
		result.Verdict = "The second fund scores meaningfully higher on the composite"
	}

	return result
}

func absDrawdown(dd *float64) *float64 {
	if dd == nil {
		return nil
	}
	abs := math.Abs(*dd)
	return &abs
}

func gradeFor(score float64) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B+"
	case score >= 60:
		return "B"
	case score >= 50:
		return "C+"
	case score >= 40:
		return "C"
	default:
		return "D"
	}
}

func recommendationFor(score float64) string {
	switch {
	case score >= 85:
		return "Strong Buy"
	case score >= 70:
		return "Buy"
	case score >= 50:
		return "Hold"
	case score >= 35:
		return "Sell"
	default:
		return "Strong Sell"
	}
}

// insightsFor generates threshold-driven observations per dimension:
// >=75 exceptional, 60-75 strong, <40 warning.
func insightsFor(b ScoreBreakdown) []string {
	insights := make([]string, 0, 5)

	appendBand := func(score float64, exceptional, strong, warning string) {
		switch {
		case score >= 75:
			insights = append(insights, exceptional)
		case score >= 60:
			insights = append(insights, strong)
		case score < 40:
			insights = append(insights, warning)
		}
	}

	appendBand(b.ReturnScore,
		"Exceptional returns across time horizons",
		"Strong return profile relative to category",
		"Returns lag the category; review before investing")
	appendBand(b.RiskScore,
		"Excellent risk management with low downside exposure",
		"Well-contained risk for the return delivered",
		"Elevated risk profile; expect sharper drawdowns")
	appendBand(b.ConsistencyScore,
		"Remarkably consistent performance month over month",
		"Good consistency in delivering returns",
		"Inconsistent performance; returns arrive in bursts")
	appendBand(b.CostScore,
		"Very cost-efficient with a healthy asset base",
		"Reasonable cost structure",
		"High expense ratio eats into returns")
	appendBand(b.AlphaScore,
		"Strong alpha generation over the benchmark",
		"Positive alpha over the benchmark",
		"No meaningful alpha over the benchmark")

	return insights
}
