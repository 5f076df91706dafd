package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fund-analytics-api/internal/models"
)

func fptr(v float64) *float64 { return &v }

func TestNormalizeClampsToRange(t *testing.T) {
	assert.Equal(t, 0.0, normalize(-100, 0, 30, false))
	assert.Equal(t, 100.0, normalize(500, 0, 30, false))
	assert.Equal(t, 50.0, normalize(15, 0, 30, false))

	// Inverse flips the scale for lower-is-better attributes
	assert.Equal(t, 100.0, normalize(0.5, 0.5, 3, true))
	assert.Equal(t, 0.0, normalize(3, 0.5, 3, true))

	// Degenerate range is neutral
	assert.Equal(t, 50.0, normalize(7, 5, 5, false))
}

func TestComputeSmartScoreEmptyMetrics(t *testing.T) {
	// With no attributes present every component defaults to 50
	result := ComputeSmartScore(models.FundMetrics{})

	assert.Equal(t, 50.0, result.Score)
	assert.Equal(t, "C+", result.Grade)
	assert.Equal(t, "Hold", result.Recommendation)
	assert.Equal(t, 50.0, result.Breakdown.ReturnScore)
	assert.Equal(t, 50.0, result.Breakdown.CostScore)
}

func TestComputeSmartScoreBounds(t *testing.T) {
	best := models.FundMetrics{
		Return1Y:         fptr(60),
		Return3Y:         fptr(35),
		Return5Y:         fptr(30),
		Beta:             fptr(0.4),
		StdDev:           fptr(4),
		SharpeRatio:      fptr(3),
		MaxDrawdown:      fptr(-2),
		ConsistencyIndex: fptr(100),
		SortinoRatio:     fptr(4),
		InformationRatio: fptr(2),
		ExpenseRatio:     fptr(0.3),
		AUM:              fptr(20000),
		Alpha:            fptr(12),
	}
	worst := models.FundMetrics{
		Return1Y:         fptr(-30),
		Return3Y:         fptr(-5),
		Return5Y:         fptr(0),
		Beta:             fptr(2),
		StdDev:           fptr(40),
		SharpeRatio:      fptr(-1),
		MaxDrawdown:      fptr(-60),
		ConsistencyIndex: fptr(0),
		SortinoRatio:     fptr(-1),
		InformationRatio: fptr(-2),
		ExpenseRatio:     fptr(3.5),
		AUM:              fptr(50),
		Alpha:            fptr(-10),
	}

	top := ComputeSmartScore(best)
	bottom := ComputeSmartScore(worst)

	assert.InDelta(t, 100.0, top.Score, 1e-9)
	assert.Equal(t, "A+", top.Grade)
	assert.Equal(t, "Strong Buy", top.Recommendation)

	assert.InDelta(t, 0.0, bottom.Score, 1e-9)
	assert.Equal(t, "D", bottom.Grade)
	assert.Equal(t, "Strong Sell", bottom.Recommendation)
}

func TestComputeSmartScoreMonotonicInReturns(t *testing.T) {
	low := ComputeSmartScore(models.FundMetrics{Return3Y: fptr(8)})
	high := ComputeSmartScore(models.FundMetrics{Return3Y: fptr(20)})

	assert.Greater(t, high.Score, low.Score)
	assert.Greater(t, high.Breakdown.ReturnScore, low.Breakdown.ReturnScore)
}

func TestComputeSmartScoreAbsentFieldsSkipped(t *testing.T) {
	// A single present attribute carries the whole component
	result := ComputeSmartScore(models.FundMetrics{Return3Y: fptr(30)})
	assert.Equal(t, 100.0, result.Breakdown.ReturnScore)
}

func TestCostScoreAUMHalfWeight(t *testing.T) {
	// Expense maps to 100, AUM to 0; (100*1 + 0*0.5)/1.5 = 66.67
	result := ComputeSmartScore(models.FundMetrics{
		ExpenseRatio: fptr(0.5),
		AUM:          fptr(100),
	})
	assert.InDelta(t, 66.666, result.Breakdown.CostScore, 0.01)
}

func TestDrawdownSignInsensitive(t *testing.T) {
	neg := ComputeSmartScore(models.FundMetrics{MaxDrawdown: fptr(-25)})
	pos := ComputeSmartScore(models.FundMetrics{MaxDrawdown: fptr(25)})
	assert.Equal(t, neg.Breakdown.RiskScore, pos.Breakdown.RiskScore)
}

func TestGradeBoundaries(t *testing.T) {
	assert.Equal(t, "A+", gradeFor(90))
	assert.Equal(t, "A", gradeFor(89.9))
	assert.Equal(t, "A", gradeFor(80))
	assert.Equal(t, "B+", gradeFor(79.9))
	assert.Equal(t, "B", gradeFor(60))
	assert.Equal(t, "C+", gradeFor(50))
	assert.Equal(t, "C", gradeFor(40))
	assert.Equal(t, "D", gradeFor(39.9))
}

func TestRecommendationBoundaries(t *testing.T) {
	assert.Equal(t, "Strong Buy", recommendationFor(85))
	assert.Equal(t, "Buy", recommendationFor(70))
	assert.Equal(t, "Hold", recommendationFor(50))
	assert.Equal(t, "Sell", recommendationFor(35))
	assert.Equal(t, "Strong Sell", recommendationFor(34.9))
}

func TestCompareFundsTie(t *testing.T) {
	a := models.FundMetrics{Return3Y: fptr(15)}
	b := models.FundMetrics{Return3Y: fptr(15.2)}

	result := CompareFunds(a, b)
	assert.Equal(t, "tie", result.Winner)
	assert.Less(t, result.Margin, 2.0)
}

func TestCompareFundsWinner(t *testing.T) {
	strong := models.FundMetrics{Return3Y: fptr(28), Alpha: fptr(8)}
	weak := models.FundMetrics{Return3Y: fptr(2), Alpha: fptr(-4)}

	result := CompareFunds(strong, weak)
	assert.Equal(t, "a", result.Winner)
	assert.GreaterOrEqual(t, result.Margin, 2.0)

	reversed := CompareFunds(weak, strong)
	assert.Equal(t, "b", reversed.Winner)
}

func TestInsightsThresholds(t *testing.T) {
	// All dimensions exceptional
	insights := insightsFor(ScoreBreakdown{
		ReturnScore: 90, RiskScore: 90, ConsistencyScore: 90, CostScore: 90, AlphaScore: 90,
	})
	assert.Len(t, insights, 5)
	assert.Contains(t, insights[0], "Exceptional")

	// Mid-band scores generate nothing
	assert.Empty(t, insightsFor(ScoreBreakdown{
		ReturnScore: 50, RiskScore: 50, ConsistencyScore: 50, CostScore: 50, AlphaScore: 50,
	}))

	// A poor dimension triggers its warning
	warnings := insightsFor(ScoreBreakdown{
		ReturnScore: 20, RiskScore: 50, ConsistencyScore: 50, CostScore: 50, AlphaScore: 50,
	})
	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "lag")
}
