package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fund-analytics-api/internal/models"
)

func holdings(code string, pairs ...interface{}) FundHoldings {
	fh := FundHoldings{SchemeCode: code, Name: "Fund " + code}
	for i := 0; i < len(pairs); i += 2 {
		fh.Holdings = append(fh.Holdings, models.FundHolding{
			Ticker:  pairs[i].(string),
			Name:    pairs[i].(string),
			Percent: pairs[i+1].(float64),
		})
	}
	return fh
}

func TestAnalyzeOverlapFundCountValidation(t *testing.T) {
	single := []FundHoldings{holdings("A", "AAPL", 50.0)}
	_, err := AnalyzeOverlap(single)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFundCount)

	eleven := make([]FundHoldings, 11)
	for i := range eleven {
		eleven[i] = holdings(string(rune('A'+i)), "AAPL", 10.0)
	}
	_, err = AnalyzeOverlap(eleven)
	assert.ErrorIs(t, err, ErrInvalidFundCount)
}

func TestAnalyzeOverlapIdenticalFunds(t *testing.T) {
	a := holdings("A", "AAPL", 50.0, "MSFT", 50.0)
	b := holdings("B", "AAPL", 50.0, "MSFT", 50.0)

	analysis, err := AnalyzeOverlap([]FundHoldings{a, b})
	require.NoError(t, err)

	require.Len(t, analysis.PairwiseOverlaps, 1)
	pair := analysis.PairwiseOverlaps[0]
	assert.InDelta(t, 100.0, pair.OverlapPercent, 1e-9)
	assert.Equal(t, 2, pair.CommonCount)
	assert.Contains(t, pair.Recommendation, "Very high")

	// Every stock is shared, nothing unique on either side
	assert.Equal(t, 2, analysis.TotalUniqueStocks)
	assert.Len(t, analysis.CommonStocks, 2)
	for _, u := range analysis.UniqueHoldings {
		assert.Equal(t, 0, u.UniqueCount)
		assert.Equal(t, 0.0, u.UniqueWeight)
	}

	// Score caps at 100 and lands in the worst rating band
	assert.Equal(t, 100.0, analysis.OverallScore)
	assert.Equal(t, "Very Poor", analysis.DiversificationRating)
}

func TestAnalyzeOverlapDisjointFunds(t *testing.T) {
	a := holdings("A", "AAPL", 60.0, "MSFT", 40.0)
	b := holdings("B", "TCS", 70.0, "INFY", 30.0)

	analysis, err := AnalyzeOverlap([]FundHoldings{a, b})
	require.NoError(t, err)

	assert.Equal(t, 0.0, analysis.PairwiseOverlaps[0].OverlapPercent)
	assert.Empty(t, analysis.CommonStocks)
	assert.Equal(t, 4, analysis.TotalUniqueStocks)
	assert.Equal(t, 0.0, analysis.OverallScore)
	assert.Equal(t, "Excellent", analysis.DiversificationRating)

	// Everything each fund holds is unique to it
	for _, u := range analysis.UniqueHoldings {
		assert.Equal(t, 2, u.UniqueCount)
		assert.InDelta(t, 100.0, u.UniqueWeight, 1e-9)
	}
}

func TestAnalyzeOverlapMinWeightRule(t *testing.T) {
	a := holdings("A", "AAPL", 10.0, "MSFT", 5.0, "GOOG", 20.0)
	b := holdings("B", "AAPL", 4.0, "MSFT", 8.0, "TCS", 30.0)

	analysis, err := AnalyzeOverlap([]FundHoldings{a, b})
	require.NoError(t, err)

	// min(10,4) + min(5,8) = 9
	pair := analysis.PairwiseOverlaps[0]
	assert.InDelta(t, 9.0, pair.OverlapPercent, 1e-9)
	assert.Equal(t, 2, pair.CommonCount)
	assert.Contains(t, pair.Recommendation, "Low overlap")
}

func TestAnalyzeOverlapSymmetric(t *testing.T) {
	a := holdings("A", "AAPL", 30.0, "MSFT", 20.0, "GOOG", 50.0)
	b := holdings("B", "AAPL", 15.0, "TCS", 85.0)

	ab, err := AnalyzeOverlap([]FundHoldings{a, b})
	require.NoError(t, err)
	ba, err := AnalyzeOverlap([]FundHoldings{b, a})
	require.NoError(t, err)

	assert.InDelta(t, ab.PairwiseOverlaps[0].OverlapPercent, ba.PairwiseOverlaps[0].OverlapPercent, 1e-9)
	assert.Equal(t, ab.OverallScore, ba.OverallScore)
}

func TestAnalyzeOverlapThreeFunds(t *testing.T) {
	a := holdings("A", "AAPL", 40.0, "MSFT", 30.0)
	b := holdings("B", "AAPL", 35.0, "TCS", 50.0)
	c := holdings("C", "AAPL", 20.0, "MSFT", 10.0, "INFY", 30.0)

	analysis, err := AnalyzeOverlap([]FundHoldings{a, b, c})
	require.NoError(t, err)

	assert.Equal(t, 3, analysis.FundCount)
	assert.Len(t, analysis.PairwiseOverlaps, 3)

	// AAPL is held by all three and sorts first
	require.NotEmpty(t, analysis.CommonStocks)
	assert.Equal(t, "AAPL", analysis.CommonStocks[0].Ticker)
	assert.Equal(t, 3, analysis.CommonStocks[0].OverlapScore)
	assert.InDelta(t, 40.0, analysis.CommonStocks[0].FundWeights["A"], 1e-9)

	// MSFT appears in two funds, TCS and INFY in one each
	assert.Len(t, analysis.CommonStocks, 2)
	assert.Equal(t, 4, analysis.TotalUniqueStocks)
}

func TestOverlapRecommendationBands(t *testing.T) {
	assert.Contains(t, overlapRecommendation(51), "Very high")
	assert.Contains(t, overlapRecommendation(30), "High overlap")
	assert.Contains(t, overlapRecommendation(15), "Moderate")
	assert.Contains(t, overlapRecommendation(14.9), "Low overlap")
}

func TestDiversificationRatingBands(t *testing.T) {
	assert.Equal(t, "Excellent", diversificationRating(19.9))
	assert.Equal(t, "Good", diversificationRating(20))
	assert.Equal(t, "Moderate", diversificationRating(35))
	assert.Equal(t, "Poor", diversificationRating(50))
	assert.Equal(t, "Very Poor", diversificationRating(70))
}
