package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fund-analytics-api/internal/models"
)

func dailySeries(values []float64) []models.NAVPoint {
	navs := make([]models.NAVPoint, len(values))
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		navs[i] = models.NAVPoint{Date: start.AddDate(0, 0, i), NAV: v}
	}
	return navs
}

func risingSeries(n int, start, step float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = start + float64(i)*step
	}
	return values
}

func TestPredictInsufficientData(t *testing.T) {
	p := NewPredictor(DefaultConfig())

	result := p.Predict(dailySeries(risingSeries(10, 100, 1)))

	assert.True(t, result.InsufficientData)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, 10, result.DataPoints)
	assert.Equal(t, 0.0, result.Indicators.RSI)

	// The four horizons are still present, zero-valued
	require.Len(t, result.Predictions, 4)
	for _, h := range result.Predictions {
		assert.Equal(t, 0.0, h.PredictedReturn)
	}
}

func TestPredictRisingSeries(t *testing.T) {
	p := NewPredictor(DefaultConfig())

	result := p.Predict(dailySeries(risingSeries(60, 100, 1)))
	require.False(t, result.InsufficientData)

	// Monotonically rising prices: RSI pegs at 100, trend is strongly up
	assert.Equal(t, 100.0, result.Indicators.RSI)
	assert.Equal(t, "Strong Uptrend", result.Indicators.Trend)
	assert.Greater(t, result.Indicators.TrendSlope, 2.0)
	assert.Greater(t, result.Indicators.MACDLine, 0.0)

	for _, h := range result.Predictions {
		assert.Greater(t, h.PredictedReturn, 0.0)
	}
}

func TestPredictFallingSeries(t *testing.T) {
	p := NewPredictor(DefaultConfig())

	result := p.Predict(dailySeries(risingSeries(60, 200, -1)))
	require.False(t, result.InsufficientData)

	assert.Less(t, result.Indicators.RSI, 50.0)
	assert.Equal(t, "Strong Downtrend", result.Indicators.Trend)
	assert.Less(t, result.Indicators.MACDLine, 0.0)
}

func TestPredictFlatSeries(t *testing.T) {
	p := NewPredictor(DefaultConfig())

	flat := make([]float64, 60)
	for i := range flat {
		flat[i] = 100
	}
	result := p.Predict(dailySeries(flat))
	require.False(t, result.InsufficientData)

	assert.Equal(t, "Sideways", result.Indicators.Trend)
	assert.Equal(t, 0.0, result.Indicators.TrendSlope)
	assert.Equal(t, 100.0, result.Indicators.Support)
	assert.Equal(t, 100.0, result.Indicators.Resistance)
	for _, h := range result.Predictions {
		assert.Equal(t, 0.0, h.PredictedReturn)
	}
}

func TestPredictSupportBelowResistance(t *testing.T) {
	p := NewPredictor(DefaultConfig())

	// Oscillating but bounded series
	values := make([]float64, 80)
	for i := range values {
		values[i] = 100 + float64(i%10)
	}
	result := p.Predict(dailySeries(values))
	require.False(t, result.InsufficientData)

	assert.LessOrEqual(t, result.Indicators.Support, result.Indicators.Resistance)
	assert.GreaterOrEqual(t, result.Indicators.Support, 100.0)
	assert.LessOrEqual(t, result.Indicators.Resistance, 109.0)
}

func TestPredictUnsortedInputMatchesSorted(t *testing.T) {
	p := NewPredictor(DefaultConfig())

	sorted := dailySeries(risingSeries(60, 100, 1))
	reversed := make([]models.NAVPoint, len(sorted))
	for i, n := range sorted {
		reversed[len(sorted)-1-i] = n
	}

	a := p.Predict(sorted)
	b := p.Predict(reversed)
	assert.Equal(t, a.Indicators, b.Indicators)
	assert.Equal(t, a.Predictions, b.Predictions)
}

func TestPredictConfidence(t *testing.T) {
	p := NewPredictor(DefaultConfig())

	// A calm year-long series maxes the length half and most of the
	// volatility half
	calm := p.Predict(dailySeries(risingSeries(300, 100, 0.01)))
	assert.Greater(t, calm.Confidence, 80.0)
	assert.LessOrEqual(t, calm.Confidence, 100.0)

	// A short choppy series scores much lower
	choppy := make([]float64, 40)
	for i := range choppy {
		if i%2 == 0 {
			choppy[i] = 100
		} else {
			choppy[i] = 110
		}
	}
	short := p.Predict(dailySeries(choppy))
	assert.Less(t, short.Confidence, calm.Confidence)
}

func TestTrendLabelBands(t *testing.T) {
	assert.Equal(t, "Strong Uptrend", trendLabel(2.1))
	assert.Equal(t, "Uptrend", trendLabel(2))
	assert.Equal(t, "Uptrend", trendLabel(0.6))
	assert.Equal(t, "Sideways", trendLabel(0.5))
	assert.Equal(t, "Sideways", trendLabel(0))
	assert.Equal(t, "Downtrend", trendLabel(-0.5))
	assert.Equal(t, "Strong Downtrend", trendLabel(-2))
}

func TestEMASeedsWithFirstValue(t *testing.T) {
	series := ema([]float64{10, 20, 30}, 9)
	require.Len(t, series, 3)
	assert.Equal(t, 10.0, series[0])
	assert.Greater(t, series[2], series[1])
	assert.Less(t, series[2], 30.0)

	assert.Nil(t, ema(nil, 9))
}
