package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testEngine() *RiskEngine {
	return NewRiskEngine(DefaultConfig())
}

func TestSharpeRatioZeroVolatility(t *testing.T) {
	e := testEngine()

	// Flat series has zero volatility; the ratio degrades to 0, not Inf
	assert.Equal(t, 0.0, e.SharpeRatio([]float64{1, 1, 1, 1}))
	assert.Equal(t, 0.0, e.SharpeRatio(nil))
	assert.Equal(t, 0.0, e.SharpeRatio([]float64{5}))
}

func TestSharpeRatioPositiveExcess(t *testing.T) {
	e := testEngine()

	returns := []float64{0.5, 0.3, 0.8, -0.2, 0.6}
	sharpe := e.SharpeRatio(returns)
	assert.False(t, math.IsNaN(sharpe))
	assert.Greater(t, sharpe, 0.0)
}

func TestSortinoRatioSentinel(t *testing.T) {
	e := testEngine()

	// Every return above the risk-free rate: no downside set at all.
	// Positive excess yields the unbounded sentinel.
	assert.Equal(t, SortinoUnbounded, e.SortinoRatio([]float64{10, 12, 11}))

	// Empty series is neutral
	assert.Equal(t, 0.0, e.SortinoRatio(nil))
}

func TestSortinoRatioFiniteDownside(t *testing.T) {
	e := testEngine()

	// Daily-scale returns sit below the annual risk-free rate, so the
	// downside set is populated and the ratio is finite
	returns := []float64{0.1, -0.2, 0.3, -0.1, 0.2}
	sortino := e.SortinoRatio(returns)
	assert.False(t, math.IsNaN(sortino))
	assert.NotEqual(t, SortinoUnbounded, sortino)
}

func TestBetaDefaults(t *testing.T) {
	e := testEngine()
	returns := []float64{1, 2, 3}

	// Missing, mismatched, or flat market series all fall back to 1.0
	assert.Equal(t, 1.0, e.Beta(returns, nil))
	assert.Equal(t, 1.0, e.Beta(returns, []float64{1, 2}))
	assert.Equal(t, 1.0, e.Beta(returns, []float64{2, 2, 2}))
}

func TestBetaTracksMarket(t *testing.T) {
	e := testEngine()

	market := []float64{1, -1, 2, -2, 0.5}
	assert.InDelta(t, 1.0, e.Beta(market, market), 1e-12)

	// A fund moving at double the market has beta 2
	double := make([]float64, len(market))
	for i, m := range market {
		double[i] = 2 * m
	}
	assert.InDelta(t, 2.0, e.Beta(double, market), 1e-12)
}

func TestAlphaJensen(t *testing.T) {
	e := testEngine()

	// With beta 1 alpha is just the spread over the market
	assert.InDelta(t, 3.0, e.Alpha(15, 12, 1.0), 1e-12)

	// Expected return with rf=6.5, beta=0.5, market=12: 6.5+0.5*5.5=9.25
	assert.InDelta(t, 0.75, e.Alpha(10, 12, 0.5), 1e-12)
}

func TestMaxDrawdownAllGains(t *testing.T) {
	e := testEngine()
	assert.Equal(t, 0.0, e.MaxDrawdown([]float64{1, 2, 0, 3}))
	assert.Equal(t, 0.0, e.MaxDrawdown(nil))
}

func TestMaxDrawdownCompounds(t *testing.T) {
	e := testEngine()

	// Two 10% losses from 100: value 81, peak stays at 100, drawdown 19%
	assert.InDelta(t, 19.0, e.MaxDrawdown([]float64{-10, -10}), 1e-9)
}

func TestMaxDrawdownOrderSensitive(t *testing.T) {
	e := testEngine()

	// Loss then recovery: drawdown happens at the trough
	dd := e.MaxDrawdown([]float64{-20, 25})
	assert.InDelta(t, 20.0, dd, 1e-9)

	// Gain then loss: peak is higher so the same loss draws down the same
	dd2 := e.MaxDrawdown([]float64{25, -20})
	assert.InDelta(t, 20.0, dd2, 1e-9)
}

func varTestSeries() []float64 {
	returns := make([]float64, 100)
	for i := 0; i < 10; i++ {
		returns[i] = -float64(10 - i) // -10, -9, ... -1
	}
	for i := 10; i < 100; i++ {
		returns[i] = 1.0
	}
	return returns
}

func TestValueAtRisk(t *testing.T) {
	e := testEngine()
	returns := varTestSeries()

	// floor(0.05 * 100) = index 5 of the ascending sort → -5 → 5.0
	assert.InDelta(t, 5.0, e.ValueAtRisk(returns, 0.95), 1e-12)
	assert.Equal(t, 0.0, e.ValueAtRisk(nil, 0.95))
}

func TestValueAtRiskMonotonicInConfidence(t *testing.T) {
	e := testEngine()
	returns := varTestSeries()

	// Higher confidence looks further into the loss tail
	assert.GreaterOrEqual(t, e.ValueAtRisk(returns, 0.99), e.ValueAtRisk(returns, 0.95))
}

func TestConditionalVaR(t *testing.T) {
	e := testEngine()
	returns := varTestSeries()

	// Average of the five worst returns: (-10-9-8-7-6)/5 = -8 → 8.0
	assert.InDelta(t, 8.0, e.ConditionalVaR(returns, 0.95), 1e-12)

	// CVaR is never smaller than VaR at the same confidence
	assert.GreaterOrEqual(t, e.ConditionalVaR(returns, 0.95), e.ValueAtRisk(returns, 0.95))
}

func TestInformationRatio(t *testing.T) {
	e := testEngine()
	returns := []float64{1, 2, 3}

	// Missing market or zero tracking error both return 0
	assert.Equal(t, 0.0, e.InformationRatio(returns, nil))
	assert.Equal(t, 0.0, e.InformationRatio(returns, returns))

	// Constant outperformance also has zero tracking error
	market := []float64{0.5, 1.5, 2.5}
	assert.Equal(t, 0.0, e.InformationRatio(returns, market))

	// Varying active returns produce a finite ratio
	market2 := []float64{0.5, 2.5, 1.5}
	ir := e.InformationRatio(returns, market2)
	assert.False(t, math.IsNaN(ir))
}

func TestTreynorRatioZeroBeta(t *testing.T) {
	cfg := DefaultConfig()
	e := NewRiskEngine(cfg)

	// Build a market the fund is exactly uncorrelated with: beta 0
	returns := []float64{1, 1, -1, -1}
	market := []float64{1, -1, 1, -1}
	assert.InDelta(t, 0.0, e.Beta(returns, market), 1e-12)
	assert.Equal(t, 0.0, e.TreynorRatio(returns, market))
}

func TestMetricsNeverNaN(t *testing.T) {
	e := testEngine()

	cases := [][]float64{
		nil,
		{},
		{0},
		{1},
		{0, 0, 0},
	}
	for _, returns := range cases {
		m := e.Metrics(returns, nil)
		for name, v := range map[string]float64{
			"volatility": m.Volatility,
			"sharpe":     m.SharpeRatio,
			"sortino":    m.SortinoRatio,
			"beta":       m.Beta,
			"alpha":      m.Alpha,
			"drawdown":   m.MaxDrawdown,
			"var":        m.VaR95,
			"cvar":       m.CVaR95,
			"info":       m.InformationRatio,
			"treynor":    m.TreynorRatio,
		} {
			assert.False(t, math.IsNaN(v), "%s is NaN for %v", name, returns)
			assert.False(t, math.IsInf(v, 0), "%s is Inf for %v", name, returns)
		}
	}
}

func TestConfigurableAssumptions(t *testing.T) {
	// Market assumptions are parameters, not module constants
	custom := Config{RiskFreeRate: 4.0, MarketReturn: 10.0, TradingDays: 12}
	e := NewRiskEngine(custom)

	// Monthly annualization: mean 1% * 12 = 12% annual
	assert.InDelta(t, 12.0, e.AnnualizedReturn([]float64{1, 1, 1}), 1e-12)
	assert.InDelta(t, 2.0, e.Alpha(12, 10, 1.0), 1e-12)
}
