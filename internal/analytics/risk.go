package analytics

import (
	"math"
	"sort"
)

// RiskEngine computes risk and performance metrics over percentage return
// series. All methods are pure and degrade to documented neutral defaults
// on short or degenerate input instead of returning NaN or Inf; callers
// needing a hard failure check series length themselves.
type RiskEngine struct {
	cfg Config
}

// NewRiskEngine creates a risk engine with the given market assumptions
func NewRiskEngine(cfg Config) *RiskEngine {
	if cfg.TradingDays <= 0 {
		cfg.TradingDays = DefaultConfig().TradingDays
	}
	return &RiskEngine{cfg: cfg}
}

// RiskMetrics is the full metric set for one return series
type RiskMetrics struct {
	Volatility           float64 `json:"volatility"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	SortinoRatio         float64 `json:"sortino_ratio"`
	Beta                 float64 `json:"beta"`
	Alpha                float64 `json:"alpha"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	VaR95                float64 `json:"var_95"`
	CVaR95               float64 `json:"cvar_95"`
	InformationRatio     float64 `json:"information_ratio"`
	TreynorRatio         float64 `json:"treynor_ratio"`
	AnnualizedReturn     float64 `json:"annualized_return"`
}

// Metrics computes every metric for a return series. market may be nil or
// of mismatched length; beta-dependent metrics then fall back to their
// neutral defaults.
func (e *RiskEngine) Metrics(returns, market []float64) RiskMetrics {
	beta := e.Beta(returns, market)
	portfolioAnnual := e.AnnualizedReturn(returns)
	marketAnnual := e.cfg.MarketReturn
	if len(market) > 0 {
		marketAnnual = e.AnnualizedReturn(market)
	}

	return RiskMetrics{
		Volatility:           e.Volatility(returns),
		AnnualizedVolatility: e.annualizedVolatility(returns),
		SharpeRatio:          e.SharpeRatio(returns),
		SortinoRatio:         e.SortinoRatio(returns),
		Beta:                 beta,
		Alpha:                e.Alpha(portfolioAnnual, marketAnnual, beta),
		MaxDrawdown:          e.MaxDrawdown(returns),
		VaR95:                e.ValueAtRisk(returns, e.confidence()),
		CVaR95:               e.ConditionalVaR(returns, e.confidence()),
		InformationRatio:     e.InformationRatio(returns, market),
		TreynorRatio:         e.TreynorRatio(returns, market),
		AnnualizedReturn:     portfolioAnnual,
	}
}

// Volatility is the population standard deviation of the return series,
// not annualized. Ratio calculations annualize by sqrt(trading days).
func (e *RiskEngine) Volatility(returns []float64) float64 {
	return StdDev(returns)
}

func (e *RiskEngine) annualizedVolatility(returns []float64) float64 {
	return StdDev(returns) * math.Sqrt(float64(e.cfg.TradingDays))
}

// AnnualizedReturn scales the mean periodic return to an annual figure
func (e *RiskEngine) AnnualizedReturn(returns []float64) float64 {
	return Mean(returns) * float64(e.cfg.TradingDays)
}

// SharpeRatio is the annualized excess return over annualized volatility.
// Zero volatility returns 0.
func (e *RiskEngine) SharpeRatio(returns []float64) float64 {
	vol := e.annualizedVolatility(returns)
	if vol == 0 {
		return 0
	}
	return (e.AnnualizedReturn(returns) - e.cfg.RiskFreeRate) / vol
}

// SortinoRatio uses downside deviation measured against the risk-free
// rate. The squared deviations are divided by the full series length,
// not the downside count. A series with no downside returns yields the
// SortinoUnbounded sentinel when the excess return is positive, else 0.
func (e *RiskEngine) SortinoRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	rf := e.cfg.RiskFreeRate
	sumSquares := 0.0
	downsideCount := 0

	for _, r := range returns {
		if r < rf {
			diff := r - rf
			sumSquares += diff * diff
			downsideCount++
		}
	}

	excess := e.AnnualizedReturn(returns) - rf

	if downsideCount == 0 {
		if excess > 0 {
			return SortinoUnbounded
		}
		return 0
	}

	downsideDev := math.Sqrt(sumSquares/float64(len(returns))) * math.Sqrt(float64(e.cfg.TradingDays))
	if downsideDev == 0 {
		if excess > 0 {
			return SortinoUnbounded
		}
		return 0
	}

	return excess / downsideDev
}

// Beta is covariance(returns, market) / variance(market). A missing,
// mismatched or flat market series returns the neutral market beta 1.0.
func (e *RiskEngine) Beta(returns, market []float64) float64 {
	if len(market) == 0 || len(returns) != len(market) {
		return 1.0
	}

	marketVar := Variance(market)
	if marketVar == 0 {
		return 1.0
	}

	return Covariance(returns, market) / marketVar
}

// Alpha is Jensen's alpha from annualized return figures:
// portfolio - [rf + beta * (market - rf)]
func (e *RiskEngine) Alpha(portfolioAnnualReturn, marketAnnualReturn, beta float64) float64 {
	expected := e.cfg.RiskFreeRate + beta*(marketAnnualReturn-e.cfg.RiskFreeRate)
	return portfolioAnnualReturn - expected
}

// MaxDrawdown simulates a cumulative value starting at 100, compounding
// each percentage return in chronological order, and reports the largest
// peak-to-trough decline in percent.
func (e *RiskEngine) MaxDrawdown(returns []float64) float64 {
	value := 100.0
	peak := value
	maxDrawdown := 0.0

	for _, r := range returns {
		value *= 1 + r/100
		if value > peak {
			peak = value
		}
		if peak > 0 {
			drawdown := (peak - value) / peak * 100
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}

// ValueAtRisk is the historical VaR at the given confidence level,
// reported as a loss magnitude (absolute value).
func (e *RiskEngine) ValueAtRisk(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return math.Abs(sorted[idx])
}

// ConditionalVaR (expected shortfall) averages the returns below the VaR
// cutoff index; absolute value. With an empty tail the VaR value itself
// is reported.
func (e *RiskEngine) ConditionalVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx == 0 {
		return math.Abs(sorted[0])
	}

	sum := 0.0
	for i := 0; i < idx; i++ {
		sum += sorted[i]
	}

	return math.Abs(sum / float64(idx))
}

// InformationRatio is the mean active return over its own volatility
// (tracking error). Missing market data or zero tracking error returns 0.
func (e *RiskEngine) InformationRatio(returns, market []float64) float64 {
	if len(market) == 0 || len(returns) != len(market) {
		return 0
	}

	active := make([]float64, len(returns))
	for i := range returns {
		active[i] = returns[i] - market[i]
	}

	trackingError := StdDev(active)
	if trackingError == 0 {
		return 0
	}

	return Mean(active) / trackingError
}

// TreynorRatio is the annualized excess return per unit of beta.
// Zero beta returns 0.
func (e *RiskEngine) TreynorRatio(returns, market []float64) float64 {
	beta := e.Beta(returns, market)
	if beta == 0 {
		return 0
	}
	return (e.AnnualizedReturn(returns) - e.cfg.RiskFreeRate) / beta
}

func (e *RiskEngine) confidence() float64 {
	if e.cfg.VaRConfidence > 0 && e.cfg.VaRConfidence < 1 {
		return e.cfg.VaRConfidence
	}
	return 0.95
}
