package analytics

import (
	"math"

	"fund-analytics-api/internal/models"
)

// MACD periods (fast/slow/signal) and RSI lookback
const (
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
	rsiPeriod        = 14
)

// TrendIndicators are the momentum signals derived from a NAV series
type TrendIndicators struct {
	RSI           float64 `json:"rsi"`
	MACDLine      float64 `json:"macd_line"`
	MACDSignal    float64 `json:"macd_signal"`
	MACDHistogram float64 `json:"macd_histogram"`
	TrendSlope    float64 `json:"trend_slope"` // fitted change over the window, % of mean NAV
	Trend         string  `json:"trend"`
	Support       float64 `json:"support"`
	Resistance    float64 `json:"resistance"`
}

// HorizonPrediction is the extrapolated return for one horizon
type HorizonPrediction struct {
	Horizon         string  `json:"horizon"`
	PredictedReturn float64 `json:"predicted_return"`
}

// Prediction is the full predictor output. InsufficientData marks the
// zero-valued result returned for series shorter than the minimum.
type Prediction struct {
	Indicators       TrendIndicators     `json:"indicators"`
	Predictions      []HorizonPrediction `json:"predictions"`
	Confidence       float64             `json:"confidence"`
	DataPoints       int                 `json:"data_points"`
	InsufficientData bool                `json:"insufficient_data"`
}

// Predictor derives momentum indicators and short-horizon return
// extrapolations from NAV history.
type Predictor struct {
	cfg Config
}

// NewPredictor creates a predictor with the given assumptions
func NewPredictor(cfg Config) *Predictor {
	if cfg.TradingDays <= 0 {
		cfg.TradingDays = DefaultConfig().TradingDays
	}
	if cfg.MinDataPoints <= 0 {
		cfg.MinDataPoints = DefaultConfig().MinDataPoints
	}
	return &Predictor{cfg: cfg}
}

// Predict computes indicators and horizon predictions. A series below the
// minimum length returns a zero prediction with zero confidence and the
// insufficient-data flag set, never an extrapolation from too little
// history.
func (p *Predictor) Predict(navs []models.NAVPoint) *Prediction {
	if len(navs) < p.cfg.MinDataPoints {
		return &Prediction{
			Predictions: []HorizonPrediction{
				{Horizon: "1M"}, {Horizon: "3M"}, {Horizon: "6M"}, {Horizon: "1Y"},
			},
			DataPoints:       len(navs),
			InsufficientData: true,
		}
	}

	sorted := SortNAVs(navs)
	prices := NAVValues(sorted)
	returns := ReturnsFromNAVs(sorted)

	macdLine, macdSignal := p.macd(prices)
	slope := p.trendSlope(prices)

	indicators := TrendIndicators{
		RSI:           p.rsi(prices),
		MACDLine:      macdLine,
		MACDSignal:    macdSignal,
		MACDHistogram: macdLine - macdSignal,
		TrendSlope:    slope,
		Trend:         trendLabel(slope),
		Support:       Percentile(prices, 0.25),
		Resistance:    Percentile(prices, 0.75),
	}

	latestReturn := 0.0
	if len(returns) > 0 {
		latestReturn = returns[len(returns)-1]
	}
	meanReturn := Mean(returns)

	// Per-period base blends recency and the long-run average
	base := 0.7*latestReturn + 0.3*meanReturn

	horizons := []struct {
		label string
		days  int
	}{
		{"1M", 21},
		{"3M", 63},
		{"6M", 126},
		{"1Y", 252},
	}

	predictions := make([]HorizonPrediction, 0, len(horizons))
	for _, h := range horizons {
		horizonFraction := float64(h.days) / float64(p.cfg.TradingDays)
		predicted := base*float64(h.days) + slope*horizonFraction
		predictions = append(predictions, HorizonPrediction{
			Horizon:         h.label,
			PredictedReturn: predicted,
		})
	}

	return &Prediction{
		Indicators:  indicators,
		Predictions: predictions,
		Confidence:  p.confidence(returns),
		DataPoints:  len(sorted),
	}
}

// rsi computes the Relative Strength Index over the last rsiPeriod changes
func (p *Predictor) rsi(prices []float64) float64 {
	if len(prices) < rsiPeriod+1 {
		return 50 // neutral default
	}

	var gains, losses float64
	start := len(prices) - rsiPeriod
	for i := start; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / rsiPeriod
	avgLoss := losses / rsiPeriod

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// ema computes an exponential moving average series seeded with the first
// value
func ema(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}

	multiplier := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = (values[i]-out[i-1])*multiplier + out[i-1]
	}
	return out
}

// macd returns the latest MACD line (fast EMA minus slow EMA) and its
// signal line (EMA of the MACD series)
func (p *Predictor) macd(prices []float64) (line, signal float64) {
	if len(prices) < macdSlowPeriod {
		return 0, 0
	}

	fast := ema(prices, macdFastPeriod)
	slow := ema(prices, macdSlowPeriod)

	macdSeries := make([]float64, len(prices))
	for i := range prices {
		macdSeries[i] = fast[i] - slow[i]
	}

	signalSeries := ema(macdSeries, macdSignalPeriod)
	return macdSeries[len(macdSeries)-1], signalSeries[len(signalSeries)-1]
}

// trendSlope fits a least-squares line through the price series and
// expresses the fitted change across the window as a percentage of the
// mean price.
func (p *Predictor) trendSlope(prices []float64) float64 {
	n := float64(len(prices))
	if n < 2 {
		return 0
	}

	meanX := (n - 1) / 2
	meanY := Mean(prices)
	if meanY == 0 {
		return 0
	}

	var num, den float64
	for i, price := range prices {
		dx := float64(i) - meanX
		num += dx * (price - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}

	slope := num / den
	return slope * n / meanY * 100
}

func trendLabel(slope float64) string {
	switch {
	case slope > 2:
		return "Strong Uptrend"
	case slope > 0.5:
		return "Uptrend"
	case slope > -0.5:
		return "Sideways"
	case slope > -2:
		return "Downtrend"
	default:
		return "Strong Downtrend"
	}
}

// confidence blends inverse volatility and data adequacy, each worth up
// to 50 points
func (p *Predictor) confidence(returns []float64) float64 {
	vol := StdDev(returns)
	volScore := 50 / (1 + vol)

	coverage := float64(len(returns)) / float64(p.cfg.TradingDays)
	lengthScore := math.Min(50, coverage*50)

	return volScore + lengthScore
}
