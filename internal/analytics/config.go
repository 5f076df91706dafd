package analytics

import "errors"

// Config carries the market assumptions every calculator shares. Callers
// thread it through explicitly so tests can vary the assumptions.
type Config struct {
	RiskFreeRate  float64 `json:"risk_free_rate"`  // annual, percent
	MarketReturn  float64 `json:"market_return"`   // annual, percent
	TradingDays   int     `json:"trading_days"`    // periods per year for annualization
	VaRConfidence float64 `json:"var_confidence"`  // default confidence level
	MinDataPoints int     `json:"min_data_points"` // NAV points required by optimizer/predictor
}

// DefaultConfig returns the market assumptions used across the service
func DefaultConfig() Config {
	return Config{
		RiskFreeRate:  6.5,
		MarketReturn:  12.0,
		TradingDays:   252,
		VaRConfidence: 0.95,
		MinDataPoints: 30,
	}
}

// SortinoUnbounded is reported when a series has no downside returns at
// all and the excess return is positive. It marks "effectively infinite",
// not a computed ratio, and is intentional.
const SortinoUnbounded = 999.0

var (
	// ErrInsufficientData is returned when a NAV series is too short for
	// the requested analysis.
	ErrInsufficientData = errors.New("insufficient NAV data for analysis")

	// ErrInvalidFundCount is returned when overlap analysis is requested
	// for fewer than 2 or more than 10 funds.
	ErrInvalidFundCount = errors.New("fund count must be between 2 and 10")
)
