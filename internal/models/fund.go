package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fund represents a mutual fund scheme
type Fund struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SchemeCode   string             `bson:"scheme_code" json:"scheme_code"`
	Name         string             `bson:"name" json:"name"`
	FundHouse    string             `bson:"fund_house" json:"fund_house"`
	Category     string             `bson:"category" json:"category"`
	SubCategory  string             `bson:"sub_category,omitempty" json:"sub_category,omitempty"`
	ExpenseRatio float64            `bson:"expense_ratio" json:"expense_ratio"`
	AUM          decimal.Decimal    `bson:"aum" json:"aum"` // in crores
	ManagerName  string             `bson:"manager_name,omitempty" json:"manager_name,omitempty"`
	LaunchDate   time.Time          `bson:"launch_date,omitempty" json:"launch_date,omitempty"`
	Benchmark    string             `bson:"benchmark,omitempty" json:"benchmark,omitempty"`
	Holdings     []FundHolding      `bson:"holdings" json:"holdings"`
	Metrics      FundMetrics        `bson:"metrics" json:"metrics"`
	Metadata     FundMetadata       `bson:"metadata" json:"metadata"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// FundHolding represents a single portfolio holding of a fund.
// Weights are percentages of the fund and need not sum to 100
// (cash and unlisted positions may be implicit).
type FundHolding struct {
	Ticker  string  `bson:"ticker" json:"ticker"`
	Name    string  `bson:"name" json:"name"`
	Percent float64 `bson:"percent" json:"percent"`
	Sector  string  `bson:"sector,omitempty" json:"sector,omitempty"`
}

// NAVPoint represents one trading day's net asset value for a scheme
type NAVPoint struct {
	Date time.Time `bson:"date" json:"date"`
	NAV  float64   `bson:"nav" json:"nav"`
}

// NAVRecord is the persisted form of a NAV observation
type NAVRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SchemeCode string             `bson:"scheme_code" json:"scheme_code"`
	Date       time.Time          `bson:"date" json:"date"`
	NAV        float64            `bson:"nav" json:"nav"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// FundMetrics holds the heterogeneous fund attributes the scoring model
// consumes. Every field is optional; absent attributes are excluded from
// the composite rather than defaulted to zero.
type FundMetrics struct {
	Return1Y         *float64 `bson:"return_1y,omitempty" json:"return_1y,omitempty"`
	Return3Y         *float64 `bson:"return_3y,omitempty" json:"return_3y,omitempty"`
	Return5Y         *float64 `bson:"return_5y,omitempty" json:"return_5y,omitempty"`
	Alpha            *float64 `bson:"alpha,omitempty" json:"alpha,omitempty"`
	Beta             *float64 `bson:"beta,omitempty" json:"beta,omitempty"`
	StdDev           *float64 `bson:"std_dev,omitempty" json:"std_dev,omitempty"`
	SharpeRatio      *float64 `bson:"sharpe_ratio,omitempty" json:"sharpe_ratio,omitempty"`
	SortinoRatio     *float64 `bson:"sortino_ratio,omitempty" json:"sortino_ratio,omitempty"`
	ExpenseRatio     *float64 `bson:"expense_ratio,omitempty" json:"expense_ratio,omitempty"`
	AUM              *float64 `bson:"aum,omitempty" json:"aum,omitempty"`
	ConsistencyIndex *float64 `bson:"consistency_index,omitempty" json:"consistency_index,omitempty"`
	MaxDrawdown      *float64 `bson:"max_drawdown,omitempty" json:"max_drawdown,omitempty"`
	InformationRatio *float64 `bson:"information_ratio,omitempty" json:"information_ratio,omitempty"`
}

// FundMetadata tracks computation bookkeeping for a fund
type FundMetadata struct {
	LastCalculated      time.Time `bson:"last_calculated" json:"last_calculated"`
	LastNAVDate         time.Time `bson:"last_nav_date,omitempty" json:"last_nav_date,omitempty"`
	LastNAVRefresh      time.Time `bson:"last_nav_refresh,omitempty" json:"last_nav_refresh,omitempty"`
	NAVPointsCount      int       `bson:"nav_points_count" json:"nav_points_count"`
	CalculationVersion  string    `bson:"calculation_version" json:"calculation_version"`
	NeedsRecalculation  bool      `bson:"needs_recalculation" json:"needs_recalculation"`
	CalculationDuration int64     `bson:"calculation_duration,omitempty" json:"calculation_duration,omitempty"` // milliseconds
}

// ScoreSnapshot is a persisted point-in-time smart score, pruned by TTL
type ScoreSnapshot struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SchemeCode string             `bson:"scheme_code" json:"scheme_code"`
	Score      float64            `bson:"score" json:"score"`
	Grade      string             `bson:"grade" json:"grade"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
}

// ManagerTenure is the window a manager has run a fund; End is zero while ongoing
type ManagerTenure struct {
	SchemeCode string    `bson:"scheme_code" json:"scheme_code"`
	FundName   string    `bson:"fund_name" json:"fund_name"`
	Start      time.Time `bson:"start" json:"start"`
	End        time.Time `bson:"end,omitempty" json:"end,omitempty"`
}

// ManagerRecord is a manager's track record, assembled on demand from the
// funds they manage. Never persisted as a derived entity.
type ManagerRecord struct {
	Name       string          `json:"name"`
	Funds      []ManagerTenure `json:"funds"`
	FundCount  int             `json:"fund_count"`
	AvgReturn  *float64        `json:"avg_return_3y,omitempty"`
	BestFund   string          `json:"best_fund,omitempty"`
	AssembleAt time.Time       `json:"assembled_at"`
}

// GetHoldingByTicker returns a holding by ticker symbol
func (f *Fund) GetHoldingByTicker(ticker string) (*FundHolding, bool) {
	for i := range f.Holdings {
		if f.Holdings[i].Ticker == ticker {
			return &f.Holdings[i], true
		}
	}
	return nil, false
}

// MarkForRecalculation flags the fund so the precompute job picks it up
func (f *Fund) MarkForRecalculation() {
	f.Metadata.NeedsRecalculation = true
	f.UpdatedAt = time.Now()
}

// MarkCalculated records a completed metrics computation
func (f *Fund) MarkCalculated(duration int64) {
	f.Metadata.LastCalculated = time.Now()
	f.Metadata.NeedsRecalculation = false
	f.Metadata.CalculationDuration = duration
	f.UpdatedAt = time.Now()
}

// IsStale checks whether computed metrics are older than maxAge
func (f *Fund) IsStale(maxAge time.Duration) bool {
	return f.Metadata.NeedsRecalculation ||
		time.Since(f.Metadata.LastCalculated) > maxAge
}

// Validate validates fund data before persistence
func (f *Fund) Validate() error {
	if f.SchemeCode == "" {
		return fmt.Errorf("scheme code is required")
	}

	if f.Name == "" {
		return fmt.Errorf("fund name is required")
	}

	for i, holding := range f.Holdings {
		if holding.Ticker == "" {
			return fmt.Errorf("holding %d: ticker is required", i)
		}
		if holding.Percent < 0 {
			return fmt.Errorf("holding %s: weight cannot be negative", holding.Ticker)
		}
	}

	return nil
}

// Validate checks the NAV invariant before persistence
func (n *NAVRecord) Validate() error {
	if n.SchemeCode == "" {
		return fmt.Errorf("scheme code is required")
	}
	if n.NAV <= 0 {
		return fmt.Errorf("nav must be positive, got %f", n.NAV)
	}
	return nil
}
