package analytics

import (
	"fmt"
	"math"
	"sort"

	"fund-analytics-api/internal/models"
)

const (
	minOverlapFunds = 2
	maxOverlapFunds = 10
)

// FundHoldings pairs a fund identity with its holdings list for overlap
// analysis
type FundHoldings struct {
	SchemeCode string               `json:"scheme_code"`
	Name       string               `json:"name"`
	Holdings   []models.FundHolding `json:"holdings"`
}

// CommonStock is a ticker held by two or more of the compared funds
type CommonStock struct {
	Ticker       string             `json:"ticker"`
	Name         string             `json:"name"`
	FundWeights  map[string]float64 `json:"fund_weights"` // scheme code -> weight
	OverlapScore int                `json:"overlap_score"` // number of funds holding it
}

// PairwiseOverlap is the min-weight overlap between one pair of funds
type PairwiseOverlap struct {
	FundA          string  `json:"fund_a"`
	FundB          string  `json:"fund_b"`
	OverlapPercent float64 `json:"overlap_percent"`
	CommonCount    int     `json:"common_count"`
	Recommendation string  `json:"recommendation"`
}

// FundUniqueHoldings reports the holdings only one fund in the set carries
type FundUniqueHoldings struct {
	SchemeCode   string  `json:"scheme_code"`
	UniqueCount  int     `json:"unique_count"`
	UniqueWeight float64 `json:"unique_weight"` // summed weight of unique holdings
}

// OverlapAnalysis is the full output of comparing 2-10 funds
type OverlapAnalysis struct {
	FundCount             int                  `json:"fund_count"`
	TotalUniqueStocks     int                  `json:"total_unique_stocks"`
	CommonStocks          []CommonStock        `json:"common_stocks"`
	PairwiseOverlaps      []PairwiseOverlap    `json:"pairwise_overlaps"`
	OverallScore          float64              `json:"overall_score"`
	DiversificationRating string               `json:"diversification_rating"`
	UniqueHoldings        []FundUniqueHoldings `json:"unique_holdings"`
}

// AnalyzeOverlap computes holdings intersection across the given funds.
// Fund counts outside [2,10] are a precondition failure surfaced as
// ErrInvalidFundCount.
func AnalyzeOverlap(funds []FundHoldings) (*OverlapAnalysis, error) {
	if len(funds) < minOverlapFunds || len(funds) > maxOverlapFunds {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFundCount, len(funds))
	}

	type tickerEntry struct {
		name    string
		weights map[string]float64 // scheme code -> weight
	}

	tickers := make(map[string]*tickerEntry)
	for _, fund := range funds {
		for _, h := range fund.Holdings {
			entry, ok := tickers[h.Ticker]
			if !ok {
				entry = &tickerEntry{name: h.Name, weights: make(map[string]float64)}
				tickers[h.Ticker] = entry
			}
			entry.weights[fund.SchemeCode] += h.Percent
		}
	}

	// Common stocks: tickers held by at least two funds
	common := make([]CommonStock, 0)
	for ticker, entry := range tickers {
		if len(entry.weights) < 2 {
			continue
		}
		weights := make(map[string]float64, len(entry.weights))
		for code, w := range entry.weights {
			weights[code] = w
		}
		common = append(common, CommonStock{
			Ticker:       ticker,
			Name:         entry.name,
			FundWeights:  weights,
			OverlapScore: len(entry.weights),
		})
	}
	sort.Slice(common, func(i, j int) bool {
		if common[i].OverlapScore != common[j].OverlapScore {
			return common[i].OverlapScore > common[j].OverlapScore
		}
		return common[i].Ticker < common[j].Ticker
	})

	// Pairwise min-weight overlap for every unordered pair
	pairwise := make([]PairwiseOverlap, 0, len(funds)*(len(funds)-1)/2)
	totalPairwise := 0.0
	for i := 0; i < len(funds); i++ {
		for j := i + 1; j < len(funds); j++ {
			overlap, count := pairOverlap(funds[i], funds[j])
			pairwise = append(pairwise, PairwiseOverlap{
				FundA:          funds[i].SchemeCode,
				FundB:          funds[j].SchemeCode,
				OverlapPercent: overlap,
				CommonCount:    count,
				Recommendation: overlapRecommendation(overlap),
			})
			totalPairwise += overlap
		}
	}
	avgPairwise := totalPairwise / float64(len(pairwise))

	// Overall score blends average pairwise overlap with the share of
	// stocks that appear in multiple funds
	overallScore := avgPairwise
	if len(tickers) > 0 {
		overallScore += float64(len(common)) / float64(len(tickers)) * 20
	}
	overallScore = math.Min(100, overallScore)

	// Per-fund unique holdings
	unique := make([]FundUniqueHoldings, 0, len(funds))
	for _, fund := range funds {
		count := 0
		weight := 0.0
		for _, h := range fund.Holdings {
			if entry, ok := tickers[h.Ticker]; ok && len(entry.weights) == 1 {
				count++
				weight += h.Percent
			}
		}
		unique = append(unique, FundUniqueHoldings{
			SchemeCode:   fund.SchemeCode,
			UniqueCount:  count,
			UniqueWeight: weight,
		})
	}

	return &OverlapAnalysis{
		FundCount:             len(funds),
		TotalUniqueStocks:     len(tickers),
		CommonStocks:          common,
		PairwiseOverlaps:      pairwise,
		OverallScore:          overallScore,
		DiversificationRating: diversificationRating(overallScore),
		UniqueHoldings:        unique,
	}, nil
}

// pairOverlap sums min(weightA, weightB) across tickers held by both funds
func pairOverlap(a, b FundHoldings) (float64, int) {
	weightsA := make(map[string]float64, len(a.Holdings))
	for _, h := range a.Holdings {
		weightsA[h.Ticker] += h.Percent
	}

	overlap := 0.0
	count := 0
	seen := make(map[string]bool, len(b.Holdings))
	for _, h := range b.Holdings {
		if seen[h.Ticker] {
			continue
		}
		seen[h.Ticker] = true
		if wa, ok := weightsA[h.Ticker]; ok {
			overlap += math.Min(wa, weightForTicker(b, h.Ticker))
			count++
		}
	}
	return overlap, count
}

func weightForTicker(f FundHoldings, ticker string) float64 {
	total := 0.0
	for _, h := range f.Holdings {
		if h.Ticker == ticker {
			total += h.Percent
		}
	}
	return total
}

func overlapRecommendation(percent float64) string {
	switch {
	case percent > 50:
		return "Very high overlap; consider replacing one of these funds"
	case percent >= 30:
		return "High overlap; the pair adds limited diversification"
	case percent >= 15:
		return "Moderate overlap; acceptable for most portfolios"
	default:
		return "Low overlap; excellent diversification between this pair"
	}
}

func diversificationRating(overallScore float64) string {
	switch {
	case overallScore < 20:
		return "Excellent"
	case overallScore < 35:
		return "Good"
	case overallScore < 50:
		return "Moderate"
	case overallScore < 70:
		return "Poor"
	default:
		return "Very Poor"
	}
}
