package analytics

import (
	"sort"

	"fund-analytics-api/internal/models"
)

// SortNAVs returns a copy of the series sorted ascending by date.
// Callers pass NAV history in both orders, so every order-sensitive
// calculation sorts its input first.
func SortNAVs(navs []models.NAVPoint) []models.NAVPoint {
	sorted := make([]models.NAVPoint, len(navs))
	copy(sorted, navs)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// ReturnsFromNAVs derives a percentage return series from consecutive NAV
// observations: r[i] = (nav[i+1]-nav[i])/nav[i] * 100. The input is sorted
// ascending first. Observations with a non-positive previous NAV are
// skipped rather than producing an infinite return.
func ReturnsFromNAVs(navs []models.NAVPoint) []float64 {
	if len(navs) < 2 {
		return nil
	}

	sorted := SortNAVs(navs)
	returns := make([]float64, 0, len(sorted)-1)

	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1].NAV
		if prev <= 0 {
			continue
		}
		returns = append(returns, (sorted[i].NAV-prev)/prev*100)
	}

	return returns
}

// NAVValues extracts the price column from a NAV series, preserving order
func NAVValues(navs []models.NAVPoint) []float64 {
	values := make([]float64, len(navs))
	for i, n := range navs {
		values[i] = n.NAV
	}
	return values
}
