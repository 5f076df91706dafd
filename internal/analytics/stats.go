package analytics

import (
	"math"
	"sort"
)

// Mean calculates the arithmetic mean of a series. Empty input returns 0;
// callers treat 0 from a near-empty series as "not computed".
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}

	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Variance calculates the population variance (divisor N, not N-1)
func Variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}

	mean := Mean(xs)
	sum := 0.0
	for _, x := range xs {
		diff := x - mean
		sum += diff * diff
	}
	return sum / float64(len(xs))
}

// StdDev calculates the population standard deviation
func StdDev(xs []float64) float64 {
	return math.Sqrt(Variance(xs))
}

// Covariance calculates the paired population covariance (divisor N).
// Mismatched or empty inputs return 0.
func Covariance(xs, ys []float64) float64 {
	if len(xs) == 0 || len(xs) != len(ys) {
		return 0
	}

	meanX := Mean(xs)
	meanY := Mean(ys)

	sum := 0.0
	for i := range xs {
		sum += (xs[i] - meanX) * (ys[i] - meanY)
	}
	return sum / float64(len(xs))
}

// Percentile returns the p-th percentile (0..1) of the series using the
// nearest-rank method over a sorted copy. Empty input returns 0.
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}

	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
