package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Mean([]float64{}))
	assert.Equal(t, 5.0, Mean([]float64{5}))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
	assert.Equal(t, -1.0, Mean([]float64{-3, 1}))
}

func TestVariancePopulationDivisor(t *testing.T) {
	// Population variance divides by N, not N-1
	assert.InDelta(t, 2.0/3.0, Variance([]float64{1, 2, 3}), 1e-12)
	assert.Equal(t, 0.0, Variance([]float64{7}))
	assert.Equal(t, 0.0, Variance(nil))
}

func TestVarianceNeverNegative(t *testing.T) {
	cases := [][]float64{
		{},
		{0},
		{-5, -5, -5},
		{1.5, -2.5, 3.5, -4.5},
		{1e9, -1e9},
	}
	for _, xs := range cases {
		assert.GreaterOrEqual(t, Variance(xs), 0.0)
	}
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, StdDev([]float64{42}))
	assert.Equal(t, 0.0, StdDev([]float64{3, 3, 3}))
	assert.InDelta(t, math.Sqrt(5), StdDev([]float64{2, 4, 6, 8}), 1e-12)
}

func TestCovariance(t *testing.T) {
	// Mismatched lengths and empty input return 0, never panic
	assert.Equal(t, 0.0, Covariance([]float64{1, 2}, []float64{1}))
	assert.Equal(t, 0.0, Covariance(nil, nil))

	// A series covaries with itself by its variance
	xs := []float64{1, 2, 3, 4}
	assert.InDelta(t, Variance(xs), Covariance(xs, xs), 1e-12)

	// Perfectly inverse series have negative covariance
	assert.Less(t, Covariance([]float64{1, 2, 3}, []float64{3, 2, 1}), 0.0)
}

func TestPercentile(t *testing.T) {
	xs := []float64{4, 1, 3, 2}
	assert.Equal(t, 0.0, Percentile(nil, 0.5))
	assert.Equal(t, 2.0, Percentile(xs, 0.25))
	assert.Equal(t, 4.0, Percentile(xs, 0.99))
}
