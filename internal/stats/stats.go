// Package stats provides the small statistical helpers shared by the
// recurrence detector and the budget summary aggregator.
package stats

import (
	"math"
	"sort"
)

// Median returns the middle value of the sample; for an even count the
// two middle values are truly averaged (never integer-truncated). Empty
// input yields 0.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// MedianCents is Median over integer cents, rounded half-up back to the
// input unit for the even-count case.
func MedianCents(values []int64) int64 {
	if len(values) == 0 {
		return 0
	}
	floats := make([]float64, len(values))
	for i, v := range values {
		floats[i] = float64(v)
	}
	return roundHalfUp(Median(floats))
}

// TrimmedMean sorts the sample, drops trimPercent/2 of the values from
// each tail, and averages the remainder. trimPercent is in [0,100].
// Empty input yields 0; when trimming would discard everything the
// plain mean is returned.
func TrimmedMean(values []float64, trimPercent float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	drop := int(float64(n) * trimPercent / 100 / 2)
	if 2*drop >= n {
		drop = 0
	}
	return Mean(sorted[drop : n-drop])
}

// Mean returns the arithmetic mean, 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// MeanCents averages integer cents with half-up rounding.
func MeanCents(values []int64) int64 {
	if len(values) == 0 {
		return 0
	}
	floats := make([]float64, len(values))
	for i, v := range values {
		floats[i] = float64(v)
	}
	return roundHalfUp(Mean(floats))
}

// roundHalfUp rounds half away from zero to the nearest integer.
func roundHalfUp(v float64) int64 {
	if v >= 0 {
		return int64(math.Floor(v + 0.5))
	}
	return -int64(math.Floor(-v + 0.5))
}
