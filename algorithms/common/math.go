package common

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Statistics here are population statistics: every window in a recording is
// part of the population, not a sample of a larger one.

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// PopVariance calculates the population variance (divides by N)
func PopVariance(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	_, v := stat.PopMeanVariance(data, nil)
	return v
}

// PopStdDev calculates the population standard deviation
func PopStdDev(data []float64) float64 {
	return math.Sqrt(PopVariance(data))
}

// Median returns the middle value; for an even count the two middle values are averaged
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	sorted := slices.Clone(data)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// SumSquares returns the sum of squared samples
func SumSquares(data []float64) float64 {
	return floats.Dot(data, data)
}

// AllFinite reports whether no value is NaN or infinite
func AllFinite(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
