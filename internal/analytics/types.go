// Package analytics provides the descriptive statistics shared by the dataset
// fingerprint packages (periodicity, distribution, occurrence).
package analytics

import (
	"errors"
	"math"
)

var (
	// ErrEmptyDataset is returned when a statistic needs at least one value.
	ErrEmptyDataset = errors.New("empty dataset: statistic is undefined")

	// ErrInsufficientData is returned by sample statistics that need two values.
	ErrInsufficientData = errors.New("insufficient data: at least two values required")
)

// Number is any value type the helpers accept.
type Number interface {
	~int | ~int32 | ~int64 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// Floats converts a numeric slice to float64 values.
func Floats[T Number](values []T) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// Sum returns the sum of all values (0 for an empty slice)
func Sum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// Min returns the smallest value
func Min(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyDataset
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m, nil
}

// Max returns the largest value
func Max(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyDataset
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m, nil
}

// Mean returns sum / count
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyDataset
	}
	return Sum(values) / float64(len(values)), nil
}

// PStdDev calculates the population standard deviation.
func PStdDev(values []float64) (float64, error) {
	mean, err := Mean(values)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(sumSquares(values, mean) / float64(len(values))), nil
}

// Variance calculates the sample variance (divisor n-1).
func Variance(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyDataset
	}
	if len(values) < 2 {
		return 0, ErrInsufficientData
	}
	mean, _ := Mean(values)
	return sumSquares(values, mean) / float64(len(values)-1), nil
}

func sumSquares(values []float64, mean float64) float64 {
	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return sumSq
}

// Range holds the minimum, average and maximum of a sequence.
type Range struct {
	Min     float64 `json:"min"`
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
}

// Describe computes min/avg/max in one call.
func Describe(values []float64) (Range, error) {
	if len(values) == 0 {
		return Range{}, ErrEmptyDataset
	}
	minV, _ := Min(values)
	maxV, _ := Max(values)
	avg, _ := Mean(values)
	return Range{Min: minV, Average: avg, Max: maxV}, nil
}
