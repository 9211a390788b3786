// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/spatial/r1"
)

// Clip returns value clipped to [min, max]. Values above max return
// max, and values below min return min.
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// ClipInterval clips value to an r1.Interval
func ClipInterval(value float64, interval r1.Interval) float64 {
	return Clip(value, interval.Min, interval.Max)
}

// Wrap wraps a floating point to within a minimum and maximum value
// using modular arithmetic, so that values outside [min, max] re-enter
// the interval from the opposite side.
func Wrap(value, min, max float64) float64 {
	diff := max - min
	for value > max {
		value -= diff
	}
	for value < min {
		value += diff
	}
	return value
}

// WrapInterval wraps value into an r1.Interval
func WrapInterval(value float64, interval r1.Interval) float64 {
	return Wrap(value, interval.Min, interval.Max)
}

// Min returns the smallest of its arguments
func Min(floats ...float64) float64 {
	min := floats[0]
	for _, val := range floats {
		if val < min {
			min = val
		}
	}
	return min
}

// Max returns the largest of its arguments
func Max(floats ...float64) float64 {
	max := floats[0]
	for _, val := range floats {
		if val > max {
			max = val
		}
	}
	return max
}
