package money

import "math"

// Amounts flow through the engine as float64 rupee values and are rounded to
// two decimal places at every point of summation.

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ClampNonNegative floors negative amounts at zero.
func ClampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Abs returns the absolute value of an amount.
func Abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
