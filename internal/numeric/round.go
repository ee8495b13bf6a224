package numeric

import (
	"math"
	"strconv"
)

// RoundHalfUp rounds to the nearest integer, with halves going towards
// positive infinity (-2.5 becomes -2).
func RoundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// RoundTo rounds n to the given number of decimal digits. The scaled value
// is first fixed at 11 decimals so representation error such as
// 1.005*100 == 100.49999999999999 does not leak into the result.
func RoundTo(n float64, digits int) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return n
	}
	if digits < 0 {
		digits = 0
	}
	m := math.Pow(10, float64(digits))
	scaled, err := strconv.ParseFloat(strconv.FormatFloat(n*m, 'f', 11, 64), 64)
	if err != nil {
		return math.NaN()
	}
	out := RoundHalfUp(scaled) / m
	fixed, err := strconv.ParseFloat(strconv.FormatFloat(out, 'f', digits, 64), 64)
	if err != nil {
		return out
	}
	return fixed
}

// RoundToMultiple rounds x up to the next multiple of m.
func RoundToMultiple(x, m float64) float64 {
	if m == 0 {
		return x
	}
	return math.Ceil(x/m) * m
}
