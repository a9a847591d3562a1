package classify

import "math"

// DefaultSignificantDigits is the precision used by RoundBoundaries callers
// that have no configured value.
const DefaultSignificantDigits = 2

// RoundBoundaries rounds boundaries to significantDigits significant digits:
// the first one down, the last one up and the interior ones to the nearest
// value, so the rounded envelope always contains the original one.
// Each value is rounded at its own scale. The result is non-decreasing when
// the input is, and rounding an already rounded list returns it unchanged.
func RoundBoundaries(boundaries []float64, significantDigits int) []float64 {
	if len(boundaries) == 0 {
		return nil
	}
	out := make([]float64, len(boundaries))
	last := len(boundaries) - 1
	for i, b := range boundaries {
		exp := scaleExponent(b, significantDigits)
		switch {
		case i == 0:
			out[i] = roundAt(b, exp, math.Floor)
		case i == last:
			out[i] = roundAt(b, exp, math.Ceil)
		default:
			out[i] = roundAt(b, exp, math.Round)
		}
	}
	return out
}

func scaleExponent(n float64, digits int) int {
	if n == 0 {
		return 1
	}
	return int(math.Floor(math.Log10(math.Abs(n)))) + 1 - digits
}

// roundAt applies fn on n expressed in units of 10^exp.
func roundAt(n float64, exp int, fn func(float64) float64) float64 {
	if exp >= 0 {
		p := math.Pow10(exp)
		return fn(snap(n/p)) * p
	}
	p := math.Pow10(-exp)
	return fn(snap(n*p)) / p
}

// snap removes the binary representation error of a value that is meant to be
// an integer, e.g. 0.29*100 = 28.999999999999996.
func snap(x float64) float64 {
	if r := math.Round(x); math.Abs(x-r) < 1e-9 {
		return r
	}
	return x
}
