package perturb

import "math"

// Indeterminate is returned when a driver carries no usable slope information.
const Indeterminate = 0.5

// Evaluate normalises the affine driver a*v+b into [0,1].
//
// Two or more coefficients: (a*v+b)/(|a|+|b|) clamped, Indeterminate when the
// denominator is zero. One coefficient: the constant clamped. None:
// Indeterminate. Non-finite coefficients also give Indeterminate.
func Evaluate(v float64, coeffs []float64) float64 {
	switch len(coeffs) {
	case 0:
		return Indeterminate
	case 1:
		if !finite(coeffs[0]) {
			return Indeterminate
		}
		return clamp01(coeffs[0])
	}

	a, b := coeffs[0], coeffs[1]
	if !finite(a) || !finite(b) || !finite(v) {
		return Indeterminate
	}

	denom := math.Abs(a) + math.Abs(b)
	if denom == 0 {
		return Indeterminate
	}
	return clamp01((a*v + b) / denom)
}

// Raw is the unnormalised driver value a*v+b, or NaN when fewer than two
// coefficients are given.
func Raw(v float64, coeffs []float64) float64 {
	if len(coeffs) < 2 {
		return math.NaN()
	}
	return coeffs[0]*v + coeffs[1]
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
