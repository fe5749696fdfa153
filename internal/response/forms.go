package response

import "math"

// Form is the closed-form family of a response function.
type Form int

const (
	Affine Form = iota
	ExpRatio
	Step
	Logistic
	Rational
	RationalOffset
)

func (f Form) String() string {
	switch f {
	case Affine:
		return "affine"
	case ExpRatio:
		return "exp-ratio"
	case Step:
		return "step"
	case Logistic:
		return "logistic"
	case Rational:
		return "rational"
	case RationalOffset:
		return "rational+offset"
	}
	return "unknown"
}

// Arity is the number of coefficients a form consumes.
func (f Form) Arity() int {
	switch f {
	case Step, RationalOffset:
		return 3
	}
	return 2
}

// Neutral is returned when a normaliser degenerates.
const Neutral = 0.5

// denomFloor keeps rational denominators away from zero as x -> -b.
const denomFloor = 0.01

// rationalFallback normalises a rational form whose b is not positive.
const rationalFallback = 10.0

// apply evaluates form f at x with coefficients p (len(p) >= f.Arity()).
// The result is clamped to [0,1].
func apply(f Form, x float64, p []float64) float64 {
	switch f {
	case Affine:
		return affine(x, p[0], p[1])
	case ExpRatio:
		return expRatio(x, p[0], p[1])
	case Step:
		return step(x, p[0], p[1], p[2])
	case Logistic:
		return logistic(x, p[0], p[1])
	case Rational:
		return rational(x, p[0], p[1])
	case RationalOffset:
		return rationalOffset(x, p[0], p[1], p[2])
	}
	return Neutral
}

// affine is (a*x+b)/(|a|+|b|).
func affine(x, a, b float64) float64 {
	denom := math.Abs(a) + math.Abs(b)
	if denom == 0 {
		return Neutral
	}
	return clamp01((a*x + b) / denom)
}

// expRatio is a*e^x / (1 + b*(e^x - 1)).
func expRatio(x, a, b float64) float64 {
	ex := math.Exp(x)
	return clamp01(a * ex / (1 + b*(ex-1)))
}

func step(x, low, threshold, high float64) float64 {
	if x < threshold {
		return clamp01(low)
	}
	return clamp01(high)
}

// logistic is 1/(1+e^-(scale*x-shift)).
func logistic(x, scale, shift float64) float64 {
	return clamp01(1 / (1 + math.Exp(-(x*scale - shift))))
}

// rational is a/(x+b) normalised by its value at x=0.
func rational(x, a, b float64) float64 {
	raw := a / math.Max(denomFloor, x+b)
	peak := rationalFallback
	if b > 0 {
		peak = a / b
	}
	if peak <= 0 {
		return Neutral
	}
	return clamp01(raw / peak)
}

// rationalOffset is a/(x+b)+c normalised by its value at x=0.
func rationalOffset(x, a, b, c float64) float64 {
	raw := a/math.Max(denomFloor, x+b) + c
	peak := a/denomFloor + c
	if b > 0 {
		peak = a/b + c
	}
	if peak <= 0 {
		return Neutral
	}
	return clamp01(raw / peak)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
