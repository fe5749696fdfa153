package model

import "math"

// Dim is the number of loss indicators.
const Dim = 5

// NormKind selects how a channel sum is squashed into [0,1].
type NormKind int

const (
	Sigmoid NormKind = iota
	PowerLaw
)

// Normalizer squashes a non-negative channel sum.
//
// Sigmoid: 1/(1+e^{-Steepness*(sum-Shift)}).
// PowerLaw: min(1, (sum/Divisor)^power) with the model power.
type Normalizer struct {
	Kind      NormKind
	Shift     float64
	Steepness float64
	Divisor   float64
}

func sigmoid(shift, steepness float64) Normalizer {
	return Normalizer{Kind: Sigmoid, Shift: shift, Steepness: steepness}
}

func powerLaw(divisor float64) Normalizer {
	return Normalizer{Kind: PowerLaw, Divisor: divisor}
}

func (n Normalizer) Apply(sum, power float64) float64 {
	if n.Kind == PowerLaw {
		return math.Min(1, math.Pow(sum/n.Divisor, power))
	}
	return 1 / (1 + math.Exp(-n.Steepness*(sum-n.Shift)))
}

// Equation is one row of the model: which channels push the indicator up or
// down, how each sum is normalised, and which response functions scale each
// side. Channels and functions are 1-based to match x1..x14 and f1..f12.
type Equation struct {
	Name       string
	Pos        []int
	Neg        []int
	PosNorm    Normalizer
	NegNorm    Normalizer
	PosFactors []int
	NegFactors []int
}

// Equations holds the calibrated constants of the five loss equations.
var Equations = [Dim]Equation{
	{
		Name:       "Cf1",
		Pos:        []int{1, 4, 5, 7, 8, 9, 10, 11, 12, 13},
		Neg:        []int{2, 3, 6, 14},
		PosNorm:    sigmoid(3.0, 0.3),
		NegNorm:    sigmoid(1.5, 0.5),
		PosFactors: []int{1, 2},
		NegFactors: []int{3},
	},
	{
		Name:       "Cf2",
		Pos:        []int{1, 4, 9, 10, 12},
		Neg:        []int{2, 3, 5, 6},
		PosNorm:    sigmoid(2.0, 0.4),
		NegNorm:    sigmoid(1.5, 0.6),
		PosFactors: []int{4, 5},
		NegFactors: []int{6},
	},
	{
		Name:       "Cf3",
		Pos:        []int{1, 4, 5, 7, 8, 9, 10, 11, 12},
		Neg:        []int{2, 3, 6, 14},
		PosNorm:    sigmoid(3.5, 0.35),
		NegNorm:    sigmoid(1.5, 0.5),
		NegFactors: []int{7},
	},
	{
		Name:       "Cf4",
		Pos:        []int{1, 4, 5, 7, 8, 9, 10, 11, 12, 13},
		Neg:        []int{2, 3, 6, 14},
		PosNorm:    powerLaw(10.0),
		NegNorm:    powerLaw(4.0),
		PosFactors: []int{8, 9, 10},
		NegFactors: []int{11},
	},
	{
		Name:       "Cf5",
		Pos:        []int{1, 5},
		Neg:        []int{2, 3, 4, 6, 7, 8, 9, 10, 13, 14},
		PosNorm:    powerLaw(2.0),
		NegNorm:    powerLaw(10.0),
		PosFactors: []int{12},
	},
}

// Terms is the breakdown of one equation at one point.
type Terms struct {
	PosSum  float64
	NegSum  float64
	PosNorm float64
	NegNorm float64
	PosGain float64
	NegGain float64
}

// Net is the unscaled rate PosGain*PosNorm - NegGain*NegNorm.
func (t Terms) Net() float64 {
	return t.PosGain*t.PosNorm - t.NegGain*t.NegNorm
}

func (e *Equation) terms(signals *[14]float64, f *[12]float64, power float64) Terms {
	t := Terms{
		PosSum:  sumOf(signals[:], e.Pos),
		NegSum:  sumOf(signals[:], e.Neg),
		PosGain: productOf(f[:], e.PosFactors),
		NegGain: productOf(f[:], e.NegFactors),
	}
	t.PosNorm = e.PosNorm.Apply(t.PosSum, power)
	t.NegNorm = e.NegNorm.Apply(t.NegSum, power)
	return t
}

func sumOf(values []float64, idx []int) float64 {
	s := 0.0
	for _, i := range idx {
		s += values[i-1]
	}
	return s
}

func productOf(values []float64, idx []int) float64 {
	p := 1.0
	for _, i := range idx {
		p *= values[i-1]
	}
	return p
}
