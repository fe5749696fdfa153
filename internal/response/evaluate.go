package response

import "math"

// Epsilon bounds the state handed to response functions to [Epsilon, 1-Epsilon].
const Epsilon = 1e-4

// Outputs holds f1..f12 in order.
type Outputs [Count]float64

// Eval evaluates function i at the raw input value x with resolved params.
func Eval(i int, x float64, p Params) float64 {
	return apply(Catalog[i].Form, x, p.Values)
}

// Evaluate clips the state to [Epsilon, 1-Epsilon] and evaluates all twelve
// functions on their input components. state must have at least five entries.
func Evaluate(state []float64, r *Resolved) Outputs {
	var safe [5]float64
	for i := range safe {
		safe[i] = math.Max(Epsilon, math.Min(1-Epsilon, state[i]))
	}

	var out Outputs
	for i, fn := range Catalog {
		out[i] = apply(fn.Form, safe[fn.Input], r[i].Values)
	}
	return out
}
