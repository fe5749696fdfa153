// Package perturb evaluates the fourteen exogenous perturbation channels.
//
// Every channel is an affine driver a*v+b normalised into [0,1] by [Evaluate].
// Channels x1..x6 are driven by the scalar time value t, channels x7..x14 by
// the current concentration sample C:
//
//	sig := perturb.Signals(set, t, c, perturb.DefaultScale)
//	_ = sig[0] // x1
//
// Slots that are absent or carry fewer than two coefficients contribute 0.
package perturb
