// Package model implements the coupled loss dynamics dCf/dC for the five
// indicators Cf1..Cf5 (health, agriculture, environment, quality of life,
// enterprise) and integrates them over the concentration domain.
//
// The right-hand side combines the perturbation signals of package perturb
// with the internal response functions of package response. Per-equation
// channel subsets and normalisation constants are tables in equations.go.
// A two-sided saturation rule keeps every component inside [0, min(xm_i, 1)].
package model
