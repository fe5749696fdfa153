// Package response implements the twelve internal response functions f1..f12.
//
// Each function maps one component of the loss state to [0,1] through a
// closed form (affine, exponential ratio, step, logistic or rational). The
// forms, inputs and default coefficients live in [Catalog] as data. A caller
// slot that supplies fewer coefficients than the function needs resolves to
// the defaults, and the resolution records that it did so.
package response
