// Package dynamo provides core simulation primitives for the loss dynamics model.
//
// The package defines the fundamental interfaces and types for numerical
// integration of ordinary differential equations over a sample grid of the
// independent variable (pollutant concentration C):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dC = f(X, C))
//   - [Integrator]: numerical stepper interface
//   - [AdaptiveIntegrator]: stepper with local error control
//   - [Simulator]: orchestrates a run across the sample grid
//
// # Example
//
//	sys := model.New(params)
//	sim := dynamo.New(sys, integrators.NewRK45())
//	result, err := sim.Run(ctx, x0, dynamo.DefaultConfig())
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. For concurrent runs use [Batch],
// which gives every job its own simulator and buffers.
package dynamo
