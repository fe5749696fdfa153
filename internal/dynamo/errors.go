package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrStepTooSmall indicates adaptive step size fell below the configured minimum.
	ErrStepTooSmall = errors.New("dynamo: adaptive step below minimum")

	// ErrStepBudget indicates the run exhausted its maximum number of steps.
	ErrStepBudget = errors.New("dynamo: step budget exhausted")

	// ErrDimensionMismatch indicates mismatched state and system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// SimulationError wraps an error with the grid position where it happened.
type SimulationError struct {
	Sample  int
	At      float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("sample %d (C=%.4f): %v", e.Sample, e.At, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
