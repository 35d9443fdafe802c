package cg

import (
	"errors"
	"fmt"
)

// Domain errors for solver operations.
var (
	// ErrInvalidArgument indicates a nil or non-square matrix, mismatched
	// vector lengths or invalid settings.
	ErrInvalidArgument = errors.New("cg: invalid argument")

	// ErrNumericalDegeneracy indicates a zero, negative or non-finite
	// denominator in the alpha or beta update. Only reported under the
	// Strict policy.
	ErrNumericalDegeneracy = errors.New("cg: numerical degeneracy")

	// ErrFinished indicates Step was called on a run that already stopped.
	ErrFinished = errors.New("cg: run already finished")
)

// IterationError wraps an error with the iteration it occurred in.
type IterationError struct {
	Iteration int
	Quantity  string
	Value     float64
	Wrapped   error
}

func (e *IterationError) Error() string {
	return fmt.Sprintf("iteration %d: %s = %g: %v", e.Iteration, e.Quantity, e.Value, e.Wrapped)
}

func (e *IterationError) Unwrap() error {
	return e.Wrapped
}
