package cg

import (
	"fmt"

	"github.com/san-kum/cgsolve/internal/compute"
)

const DefaultTolerance = 1e-10

// DegeneracyPolicy decides what happens when an update would divide by a
// zero, negative or non-finite quantity.
type DegeneracyPolicy int

const (
	// Propagate divides unconditionally and lets NaN or Inf flow into the
	// iterate. The loop then stops on the iteration cap or because the
	// NaN residual no longer exceeds the tolerance.
	Propagate DegeneracyPolicy = iota
	// Strict stops the run with ErrNumericalDegeneracy before dividing.
	Strict
)

func (p DegeneracyPolicy) String() string {
	switch p {
	case Propagate:
		return "propagate"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Phase is the position of a run in the solver state machine.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseIterating
	PhaseConverged
	PhaseMaxIterReached
	// PhaseBreakdown ends a run whose residual became NaN, or a Strict run
	// that hit a degenerate denominator.
	PhaseBreakdown
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseIterating:
		return "iterating"
	case PhaseConverged:
		return "converged"
	case PhaseMaxIterReached:
		return "max_iter_reached"
	case PhaseBreakdown:
		return "breakdown"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether no further iterations will run.
func (p Phase) Terminal() bool {
	return p == PhaseConverged || p == PhaseMaxIterReached || p == PhaseBreakdown
}

// Settings controls a solve.
type Settings struct {
	// Tolerance is an absolute bound on the residual norm |b - A*x|.
	Tolerance float64
	// MaxIterations caps the loop. Zero means the matrix dimension, the
	// step count in which CG terminates in exact arithmetic.
	MaxIterations int
	Degeneracy    DegeneracyPolicy
}

func DefaultSettings() Settings {
	return Settings{
		Tolerance:  DefaultTolerance,
		Degeneracy: Propagate,
	}
}

// Result is the outcome of a solve. Reaching the iteration cap is reported
// through Phase, not as an error; callers judge quality from ResidualNorm.
type Result struct {
	X            compute.Vector
	Iterations   int
	ResidualNorm float64
	Phase        Phase
}

// Converged reports whether the residual norm reached the tolerance.
func (r *Result) Converged() bool {
	return r.Phase == PhaseConverged
}

// Observer is notified once after initialization (iteration 0) and after
// every completed iteration.
type Observer interface {
	OnIteration(k int, residualNorm float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(k int, residualNorm float64)

func (f ObserverFunc) OnIteration(k int, residualNorm float64) { f(k, residualNorm) }
