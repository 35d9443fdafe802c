package cg

import (
	"fmt"
	"math"

	"github.com/san-kum/cgsolve/internal/compute"
	"github.com/san-kum/cgsolve/internal/sparse"
)

type Solver struct {
	backend   compute.Backend
	observers []Observer
}

// New returns a solver running its kernels on backend. A nil backend
// selects compute.GetBackend().
func New(backend compute.Backend) *Solver {
	if backend == nil {
		backend = compute.GetBackend()
	}
	return &Solver{
		backend:   backend,
		observers: make([]Observer, 0),
	}
}

func (s *Solver) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Solver) Backend() compute.Backend { return s.backend }

// Solve runs CG on A*x = b from the initial guess x0 (nil for zero) until
// the residual norm drops to the tolerance or the iteration cap is hit.
// x0 is not modified. Under the Strict policy a degenerate update returns
// the partial result together with the error.
func (s *Solver) Solve(a *sparse.CRSMatrix, b, x0 compute.Vector, settings Settings) (*Result, error) {
	run, err := s.Start(a, b, x0, settings)
	if err != nil {
		return nil, err
	}
	for !run.Done() {
		if err := run.Step(); err != nil {
			return run.Result(), err
		}
	}
	return run.Result(), nil
}

// Start validates the inputs, performs the initialization step and returns
// a run ready to be advanced with Step.
func (s *Solver) Start(a *sparse.CRSMatrix, b, x0 compute.Vector, settings Settings) (*Run, error) {
	if err := validate(a, b, x0, settings); err != nil {
		return nil, err
	}

	n := a.NumRows
	maxIter := settings.MaxIterations
	if maxIter == 0 {
		maxIter = n
	}

	run := &Run{
		backend:   s.backend,
		observers: s.observers,
		policy:    settings.Degeneracy,
		tol:       settings.Tolerance,
		maxIter:   maxIter,
		a:         a,
		b:         b,
		x:         compute.NewVector(n),
		r:         compute.NewVector(n),
		p:         compute.NewVector(n),
		ap:        compute.NewVector(n),
		phase:     PhaseInit,
	}
	if x0 != nil {
		copy(run.x, x0)
	}

	if err := run.init(); err != nil {
		return nil, err
	}
	return run, nil
}

func validate(a *sparse.CRSMatrix, b, x0 compute.Vector, settings Settings) error {
	if a == nil {
		return fmt.Errorf("%w: nil matrix", ErrInvalidArgument)
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if a.NumRows <= 0 || !a.IsSquare() {
		return fmt.Errorf("%w: matrix must be square and non-empty, got %dx%d", ErrInvalidArgument, a.NumRows, a.NumCols)
	}
	if len(b) != a.NumRows {
		return fmt.Errorf("%w: b has length %d, matrix has %d rows", ErrInvalidArgument, len(b), a.NumRows)
	}
	if x0 != nil && len(x0) != a.NumCols {
		return fmt.Errorf("%w: x0 has length %d, matrix has %d columns", ErrInvalidArgument, len(x0), a.NumCols)
	}
	if settings.Tolerance < 0 || math.IsNaN(settings.Tolerance) {
		return fmt.Errorf("%w: tolerance must be non-negative, got %g", ErrInvalidArgument, settings.Tolerance)
	}
	if settings.MaxIterations < 0 {
		return fmt.Errorf("%w: max iterations must be non-negative, got %d", ErrInvalidArgument, settings.MaxIterations)
	}
	if settings.Degeneracy != Propagate && settings.Degeneracy != Strict {
		return fmt.Errorf("%w: unknown degeneracy policy %d", ErrInvalidArgument, int(settings.Degeneracy))
	}
	return nil
}

// Run holds the iteration state of one solve. It is not safe for
// concurrent use.
type Run struct {
	backend   compute.Backend
	observers []Observer
	policy    DegeneracyPolicy
	tol       float64
	maxIter   int

	a        *sparse.CRSMatrix
	b        compute.Vector
	x, r, p  compute.Vector
	ap       compute.Vector
	k        int
	rOldDot  float64
	normRes  float64
	phase    Phase
	stepErr  error
}

// init computes r = b - A*x, its squared norm and the first direction p = r.
func (r *Run) init() error {
	be := r.backend

	if err := be.SpMV(compute.NoTranspose, 1, r.a, r.x, 0, r.ap); err != nil {
		return err
	}
	be.Fence()
	if err := be.DeepCopy(r.r, r.b); err != nil {
		return err
	}
	if err := be.Axpy(-1, r.ap, r.r); err != nil {
		return err
	}
	be.Fence()

	rr, err := be.Dot(r.r, r.r)
	if err != nil {
		return err
	}
	be.Fence()
	r.rOldDot = rr
	r.normRes = math.Sqrt(rr)

	if err := be.DeepCopy(r.p, r.r); err != nil {
		return err
	}
	be.Fence()

	r.k = 0
	r.settle()
	r.notify()
	return nil
}

// Step performs one CG iteration.
func (r *Run) Step() error {
	if r.phase.Terminal() {
		return ErrFinished
	}
	be := r.backend

	if err := be.SpMV(compute.NoTranspose, 1, r.a, r.p, 0, r.ap); err != nil {
		return r.fail(err)
	}
	be.Fence()

	pAp, err := be.Dot(r.p, r.ap)
	if err != nil {
		return r.fail(err)
	}
	be.Fence()
	if r.policy == Strict && degenerate(pAp) {
		return r.fail(&IterationError{Iteration: r.k + 1, Quantity: "pAp", Value: pAp, Wrapped: ErrNumericalDegeneracy})
	}
	alpha := r.rOldDot / pAp

	if err := be.Axpy(alpha, r.p, r.x); err != nil {
		return r.fail(err)
	}
	if err := be.Axpy(-alpha, r.ap, r.r); err != nil {
		return r.fail(err)
	}
	be.Fence()

	rDot, err := be.Dot(r.r, r.r)
	if err != nil {
		return r.fail(err)
	}
	be.Fence()
	if r.policy == Strict && degenerate(r.rOldDot) {
		return r.fail(&IterationError{Iteration: r.k + 1, Quantity: "r_old_dot", Value: r.rOldDot, Wrapped: ErrNumericalDegeneracy})
	}
	beta := rDot / r.rOldDot

	if err := be.Axpby(1, r.r, beta, r.p); err != nil {
		return r.fail(err)
	}
	be.Fence()

	r.rOldDot = rDot
	r.normRes = math.Sqrt(rDot)
	r.k++

	r.settle()
	r.notify()
	return nil
}

// degenerate reports a denominator that is zero, negative, NaN or infinite.
func degenerate(v float64) bool {
	return !(v > 0) || math.IsInf(v, 0)
}

// settle moves the run to its next phase. The loop continues while
// tol < normRes and k < maxIter; a NaN residual fails both tests.
func (r *Run) settle() {
	switch {
	case r.normRes <= r.tol:
		r.phase = PhaseConverged
	case math.IsNaN(r.normRes):
		r.phase = PhaseBreakdown
	case r.k >= r.maxIter:
		r.phase = PhaseMaxIterReached
	default:
		r.phase = PhaseIterating
	}
}

func (r *Run) notify() {
	for _, o := range r.observers {
		o.OnIteration(r.k, r.normRes)
	}
}

func (r *Run) fail(err error) error {
	r.phase = PhaseBreakdown
	r.stepErr = err
	return err
}

func (r *Run) Done() bool            { return r.phase.Terminal() }
func (r *Run) Phase() Phase          { return r.phase }
func (r *Run) Iterations() int       { return r.k }
func (r *Run) MaxIterations() int    { return r.maxIter }
func (r *Run) Tolerance() float64    { return r.tol }
func (r *Run) ResidualNorm() float64 { return r.normRes }
func (r *Run) Err() error            { return r.stepErr }

// X returns the current iterate. The slice is owned by the run and changes
// on every Step.
func (r *Run) X() compute.Vector { return r.x }

// Result returns a snapshot of the run with its own copy of the iterate.
func (r *Run) Result() *Result {
	return &Result{
		X:            r.x.Clone(),
		Iterations:   r.k,
		ResidualNorm: r.normRes,
		Phase:        r.phase,
	}
}
