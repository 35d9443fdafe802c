package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/cgsolve/internal/cg"
	"github.com/san-kum/cgsolve/internal/compute"
	"github.com/san-kum/cgsolve/internal/randvec"
	"github.com/san-kum/cgsolve/internal/sparse"
)

type Config struct {
	N        int
	Pattern  sparse.Pattern
	Settings cg.Settings
	Seed     uint64
	// Backend runs the kernels. Nil selects compute.GetBackend().
	Backend compute.Backend
}

// Report summarizes one manufactured-solution run: b = A*xRef is solved
// from a zero guess and the result compared against xRef.
type Report struct {
	N             int                    `json:"n"`
	NNZ           int                    `json:"nnz"`
	Pattern       string                 `json:"pattern"`
	Backend       string                 `json:"backend"`
	Workers       int                    `json:"workers"`
	Seed          uint64                 `json:"seed"`
	Tolerance     float64                `json:"tolerance"`
	MaxIterations int                    `json:"max_iterations"`
	Policy        string                 `json:"policy"`
	Iterations    int                    `json:"iterations"`
	ResidualNorm  float64                `json:"residual_norm"`
	ErrorNorm     float64                `json:"error_norm"`
	Phase         string                 `json:"phase"`
	InitTime      time.Duration          `json:"init_ns"`
	SolveTime     time.Duration          `json:"solve_ns"`
	Kernels       map[string]KernelStats `json:"kernels"`
	Residuals     []float64              `json:"-"`
}

func (r *Report) Converged() bool {
	return r.Phase == cg.PhaseConverged.String()
}

type Experiment struct {
	cfg       Config
	backend   *Instrumented
	observers []cg.Observer
	log       zerolog.Logger
}

func New(cfg Config) *Experiment {
	b := cfg.Backend
	if b == nil {
		b = compute.GetBackend()
	}
	return &Experiment{
		cfg:     cfg,
		backend: Instrument(b),
		log:     zerolog.Nop(),
	}
}

func (e *Experiment) WithLogger(l zerolog.Logger) *Experiment {
	e.log = l
	return e
}

// AddObserver registers an observer on the solver used by Run.
func (e *Experiment) AddObserver(o cg.Observer) {
	e.observers = append(e.observers, o)
}

// Prepare builds the matrix, the reference solution and the right-hand
// side.
func (e *Experiment) Prepare() (a *sparse.CRSMatrix, xRef, b compute.Vector, err error) {
	a, err = sparse.Build(e.cfg.N, e.cfg.Pattern)
	if err != nil {
		return nil, nil, nil, err
	}
	xRef = randvec.New(e.cfg.Seed).Uniform(e.cfg.N)
	b = compute.NewVector(e.cfg.N)
	if err := e.backend.SpMV(compute.NoTranspose, 1, a, xRef, 0, b); err != nil {
		return nil, nil, nil, err
	}
	e.backend.Fence()
	return a, xRef, b, nil
}

// Run executes the experiment. Cancellation is checked between iterations.
// A Strict-policy breakdown returns the report together with the error.
func (e *Experiment) Run(ctx context.Context) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	initStart := time.Now()
	a, xRef, b, err := e.Prepare()
	if err != nil {
		return nil, fmt.Errorf("prepare n=%d: %w", e.cfg.N, err)
	}
	initTime := time.Since(initStart)
	e.backend.Reset()

	rec := &residualRecorder{}
	solver := cg.New(e.backend)
	solver.AddObserver(rec)
	for _, o := range e.observers {
		solver.AddObserver(o)
	}

	solveStart := time.Now()
	run, err := solver.Start(a, b, nil, e.cfg.Settings)
	if err != nil {
		return nil, err
	}
	var stepErr error
	for !run.Done() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stepErr = run.Step(); stepErr != nil {
			break
		}
	}
	solveTime := time.Since(solveStart)

	res := run.Result()
	report := &Report{
		N:             a.NumRows,
		NNZ:           a.NNZ,
		Pattern:       e.cfg.Pattern.String(),
		Backend:       e.backend.Name(),
		Workers:       e.backend.Workers(),
		Seed:          e.cfg.Seed,
		Tolerance:     e.cfg.Settings.Tolerance,
		MaxIterations: run.MaxIterations(),
		Policy:        e.cfg.Settings.Degeneracy.String(),
		Iterations:    res.Iterations,
		ResidualNorm:  res.ResidualNorm,
		ErrorNorm:     floats.Distance(res.X, xRef, 2),
		Phase:         res.Phase.String(),
		InitTime:      initTime,
		SolveTime:     solveTime,
		Kernels:       e.backend.Stats(),
		Residuals:     rec.values,
	}

	e.log.Debug().
		Int("n", report.N).
		Str("backend", report.Backend).
		Int("iterations", report.Iterations).
		Float64("residual", report.ResidualNorm).
		Float64("error", report.ErrorNorm).
		Dur("solve", solveTime).
		Msg("solve finished")

	return report, stepErr
}

type residualRecorder struct {
	values []float64
}

func (r *residualRecorder) OnIteration(_ int, residualNorm float64) {
	r.values = append(r.values, residualNorm)
}
