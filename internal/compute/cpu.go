package compute

import (
	"runtime"

	"github.com/san-kum/cgsolve/internal/sparse"
)

const DefaultMinChunk = 1024

// CPUBackend runs every kernel across a fixed pool of goroutines. Kernels
// return only after all chunks have joined, so Fence has nothing to wait on.
type CPUBackend struct {
	workers  int
	minChunk int
}

type CPUOption func(*CPUBackend)

// WithWorkers sets the number of goroutines per kernel. Values below one
// keep the default of runtime.NumCPU().
func WithWorkers(n int) CPUOption {
	return func(c *CPUBackend) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithMinChunk sets the smallest number of rows or elements handed to one
// goroutine. Values below one keep the default.
func WithMinChunk(n int) CPUOption {
	return func(c *CPUBackend) {
		if n > 0 {
			c.minChunk = n
		}
	}
}

func NewCPUBackend(opts ...CPUOption) *CPUBackend {
	c := &CPUBackend{
		workers:  runtime.NumCPU(),
		minChunk: DefaultMinChunk,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Workers() int    { return c.workers }
func (c *CPUBackend) MinChunk() int   { return c.minChunk }
func (c *CPUBackend) Fence()          {}
func (c *CPUBackend) Cleanup()        {}

func (c *CPUBackend) SpMV(mode Mode, alpha float64, a *sparse.CRSMatrix, x Vector, beta float64, y Vector) error {
	if err := checkSpMV(mode, a, x, y); err != nil {
		return err
	}
	parallelFor(a.NumRows, c.workers, c.minChunk, func(_, start, end int) {
		spmvRows(alpha, a, x, beta, y, start, end)
	})
	return nil
}

func (c *CPUBackend) Dot(u, v Vector) (float64, error) {
	if err := checkSameLength("dot", u, v); err != nil {
		return 0, err
	}

	partial := make([]float64, c.workers)
	parallelFor(len(u), c.workers, c.minChunk, func(chunk, start, end int) {
		sum := 0.0
		for i := start; i < end; i++ {
			sum += u[i] * v[i]
		}
		partial[chunk] = sum
	})

	total := 0.0
	for _, s := range partial {
		total += s
	}
	return total, nil
}

func (c *CPUBackend) Axpy(alpha float64, x, y Vector) error {
	if err := checkSameLength("axpy", x, y); err != nil {
		return err
	}
	parallelFor(len(y), c.workers, c.minChunk, func(_, start, end int) {
		for i := start; i < end; i++ {
			y[i] += alpha * x[i]
		}
	})
	return nil
}

func (c *CPUBackend) Axpby(alpha float64, x Vector, beta float64, y Vector) error {
	if err := checkSameLength("axpby", x, y); err != nil {
		return err
	}
	parallelFor(len(y), c.workers, c.minChunk, func(_, start, end int) {
		for i := start; i < end; i++ {
			y[i] = alpha*x[i] + beta*y[i]
		}
	})
	return nil
}

func (c *CPUBackend) DeepCopy(dst, src Vector) error {
	if err := checkSameLength("deep copy", dst, src); err != nil {
		return err
	}
	parallelFor(len(dst), c.workers, c.minChunk, func(_, start, end int) {
		copy(dst[start:end], src[start:end])
	})
	return nil
}
