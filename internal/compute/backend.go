package compute

import (
	"fmt"
	"sort"

	"github.com/san-kum/cgsolve/internal/sparse"
)

// Mode selects the operator applied by SpMV.
type Mode string

const (
	NoTranspose Mode = "N"
	Transpose   Mode = "T"
)

// Backend executes the BLAS-1 and sparse kernels used by the solver. Every
// kernel writes its output in place; Fence blocks until all previously
// issued kernels have completed.
type Backend interface {
	Name() string
	Available() bool
	Workers() int

	// SpMV computes y = alpha*A*x + beta*y.
	SpMV(mode Mode, alpha float64, a *sparse.CRSMatrix, x Vector, beta float64, y Vector) error
	// Dot returns the inner product of u and v.
	Dot(u, v Vector) (float64, error)
	// Axpy computes y = y + alpha*x.
	Axpy(alpha float64, x, y Vector) error
	// Axpby computes y = alpha*x + beta*y.
	Axpby(alpha float64, x Vector, beta float64, y Vector) error
	// DeepCopy copies src into dst.
	DeepCopy(dst, src Vector) error

	Fence()
	Cleanup()
}

var activeBackend Backend

func init() {
	activeBackend = AutoSelectBackend()
}

func SetBackend(b Backend) {
	if activeBackend != nil {
		activeBackend.Cleanup()
	}
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}

// AutoSelectBackend returns the parallel CPU backend when more than one
// worker is available, otherwise the serial one.
func AutoSelectBackend() Backend {
	cpu := NewCPUBackend()
	if cpu.Available() && cpu.Workers() > 1 {
		return cpu
	}
	return NewSerialBackend()
}

var constructors = map[string]func(workers, minChunk int) Backend{
	"cpu": func(workers, minChunk int) Backend {
		return NewCPUBackend(WithWorkers(workers), WithMinChunk(minChunk))
	},
	"serial": func(int, int) Backend {
		return NewSerialBackend()
	},
	"auto": func(workers, minChunk int) Backend {
		if workers == 1 {
			return NewSerialBackend()
		}
		return NewCPUBackend(WithWorkers(workers), WithMinChunk(minChunk))
	},
}

// NewBackend returns the backend registered under name. Zero workers or
// minChunk select the defaults.
func NewBackend(name string, workers, minChunk int) (Backend, error) {
	fn, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownBackend, name, BackendNames())
	}
	return fn(workers, minChunk), nil
}

// BackendNames lists the registered backend names in sorted order.
func BackendNames() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
