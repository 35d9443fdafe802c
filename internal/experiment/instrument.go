package experiment

import (
	"sort"
	"time"

	"github.com/san-kum/cgsolve/internal/compute"
	"github.com/san-kum/cgsolve/internal/sparse"
)

// Kernel names reported by Instrumented.
const (
	KernelSpMV     = "spmv"
	KernelDot      = "dot"
	KernelAxpy     = "axpy"
	KernelAxpby    = "axpby"
	KernelDeepCopy = "deep_copy"
)

type KernelStats struct {
	Calls int           `json:"calls"`
	Total time.Duration `json:"total_ns"`
}

func (k KernelStats) Mean() time.Duration {
	if k.Calls == 0 {
		return 0
	}
	return k.Total / time.Duration(k.Calls)
}

// Instrumented wraps a backend and records call counts and wall time per
// kernel. It is not safe for concurrent use.
type Instrumented struct {
	compute.Backend
	stats map[string]*KernelStats
}

func Instrument(b compute.Backend) *Instrumented {
	if in, ok := b.(*Instrumented); ok {
		b = in.Backend
	}
	return &Instrumented{Backend: b, stats: make(map[string]*KernelStats)}
}

func (in *Instrumented) track(kernel string, start time.Time) {
	s, ok := in.stats[kernel]
	if !ok {
		s = &KernelStats{}
		in.stats[kernel] = s
	}
	s.Calls++
	s.Total += time.Since(start)
}

func (in *Instrumented) SpMV(mode compute.Mode, alpha float64, a *sparse.CRSMatrix, x compute.Vector, beta float64, y compute.Vector) error {
	defer in.track(KernelSpMV, time.Now())
	return in.Backend.SpMV(mode, alpha, a, x, beta, y)
}

func (in *Instrumented) Dot(u, v compute.Vector) (float64, error) {
	defer in.track(KernelDot, time.Now())
	return in.Backend.Dot(u, v)
}

func (in *Instrumented) Axpy(alpha float64, x, y compute.Vector) error {
	defer in.track(KernelAxpy, time.Now())
	return in.Backend.Axpy(alpha, x, y)
}

func (in *Instrumented) Axpby(alpha float64, x compute.Vector, beta float64, y compute.Vector) error {
	defer in.track(KernelAxpby, time.Now())
	return in.Backend.Axpby(alpha, x, beta, y)
}

func (in *Instrumented) DeepCopy(dst, src compute.Vector) error {
	defer in.track(KernelDeepCopy, time.Now())
	return in.Backend.DeepCopy(dst, src)
}

// Stats returns a snapshot of the counters.
func (in *Instrumented) Stats() map[string]KernelStats {
	out := make(map[string]KernelStats, len(in.stats))
	for k, v := range in.stats {
		out[k] = *v
	}
	return out
}

func (in *Instrumented) Reset() {
	in.stats = make(map[string]*KernelStats)
}

// SortedKernels returns the kernel names of stats in alphabetical order.
func SortedKernels(stats map[string]KernelStats) []string {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
