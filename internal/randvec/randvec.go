// Package randvec draws reproducible random vectors from an explicit seed.
package randvec

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/cgsolve/internal/compute"
)

// Source is a seeded generator owned by one caller. It is not safe for
// concurrent use.
type Source struct {
	rng *rand.Rand
}

func New(seed uint64) *Source {
	return &Source{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Uniform returns n values drawn uniformly from [0, 1).
func (s *Source) Uniform(n int) compute.Vector {
	return s.Range(n, 0, 1)
}

// Range returns n values drawn uniformly from [lo, hi).
func (s *Source) Range(n int, lo, hi float64) compute.Vector {
	v := compute.NewVector(n)
	s.FillRange(v, lo, hi)
	return v
}

func (s *Source) FillRange(v compute.Vector, lo, hi float64) {
	d := distuv.Uniform{Min: lo, Max: hi, Src: s.rng}
	for i := range v {
		v[i] = d.Rand()
	}
}

func (s *Source) Rand() *rand.Rand { return s.rng }
