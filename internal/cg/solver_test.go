package cg_test

import (
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cgsolve/internal/cg"
	"github.com/san-kum/cgsolve/internal/compute"
	"github.com/san-kum/cgsolve/internal/sparse"
)

func mulVec(a *sparse.CRSMatrix, x compute.Vector) compute.Vector {
	y := compute.NewVector(a.NumRows)
	Expect(compute.NewSerialBackend().SpMV(compute.NoTranspose, 1, a, x, 0, y)).To(Succeed())
	return y
}

func randomSystem(n int, seed int64) (*sparse.CRSMatrix, compute.Vector, compute.Vector) {
	a, err := sparse.BuildMatrix(n)
	Expect(err).NotTo(HaveOccurred())
	rng := rand.New(rand.NewSource(seed))
	xRef := compute.NewVector(n)
	for i := range xRef {
		xRef[i] = rng.Float64()
	}
	return a, xRef, mulVec(a, xRef)
}

func errorNorm(x, ref compute.Vector) float64 {
	sum := 0.0
	for i := range x {
		d := x[i] - ref[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// diagonal builds diag(d) through the generic builder.
func diagonal(d ...float64) *sparse.CRSMatrix {
	b, err := sparse.NewBuilder(len(d), len(d))
	Expect(err).NotTo(HaveOccurred())
	for i, v := range d {
		Expect(b.AppendRow([]int{i}, []float64{v})).To(Succeed())
	}
	m, err := b.Commit()
	Expect(err).NotTo(HaveOccurred())
	return m
}

var _ = Describe("Solver", func() {
	var (
		solver *cg.Solver
		ks     []int
		norms  []float64
	)

	BeforeEach(func() {
		solver = cg.New(compute.NewSerialBackend())
		ks, norms = nil, nil
		solver.AddObserver(cg.ObserverFunc(func(k int, r float64) {
			ks = append(ks, k)
			norms = append(norms, r)
		}))
	})

	Context("on the 4x4 tridiagonal system", func() {
		It("recovers the vector of ones from b = [1,0,0,1]", func() {
			a, err := sparse.BuildMatrix(4)
			Expect(err).NotTo(HaveOccurred())

			res, err := solver.Solve(a, compute.Vector{1, 0, 0, 1}, nil, cg.DefaultSettings())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Phase).To(Equal(cg.PhaseConverged))
			Expect(res.Converged()).To(BeTrue())
			Expect(res.Iterations).To(BeNumerically("<=", 4))
			Expect(res.ResidualNorm).To(BeNumerically("<=", cg.DefaultTolerance))
			for i := range res.X {
				Expect(res.X[i]).To(BeNumerically("~", 1.0, 1e-9))
			}
		})

		It("notifies observers after init and after every iteration", func() {
			a, _ := sparse.BuildMatrix(4)
			res, err := solver.Solve(a, compute.Vector{1, 0, 0, 1}, nil, cg.DefaultSettings())
			Expect(err).NotTo(HaveOccurred())

			Expect(ks).To(HaveLen(res.Iterations + 1))
			for i, k := range ks {
				Expect(k).To(Equal(i))
			}
			Expect(norms[0]).To(BeNumerically("~", math.Sqrt2, 1e-15))
			Expect(norms[len(norms)-1]).To(Equal(res.ResidualNorm))
		})
	})

	Context("with a random reference solution", func() {
		It("converges within N iterations on a small system", func() {
			a, xRef, b := randomSystem(16, 42)

			res, err := solver.Solve(a, b, nil, cg.DefaultSettings())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged()).To(BeTrue())
			Expect(res.Iterations).To(BeNumerically("<=", 16))
			Expect(errorNorm(res.X, xRef)).To(BeNumerically("<", 1e-8))
		})

		It("converges on a larger system given room past N", func() {
			a, xRef, b := randomSystem(256, 7)

			settings := cg.DefaultSettings()
			settings.MaxIterations = 4 * 256
			res, err := solver.Solve(a, b, nil, settings)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged()).To(BeTrue())
			Expect(errorNorm(res.X, xRef)).To(BeNumerically("<", 1e-5))
		})

		It("agrees across serial and parallel backends", func() {
			a, xRef, b := randomSystem(600, 3)
			settings := cg.DefaultSettings()
			settings.MaxIterations = 3 * 600

			serial, err := cg.New(compute.NewSerialBackend()).Solve(a, b, nil, settings)
			Expect(err).NotTo(HaveOccurred())
			parallel, err := cg.New(compute.NewCPUBackend(compute.WithWorkers(4), compute.WithMinChunk(64))).Solve(a, b, nil, settings)
			Expect(err).NotTo(HaveOccurred())

			Expect(serial.Converged()).To(BeTrue())
			Expect(parallel.Converged()).To(BeTrue())
			Expect(errorNorm(serial.X, parallel.X)).To(BeNumerically("<", 1e-4))
			Expect(errorNorm(parallel.X, xRef)).To(BeNumerically("<", 1e-4))
		})
	})

	Context("when the iteration cap is reached first", func() {
		It("stops softly and reports the residual", func() {
			a, _, b := randomSystem(256, 1)

			res, err := solver.Solve(a, b, nil, cg.Settings{Tolerance: 1e-10, MaxIterations: 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Phase).To(Equal(cg.PhaseMaxIterReached))
			Expect(res.Converged()).To(BeFalse())
			Expect(res.Iterations).To(Equal(3))
			Expect(res.ResidualNorm).To(BeNumerically(">", 1e-10))
			Expect(ks).To(Equal([]int{0, 1, 2, 3}))
		})
	})

	Context("with an initial guess", func() {
		It("does not modify x0", func() {
			a, _, b := randomSystem(32, 9)
			x0 := compute.NewVector(32)
			x0.Fill(0.5)
			saved := x0.Clone()

			_, err := solver.Solve(a, b, x0, cg.DefaultSettings())
			Expect(err).NotTo(HaveOccurred())
			Expect(x0).To(Equal(saved))
		})

		It("stops at iteration 0 when x0 already solves the system", func() {
			a, _ := sparse.BuildMatrix(10)
			x0 := compute.NewVector(10)
			x0.Fill(1)

			res, err := solver.Solve(a, mulVec(a, x0), x0, cg.DefaultSettings())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Phase).To(Equal(cg.PhaseConverged))
			Expect(res.Iterations).To(Equal(0))
			Expect(res.ResidualNorm).To(Equal(0.0))
			Expect(res.X).To(Equal(x0))
			Expect(ks).To(Equal([]int{0}))
		})

		It("returns the zero vector for b = 0", func() {
			a, _ := sparse.BuildMatrix(8)
			res, err := solver.Solve(a, compute.NewVector(8), nil, cg.DefaultSettings())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Iterations).To(Equal(0))
			Expect(res.X).To(Equal(compute.NewVector(8)))
		})
	})

	Context("on the 1x1 system", func() {
		It("solves 2x = 4 in one iteration", func() {
			a, err := sparse.BuildMatrix(1)
			Expect(err).NotTo(HaveOccurred())

			res, err := solver.Solve(a, compute.Vector{4}, nil, cg.DefaultSettings())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Iterations).To(Equal(1))
			Expect(res.X[0]).To(Equal(2.0))
		})
	})

	Context("on an indefinite matrix", func() {
		var a *sparse.CRSMatrix
		b := compute.Vector{1, 1}

		BeforeEach(func() {
			a = diagonal(1, -1)
		})

		It("fails with a numerical degeneracy under the strict policy", func() {
			settings := cg.DefaultSettings()
			settings.Degeneracy = cg.Strict

			res, err := solver.Solve(a, b, nil, settings)
			Expect(err).To(MatchError(cg.ErrNumericalDegeneracy))

			var iterErr *cg.IterationError
			Expect(errors.As(err, &iterErr)).To(BeTrue())
			Expect(iterErr.Iteration).To(Equal(1))
			Expect(iterErr.Quantity).To(Equal("pAp"))
			Expect(iterErr.Value).To(Equal(0.0))

			Expect(res).NotTo(BeNil())
			Expect(res.Phase).To(Equal(cg.PhaseBreakdown))
			Expect(res.Iterations).To(Equal(0))
			Expect(res.X).To(Equal(compute.Vector{0, 0}))
		})

		It("lets non-finite values propagate by default", func() {
			res, err := solver.Solve(a, b, nil, cg.DefaultSettings())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Phase).To(Equal(cg.PhaseBreakdown))
			Expect(math.IsNaN(res.ResidualNorm)).To(BeTrue())
			Expect(res.X.IsValid()).To(BeFalse())
		})
	})

	DescribeTable("rejects invalid input",
		func(build func() (*sparse.CRSMatrix, compute.Vector, compute.Vector, cg.Settings)) {
			a, b, x0, settings := build()
			res, err := solver.Solve(a, b, x0, settings)
			Expect(err).To(MatchError(cg.ErrInvalidArgument))
			Expect(res).To(BeNil())
			Expect(ks).To(BeEmpty())
		},
		Entry("nil matrix", func() (*sparse.CRSMatrix, compute.Vector, compute.Vector, cg.Settings) {
			return nil, compute.NewVector(4), nil, cg.DefaultSettings()
		}),
		Entry("non-square matrix", func() (*sparse.CRSMatrix, compute.Vector, compute.Vector, cg.Settings) {
			bld, _ := sparse.NewBuilder(2, 3)
			_ = bld.AppendRow([]int{0}, []float64{1})
			_ = bld.AppendRow([]int{1}, []float64{1})
			m, _ := bld.Commit()
			return m, compute.NewVector(2), nil, cg.DefaultSettings()
		}),
		Entry("short b", func() (*sparse.CRSMatrix, compute.Vector, compute.Vector, cg.Settings) {
			a, _ := sparse.BuildMatrix(4)
			return a, compute.NewVector(3), nil, cg.DefaultSettings()
		}),
		Entry("long x0", func() (*sparse.CRSMatrix, compute.Vector, compute.Vector, cg.Settings) {
			a, _ := sparse.BuildMatrix(4)
			return a, compute.NewVector(4), compute.NewVector(5), cg.DefaultSettings()
		}),
		Entry("negative tolerance", func() (*sparse.CRSMatrix, compute.Vector, compute.Vector, cg.Settings) {
			a, _ := sparse.BuildMatrix(4)
			return a, compute.NewVector(4), nil, cg.Settings{Tolerance: -1}
		}),
		Entry("NaN tolerance", func() (*sparse.CRSMatrix, compute.Vector, compute.Vector, cg.Settings) {
			a, _ := sparse.BuildMatrix(4)
			return a, compute.NewVector(4), nil, cg.Settings{Tolerance: math.NaN()}
		}),
		Entry("negative iteration cap", func() (*sparse.CRSMatrix, compute.Vector, compute.Vector, cg.Settings) {
			a, _ := sparse.BuildMatrix(4)
			return a, compute.NewVector(4), nil, cg.Settings{MaxIterations: -1}
		}),
		Entry("unknown policy", func() (*sparse.CRSMatrix, compute.Vector, compute.Vector, cg.Settings) {
			a, _ := sparse.BuildMatrix(4)
			return a, compute.NewVector(4), nil, cg.Settings{Degeneracy: cg.DegeneracyPolicy(9)}
		}),
	)
})

var _ = Describe("Run", func() {
	It("steps through the same iterations as Solve", func() {
		a, _, b := randomSystem(24, 5)
		solver := cg.New(compute.NewSerialBackend())

		run, err := solver.Start(a, b, nil, cg.DefaultSettings())
		Expect(err).NotTo(HaveOccurred())
		Expect(run.Phase()).To(Equal(cg.PhaseIterating))
		Expect(run.Iterations()).To(Equal(0))
		Expect(run.MaxIterations()).To(Equal(24))

		for !run.Done() {
			before := run.Iterations()
			Expect(run.Step()).To(Succeed())
			Expect(run.Iterations()).To(Equal(before + 1))
		}
		Expect(run.Step()).To(MatchError(cg.ErrFinished))

		want, err := solver.Solve(a, b, nil, cg.DefaultSettings())
		Expect(err).NotTo(HaveOccurred())
		got := run.Result()
		Expect(got.Iterations).To(Equal(want.Iterations))
		Expect(got.ResidualNorm).To(Equal(want.ResidualNorm))
		Expect(got.X).To(Equal(want.X))
	})

	It("hands out results that do not alias the iterate", func() {
		a, _, b := randomSystem(8, 2)
		run, err := cg.New(nil).Start(a, b, nil, cg.DefaultSettings())
		Expect(err).NotTo(HaveOccurred())

		snap := run.Result()
		Expect(run.Step()).To(Succeed())
		Expect(snap.X).NotTo(Equal(run.X()))
	})
})

var _ = Describe("Phase", func() {
	DescribeTable("terminal states",
		func(p cg.Phase, terminal bool, name string) {
			Expect(p.Terminal()).To(Equal(terminal))
			Expect(p.String()).To(Equal(name))
		},
		Entry(nil, cg.PhaseInit, false, "init"),
		Entry(nil, cg.PhaseIterating, false, "iterating"),
		Entry(nil, cg.PhaseConverged, true, "converged"),
		Entry(nil, cg.PhaseMaxIterReached, true, "max_iter_reached"),
		Entry(nil, cg.PhaseBreakdown, true, "breakdown"),
	)
})
