// Package verify solves the CG test systems with direct methods so that
// iterative results can be checked against an independent reference.
package verify

import (
	"errors"
	"fmt"
	"math"

	"github.com/edp1096/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/cgsolve/internal/compute"
	spmat "github.com/san-kum/cgsolve/internal/sparse"
)

var (
	ErrNotPositiveDefinite = errors.New("verify: matrix is not positive definite")
	ErrDimension           = errors.New("verify: dimension mismatch")
)

// Dense expands a CRS matrix into a gonum dense matrix.
func Dense(a *spmat.CRSMatrix) *mat.Dense {
	d := mat.NewDense(a.NumRows, a.NumCols, nil)
	for i := 0; i < a.NumRows; i++ {
		cols, vals := a.Row(i)
		for k, j := range cols {
			d.Set(i, j, d.At(i, j)+vals[k])
		}
	}
	return d
}

// DenseMulVec computes A*x through the dense representation.
func DenseMulVec(a *spmat.CRSMatrix, x compute.Vector) (compute.Vector, error) {
	if len(x) != a.NumCols {
		return nil, fmt.Errorf("%w: x has length %d, matrix has %d columns", ErrDimension, len(x), a.NumCols)
	}
	var y mat.VecDense
	y.MulVec(Dense(a), mat.NewVecDense(len(x), x.Clone()))
	return compute.Vector(y.RawVector().Data), nil
}

// SolveCholesky solves A*x = b with a dense Cholesky factorization. A must
// be symmetric positive definite.
func SolveCholesky(a *spmat.CRSMatrix, b compute.Vector) (compute.Vector, error) {
	if !a.IsSquare() || len(b) != a.NumRows {
		return nil, fmt.Errorf("%w: %dx%d matrix, b of length %d", ErrDimension, a.NumRows, a.NumCols, len(b))
	}
	if !a.IsSymmetric() {
		return nil, fmt.Errorf("%w: matrix is not symmetric", ErrNotPositiveDefinite)
	}

	sym := mat.NewSymDense(a.NumRows, nil)
	for i := 0; i < a.NumRows; i++ {
		cols, vals := a.Row(i)
		for k, j := range cols {
			if j >= i {
				sym.SetSym(i, j, vals[k])
			}
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, ErrNotPositiveDefinite
	}

	var x mat.VecDense
	if err := chol.SolveVecTo(&x, mat.NewVecDense(len(b), b.Clone())); err != nil {
		return nil, fmt.Errorf("verify: cholesky solve: %w", err)
	}
	return compute.Vector(x.RawVector().Data), nil
}

// SolveDirect solves A*x = b with a sparse LU factorization.
func SolveDirect(a *spmat.CRSMatrix, b compute.Vector) (compute.Vector, error) {
	n := a.NumRows
	if !a.IsSquare() || len(b) != n {
		return nil, fmt.Errorf("%w: %dx%d matrix, b of length %d", ErrDimension, a.NumRows, a.NumCols, len(b))
	}

	m, err := sparse.Create(int64(n), &sparse.Configuration{
		Real:           true,
		Expandable:     true,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	})
	if err != nil {
		return nil, fmt.Errorf("verify: create sparse matrix: %w", err)
	}
	defer m.Destroy()

	// The LU package indexes rows, columns and vectors from 1.
	for i := 0; i < n; i++ {
		cols, vals := a.Row(i)
		for k, j := range cols {
			m.GetElement(int64(i+1), int64(j+1)).Real += vals[k]
		}
	}

	if err := m.Factor(); err != nil {
		return nil, fmt.Errorf("verify: factor: %w", err)
	}

	rhs := make([]float64, n+1)
	copy(rhs[1:], b)
	sol, err := m.Solve(rhs)
	if err != nil {
		return nil, fmt.Errorf("verify: solve: %w", err)
	}

	x := compute.NewVector(n)
	copy(x, sol[1:])
	return x, nil
}

// Compare returns the largest absolute element-wise difference of x and y.
func Compare(x, y compute.Vector) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: lengths %d and %d", ErrDimension, len(x), len(y))
	}
	maxDiff := 0.0
	for i := range x {
		d := math.Abs(x[i] - y[i])
		if d > maxDiff || math.IsNaN(d) {
			maxDiff = d
		}
	}
	return maxDiff, nil
}
