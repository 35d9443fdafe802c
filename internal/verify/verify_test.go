package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/cgsolve/internal/cg"
	"github.com/san-kum/cgsolve/internal/compute"
	"github.com/san-kum/cgsolve/internal/randvec"
	"github.com/san-kum/cgsolve/internal/sparse"
)

func TestDense(t *testing.T) {
	a, err := sparse.BuildMatrix(4)
	require.NoError(t, err)

	d := Dense(a)
	r, c := d.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 4, c)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.Equal(t, a.At(i, j), d.At(i, j), "(%d,%d)", i, j)
		}
	}
}

func TestDenseMulVec(t *testing.T) {
	a, err := sparse.BuildMatrix(4)
	require.NoError(t, err)

	y, err := DenseMulVec(a, compute.Vector{1, 1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, compute.Vector{1, 0, 0, 1}, y)

	_, err = DenseMulVec(a, compute.Vector{1})
	assert.ErrorIs(t, err, ErrDimension)
}

func TestSolveCholesky(t *testing.T) {
	a, err := sparse.BuildMatrix(4)
	require.NoError(t, err)

	x, err := SolveCholesky(a, compute.Vector{1, 0, 0, 1})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1, 1, 1}, []float64(x), 1e-12)
}

func TestSolveCholesky_Indefinite(t *testing.T) {
	b, err := sparse.NewBuilder(2, 2)
	require.NoError(t, err)
	require.NoError(t, b.AppendRow([]int{0}, []float64{1}))
	require.NoError(t, b.AppendRow([]int{1}, []float64{-1}))
	a, err := b.Commit()
	require.NoError(t, err)

	_, err = SolveCholesky(a, compute.Vector{1, 1})
	assert.ErrorIs(t, err, ErrNotPositiveDefinite)
}

func TestSolveDirect(t *testing.T) {
	a, err := sparse.BuildMatrix(4)
	require.NoError(t, err)

	x, err := SolveDirect(a, compute.Vector{1, 0, 0, 1})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1, 1, 1}, []float64(x), 1e-12)

	_, err = SolveDirect(a, compute.Vector{1, 2})
	assert.ErrorIs(t, err, ErrDimension)
}

func TestDirectMethodsAgreeWithCG(t *testing.T) {
	const n = 100
	a, err := sparse.BuildMatrix(n)
	require.NoError(t, err)
	xRef := randvec.New(3).Uniform(n)
	b, err := DenseMulVec(a, xRef)
	require.NoError(t, err)

	res, err := cg.New(compute.NewSerialBackend()).Solve(a, b, nil, cg.Settings{Tolerance: 1e-12, MaxIterations: 4 * n})
	require.NoError(t, err)
	require.True(t, res.Converged())

	chol, err := SolveCholesky(a, b)
	require.NoError(t, err)
	lu, err := SolveDirect(a, b)
	require.NoError(t, err)

	for name, x := range map[string]compute.Vector{"cg": res.X, "cholesky": chol, "lu": lu} {
		diff, err := Compare(x, xRef)
		require.NoError(t, err)
		assert.Less(t, diff, 1e-7, name)
	}
}

func TestCompare(t *testing.T) {
	d, err := Compare(compute.Vector{1, 2, 3}, compute.Vector{1, 2.5, 2})
	require.NoError(t, err)
	assert.Equal(t, 1.0, d)

	_, err = Compare(compute.Vector{1}, compute.Vector{})
	assert.ErrorIs(t, err, ErrDimension)
}
