package compute

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/san-kum/cgsolve/internal/sparse"
)

// Vector is a dense vector of float64 values.
type Vector []float64

func NewVector(n int) Vector {
	return make(Vector, n)
}

func (v Vector) Clone() Vector {
	c := make(Vector, len(v))
	copy(c, v)
	return c
}

func (v Vector) IsValid() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Fill sets every element to value.
func (v Vector) Fill(value float64) {
	for i := range v {
		v[i] = value
	}
}

func checkSameLength(op string, a, b Vector) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: %s operands have lengths %d and %d", ErrInvalidArgument, op, len(a), len(b))
	}
	return nil
}

// overlaps reports whether the backing arrays of a and b intersect.
func overlaps(a, b Vector) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	size := unsafe.Sizeof(a[0])
	aStart := uintptr(unsafe.Pointer(&a[0]))
	aEnd := aStart + uintptr(len(a))*size
	bStart := uintptr(unsafe.Pointer(&b[0]))
	bEnd := bStart + uintptr(len(b))*size
	return aStart < bEnd && bStart < aEnd
}

func checkSpMV(mode Mode, a *sparse.CRSMatrix, x, y Vector) error {
	if mode != NoTranspose {
		return fmt.Errorf("%w: spmv mode %q not supported", ErrInvalidArgument, mode)
	}
	if a == nil {
		return fmt.Errorf("%w: spmv with nil matrix", ErrInvalidArgument)
	}
	if len(x) != a.NumCols {
		return fmt.Errorf("%w: spmv x has length %d, matrix has %d columns", ErrInvalidArgument, len(x), a.NumCols)
	}
	if len(y) != a.NumRows {
		return fmt.Errorf("%w: spmv y has length %d, matrix has %d rows", ErrInvalidArgument, len(y), a.NumRows)
	}
	if overlaps(x, y) {
		return fmt.Errorf("%w: spmv output aliases its input", ErrInvalidArgument)
	}
	return nil
}

// spmvRows computes rows [start, end) of y = alpha*A*x + beta*y. Each row
// is accumulated in ascending column order.
func spmvRows(alpha float64, a *sparse.CRSMatrix, x Vector, beta float64, y Vector, start, end int) {
	for i := start; i < end; i++ {
		sum := 0.0
		for k := a.RowPtr[i]; k < a.RowPtr[i+1]; k++ {
			sum += a.Values[k] * x[a.ColIdx[k]]
		}
		if beta == 0 {
			y[i] = alpha * sum
		} else {
			y[i] = alpha*sum + beta*y[i]
		}
	}
}
