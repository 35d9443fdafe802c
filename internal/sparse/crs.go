package sparse

import "fmt"

// CRSMatrix stores a matrix in compressed sparse-row form. Row i owns the
// entries ColIdx[RowPtr[i]:RowPtr[i+1]] and the matching Values.
type CRSMatrix struct {
	NumRows int
	NumCols int
	NNZ     int
	RowPtr  []int
	ColIdx  []int
	Values  []float64
}

// Row returns the column indices and values of row i. The slices alias the
// matrix storage and must not be modified.
func (m *CRSMatrix) Row(i int) ([]int, []float64) {
	start, end := m.RowPtr[i], m.RowPtr[i+1]
	return m.ColIdx[start:end], m.Values[start:end]
}

// At returns the entry at (i, j), zero when it is not stored.
func (m *CRSMatrix) At(i, j int) float64 {
	cols, vals := m.Row(i)
	for k, c := range cols {
		if c == j {
			return vals[k]
		}
	}
	return 0
}

// IsSquare reports whether the matrix has as many rows as columns.
func (m *CRSMatrix) IsSquare() bool {
	return m.NumRows == m.NumCols
}

// Validate checks the structural CRS invariants. Symmetry and positive
// definiteness are not checked.
func (m *CRSMatrix) Validate() error {
	if m.NumRows < 0 || m.NumCols < 0 || m.NNZ < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d nnz=%d", ErrMalformed, m.NumRows, m.NumCols, m.NNZ)
	}
	if len(m.RowPtr) != m.NumRows+1 {
		return fmt.Errorf("%w: row pointer length %d, want %d", ErrMalformed, len(m.RowPtr), m.NumRows+1)
	}
	if len(m.ColIdx) != m.NNZ || len(m.Values) != m.NNZ {
		return fmt.Errorf("%w: %d column indices and %d values for nnz=%d", ErrMalformed, len(m.ColIdx), len(m.Values), m.NNZ)
	}
	if m.RowPtr[0] != 0 {
		return fmt.Errorf("%w: row pointer starts at %d", ErrMalformed, m.RowPtr[0])
	}
	if m.RowPtr[m.NumRows] != m.NNZ {
		return fmt.Errorf("%w: row pointer ends at %d, want %d", ErrMalformed, m.RowPtr[m.NumRows], m.NNZ)
	}

	for i := 0; i < m.NumRows; i++ {
		if m.RowPtr[i+1] < m.RowPtr[i] {
			return fmt.Errorf("%w: row pointer decreases at row %d", ErrMalformed, i)
		}
		prev := -1
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			c := m.ColIdx[k]
			if c < 0 || c >= m.NumCols {
				return fmt.Errorf("%w: column %d out of range in row %d", ErrMalformed, c, i)
			}
			if c <= prev {
				return fmt.Errorf("%w: columns not ascending in row %d", ErrMalformed, i)
			}
			prev = c
		}
	}
	return nil
}

// Equal reports whether both matrices have identical structure and values.
func (m *CRSMatrix) Equal(other *CRSMatrix) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.NumRows != other.NumRows || m.NumCols != other.NumCols || m.NNZ != other.NNZ {
		return false
	}
	for i := range m.RowPtr {
		if m.RowPtr[i] != other.RowPtr[i] {
			return false
		}
	}
	for k := 0; k < m.NNZ; k++ {
		if m.ColIdx[k] != other.ColIdx[k] || m.Values[k] != other.Values[k] {
			return false
		}
	}
	return true
}

// ToDense expands the matrix into row-major dense form.
func (m *CRSMatrix) ToDense() [][]float64 {
	dense := make([][]float64, m.NumRows)
	for i := range dense {
		dense[i] = make([]float64, m.NumCols)
		cols, vals := m.Row(i)
		for k, c := range cols {
			dense[i][c] = vals[k]
		}
	}
	return dense
}

// IsSymmetric reports whether every stored entry has a matching transposed
// entry with the same value.
func (m *CRSMatrix) IsSymmetric() bool {
	if !m.IsSquare() {
		return false
	}
	for i := 0; i < m.NumRows; i++ {
		cols, vals := m.Row(i)
		for k, c := range cols {
			if m.At(c, i) != vals[k] {
				return false
			}
		}
	}
	return true
}
