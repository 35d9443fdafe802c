package sparse

import "fmt"

// Pattern selects a structural matrix family for Build.
type Pattern int

const (
	// PatternTridiagonal is the 1-D Laplacian: 2 on the diagonal, -1 on
	// the first sub- and super-diagonal.
	PatternTridiagonal Pattern = 0
)

func (p Pattern) String() string {
	switch p {
	case PatternTridiagonal:
		return "tridiagonal"
	default:
		return fmt.Sprintf("pattern(%d)", int(p))
	}
}

// Builder stages CRS rows in host-local slices. Commit copies them into the
// returned matrix; the builder cannot be used afterwards.
type Builder struct {
	numRows   int
	numCols   int
	rowPtr    []int
	colIdx    []int
	values    []float64
	committed bool
}

// NewBuilder returns a builder for a numRows x numCols matrix.
func NewBuilder(numRows, numCols int) (*Builder, error) {
	if numRows <= 0 || numCols <= 0 {
		return nil, fmt.Errorf("%w: matrix size %dx%d must be positive", ErrInvalidArgument, numRows, numCols)
	}
	rowPtr := make([]int, 1, numRows+1)
	return &Builder{
		numRows: numRows,
		numCols: numCols,
		rowPtr:  rowPtr,
	}, nil
}

// Reserve grows the staging buffers to hold nnz entries.
func (b *Builder) Reserve(nnz int) {
	if cap(b.colIdx) < nnz {
		colIdx := make([]int, len(b.colIdx), nnz)
		copy(colIdx, b.colIdx)
		b.colIdx = colIdx
	}
	if cap(b.values) < nnz {
		values := make([]float64, len(b.values), nnz)
		copy(values, b.values)
		b.values = values
	}
}

// Rows returns the number of rows staged so far.
func (b *Builder) Rows() int {
	return len(b.rowPtr) - 1
}

// AppendRow stages the next row. Columns must be strictly ascending and in
// range.
func (b *Builder) AppendRow(cols []int, vals []float64) error {
	if b.committed {
		return ErrCommitted
	}
	row := b.Rows()
	if row >= b.numRows {
		return fmt.Errorf("%w: row %d exceeds %d rows", ErrInvalidArgument, row, b.numRows)
	}
	if len(cols) != len(vals) {
		return fmt.Errorf("%w: row %d has %d columns and %d values", ErrInvalidArgument, row, len(cols), len(vals))
	}
	prev := -1
	for _, c := range cols {
		if c < 0 || c >= b.numCols {
			return fmt.Errorf("%w: column %d out of range in row %d", ErrInvalidArgument, c, row)
		}
		if c <= prev {
			return fmt.Errorf("%w: columns not ascending in row %d", ErrInvalidArgument, row)
		}
		prev = c
	}

	b.colIdx = append(b.colIdx, cols...)
	b.values = append(b.values, vals...)
	b.rowPtr = append(b.rowPtr, len(b.colIdx))
	return nil
}

// Commit transfers the staged rows into a new matrix. Rows that were never
// appended are left empty.
func (b *Builder) Commit() (*CRSMatrix, error) {
	if b.committed {
		return nil, ErrCommitted
	}
	for b.Rows() < b.numRows {
		b.rowPtr = append(b.rowPtr, len(b.colIdx))
	}

	nnz := len(b.colIdx)
	m := &CRSMatrix{
		NumRows: b.numRows,
		NumCols: b.numCols,
		NNZ:     nnz,
		RowPtr:  make([]int, b.numRows+1),
		ColIdx:  make([]int, nnz),
		Values:  make([]float64, nnz),
	}
	copy(m.RowPtr, b.rowPtr)
	copy(m.ColIdx, b.colIdx)
	copy(m.Values, b.values)

	b.rowPtr, b.colIdx, b.values = nil, nil, nil
	b.committed = true
	return m, nil
}

// ExpectedNNZ returns the nonzero count of the tridiagonal pattern.
func ExpectedNNZ(numRows int) int {
	if numRows <= 0 {
		return 0
	}
	return 2 + 3*(numRows-2) + 2
}

// Build constructs a numRows x numRows matrix of the given pattern.
func Build(numRows int, pattern Pattern) (*CRSMatrix, error) {
	if pattern != PatternTridiagonal {
		return nil, fmt.Errorf("%w: invalid pattern %d, valid value(s) include %d", ErrInvalidArgument, int(pattern), int(PatternTridiagonal))
	}
	if numRows <= 0 {
		return nil, fmt.Errorf("%w: sizes must be greater than 0, got %d", ErrInvalidArgument, numRows)
	}

	b, err := NewBuilder(numRows, numRows)
	if err != nil {
		return nil, err
	}
	b.Reserve(ExpectedNNZ(numRows))

	const two, mone = 2.0, -1.0
	last := numRows - 1
	for i := 0; i < numRows; i++ {
		var err error
		switch {
		case numRows == 1:
			err = b.AppendRow([]int{0}, []float64{two})
		case i == 0:
			err = b.AppendRow([]int{0, 1}, []float64{two, mone})
		case i == last:
			err = b.AppendRow([]int{i - 1, i}, []float64{mone, two})
		default:
			err = b.AppendRow([]int{i - 1, i, i + 1}, []float64{mone, two, mone})
		}
		if err != nil {
			return nil, err
		}
	}
	return b.Commit()
}

// BuildMatrix builds the tridiagonal matrix of dimension n.
func BuildMatrix(n int) (*CRSMatrix, error) {
	return Build(n, PatternTridiagonal)
}
