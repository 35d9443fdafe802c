package compute

import "github.com/san-kum/cgsolve/internal/sparse"

// SerialBackend runs every kernel on the calling goroutine. Its dot product
// sums in index order, which makes it the reference for the parallel
// backends.
type SerialBackend struct{}

func NewSerialBackend() *SerialBackend {
	return &SerialBackend{}
}

func (s *SerialBackend) Name() string    { return "serial" }
func (s *SerialBackend) Available() bool { return true }
func (s *SerialBackend) Workers() int    { return 1 }
func (s *SerialBackend) Fence()          {}
func (s *SerialBackend) Cleanup()        {}

func (s *SerialBackend) SpMV(mode Mode, alpha float64, a *sparse.CRSMatrix, x Vector, beta float64, y Vector) error {
	if err := checkSpMV(mode, a, x, y); err != nil {
		return err
	}
	spmvRows(alpha, a, x, beta, y, 0, a.NumRows)
	return nil
}

func (s *SerialBackend) Dot(u, v Vector) (float64, error) {
	if err := checkSameLength("dot", u, v); err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range u {
		sum += u[i] * v[i]
	}
	return sum, nil
}

func (s *SerialBackend) Axpy(alpha float64, x, y Vector) error {
	if err := checkSameLength("axpy", x, y); err != nil {
		return err
	}
	for i := range y {
		y[i] += alpha * x[i]
	}
	return nil
}

func (s *SerialBackend) Axpby(alpha float64, x Vector, beta float64, y Vector) error {
	if err := checkSameLength("axpby", x, y); err != nil {
		return err
	}
	for i := range y {
		y[i] = alpha*x[i] + beta*y[i]
	}
	return nil
}

func (s *SerialBackend) DeepCopy(dst, src Vector) error {
	if err := checkSameLength("deep copy", dst, src); err != nil {
		return err
	}
	copy(dst, src)
	return nil
}
