// Package compute provides the data-parallel kernels behind the CG solver.
//
// Two backends implement [Backend]:
//
//   - CPU: rows or elements split into contiguous chunks, one goroutine each
//   - Serial: single goroutine, index-order reductions
//
// # Kernels
//
// SpMV and the BLAS-1 kernels update their output in place:
//
//	backend := compute.GetBackend()
//	_ = backend.SpMV(compute.NoTranspose, 1, a, x, 0, y) // y = A*x
//	_ = backend.Axpy(-1, y, r)                           // r = r - y
//	rr, _ := backend.Dot(r, r)
//
// SpMV accumulates each row in ascending column order, so its output does
// not depend on the worker count. Dot combines per-chunk partial sums and
// is only reproducible for a fixed chunking.
package compute
