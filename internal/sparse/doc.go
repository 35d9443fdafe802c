// Package sparse provides the compressed sparse-row (CRS) matrix layout
// consumed by the compute kernels and the CG solver.
//
// Matrices are built in two phases:
//
//   - [Builder]: stages rows in host-local slices
//   - [Builder.Commit]: copies the staged arrays once into an immutable [CRSMatrix]
//
// # Patterns
//
// [Build] constructs matrices for a fixed structural family. The only
// pattern currently supported is [PatternTridiagonal], the 1-D Laplacian
// with 2 on the diagonal and -1 on both off-diagonals:
//
//	a, err := sparse.BuildMatrix(1024)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(a.NNZ) // 3070
package sparse
