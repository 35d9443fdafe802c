// Package cg implements the conjugate-gradient method for symmetric
// positive-definite systems stored as CRS matrices.
//
// Every vector operation goes through a [compute.Backend], so the same
// state machine runs serially or in parallel:
//
//	a, _ := sparse.BuildMatrix(1024)
//	solver := cg.New(compute.NewCPUBackend())
//	res, err := solver.Solve(a, b, nil, cg.DefaultSettings())
//
// Hitting the iteration cap is not an error. Check [Result.Phase] or
// [Result.ResidualNorm] to judge the solution.
//
// [Solver.Start] exposes the same loop one iteration at a time for callers
// that render progress between steps.
package cg
