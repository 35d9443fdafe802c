package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/cgsolve/internal/cg"
	"github.com/san-kum/cgsolve/internal/compute"
	"github.com/san-kum/cgsolve/internal/experiment"
	"github.com/san-kum/cgsolve/internal/verify"
)

// maxDenseN bounds the dense Cholesky reference, which needs N*N memory.
const maxDenseN = 4096

func newSolver(cfg experiment.Config) *cg.Solver {
	return cg.New(cfg.Backend)
}

func verifySolve(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	ecfg, err := experimentConfig(cfg)
	if err != nil {
		return err
	}

	a, xRef, b, err := experiment.New(ecfg).Prepare()
	if err != nil {
		return err
	}

	type method struct {
		name  string
		solve func() (compute.Vector, error)
	}
	methods := []method{
		{"cg", func() (compute.Vector, error) {
			res, err := newSolver(ecfg).Solve(a, b, nil, ecfg.Settings)
			if err != nil {
				return nil, err
			}
			log.Debug().Int("iterations", res.Iterations).Str("phase", res.Phase.String()).Msg("cg finished")
			return res.X, nil
		}},
		{"sparse-lu", func() (compute.Vector, error) { return verify.SolveDirect(a, b) }},
	}
	if cfg.N <= maxDenseN {
		methods = append(methods, method{"cholesky", func() (compute.Vector, error) { return verify.SolveCholesky(a, b) }})
	} else {
		log.Info().Int("n", cfg.N).Int("max", maxDenseN).Msg("skipping dense cholesky")
	}

	solutions := make(map[string]compute.Vector, len(methods))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tTIME\tMAX|x-xref|")
	for _, m := range methods {
		start := time.Now()
		x, err := m.solve()
		if err != nil {
			return fmt.Errorf("%s: %w", m.name, err)
		}
		elapsed := time.Since(start)
		diff, err := verify.Compare(x, xRef)
		if err != nil {
			return err
		}
		solutions[m.name] = x
		fmt.Fprintf(w, "%s\t%s\t%.3e\n", m.name, elapsed, diff)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	diff, err := verify.Compare(solutions["cg"], solutions["sparse-lu"])
	if err != nil {
		return err
	}
	fmt.Printf("\nmax |x_cg - x_lu| = %.3e\n", diff)
	return nil
}
