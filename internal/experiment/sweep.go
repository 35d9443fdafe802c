package experiment

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Sweep runs independent experiments with at most parallelism in flight
// (zero or negative means unbounded). Reports keep the order of cfgs. The
// first failure cancels the remaining runs.
func Sweep(ctx context.Context, cfgs []Config, parallelism int) ([]*Report, error) {
	reports := make([]*Report, len(cfgs))

	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, cfg := range cfgs {
		g.Go(func() error {
			r, err := New(cfg).Run(ctx)
			if err != nil {
				return fmt.Errorf("sweep n=%d: %w", cfg.N, err)
			}
			reports[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
