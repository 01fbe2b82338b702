package neighbour

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// runBatch executes fn(i) for i in [0, n). With workers <= 1 it runs
// inline, avoiding any pool setup. Otherwise it spawns the tasks on a
// bounded group, joins them all, and returns the first error; partial
// results are never surfaced. In-flight tasks are not cancelled; the
// group context only stops unstarted tasks after a failure.
func runBatch(ctx context.Context, n, workers int, fn func(i int) error) error {
	if workers <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	return g.Wait()
}
