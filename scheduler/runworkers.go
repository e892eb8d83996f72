package scheduler

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunWorkers runs each scheduler's Run loop concurrently, one goroutine per
// instance, and returns the first non-nil error any of them produces,
// cancelling the shared context so the others unwind too. This is how a
// multi-threaded host runtime fans a fixed pool of disjoint-slab schedulers
// out across OS threads, per spec.md §5's "multiple scheduler instances MAY
// run in parallel" note.
func RunWorkers(ctx context.Context, schedulers []*ReadyQueueScheduler) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, s := range schedulers {
		s := s
		g.Go(func() error {
			return s.Run(gctx)
		})
	}

	return g.Wait()
}
