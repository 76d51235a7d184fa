package authz

import (
	"context"
	"sync"
)

// outcome is the settled result of one fan-out task.
type outcome[R any] struct {
	value R
	err   error
}

// fanOut runs one task per target and waits for every task to settle:
// outcomes[i] always corresponds to targets[i] regardless of completion
// order, and no outcome is inspected before all have settled. The full
// barrier is deliberate; when a phase fails, the set of compensation
// candidates (the succeeded subset) must be fully known before any
// compensation begins.
func fanOut[T, R any](
	ctx context.Context,
	targets []T,
	run func(context.Context, T) (R, error),
) []outcome[R] {
	outcomes := make([]outcome[R], len(targets))
	var wg sync.WaitGroup
	wg.Add(len(targets))
	for i, t := range targets {
		i, t := i, t
		go func() {
			defer wg.Done()
			outcomes[i].value, outcomes[i].err = run(ctx, t)
		}()
	}
	wg.Wait()
	return outcomes
}

// firstErr returns the first error among the outcomes and the total number
// of failed tasks.
func firstErr[R any](outcomes []outcome[R]) (error, int) {
	var (
		first  error
		failed int
	)
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			if first == nil {
				first = o.err
			}
		}
	}
	return first, failed
}

// values collects the values of fully successful outcomes, preserving
// positional order. Only meaningful after firstErr reported no failure.
func values[R any](outcomes []outcome[R]) []R {
	vs := make([]R, len(outcomes))
	for i, o := range outcomes {
		vs[i] = o.value
	}
	return vs
}
