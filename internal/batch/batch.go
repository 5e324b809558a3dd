// Package batch runs independent per-image jobs on a bounded worker pool.
//
// Jobs never share state; a failing job does not stop the others. Context
// cancellation stops new jobs from starting, and jobs already running finish
// normally since the segmentation core is not interruptible.
package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one job. Results are returned in job order.
type Result[R any] struct {
	// Index is the job's position in the input slice.
	Index int
	// RunID identifies this job in logs and tool responses.
	RunID string
	Value R
	Err   error
	// Duration is the wall time spent in the job function.
	Duration time.Duration
	// Skipped is true when the context was cancelled before the job started;
	// Err is then the context error.
	Skipped bool
}

// Run executes fn for every job with at most workers jobs in flight.
// workers < 1 is treated as 1. fn receives the run ID also stored in the
// job's Result.
func Run[J, R any](ctx context.Context, jobs []J, workers int, fn func(ctx context.Context, runID string, job J) (R, error)) []Result[R] {
	if workers < 1 {
		workers = 1
	}
	results := make([]Result[R], len(jobs))

	var g errgroup.Group
	g.SetLimit(workers)

	for i, job := range jobs {
		results[i].Index = i
		results[i].RunID = uuid.NewString()

		if err := ctx.Err(); err != nil {
			results[i].Err = err
			results[i].Skipped = true
			continue
		}

		g.Go(func() error {
			res := &results[i]
			// Cancellation may land while waiting for a free slot.
			if err := ctx.Err(); err != nil {
				res.Err = err
				res.Skipped = true
				return nil
			}
			start := time.Now()
			res.Value, res.Err = fn(ctx, res.RunID, job)
			res.Duration = time.Since(start)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Summary counts outcomes of a batch.
type Summary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Summarize tallies results.
func Summarize[R any](results []Result[R]) Summary {
	var s Summary
	for _, r := range results {
		switch {
		case r.Skipped:
			s.Skipped++
		case r.Err != nil:
			s.Failed++
		default:
			s.Succeeded++
		}
	}
	return s
}
