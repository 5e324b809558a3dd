package batch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_OrderAndValues(t *testing.T) {
	jobs := []int{5, 1, 4, 2, 3}
	results := Run(context.Background(), jobs, 3, func(_ context.Context, _ string, n int) (int, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * n, nil
	})

	require.Len(t, results, len(jobs))
	seen := map[string]bool{}
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, jobs[i]*jobs[i], r.Value)
		assert.NoError(t, r.Err)
		assert.False(t, r.Skipped)

		_, err := uuid.Parse(r.RunID)
		assert.NoError(t, err)
		assert.False(t, seen[r.RunID], "duplicate run id")
		seen[r.RunID] = true
	}
	assert.Equal(t, Summary{Succeeded: 5}, Summarize(results))
}

func TestRun_BoundsConcurrency(t *testing.T) {
	var inFlight, peak int32
	jobs := make([]int, 12)

	Run(context.Background(), jobs, 2, func(context.Context, string, int) (struct{}, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&peak), int32(1))
}

func TestRun_ErrorsAreIsolated(t *testing.T) {
	boom := errors.New("decode failed")
	results := Run(context.Background(), []string{"a", "bad", "c"}, 2,
		func(_ context.Context, _ string, s string) (string, error) {
			if s == "bad" {
				return "", boom
			}
			return s + "!", nil
		})

	assert.Equal(t, "a!", results[0].Value)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.Equal(t, "c!", results[2].Value)
	assert.Equal(t, Summary{Succeeded: 2, Failed: 1}, Summarize(results))
}

func TestRun_PassesRunID(t *testing.T) {
	results := Run(context.Background(), []int{1, 2}, 1, func(_ context.Context, id string, _ int) (string, error) {
		return id, nil
	})
	for _, r := range results {
		assert.Equal(t, r.RunID, r.Value)
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	results := Run(ctx, []int{1, 2, 3}, 2, func(context.Context, string, int) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, nil
	})

	assert.Zero(t, atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.True(t, r.Skipped)
		assert.ErrorIs(t, r.Err, context.Canceled)
		assert.NotEmpty(t, r.RunID)
	}
	assert.Equal(t, Summary{Skipped: 3}, Summarize(results))
}

func TestRun_CancelStopsNewJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := Run(ctx, []int{0, 1, 2, 3, 4}, 1, func(_ context.Context, _ string, n int) (int, error) {
		if n == 1 {
			cancel()
		}
		return n, nil
	})

	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[1].Err, "running job finishes normally")
	for _, r := range results[2:] {
		assert.True(t, r.Skipped)
	}
}

func TestRun_ZeroWorkersAndEmpty(t *testing.T) {
	results := Run(context.Background(), []int{7}, 0, func(_ context.Context, _ string, n int) (int, error) {
		return n, nil
	})
	require.Len(t, results, 1)
	assert.Equal(t, 7, results[0].Value)

	assert.Empty(t, Run(context.Background(), []int(nil), 4, func(context.Context, string, int) (int, error) {
		return 0, nil
	}))
}
