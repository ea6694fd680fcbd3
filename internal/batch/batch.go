// Package batch runs a per-item operation over a work list one item at a
// time, with a fixed delay between items to stay under third-party rate
// limits. A failing item never aborts the run.
package batch

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultDelay is the pause between consecutive items when Options.Delay is zero.
const DefaultDelay = 200 * time.Millisecond

// Options tunes a Run. The zero value is usable.
type Options[T any] struct {
	// Delay between items. Zero means DefaultDelay; negative disables the pause.
	Delay time.Duration
	// OnError, when set, is called for every failed item in order.
	OnError func(item T, index int, err error)
	// Clock drives the delay and the run timestamps. Defaults to the real clock.
	Clock clockwork.Clock
}

// ItemError records one failed item.
type ItemError[T any] struct {
	Item  T
	Index int
	Err   error
}

func (e ItemError[T]) Error() string { return e.Err.Error() }

func (e ItemError[T]) Unwrap() error { return e.Err }

// Metrics summarizes a run.
type Metrics struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Total      int
	Processed  int // items whose operation was invoked
	Succeeded  int
	Failed     int
	Skipped    int // items never attempted because the context was done
}

// Result holds successful outcomes in item order, the failures, and the run metrics.
type Result[T, R any] struct {
	Results []R
	Errors  []ItemError[T]
	Metrics Metrics
}

// Run invokes op for each item sequentially. Successes are appended to
// Results, failures to Errors, and the run always continues to the next item.
// The delay is applied between items and never after the last one. When ctx
// is cancelled Run stops before the next item and counts the rest as skipped.
func Run[T, R any](ctx context.Context, items []T, op func(ctx context.Context, item T, index int) (R, error), opts Options[T]) Result[T, R] {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	delay := opts.Delay
	if delay == 0 {
		delay = DefaultDelay
	}

	res := Result[T, R]{}
	res.Metrics.StartedAt = clock.Now()
	res.Metrics.Total = len(items)

	for i, item := range items {
		if ctx.Err() != nil {
			res.Metrics.Skipped = len(items) - i
			break
		}

		out, err := op(ctx, item, i)
		res.Metrics.Processed++
		if err != nil {
			res.Errors = append(res.Errors, ItemError[T]{Item: item, Index: i, Err: err})
			res.Metrics.Failed++
			if opts.OnError != nil {
				opts.OnError(item, i, err)
			}
		} else {
			res.Results = append(res.Results, out)
			res.Metrics.Succeeded++
		}

		if i == len(items)-1 || delay < 0 {
			continue
		}
		if !wait(ctx, clock, delay) {
			res.Metrics.Skipped = len(items) - i - 1
			break
		}
	}

	res.Metrics.FinishedAt = clock.Now()
	res.Metrics.Duration = res.Metrics.FinishedAt.Sub(res.Metrics.StartedAt)
	return res
}

// wait sleeps for d unless ctx is done first. It reports whether the full
// delay elapsed.
func wait(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-clock.After(d):
		return true
	}
}
