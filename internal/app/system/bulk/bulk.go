// Package bulk runs independent per-item work with a bounded worker pool.
//
// Items never affect each other: a failing item records its error and the
// rest keep going. Results come back in input order.
package bulk

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one item.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// OK reports whether the item succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Run calls fn for each index in [0, n) using at most workers goroutines.
// workers < 1 runs sequentially. Items not yet started when ctx is done get
// ctx.Err() as their result.
func Run[T any](ctx context.Context, n, workers int, fn func(ctx context.Context, i int) (T, error)) []Result[T] {
	results := make([]Result[T], n)
	if n == 0 {
		return results
	}
	if workers < 1 {
		workers = 1
	}

	// errgroup.Group without WithContext: one item failing must not cancel
	// the others.
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		results[i].Index = i
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Value, results[i].Err = fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Counts returns how many results succeeded and failed.
func Counts[T any](results []Result[T]) (succeeded, failed int) {
	for _, r := range results {
		if r.Err == nil {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
