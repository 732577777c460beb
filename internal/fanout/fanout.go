// Package fanout runs fire-many, await-all batches of independent tasks.
//
// A batch launches one task per item (optionally capped), collects results
// positionally and fails fast: the first error cancels the batch context,
// tasks that have not started yet are skipped, and the call returns only
// after every started task has finished.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Map runs fn for every item and returns the results in input order.
// limit <= 0 means unbounded concurrency.
func Map[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, i int, item T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, item := range items {
		// Go blocks while the limit is reached; stop queueing once the batch failed.
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, i, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Parent cancelled before anything failed.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Each runs fn for every item with the same semantics as Map.
func Each[T any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T) error) error {
	_, err := Map(ctx, items, limit, func(ctx context.Context, _ int, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	})
	return err
}
