// Package workerpool provides a small bounded fan-out helper for
// CPU-bound per-unit work (format detection, parsing, normalization) that
// would otherwise serialize an ingest batch onto a single goroutine.
//
// Grounded on the teacher's internal/crypto/vault.go, which reaches for
// golang.org/x/sync (singleflight) rather than a hand-rolled goroutine+
// channel pool; here the same package's errgroup.Group is used for the
// bounded-concurrency half of that idiom.
package workerpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit bounds concurrent per-unit work absent an explicit override.
const DefaultLimit = 8

// Map runs fn over each element of items with at most limit goroutines in
// flight at once, preserving input order in the returned slice. The first
// error from any fn call cancels the remaining work and is returned; the
// results slice is only valid when err is nil.
func Map[T, R any](ctx context.Context, limit int, items []T, fn func(context.Context, int, T) (R, error)) ([]R, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	results := make([]R, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
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

	return results, nil
}
