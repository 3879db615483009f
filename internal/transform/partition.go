// Package transform holds the schema-mapping and fact-construction steps of the
// pipeline: catalog projection, activity filtering, time derivation and the
// songplays join.
//
// Every step is a pure function of its inputs. Per-record work is spread over
// row partitions; anything that depends on a global order (distinctness,
// surrogate keys) runs as a single sort pass afterwards.
package transform

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultPartitions is the data-parallel width used when none is configured.
func DefaultPartitions() int {
	return runtime.GOMAXPROCS(0)
}

// partitionBounds splits n items into at most p contiguous, non-empty ranges.
func partitionBounds(n, p int) [][2]int {
	if n == 0 {
		return nil
	}
	if p < 1 {
		p = 1
	}
	if p > n {
		p = n
	}
	size := (n + p - 1) / p
	bounds := make([][2]int, 0, p)
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		bounds = append(bounds, [2]int{lo, hi})
	}
	return bounds
}

// mapPartitions applies fn to every element of in, one goroutine per partition.
// Elements for which fn returns false are dropped. Output keeps input order.
func mapPartitions[T, U any](ctx context.Context, in []T, partitions int, fn func(T) (U, bool)) ([]U, error) {
	bounds := partitionBounds(len(in), partitions)
	parts := make([][]U, len(bounds))

	g, gctx := errgroup.WithContext(ctx)
	for i, b := range bounds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out := make([]U, 0, b[1]-b[0])
			for _, v := range in[b[0]:b[1]] {
				if u, ok := fn(v); ok {
					out = append(out, u)
				}
			}
			parts[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	result := make([]U, 0, total)
	for _, p := range parts {
		result = append(result, p...)
	}
	return result, nil
}
