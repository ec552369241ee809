// Package memo memoizes derived read results by query shape. Every write to
// the underlying data invalidates the whole layer; there is no per-key
// invalidation.
//
// Each InvalidateAll starts a new generation. Get reports the generation it
// missed in, and Put discards values computed in an older one, so a read
// that raced a write never memoizes the pre-write result.
package memo

import "context"

// Layer is a memoization layer for keyword lists.
type Layer interface {
	// Get returns the memoized value for key. On a miss it returns the
	// current generation, to be handed to Put with the computed value.
	Get(ctx context.Context, key string) (value []string, gen uint64, ok bool)
	// Put memoizes value under key unless InvalidateAll has run since the
	// Get that returned gen.
	Put(ctx context.Context, key string, gen uint64, value []string)
	// InvalidateAll drops every memoized value.
	InvalidateAll(ctx context.Context) error
}

// Stats tracks lookup outcomes.
type Stats struct {
	Hits   uint64
	Misses uint64
}
