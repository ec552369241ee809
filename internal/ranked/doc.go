// Package ranked maintains the Redis-backed ranking structures: a sorted set
// of keyword scores ("popular") and a bounded, deduplicated list of recently
// searched keywords ("recent").
//
// Both structures are derived data. They can be purged at any time and are
// rebuilt by subsequent writes, which is what Guard relies on when a read
// finds them in an unreadable state.
package ranked
