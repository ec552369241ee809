package ranked

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"searchrank/internal/metrics"
)

func TestGuard_PassesThrough(t *testing.T) {
	c, _ := newTestCache(t)
	g := NewGuard(c, nil)
	ctx := context.Background()
	c.ApplyBatch(ctx, map[string]int64{"a": 2, "b": 1}, []string{"a", "b"})

	if got := g.Popular(ctx, 10); !equalStrings(got, []string{"a", "b"}) {
		t.Errorf("Popular() = %v, want [a b]", got)
	}
	if got := g.Recent(ctx, 10); !equalStrings(got, []string{"b", "a"}) {
		t.Errorf("Recent() = %v, want [b a]", got)
	}
	if got := g.Cardinality(ctx); got != 2 {
		t.Errorf("Cardinality() = %d, want 2", got)
	}
	if got := g.RecentLen(ctx); got != 2 {
		t.Errorf("RecentLen() = %d, want 2", got)
	}
}

func TestGuard_PurgesOnWrongType(t *testing.T) {
	tests := []struct {
		name    string
		corrupt string
		read    func(g *Guard) int
	}{
		{"popular", DefaultPopularKey, func(g *Guard) int { return len(g.Popular(context.Background(), 10)) }},
		{"recent", DefaultRecentKey, func(g *Guard) int { return len(g.Recent(context.Background(), 10)) }},
		{"cardinality", DefaultPopularKey, func(g *Guard) int { return int(g.Cardinality(context.Background())) }},
		{"recent length", DefaultRecentKey, func(g *Guard) int { return int(g.RecentLen(context.Background())) }},
		{"snapshot", DefaultRecentKey, func(g *Guard) int { return len(g.Snapshot(context.Background()).Recent) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mr := newTestCache(t)
			g := NewGuard(c, nil)
			ctx := context.Background()

			c.ApplyBatch(ctx, map[string]int64{"a": 1}, []string{"a"})
			mr.Del(tt.corrupt)
			mr.Set(tt.corrupt, "not-a-collection")

			before := testutil.ToFloat64(metrics.CorruptionPurges)
			if n := tt.read(g); n != 0 {
				t.Errorf("read after corruption returned %d entries, want 0", n)
			}
			if mr.Exists(DefaultPopularKey) || mr.Exists(DefaultRecentKey) {
				t.Error("corrupted cache was not purged")
			}
			if got := testutil.ToFloat64(metrics.CorruptionPurges); got != before+1 {
				t.Errorf("CorruptionPurges = %v, want %v", got, before+1)
			}

			// Writes after the purge behave as on an empty cache.
			c.ApplyBatch(ctx, map[string]int64{"b": 1}, []string{"b"})
			if got := g.Popular(ctx, 10); !equalStrings(got, []string{"b"}) {
				t.Errorf("Popular() after recovery = %v, want [b]", got)
			}
		})
	}
}

func TestGuard_CanceledContextDoesNotPurge(t *testing.T) {
	c, mr := newTestCache(t)
	g := NewGuard(c, nil)
	c.ApplyBatch(context.Background(), map[string]int64{"a": 1}, []string{"a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := g.Popular(ctx, 10); len(got) != 0 {
		t.Errorf("Popular() with canceled context = %v, want empty", got)
	}
	if !mr.Exists(DefaultPopularKey) {
		t.Error("canceled read purged the cache")
	}
}
