package ranked

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, opts ...Option) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, opts...), mr
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApplyBatch(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if err := c.ApplyBatch(ctx, map[string]int64{"a": 3, "b": 2}, []string{"a", "b"}); err != nil {
		t.Fatalf("ApplyBatch() error = %v", err)
	}

	top, err := c.TopByScore(ctx, 2)
	if err != nil {
		t.Fatalf("TopByScore() error = %v", err)
	}
	if !equalStrings(top, []string{"a", "b"}) {
		t.Errorf("TopByScore(2) = %v, want [a b]", top)
	}

	recent, err := c.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if !equalStrings(recent, []string{"b", "a"}) {
		t.Errorf("Recent(2) = %v, want [b a]", recent)
	}
}

func TestApplyBatch_AccumulatesScores(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c.ApplyBatch(ctx, map[string]int64{"go": 2}, nil)
	}
	c.IncrementScore(ctx, "go", 1)

	scores, err := c.TopWithScores(ctx, -1)
	if err != nil {
		t.Fatalf("TopWithScores() error = %v", err)
	}
	if len(scores) != 1 || scores[0].Keyword != "go" || scores[0].Score != 7 {
		t.Errorf("TopWithScores() = %v, want [{go 7}]", scores)
	}
}

func TestApplyBatch_ConcurrentIncrements(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.ApplyBatch(ctx, map[string]int64{"hot": 1}, []string{"hot"})
		}()
	}
	wg.Wait()

	scores, _ := c.TopWithScores(ctx, 1)
	if len(scores) != 1 || scores[0].Score != 20 {
		t.Errorf("score after 20 concurrent increments = %v, want 20", scores)
	}
	recent, _ := c.Recent(ctx, -1)
	if !equalStrings(recent, []string{"hot"}) {
		t.Errorf("Recent() = %v, want [hot]", recent)
	}
}

func TestTouchRecent_MovesToFrontWithoutDuplicates(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c", "a"} {
		if err := c.TouchRecent(ctx, k); err != nil {
			t.Fatalf("TouchRecent(%q) error = %v", k, err)
		}
	}

	recent, _ := c.Recent(ctx, 10)
	if !equalStrings(recent, []string{"a", "c", "b"}) {
		t.Errorf("Recent() = %v, want [a c b]", recent)
	}
}

func TestTouchRecent_TrimsToSize(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		c.TouchRecent(ctx, fmt.Sprintf("k%02d", i))
	}

	recent, _ := c.Recent(ctx, -1)
	if len(recent) != DefaultRecentSize {
		t.Fatalf("len(Recent()) = %d, want %d", len(recent), DefaultRecentSize)
	}
	if recent[0] != "k14" || recent[9] != "k05" {
		t.Errorf("Recent() = %v, want k14..k05", recent)
	}

	list, _ := mr.List(DefaultRecentKey)
	if len(list) != DefaultRecentSize {
		t.Errorf("stored list length = %d, want %d", len(list), DefaultRecentSize)
	}
}

func TestApplyBatch_DuplicateRecentInBatch(t *testing.T) {
	c, _ := newTestCache(t, WithRecentSize(3))
	ctx := context.Background()

	c.ApplyBatch(ctx, nil, []string{"a", "b", "a", "c", "d"})

	recent, _ := c.Recent(ctx, -1)
	if !equalStrings(recent, []string{"d", "c", "a"}) {
		t.Errorf("Recent() = %v, want [d c a]", recent)
	}
}

func TestApplyBatch_Empty(t *testing.T) {
	c, mr := newTestCache(t)

	if err := c.ApplyBatch(context.Background(), nil, nil); err != nil {
		t.Fatalf("ApplyBatch(empty) error = %v", err)
	}
	if mr.Exists(DefaultPopularKey) || mr.Exists(DefaultRecentKey) {
		t.Error("empty batch created keys")
	}
}

func TestReads_ZeroAndNegativeLimit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	c.ApplyBatch(ctx, map[string]int64{"a": 1, "b": 2}, []string{"a", "b"})

	if got, _ := c.TopByScore(ctx, 0); len(got) != 0 {
		t.Errorf("TopByScore(0) = %v, want empty", got)
	}
	if got, _ := c.Recent(ctx, 0); len(got) != 0 {
		t.Errorf("Recent(0) = %v, want empty", got)
	}
	if got, _ := c.TopByScore(ctx, -1); len(got) != 2 {
		t.Errorf("TopByScore(-1) = %v, want 2 entries", got)
	}
}

func TestReads_MissingKeys(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	top, err := c.TopByScore(ctx, 5)
	if err != nil || top == nil || len(top) != 0 {
		t.Errorf("TopByScore() = %v, %v; want empty, nil", top, err)
	}
	n, err := c.Cardinality(ctx)
	if err != nil || n != 0 {
		t.Errorf("Cardinality() = %d, %v; want 0, nil", n, err)
	}
}

func TestSnapshot(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	c.ApplyBatch(ctx, map[string]int64{"x": 5, "y": 1}, []string{"y", "x"})

	snap, err := c.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap.PopularCount != 2 || snap.RecentCount != 2 {
		t.Errorf("counts = %d/%d, want 2/2", snap.PopularCount, snap.RecentCount)
	}
	if snap.PopularWithScores[0].Keyword != "x" || snap.PopularWithScores[0].Score != 5 {
		t.Errorf("PopularWithScores[0] = %v, want {x 5}", snap.PopularWithScores[0])
	}
	if !equalStrings(snap.Recent, []string{"x", "y"}) {
		t.Errorf("Recent = %v, want [x y]", snap.Recent)
	}
}

func TestPurgeAll(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.PurgeAll(ctx); err != nil {
		t.Fatalf("PurgeAll() on empty cache error = %v", err)
	}

	c.ApplyBatch(ctx, map[string]int64{"a": 1}, []string{"a"})
	if err := c.PurgeAll(ctx); err != nil {
		t.Fatalf("PurgeAll() error = %v", err)
	}
	if mr.Exists(DefaultPopularKey) || mr.Exists(DefaultRecentKey) {
		t.Error("PurgeAll() left keys behind")
	}
}

func TestWithKeys(t *testing.T) {
	c, mr := newTestCache(t, WithKeys("{s}:pop", "{s}:rec"))
	c.ApplyBatch(context.Background(), map[string]int64{"a": 1}, []string{"a"})

	if !mr.Exists("{s}:pop") || !mr.Exists("{s}:rec") {
		t.Error("custom keys were not used")
	}
}
