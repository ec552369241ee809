package search

import (
	"context"
	"testing"
	"time"

	"searchrank/internal/db"
	"searchrank/internal/jobs"
	"searchrank/internal/memo"
	"searchrank/internal/ranked"
	rtestutil "searchrank/internal/testutil"
)

// hookedLayer runs hooks at the points where a concurrent writer can slip
// in between a memoized read's lookup and its store.
type hookedLayer struct {
	*memo.Memory
	beforePut        func()
	beforeInvalidate func()
}

func (l *hookedLayer) Put(ctx context.Context, key string, gen uint64, value []string) {
	if f := l.beforePut; f != nil {
		l.beforePut = nil
		f()
	}
	l.Memory.Put(ctx, key, gen, value)
}

func (l *hookedLayer) InvalidateAll(ctx context.Context) error {
	if f := l.beforeInvalidate; f != nil {
		f()
	}
	return l.Memory.InvalidateAll(ctx)
}

func newHookedService(t *testing.T) (*Service, *hookedLayer, *db.MemoryStore) {
	t.Helper()

	_, client := rtestutil.Redis(t)
	tasks := jobs.NewDispatcher(5*time.Second, nil)
	t.Cleanup(func() { tasks.Wait(context.Background()) })

	layer := &hookedLayer{Memory: memo.NewMemory(0, 0)}
	store := db.NewMemoryStore()
	return New(store, ranked.New(client), layer, tasks, nil), layer, store
}

func TestRecentMemoized_WriteDuringReadIsNotMasked(t *testing.T) {
	svc, layer, _ := newHookedService(t)
	ctx := context.Background()

	if err := svc.RecordSearch(ctx, "a"); err != nil {
		t.Fatalf("RecordSearch() error = %v", err)
	}

	layer.beforePut = func() {
		if err := svc.RecordSearch(ctx, "b"); err != nil {
			t.Errorf("RecordSearch() error = %v", err)
		}
	}
	if got := svc.RecentKeywordsMemoized(ctx, 10); !equalStrings(got, []string{"a"}) {
		t.Fatalf("RecentKeywordsMemoized() = %v, want [a] read before the write", got)
	}

	live := svc.RecentKeywords(ctx, 10)
	if got := svc.RecentKeywordsMemoized(ctx, 10); !equalStrings(got, live) {
		t.Errorf("RecentKeywordsMemoized() after write = %v, want live %v", got, live)
	}
}

func TestAutocomplete_WriteDuringReadIsNotMasked(t *testing.T) {
	svc, layer, store := newHookedService(t)
	ctx := context.Background()
	rtestutil.SeedKeywords(t, store, map[string]int64{"golang": 3})

	layer.beforePut = func() {
		if err := svc.RecordSearch(ctx, "gopher"); err != nil {
			t.Errorf("RecordSearch() error = %v", err)
		}
	}
	if _, err := svc.Autocomplete(ctx, "go", 5); err != nil {
		t.Fatalf("Autocomplete() error = %v", err)
	}

	got, err := svc.Autocomplete(ctx, "go", 5)
	if err != nil {
		t.Fatalf("Autocomplete() error = %v", err)
	}
	if !equalStrings(got, []string{"golang", "gopher"}) {
		t.Errorf("Autocomplete() after write = %v, want [golang gopher]", got)
	}
}

func TestClearRankedCache_PurgesBeforeInvalidating(t *testing.T) {
	svc, layer, _ := newHookedService(t)
	ctx := context.Background()

	if err := svc.RecordSearch(ctx, "a"); err != nil {
		t.Fatalf("RecordSearch() error = %v", err)
	}

	var recentAtInvalidate []string
	layer.beforeInvalidate = func() {
		recentAtInvalidate = svc.RecentKeywords(ctx, 10)
	}
	if err := svc.ClearRankedCache(ctx); err != nil {
		t.Fatalf("ClearRankedCache() error = %v", err)
	}

	if len(recentAtInvalidate) != 0 {
		t.Errorf("ranked cache held %v when the memo was invalidated, want empty", recentAtInvalidate)
	}
	if got := svc.RecentKeywordsMemoized(ctx, 10); len(got) != 0 {
		t.Errorf("RecentKeywordsMemoized() after clear = %v, want empty", got)
	}
}
