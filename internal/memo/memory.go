package memo

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"searchrank/internal/metrics"
)

// DefaultMaxEntries bounds the in-process layer when no size is given.
const DefaultMaxEntries = 1024

// Memory is an in-process Layer backed by an expiring LRU. Entries expire
// after ttl when ttl > 0, and the least recently used entry is evicted once
// maxEntries is reached.
type Memory struct {
	// mu orders Put against InvalidateAll so a generation check and the
	// insert it guards cannot straddle a purge.
	mu     sync.Mutex
	cache  *expirable.LRU[string, []string]
	gen    uint64
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewMemory creates an in-process Layer holding at most maxEntries values.
func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memory{
		cache: expirable.NewLRU[string, []string](maxEntries, nil, ttl),
	}
}

func (m *Memory) Get(ctx context.Context, key string) ([]string, uint64, bool) {
	m.mu.Lock()
	gen := m.gen
	value, ok := m.cache.Get(key)
	m.mu.Unlock()

	if !ok {
		m.misses.Add(1)
		metrics.MemoLookups.WithLabelValues("miss").Inc()
		return nil, gen, false
	}
	m.hits.Add(1)
	metrics.MemoLookups.WithLabelValues("hit").Inc()
	return slices.Clone(value), gen, true
}

func (m *Memory) Put(ctx context.Context, key string, gen uint64, value []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return
	}
	m.cache.Add(key, slices.Clone(value))
}

func (m *Memory) InvalidateAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++
	m.cache.Purge()
	return nil
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	return m.cache.Len()
}

// Stats returns a copy of the hit/miss counters.
func (m *Memory) Stats() Stats {
	return Stats{Hits: m.hits.Load(), Misses: m.misses.Load()}
}
