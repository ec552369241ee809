package db

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"searchrank/internal/models"
)

// MemoryStore is an in-process keyword store with the same query surface as
// DB. It backs DURABLE_BACKEND=memory for local runs and is used by tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.KeywordRecord

	// Err, when set, is returned by every call.
	Err error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]models.KeywordRecord)}
}

func (m *MemoryStore) FindByKeywords(ctx context.Context, keywords []string) ([]models.KeywordRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	var out []models.KeywordRecord
	for _, k := range keywords {
		if r, ok := m.records[k]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) FindByPrefix(ctx context.Context, prefix string, limit int) ([]models.KeywordRecord, error) {
	return m.top(limit, byCount, func(r models.KeywordRecord) bool {
		return strings.HasPrefix(r.Keyword, prefix)
	})
}

func (m *MemoryStore) FindTopByCount(ctx context.Context, n int) ([]models.KeywordRecord, error) {
	return m.top(n, byCount, nil)
}

func (m *MemoryStore) FindTopByRecency(ctx context.Context, n int) ([]models.KeywordRecord, error) {
	return m.top(n, byRecency, nil)
}

func (m *MemoryStore) UpsertAll(ctx context.Context, records []models.KeywordRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	now := time.Now()
	for _, r := range records {
		if existing, ok := m.records[r.Keyword]; ok {
			r.ID = existing.ID
			r.CreatedAt = existing.CreatedAt
		} else {
			r.ID = uuid.New()
			r.CreatedAt = now
		}
		r.UpdatedAt = now
		m.records[r.Keyword] = r
	}
	return nil
}

func (m *MemoryStore) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return int64(len(m.records)), nil
}

// Get returns a copy of the stored record for keyword.
func (m *MemoryStore) Get(keyword string) (models.KeywordRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[keyword]
	return r, ok
}

func (m *MemoryStore) top(n int, less func(a, b models.KeywordRecord) bool, keep func(models.KeywordRecord) bool) ([]models.KeywordRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if n <= 0 {
		return nil, nil
	}

	out := make([]models.KeywordRecord, 0, len(m.records))
	for _, r := range m.records {
		if keep == nil || keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func byCount(a, b models.KeywordRecord) bool {
	if a.SearchCount != b.SearchCount {
		return a.SearchCount > b.SearchCount
	}
	return a.Keyword < b.Keyword
}

// byRecency orders like "last_searched_at DESC NULLS LAST, keyword ASC".
func byRecency(a, b models.KeywordRecord) bool {
	switch {
	case a.LastSearchedAt == nil && b.LastSearchedAt == nil:
		return a.Keyword < b.Keyword
	case a.LastSearchedAt == nil:
		return false
	case b.LastSearchedAt == nil:
		return true
	case !a.LastSearchedAt.Equal(*b.LastSearchedAt):
		return a.LastSearchedAt.After(*b.LastSearchedAt)
	}
	return a.Keyword < b.Keyword
}
