// Package search sequences writes across the ranked cache, the durable
// keyword store and the memoization layer, and serves the read views.
//
// The two stores are updated independently. The ranked cache is advisory:
// its write failures are logged and its read failures fall back to an empty
// result. Durable failures propagate on the synchronous write paths and are
// only logged on the fast ingestion path, whose durable write runs in the
// background after the call returns.
package search

import (
	"context"
	"log/slog"
	"time"

	"searchrank/internal/jobs"
	"searchrank/internal/memo"
	"searchrank/internal/metrics"
	"searchrank/internal/models"
	"searchrank/internal/ranked"
)

// KeywordStore is the durable per-keyword counter store.
type KeywordStore interface {
	FindByKeywords(ctx context.Context, keywords []string) ([]models.KeywordRecord, error)
	FindByPrefix(ctx context.Context, prefix string, limit int) ([]models.KeywordRecord, error)
	FindTopByCount(ctx context.Context, n int) ([]models.KeywordRecord, error)
	FindTopByRecency(ctx context.Context, n int) ([]models.KeywordRecord, error)
	UpsertAll(ctx context.Context, records []models.KeywordRecord) error
	Count(ctx context.Context) (int64, error)
}

// Service is the search keyword façade.
type Service struct {
	store  KeywordStore
	cache  *ranked.Cache
	guard  *ranked.Guard
	memo   memo.Layer
	tasks  *jobs.Dispatcher
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Service.
func New(store KeywordStore, cache *ranked.Cache, layer memo.Layer, tasks *jobs.Dispatcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		cache:  cache,
		guard:  ranked.NewGuard(cache, logger),
		memo:   layer,
		tasks:  tasks,
		logger: logger,
		now:    time.Now,
	}
}

// applyRanked writes a batch to the ranked cache, logging failures.
func (s *Service) applyRanked(ctx context.Context, op string, increments map[string]int64, recent []string) {
	if err := s.cache.ApplyBatch(ctx, increments, recent); err != nil {
		metrics.CacheWriteFailures.WithLabelValues(op).Inc()
		s.logger.Warn("ranked cache write failed", "op", op, "keywords", len(increments), "error", err)
	}
}

// invalidate drops every memoized read.
func (s *Service) invalidate(ctx context.Context) {
	if err := s.memo.InvalidateAll(ctx); err != nil {
		s.logger.Warn("memo invalidation failed", "error", err)
	}
}
