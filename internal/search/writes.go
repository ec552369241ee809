package search

import (
	"context"
	"fmt"

	"searchrank/internal/models"
)

// RecordSearch records one search for keyword. The durable write is
// synchronous and its failure is returned; the ranked cache is updated
// afterwards on a best-effort basis.
func (s *Service) RecordSearch(ctx context.Context, keyword string) error {
	k, err := normalizeKeyword(keyword)
	if err != nil {
		return err
	}

	increments := map[string]int64{k: 1}
	if err := s.persist(ctx, increments, s.now()); err != nil {
		return fmt.Errorf("record search: %w", err)
	}

	s.applyRanked(ctx, "record", increments, []string{k})
	s.invalidate(ctx)
	return nil
}

// RecordSearchBatch records a batch of searches. recent lists keywords in
// the order they were searched; the last one becomes the most recent. The
// durable write completes before return.
func (s *Service) RecordSearchBatch(ctx context.Context, increments map[string]int64, recent []string) error {
	inc, rec, err := normalizeBatch(increments, recent)
	if err != nil {
		return err
	}
	if len(inc) == 0 && len(rec) == 0 {
		return nil
	}

	if err := s.persist(ctx, inc, s.now()); err != nil {
		return fmt.Errorf("record search batch: %w", err)
	}

	s.applyRanked(ctx, "batch", inc, rec)
	s.invalidate(ctx)
	return nil
}

// IngestFastAndSnapshot updates the ranked cache, hands the durable write to
// a background task and returns the top limit popular and recent keywords.
//
// The caller never waits for, or learns about, the durable write. If the
// process dies before it completes the increments exist only in the ranked
// cache. A later synchronous write for the same keyword may also land first.
// Only validation errors are returned.
func (s *Service) IngestFastAndSnapshot(ctx context.Context, increments map[string]int64, recent []string, limit int) (models.Snapshot, error) {
	inc, rec, err := normalizeBatch(increments, recent)
	if err != nil {
		return models.Snapshot{}, err
	}
	limit = max(limit, 0)

	now := s.now()
	s.applyRanked(ctx, "fast", inc, rec)
	s.invalidate(ctx)

	if len(inc) > 0 {
		s.tasks.Go("persist-fast", func(ctx context.Context) error {
			return s.persist(ctx, inc, now)
		})
	}

	return models.Snapshot{
		Popular: s.guard.Popular(ctx, limit),
		Recent:  s.guard.Recent(ctx, limit),
	}, nil
}

// ClearRankedCache drops the ranked structures and then every memoized read,
// so no read computed from the purged structures outlives the call.
func (s *Service) ClearRankedCache(ctx context.Context) error {
	err := s.cache.PurgeAll(ctx)
	s.invalidate(ctx)
	return err
}
