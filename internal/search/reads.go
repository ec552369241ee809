package search

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"searchrank/internal/metrics"
	"searchrank/internal/models"
)

// compareLimit is the top-N size used by CompareSources.
const compareLimit = 10

// PopularKeywords returns up to limit keywords by ranked score.
func (s *Service) PopularKeywords(ctx context.Context, limit int) []string {
	return s.guard.Popular(ctx, max(limit, 0))
}

// RecentKeywords returns up to limit recently searched keywords.
func (s *Service) RecentKeywords(ctx context.Context, limit int) []string {
	return s.guard.Recent(ctx, max(limit, 0))
}

// RecentKeywordsMemoized is RecentKeywords served from the memo layer until
// the next write.
func (s *Service) RecentKeywordsMemoized(ctx context.Context, limit int) []string {
	limit = max(limit, 0)
	key := fmt.Sprintf("recent::%d", limit)

	keywords, gen, ok := s.memo.Get(ctx, key)
	if ok {
		return keywords
	}
	keywords = s.guard.Recent(ctx, limit)
	s.memo.Put(ctx, key, gen, keywords)
	return keywords
}

// Autocomplete returns up to limit durable keywords starting with prefix,
// most searched first. Results are memoized per prefix and limit.
func (s *Service) Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error) {
	if strings.TrimSpace(prefix) == "" || limit <= 0 {
		return []string{}, nil
	}

	key := fmt.Sprintf("autocomplete::%s::%d", prefix, limit)
	keywords, gen, ok := s.memo.Get(ctx, key)
	if ok {
		return keywords, nil
	}

	records, err := s.store.FindByPrefix(ctx, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("autocomplete: %w", err)
	}
	keywords = models.Keywords(records)
	s.memo.Put(ctx, key, gen, keywords)
	return keywords, nil
}

// PopularKeywordsDurable returns the top keywords by durable search count.
func (s *Service) PopularKeywordsDurable(ctx context.Context, limit int) ([]string, error) {
	records, err := s.store.FindTopByCount(ctx, max(limit, 0))
	if err != nil {
		return nil, fmt.Errorf("popular keywords: %w", err)
	}
	return models.Keywords(records), nil
}

// RecentKeywordsDurable returns the most recently searched durable keywords.
func (s *Service) RecentKeywordsDurable(ctx context.Context, limit int) ([]string, error) {
	records, err := s.store.FindTopByRecency(ctx, max(limit, 0))
	if err != nil {
		return nil, fmt.Errorf("recent keywords: %w", err)
	}
	return models.Keywords(records), nil
}

// CompareSources answers the top-10 popular query from both stores and
// reports how long each took. Divergent results are expected and are not
// reconciled.
func (s *Service) CompareSources(ctx context.Context) (models.Comparison, error) {
	start := time.Now()
	rankedResult := s.guard.Popular(ctx, compareLimit)
	rankedTook := time.Since(start)

	start = time.Now()
	durableResult, err := s.PopularKeywordsDurable(ctx, compareLimit)
	durableTook := time.Since(start)
	if err != nil {
		return models.Comparison{}, err
	}

	metrics.SourceLatency.WithLabelValues("ranked").Observe(rankedTook.Seconds())
	metrics.SourceLatency.WithLabelValues("durable").Observe(durableTook.Seconds())

	speedup := float64(durableTook) / float64(max(rankedTook, time.Microsecond))
	return models.Comparison{
		RankedResult:     rankedResult,
		DurableResult:    durableResult,
		RankedLatencyMs:  millis(rankedTook),
		DurableLatencyMs: millis(durableTook),
		SpeedupFactor:    math.Round(speedup*100) / 100,
	}, nil
}

// Statistics returns the durable row count and ranked cardinality.
func (s *Service) Statistics(ctx context.Context) (models.Statistics, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return models.Statistics{}, fmt.Errorf("statistics: %w", err)
	}
	return models.Statistics{
		TotalKeywords:     total,
		RankedCardinality: s.guard.Cardinality(ctx),
		RecentCount:       s.guard.RecentLen(ctx),
		LastUpdated:       s.now(),
	}, nil
}

// RankedStoreSnapshot dumps the ranked cache with scores.
func (s *Service) RankedStoreSnapshot(ctx context.Context) models.RankedSnapshot {
	return s.guard.Snapshot(ctx)
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
