package ranked

import (
	"context"
	"errors"
	"log/slog"

	"searchrank/internal/metrics"
	"searchrank/internal/models"
)

// Guard wraps Cache reads. A read that fails for any reason other than the
// caller's context ending is treated as corruption: both structures are
// purged and the read returns an empty result instead of an error.
type Guard struct {
	cache  *Cache
	logger *slog.Logger
}

// NewGuard wraps cache.
func NewGuard(cache *Cache, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{cache: cache, logger: logger}
}

// Popular returns the top keywords by score, or empty after a purge.
func (g *Guard) Popular(ctx context.Context, limit int) []string {
	keywords, err := g.cache.TopByScore(ctx, limit)
	if err != nil {
		g.recover(ctx, "popular", err)
		return []string{}
	}
	return keywords
}

// Recent returns the recent keywords, or empty after a purge.
func (g *Guard) Recent(ctx context.Context, limit int) []string {
	keywords, err := g.cache.Recent(ctx, limit)
	if err != nil {
		g.recover(ctx, "recent", err)
		return []string{}
	}
	return keywords
}

// Cardinality returns the number of scored keywords, or 0 after a purge.
func (g *Guard) Cardinality(ctx context.Context) int64 {
	n, err := g.cache.Cardinality(ctx)
	if err != nil {
		g.recover(ctx, "cardinality", err)
		return 0
	}
	return n
}

// RecentLen returns the recent list length, or 0 after a purge.
func (g *Guard) RecentLen(ctx context.Context) int64 {
	n, err := g.cache.RecentLen(ctx)
	if err != nil {
		g.recover(ctx, "recent length", err)
		return 0
	}
	return n
}

// Snapshot dumps both structures, or an empty snapshot after a purge.
func (g *Guard) Snapshot(ctx context.Context) models.RankedSnapshot {
	snap, err := g.cache.Snapshot(ctx)
	if err != nil {
		g.recover(ctx, "snapshot", err)
		return models.RankedSnapshot{
			PopularWithScores: []models.ScoredKeyword{},
			Recent:            []string{},
		}
	}
	return snap
}

func (g *Guard) recover(ctx context.Context, op string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}

	g.logger.Warn("ranked cache unreadable, purging", "op", op, "error", err)
	metrics.CorruptionPurges.Inc()

	if perr := g.cache.PurgeAll(context.WithoutCancel(ctx)); perr != nil {
		g.logger.Error("ranked cache purge failed", "op", op, "error", perr)
	}
}
