package ranked

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"searchrank/internal/models"
)

const (
	DefaultPopularKey = "popular_keywords"
	DefaultRecentKey  = "recent_keywords"
	DefaultRecentSize = 10
)

// Cache is the ranked keyword cache.
type Cache struct {
	client     redis.UniversalClient
	popularKey string
	recentKey  string
	recentSize int
}

// Option configures a Cache.
type Option func(*Cache)

// WithKeys overrides the Redis key names. On Redis Cluster both keys must
// hash to the same slot (e.g. "{search}:popular", "{search}:recent") for
// batches to run in one transaction.
func WithKeys(popular, recent string) Option {
	return func(c *Cache) {
		if popular != "" {
			c.popularKey = popular
		}
		if recent != "" {
			c.recentKey = recent
		}
	}
}

// WithRecentSize sets the maximum length of the recent list.
func WithRecentSize(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.recentSize = n
		}
	}
}

// New creates a Cache on top of client.
func New(client redis.UniversalClient, opts ...Option) *Cache {
	c := &Cache{
		client:     client,
		popularKey: DefaultPopularKey,
		recentKey:  DefaultRecentKey,
		recentSize: DefaultRecentSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IncrementScore adds delta to keyword's score.
func (c *Cache) IncrementScore(ctx context.Context, keyword string, delta int64) error {
	return c.ApplyBatch(ctx, map[string]int64{keyword: delta}, nil)
}

// TouchRecent moves keyword to the front of the recent list, trimming it to
// the configured size.
func (c *Cache) TouchRecent(ctx context.Context, keyword string) error {
	return c.ApplyBatch(ctx, nil, []string{keyword})
}

// ApplyBatch applies all score increments and recency touches in a single
// MULTI/EXEC round trip, so readers observe either the whole batch or none
// of it. Recent keywords are touched in input order: the last one ends up
// at the front. Concurrent batches are not isolated from each other beyond
// that; increments commute and touches are last-write-wins.
func (c *Cache) ApplyBatch(ctx context.Context, increments map[string]int64, recent []string) error {
	if len(increments) == 0 && len(recent) == 0 {
		return nil
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for keyword, delta := range increments {
			pipe.ZIncrBy(ctx, c.popularKey, float64(delta), keyword)
		}
		if len(recent) > 0 {
			for _, keyword := range recent {
				pipe.LRem(ctx, c.recentKey, 0, keyword)
				pipe.LPush(ctx, c.recentKey, keyword)
			}
			pipe.LTrim(ctx, c.recentKey, 0, int64(c.recentSize-1))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ranked batch: %w", err)
	}
	return nil
}

// TopByScore returns up to limit keywords by descending score. Equal scores
// are ordered reverse-lexicographically. A negative limit returns all.
func (c *Cache) TopByScore(ctx context.Context, limit int) ([]string, error) {
	if limit == 0 {
		return []string{}, nil
	}
	keywords, err := c.client.ZRevRange(ctx, c.popularKey, 0, stop(limit)).Result()
	if err != nil {
		return nil, fmt.Errorf("ranked top: %w", err)
	}
	return nonNil(keywords), nil
}

// TopWithScores is TopByScore including the scores.
func (c *Cache) TopWithScores(ctx context.Context, limit int) ([]models.ScoredKeyword, error) {
	if limit == 0 {
		return []models.ScoredKeyword{}, nil
	}
	zs, err := c.client.ZRevRangeWithScores(ctx, c.popularKey, 0, stop(limit)).Result()
	if err != nil {
		return nil, fmt.Errorf("ranked top with scores: %w", err)
	}
	return scored(zs)
}

// Recent returns up to limit recently searched keywords, most recent first.
// A negative limit returns the whole list.
func (c *Cache) Recent(ctx context.Context, limit int) ([]string, error) {
	if limit == 0 {
		return []string{}, nil
	}
	keywords, err := c.client.LRange(ctx, c.recentKey, 0, stop(limit)).Result()
	if err != nil {
		return nil, fmt.Errorf("ranked recent: %w", err)
	}
	return nonNil(keywords), nil
}

// Cardinality returns the number of scored keywords.
func (c *Cache) Cardinality(ctx context.Context) (int64, error) {
	n, err := c.client.ZCard(ctx, c.popularKey).Result()
	if err != nil {
		return 0, fmt.Errorf("ranked cardinality: %w", err)
	}
	return n, nil
}

// RecentLen returns the length of the recent list.
func (c *Cache) RecentLen(ctx context.Context) (int64, error) {
	n, err := c.client.LLen(ctx, c.recentKey).Result()
	if err != nil {
		return 0, fmt.Errorf("ranked recent length: %w", err)
	}
	return n, nil
}

// Snapshot reads both structures in one transaction.
func (c *Cache) Snapshot(ctx context.Context) (models.RankedSnapshot, error) {
	var (
		popular *redis.ZSliceCmd
		recent  *redis.StringSliceCmd
		zcard   *redis.IntCmd
		llen    *redis.IntCmd
	)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		popular = pipe.ZRevRangeWithScores(ctx, c.popularKey, 0, -1)
		recent = pipe.LRange(ctx, c.recentKey, 0, -1)
		zcard = pipe.ZCard(ctx, c.popularKey)
		llen = pipe.LLen(ctx, c.recentKey)
		return nil
	})
	if err != nil {
		return models.RankedSnapshot{}, fmt.Errorf("ranked snapshot: %w", err)
	}

	withScores, err := scored(popular.Val())
	if err != nil {
		return models.RankedSnapshot{}, err
	}
	return models.RankedSnapshot{
		PopularWithScores: withScores,
		Recent:            nonNil(recent.Val()),
		PopularCount:      zcard.Val(),
		RecentCount:       llen.Val(),
	}, nil
}

// PurgeAll deletes both structures. Missing keys are not an error.
func (c *Cache) PurgeAll(ctx context.Context) error {
	if err := c.client.Del(ctx, c.popularKey, c.recentKey).Err(); err != nil {
		return fmt.Errorf("ranked purge: %w", err)
	}
	return nil
}

func stop(limit int) int64 {
	if limit < 0 {
		return -1
	}
	return int64(limit - 1)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func scored(zs []redis.Z) ([]models.ScoredKeyword, error) {
	out := make([]models.ScoredKeyword, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("ranked: unexpected member type %T", z.Member)
		}
		out = append(out, models.ScoredKeyword{Keyword: member, Score: z.Score})
	}
	return out, nil
}
