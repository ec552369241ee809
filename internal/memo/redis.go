package memo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultPrefix namespaces memo entries inside the shared Redis database.
	DefaultPrefix = "search::"
	// DefaultGenerationKey holds the current memo generation. It sits
	// outside DefaultPrefix so sweeps never delete it.
	DefaultGenerationKey = "search:generation"
)

// noGeneration marks a Get that could not read the generation; Put ignores it.
const noGeneration = ^uint64(0)

// Redis is a Layer stored in Redis through the fiber storage driver, so
// memoized reads are shared by every instance behind the same Redis.
//
// Entries are keyed by generation. InvalidateAll bumps the generation with
// INCR, which makes every older entry unreachable at once, then sweeps the
// old entries away. On a cluster the sweep visits every master.
type Redis struct {
	storage *fiberredis.Storage
	prefix  string
	genKey  string
	ttl     time.Duration
	logger  *slog.Logger
}

// NewRedis creates a Redis-backed Layer. A zero ttl stores entries without
// expiry.
func NewRedis(storage *fiberredis.Storage, ttl time.Duration, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{
		storage: storage,
		prefix:  DefaultPrefix,
		genKey:  DefaultGenerationKey,
		ttl:     ttl,
		logger:  logger,
	}
}

func (r *Redis) entryKey(gen uint64, key string) string {
	return r.prefix + strconv.FormatUint(gen, 10) + "::" + key
}

func (r *Redis) generation(ctx context.Context) (uint64, error) {
	gen, err := r.storage.Conn().Get(ctx, r.genKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get treats storage and decode failures as misses.
func (r *Redis) Get(ctx context.Context, key string) ([]string, uint64, bool) {
	gen, err := r.generation(ctx)
	if err != nil {
		r.logger.Warn("memo generation read failed", "error", err)
		return nil, noGeneration, false
	}

	data, err := r.storage.Get(r.entryKey(gen, key))
	if err != nil {
		r.logger.Warn("memo get failed", "key", key, "error", err)
		return nil, gen, false
	}
	if data == nil {
		return nil, gen, false
	}

	var value []string
	if err := json.Unmarshal(data, &value); err != nil {
		r.logger.Warn("memo entry undecodable", "key", key, "error", err)
		return nil, gen, false
	}
	return value, gen, true
}

// Put skips the write when the generation has moved on. A value that slips
// past the check lands under a retired generation and is never read.
func (r *Redis) Put(ctx context.Context, key string, gen uint64, value []string) {
	if gen == noGeneration {
		return
	}
	if cur, err := r.generation(ctx); err != nil || cur != gen {
		return
	}

	if value == nil {
		value = []string{}
	}
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("memo encode failed", "key", key, "error", err)
		return
	}
	if err := r.storage.Set(r.entryKey(gen, key), data, r.ttl); err != nil {
		r.logger.Warn("memo put failed", "key", key, "error", err)
	}
}

// InvalidateAll retires the current generation and deletes stored entries.
// The ranked cache keys share the database and are left untouched. Only a
// failure to retire the generation is returned; a failed sweep leaves
// unreachable entries behind and is logged.
func (r *Redis) InvalidateAll(ctx context.Context) error {
	conn := r.storage.Conn()
	if err := conn.Incr(ctx, r.genKey).Err(); err != nil {
		return fmt.Errorf("memo generation: %w", err)
	}

	pattern := r.prefix + "*"
	var err error
	if cluster, ok := conn.(*redis.ClusterClient); ok {
		err = cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			return sweep(ctx, node, pattern)
		})
	} else {
		err = sweep(ctx, conn, pattern)
	}
	if err != nil {
		r.logger.Warn("memo sweep failed", "error", err)
	}
	return nil
}

// sweep deletes every key on one node matching pattern. Keys are deleted one
// per command so cluster nodes never see a cross-slot DEL.
func sweep(ctx context.Context, conn redis.Cmdable, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := conn.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("memo scan: %w", err)
		}
		if len(keys) > 0 {
			_, err := conn.Pipelined(ctx, func(p redis.Pipeliner) error {
				for _, k := range keys {
					p.Del(ctx, k)
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("memo delete: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
