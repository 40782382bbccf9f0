package tally

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/google/uuid"

	"quorum/internal/platform/redis"
)

// Cache stores computed tallies in Redis. A nil client disables caching;
// all methods degrade to misses. Cache failures never fail a tally read,
// they only cost a recompute.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func cacheKey(electionID uuid.UUID) string {
	return "quorum:tally:" + electionID.String()
}

func (c *Cache) Get(ctx context.Context, electionID uuid.UUID) (*Result, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKey(electionID)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.logger.WarnContext(ctx, "tally cache read failed", "error", err)
		}
		return nil, false
	}
	var r Result
	if err := json.Unmarshal(raw, &r); err != nil {
		c.logger.WarnContext(ctx, "tally cache entry corrupt, dropping", "error", err)
		c.Invalidate(ctx, electionID)
		return nil, false
	}
	return &r, true
}

func (c *Cache) Set(ctx context.Context, r *Result) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return
	}
	// Final tallies cannot change, but they still expire so a missed
	// invalidation can never pin a stale provisional entry forever.
	if err := c.client.Set(ctx, cacheKey(r.ElectionID), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "tally cache write failed", "error", err)
	}
}

func (c *Cache) Invalidate(ctx context.Context, electionID uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, cacheKey(electionID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "tally cache invalidation failed", "error", err)
	}
}
