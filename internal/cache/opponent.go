// Package cache memoizes the games-vs-opponent lookup. Redis-backed when
// a client is supplied, with a process-local map fallback. The process
// lives for one run, so no eviction is needed.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultTTL keeps Redis entries alive across same-day hourly re-runs.
const DefaultTTL = 6 * time.Hour

// OpponentCache caches games-vs-opponent counts keyed by
// (date, player, opponent).
type OpponentCache struct {
	client *redis.Client
	local  map[string]int
}

// NewOpponentCache builds a cache. client may be nil: the cache then
// operates purely in-process.
func NewOpponentCache(client *redis.Client) *OpponentCache {
	return &OpponentCache{
		client: client,
		local:  make(map[string]int),
	}
}

func cacheKey(date, player, opponent string) string {
	return fmt.Sprintf("bestbets:gvo:%s:%s:%s", date, player, opponent)
}

// Get returns the cached count, checking the local map before Redis.
// Redis errors degrade to a miss; they never fail the caller.
func (c *OpponentCache) Get(ctx context.Context, date, player, opponent string) (int, bool) {
	key := cacheKey(date, player, opponent)
	if count, ok := c.local[key]; ok {
		return count, true
	}
	if c.client == nil {
		return 0, false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("Opponent cache read failed, treating as miss")
		}
		return 0, false
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	c.local[key] = count
	return count, true
}

// Set stores the count locally and, when available, in Redis.
func (c *OpponentCache) Set(ctx context.Context, date, player, opponent string, count int) {
	key := cacheKey(date, player, opponent)
	c.local[key] = count
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key, strconv.Itoa(count), DefaultTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("Opponent cache write failed")
	}
}

// Reset clears the process-local map. Tests use this between cases.
func (c *OpponentCache) Reset() {
	c.local = make(map[string]int)
}
