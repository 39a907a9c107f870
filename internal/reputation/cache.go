package reputation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	leaderboardKey = "civic:leaderboard:top"
	generationKey  = "civic:leaderboard:gen"
)

// LeaderboardCache holds the top rankings as one JSON blob in Redis, keyed by a
// generation counter. Clear bumps the generation, so a write computed before the
// bump lands under a key nobody reads and expires with its TTL.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &LeaderboardCache{client: client, ttl: ttl}
}

// Get returns the standings cached for the current generation. The generation is
// returned on a miss too; pass it to Set. It is negative when Redis is unreachable.
func (c *LeaderboardCache) Get(ctx context.Context) ([]Standing, int64, bool) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("leaderboard cache read failed", "error", err)
		return nil, -1, false
	}

	raw, err := c.client.Get(ctx, cacheKey(gen)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("leaderboard cache read failed", "error", err)
		}
		return nil, gen, false
	}

	var standings []Standing
	if err := json.Unmarshal(raw, &standings); err != nil {
		return nil, gen, false
	}
	return standings, gen, true
}

// Set stores standings under gen, the generation observed before they were queried.
func (c *LeaderboardCache) Set(ctx context.Context, gen int64, standings []Standing) error {
	if gen < 0 {
		return nil
	}
	raw, err := json.Marshal(standings)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(gen), raw, c.ttl).Err()
}

func (c *LeaderboardCache) Clear(ctx context.Context) error {
	return c.client.Incr(ctx, generationKey).Err()
}

func cacheKey(gen int64) string {
	return leaderboardKey + ":" + strconv.FormatInt(gen, 10)
}
