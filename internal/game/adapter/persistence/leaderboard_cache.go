package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"territory-run/internal/game/domain/model"
	"territory-run/internal/shared/logger"

	"github.com/redis/go-redis/v9"
)

const leaderboardKeyPrefix = "territory:leaderboard:"

// DefaultLeaderboardTTL bounds how stale a served leaderboard can be. The
// board is a full aggregation over the tile collection, so it is cached
// briefly rather than recomputed per request.
const DefaultLeaderboardTTL = 30 * time.Second

// RedisLeaderboardCache implements LeaderboardCache with one JSON value per
// requested limit.
type RedisLeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

// NewRedisLeaderboardCache creates the cache. Non-positive TTLs fall back to
// the default.
func NewRedisLeaderboardCache(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisLeaderboardCache {
	if ttl <= 0 {
		ttl = DefaultLeaderboardTTL
	}
	return &RedisLeaderboardCache{
		client: client,
		ttl:    ttl,
		log:    log.WithComponent("leaderboard-cache"),
	}
}

func (c *RedisLeaderboardCache) Get(ctx context.Context, limit int) ([]model.LeaderboardEntry, bool, error) {
	raw, err := c.client.Get(ctx, leaderboardKey(limit)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var entries []model.LeaderboardEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		// A corrupt value behaves like a miss and gets overwritten on the
		// next Set.
		c.log.WithContext(ctx).Warnf("Discarding corrupt leaderboard cache value: %v", err)
		return nil, false, nil
	}
	return entries, true, nil
}

func (c *RedisLeaderboardCache) Set(ctx context.Context, limit int, entries []model.LeaderboardEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, leaderboardKey(limit), raw, c.ttl).Err()
}

func leaderboardKey(limit int) string {
	return fmt.Sprintf("%s%d", leaderboardKeyPrefix, limit)
}
