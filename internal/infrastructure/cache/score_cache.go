package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"credit-engine/internal/domain/loan"

	"github.com/redis/go-redis/v9"
)

// RedisScoreCache caches computed credit scores with a short TTL. Scores are
// cheap to recompute, so any cache failure degrades to a recomputation.
type RedisScoreCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ loan.ScoreCache = (*RedisScoreCache)(nil)

func NewRedisScoreCache(addr string, ttl time.Duration, logger *slog.Logger) *RedisScoreCache {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisScoreCache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "RedisScoreCache")),
	}
}

func (c *RedisScoreCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisScoreCache) Close() error {
	return c.client.Close()
}

func scoreKey(customerID int64) string {
	return fmt.Sprintf("credit_score:%d", customerID)
}

func (c *RedisScoreCache) GetScore(ctx context.Context, customerID int64) (int, bool) {
	val, err := c.client.Get(ctx, scoreKey(customerID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "Failed to read cached credit score", slog.Any("error", err))
		}
		return 0, false
	}

	score, err := strconv.Atoi(val)
	if err != nil {
		c.logger.WarnContext(ctx, "Cached credit score is not an integer, dropping it",
			slog.String("value", val))
		c.client.Del(ctx, scoreKey(customerID))
		return 0, false
	}
	return score, true
}

func (c *RedisScoreCache) SetScore(ctx context.Context, customerID int64, score int) error {
	return c.client.Set(ctx, scoreKey(customerID), strconv.Itoa(score), c.ttl).Err()
}

func (c *RedisScoreCache) InvalidateScore(ctx context.Context, customerID int64) error {
	return c.client.Del(ctx, scoreKey(customerID)).Err()
}
