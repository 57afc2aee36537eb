package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/domain"
)

// ResponseCache stores composed recommendation responses. It is a pure
// optimization: failures degrade to a miss, never to a request error.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// Key derives the cache key for one request.
func Key(category domain.Category, req domain.RecommendationRequest) string {
	return strings.ToLower(fmt.Sprintf("%s-%s-%s-%s-%s",
		category, req.Coffee, req.Mood, req.Audience, req.Lang))
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache builds a redis-backed cache with per-entry TTL.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) ResponseCache {
	return &redisCache{client: client, ttl: ttl, logger: logger}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, c.namespaced(key)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return val, true
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte) {
	if err := c.client.Set(ctx, c.namespaced(key), value, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *redisCache) namespaced(key string) string {
	return "recs:" + key
}
