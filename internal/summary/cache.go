package summary

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Marga-Ghale/ora-tracker/internal/db"
)

// Cache keeps the latest generated summary per project.
type Cache interface {
	Get(ctx context.Context, projectID string) (string, bool)
	Set(ctx context.Context, projectID, text string)
	Invalidate(ctx context.Context, projectID string)
}

type redisCache struct {
	redis *db.RedisDB
	ttl   time.Duration
}

// NewRedisCache returns a Cache backed by redis, or a no-op cache when r is nil.
func NewRedisCache(r *db.RedisDB, ttl time.Duration) Cache {
	if r == nil {
		return noopCache{}
	}
	return &redisCache{redis: r, ttl: ttl}
}

func cacheKey(projectID string) string {
	return "summary:project:" + projectID
}

func (c *redisCache) Get(ctx context.Context, projectID string) (string, bool) {
	var text string
	err := c.redis.GetCache(ctx, cacheKey(projectID), &text)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).WithField("project", projectID).Warn("summary cache read failed")
		}
		return "", false
	}
	return text, true
}

func (c *redisCache) Set(ctx context.Context, projectID, text string) {
	if err := c.redis.SetCache(ctx, cacheKey(projectID), text, c.ttl); err != nil {
		log.WithError(err).WithField("project", projectID).Warn("summary cache write failed")
	}
}

func (c *redisCache) Invalidate(ctx context.Context, projectID string) {
	if err := c.redis.DeleteCache(ctx, cacheKey(projectID)); err != nil {
		log.WithError(err).WithField("project", projectID).Warn("summary cache invalidation failed")
	}
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (string, bool) { return "", false }
func (noopCache) Set(context.Context, string, string)        {}
func (noopCache) Invalidate(context.Context, string)         {}
