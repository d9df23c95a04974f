package photo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	timelineCacheKey = "photos:timeline"
	timelineCacheTTL = 5 * time.Minute
)

// Cache is a Redis-backed timeline cache. A nil *Cache (or a Cache built
// over a nil client) is valid and behaves as a permanent miss, so callers
// never have to branch on whether caching is configured.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client}
}

// GetTimeline returns the cached timeline and whether it was present.
func (c *Cache) GetTimeline(ctx context.Context) ([]*Photo, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, timelineCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("Timeline cache read failed")
		}
		return nil, false
	}
	var photos []*Photo
	if err := json.Unmarshal(raw, &photos); err != nil {
		log.Warn().Err(err).Msg("Timeline cache entry corrupt, dropping")
		c.Invalidate(ctx)
		return nil, false
	}
	return photos, true
}

// SetTimeline stores the timeline. Failures are logged, never returned.
func (c *Cache) SetTimeline(ctx context.Context, photos []*Photo) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(photos)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, timelineCacheKey, raw, timelineCacheTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("Timeline cache write failed")
	}
}

// Invalidate drops the cached timeline.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, timelineCacheKey).Err(); err != nil {
		log.Warn().Err(err).Msg("Timeline cache invalidation failed")
	}
}
