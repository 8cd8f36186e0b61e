package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// TimelineKey is the Redis key for the global newest-first post index
	TimelineKey = "timeline:posts"

	// TimelineCap is the maximum number of post ids kept in the cache
	TimelineCap = 500

	// TimelineTTL is the TTL for the timeline cache (7 days)
	TimelineTTL = 7 * 24 * time.Hour
)

// PostScore represents a post id with its created-at score for caching
type PostScore struct {
	PostID    string
	Timestamp int64 // Unix milliseconds
}

// TimelineCache keeps the ids of the newest posts in a Redis sorted set so
// the untagged front pages of the listing can skip the Postgres sort.
// Using an interface enables testing with mocks and potential future backends.
type TimelineCache interface {
	// AddPost adds a post to the timeline.
	// Uses pipeline: ZADD + ZREMRANGEBYRANK (maintain cap) + EXPIRE (refresh TTL)
	AddPost(ctx context.Context, postID string, timestamp int64) error

	// RemovePost removes a post from the timeline. Uses ZREM.
	RemovePost(ctx context.Context, postID string) error

	// GetPage returns post ids newest-first for the given window.
	GetPage(ctx context.Context, offset, limit int) ([]string, error)

	// Size returns the number of post ids in the timeline.
	Size(ctx context.Context) (int64, error)

	// Exists checks if the timeline key is present.
	// Returns false on a cold start or after TTL expiry; the service layer
	// should warm the cache when this returns false.
	Exists(ctx context.Context) (bool, error)

	// WarmCache bulk-inserts posts into the timeline.
	WarmCache(ctx context.Context, posts []PostScore) error

	// Clear drops the timeline entirely (bulk post deletion).
	Clear(ctx context.Context) error
}

// RedisTimelineCache implements TimelineCache using a Redis sorted set.
type RedisTimelineCache struct {
	client *redis.Client
}

// NewTimelineCache creates a new TimelineCache backed by Redis.
func NewTimelineCache(client *redis.Client) TimelineCache {
	return &RedisTimelineCache{client: client}
}

// AddPost adds a post to the timeline using a pipeline.
// Pipeline: ZADD + ZREMRANGEBYRANK (trim to cap) + EXPIRE (refresh TTL)
func (c *RedisTimelineCache) AddPost(ctx context.Context, postID string, timestamp int64) error {
	pipe := c.client.Pipeline()

	pipe.ZAdd(ctx, TimelineKey, redis.Z{
		Score:  float64(timestamp),
		Member: postID,
	})

	// Keep the highest TimelineCap scores (newest), remove the rest
	pipe.ZRemRangeByRank(ctx, TimelineKey, 0, int64(-TimelineCap-1))

	pipe.Expire(ctx, TimelineKey, TimelineTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[TimelineCache] AddPost FAILED: post=%s err=%v", postID, err)
		return fmt.Errorf("add post to timeline: %w", err)
	}

	return nil
}

// RemovePost removes a post from the timeline.
func (c *RedisTimelineCache) RemovePost(ctx context.Context, postID string) error {
	if err := c.client.ZRem(ctx, TimelineKey, postID).Err(); err != nil {
		log.Printf("[TimelineCache] RemovePost FAILED: post=%s err=%v", postID, err)
		return fmt.Errorf("remove post from timeline: %w", err)
	}
	return nil
}

// GetPage returns post ids newest-first using ZREVRANGE over the window.
func (c *RedisTimelineCache) GetPage(ctx context.Context, offset, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	stop := int64(offset + limit - 1)
	ids, err := c.client.ZRevRange(ctx, TimelineKey, int64(offset), stop).Result()
	if err != nil {
		return nil, fmt.Errorf("get timeline page: %w", err)
	}
	return ids, nil
}

// Size returns the number of post ids in the timeline.
func (c *RedisTimelineCache) Size(ctx context.Context) (int64, error) {
	n, err := c.client.ZCard(ctx, TimelineKey).Result()
	if err != nil {
		return 0, fmt.Errorf("timeline size: %w", err)
	}
	return n, nil
}

// Exists checks if the timeline key is present.
func (c *RedisTimelineCache) Exists(ctx context.Context) (bool, error) {
	n, err := c.client.Exists(ctx, TimelineKey).Result()
	if err != nil {
		return false, fmt.Errorf("timeline exists: %w", err)
	}
	return n > 0, nil
}

// WarmCache bulk-inserts posts using pipelined ZADD commands + EXPIRE.
func (c *RedisTimelineCache) WarmCache(ctx context.Context, posts []PostScore) error {
	if len(posts) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()

	members := make([]redis.Z, len(posts))
	for i, p := range posts {
		members[i] = redis.Z{
			Score:  float64(p.Timestamp),
			Member: p.PostID,
		}
	}

	pipe.ZAdd(ctx, TimelineKey, members...)
	pipe.ZRemRangeByRank(ctx, TimelineKey, 0, int64(-TimelineCap-1))
	pipe.Expire(ctx, TimelineKey, TimelineTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[TimelineCache] WarmCache FAILED: posts=%d err=%v", len(posts), err)
		return fmt.Errorf("warm timeline cache: %w", err)
	}

	log.Printf("[TimelineCache] WarmCache OK: posts=%d", len(posts))
	return nil
}

// Clear drops the timeline key.
func (c *RedisTimelineCache) Clear(ctx context.Context) error {
	if err := c.client.Del(ctx, TimelineKey).Err(); err != nil {
		log.Printf("[TimelineCache] Clear FAILED: err=%v", err)
		return fmt.Errorf("clear timeline: %w", err)
	}
	return nil
}
