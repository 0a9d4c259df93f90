package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/uni-admin/enrollment-api/internal/models"
)

const catalogVersionKey = "catalog:version"

// CatalogCache is a Redis-backed cache for course-catalog listings. Keys are
// namespaced by a version counter; invalidation bumps the counter so stale
// entries simply expire instead of being scanned for.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache wraps a Redis client for catalog caching.
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	return &CatalogCache{client: client, ttl: ttl}
}

// Get returns the cached listing for the key, if present.
func (c *CatalogCache) Get(ctx context.Context, key string) ([]models.Course, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, c.versionedKey(ctx, key)).Bytes()
	if err != nil {
		return nil, false
	}
	var courses []models.Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		return nil, false
	}
	return courses, true
}

// Set stores a listing under the key for the configured TTL.
func (c *CatalogCache) Set(ctx context.Context, key string, courses []models.Course) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(courses)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.versionedKey(ctx, key), raw, c.ttl)
}

// Invalidate bumps the namespace version, orphaning every cached listing.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Incr(ctx, catalogVersionKey)
}

func (c *CatalogCache) versionedKey(ctx context.Context, key string) string {
	version, err := c.client.Get(ctx, catalogVersionKey).Int64()
	if err != nil {
		version = 0
	}
	return fmt.Sprintf("catalog:%d:%s", version, key)
}
