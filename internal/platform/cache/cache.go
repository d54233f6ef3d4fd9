// Package cache is a read-through TTL cache for record summaries, backing the
// map view. Redis is optional: a nil *Cache is valid and all methods no-op on
// it, so callers never branch on configuration.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	platformredis "geoatlas/internal/platform/redis"
	"geoatlas/internal/record"
)

const keyPrefix = "geoatlas:summaries:"

// Cache stores marshalled summary lists per access scope.
type Cache struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New returns nil when the redis client is nil (cache disabled).
func New(client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// Get returns cached summaries for the scope key, or false on miss. Cache
// failures degrade to a miss.
func (c *Cache) Get(ctx context.Context, scope string) ([]record.Summary, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, keyPrefix+scope).Bytes()
	if err != nil {
		return nil, false
	}
	var out []record.Summary
	if err := json.Unmarshal(raw, &out); err != nil {
		c.logger.WarnContext(ctx, "dropping corrupt summary cache entry", "scope", scope)
		_ = c.client.Del(ctx, keyPrefix+scope).Err()
		return nil, false
	}
	return out, true
}

// Set stores summaries for the scope key with the configured TTL.
func (c *Cache) Set(ctx context.Context, scope string, summaries []record.Summary) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(summaries)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+scope, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "summary cache set failed", "scope", scope, "error", err.Error())
	}
}

// Invalidate drops every cached scope. Called after any record mutation; the
// key space is small (one entry per entity/role scope) so a scan is fine.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
	if err := iter.Err(); err != nil {
		c.logger.WarnContext(ctx, "summary cache invalidation failed", "error", err.Error())
	}
}
