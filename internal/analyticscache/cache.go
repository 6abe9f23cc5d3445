// Package analyticscache implements the read-through cache in front of C6's
// report computation: Redis holds the hot TTL-bounded copy, a Postgres
// mirror survives Redis cold starts, and a singleflight group ensures at
// most one recompute is in flight per (tenant_id, type, scope_id).
package analyticscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/loglytics/ingestd/internal/metrics"
	"github.com/loglytics/ingestd/internal/models"
)

// TTL is how long a cached report is trusted before being treated as a
// miss, per spec.md §4.6's "older than TTL (1h) is treated as a miss".
const TTL = models.DefaultCacheTTL

// Store is the durable mirror behind the Redis cache, implemented by
// internal/store.AnalyticsCacheStore.
type Store interface {
	Get(ctx context.Context, tenantID string, analyticsType models.AnalyticsType, scopeID string) (*models.AnalyticsCacheEntry, error)
	Put(ctx context.Context, entry models.AnalyticsCacheEntry) error
	Invalidate(ctx context.Context, tenantID string) error
}

// Cache fronts Store with Redis and single-flight-deduped compute.
type Cache struct {
	redis *redis.Client
	store Store
	group singleflight.Group
	log   *logrus.Logger
}

// New creates a Cache. redisClient may be nil, in which case Redis is
// skipped and every lookup falls through to the durable store.
func New(redisClient *redis.Client, store Store, log *logrus.Logger) *Cache {
	return &Cache{redis: redisClient, store: store, log: log}
}

func redisKey(tenantID string, analyticsType models.AnalyticsType, scopeID string) string {
	return fmt.Sprintf("ingestd:analytics:%s:%s:%s", tenantID, analyticsType, scopeID)
}

// Get returns the cached payload, or hit=false on a miss (absent, or older
// than TTL).
func (c *Cache) Get(ctx context.Context, tenantID string, analyticsType models.AnalyticsType, scopeID string) (payload []byte, hit bool) {
	if c.redis != nil {
		raw, err := c.redis.Get(ctx, redisKey(tenantID, analyticsType, scopeID)).Bytes()
		if err == nil {
			return raw, true
		}
		if err != redis.Nil {
			c.log.WithError(err).Warn("analytics cache redis read failed, falling back to durable store")
		}
	}

	entry, err := c.store.Get(ctx, tenantID, analyticsType, scopeID)
	if err != nil {
		c.log.WithError(err).Warn("analytics cache durable read failed")
		return nil, false
	}

	if entry == nil || entry.Expired(time.Now(), TTL) {
		return nil, false
	}

	if c.redis != nil {
		c.backfillRedis(ctx, tenantID, analyticsType, scopeID, entry.Payload)
	}

	return entry.Payload, true
}

// Put writes a freshly computed payload to Redis and the durable mirror.
func (c *Cache) Put(ctx context.Context, tenantID string, analyticsType models.AnalyticsType, scopeID string, payload []byte, computedAt time.Time) error {
	if c.redis != nil {
		if err := c.redis.Set(ctx, redisKey(tenantID, analyticsType, scopeID), payload, TTL).Err(); err != nil {
			c.log.WithError(err).Warn("analytics cache redis write failed")
		}
	}

	return c.store.Put(ctx, models.AnalyticsCacheEntry{
		TenantID:      tenantID,
		AnalyticsType: analyticsType,
		ScopeID:       scopeID,
		Payload:       payload,
		ComputedAt:    computedAt,
	})
}

// Invalidate drops every cached report for tenantID from both tiers.
func (c *Cache) Invalidate(ctx context.Context, tenantID string) error {
	if c.redis != nil {
		iter := c.redis.Scan(ctx, 0, fmt.Sprintf("ingestd:analytics:%s:*", tenantID), 0).Iterator()
		for iter.Next(ctx) {
			if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
				c.log.WithError(err).Warn("analytics cache redis delete failed during invalidation")
			}
		}
	}

	return c.store.Invalidate(ctx, tenantID)
}

func (c *Cache) backfillRedis(ctx context.Context, tenantID string, analyticsType models.AnalyticsType, scopeID string, payload []byte) {
	if err := c.redis.Set(ctx, redisKey(tenantID, analyticsType, scopeID), payload, TTL).Err(); err != nil {
		c.log.WithError(err).Warn("analytics cache redis backfill failed")
	}
}

// Resolve implements the read-through, single-flight-deduped compute path:
// a cache hit (unless force) returns immediately; otherwise at most one
// compute per key runs concurrently, with other callers waiting on it.
func (c *Cache) Resolve(ctx context.Context, tenantID string, analyticsType models.AnalyticsType, scopeID string, force bool, compute func(ctx context.Context) (any, error)) (any, error) {
	if !force {
		if payload, hit := c.Get(ctx, tenantID, analyticsType, scopeID); hit {
			metrics.AnalyticsCacheHitTotal.WithLabelValues(string(analyticsType)).Inc()
			var raw json.RawMessage = payload
			return raw, nil
		}
		metrics.AnalyticsCacheMissTotal.WithLabelValues(string(analyticsType)).Inc()
	}

	key := fmt.Sprintf("%s:%s:%s", tenantID, analyticsType, scopeID)

	result, err, _ := c.group.Do(key, func() (any, error) {
		start := time.Now()
		report, err := compute(ctx)
		metrics.AnalyticsComputeDuration.WithLabelValues(string(analyticsType)).Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}

		payload, err := json.Marshal(report)
		if err != nil {
			return nil, fmt.Errorf("marshalling computed report: %w", err)
		}

		if err := c.Put(ctx, tenantID, analyticsType, scopeID, payload, time.Now().UTC()); err != nil {
			c.log.WithError(err).Warn("failed to persist freshly computed analytics report")
		}

		return report, nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
