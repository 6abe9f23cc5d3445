package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/loglytics/ingestd/internal/models"
)

// AnalyticsCacheStore is the Postgres durable mirror behind
// internal/analyticscache's Redis-backed TTL cache: a cold Redis miss falls
// back here before recomputing. It implements domain.AnalyticsCacheStore.
type AnalyticsCacheStore struct {
	Base
}

// NewAnalyticsCacheStore creates an AnalyticsCacheStore with the given
// shared base.
func NewAnalyticsCacheStore(base Base) *AnalyticsCacheStore {
	return &AnalyticsCacheStore{Base: base}
}

// Get fetches the cached entry for (tenantID, analyticsType, scopeID). The
// caller (internal/analyticscache) is responsible for TTL expiry checks;
// this just returns whatever was last written.
func (s *AnalyticsCacheStore) Get(ctx context.Context, tenantID string, analyticsType models.AnalyticsType, scopeID string) (*models.AnalyticsCacheEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const sql = `SELECT tenant_id, analytics_type, scope_id, payload, computed_at
		FROM analytics_cache
		WHERE tenant_id = $1 AND analytics_type = $2 AND scope_id = $3`

	e := &models.AnalyticsCacheEntry{}

	err := s.Pool.QueryRow(ctx, sql, tenantID, string(analyticsType), scopeID).Scan(
		&e.TenantID, &e.AnalyticsType, &e.ScopeID, &e.Payload, &e.ComputedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("fetching cached analytics for tenant %s: %w", tenantID, err)
	}

	return e, nil
}

// Put upserts the computed report under its (tenant_id, analytics_type,
// scope_id) key, replacing any prior payload atomically.
func (s *AnalyticsCacheStore) Put(ctx context.Context, entry models.AnalyticsCacheEntry) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const sql = `INSERT INTO analytics_cache (tenant_id, analytics_type, scope_id, payload, computed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, analytics_type, scope_id)
		DO UPDATE SET payload = EXCLUDED.payload, computed_at = EXCLUDED.computed_at`

	_, err := s.Pool.Exec(ctx, sql,
		entry.TenantID, string(entry.AnalyticsType), entry.ScopeID, entry.Payload, entry.ComputedAt)
	if err != nil {
		return fmt.Errorf("caching analytics for tenant %s: %w", entry.TenantID, err)
	}

	return nil
}

// Invalidate drops every cached report for tenantID, e.g. after a bulk
// purge invalidates every previously computed snapshot.
func (s *AnalyticsCacheStore) Invalidate(ctx context.Context, tenantID string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.Pool.Exec(ctx, `DELETE FROM analytics_cache WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return fmt.Errorf("invalidating analytics cache for tenant %s: %w", tenantID, err)
	}

	return nil
}
