// Package domain defines the canonical service interfaces shared across API
// and transport layers. Consumers should depend on these interfaces rather
// than re-declaring equivalent ones.
package domain

import (
	"context"
	"time"

	"github.com/loglytics/ingestd/internal/models"
)

// CredentialService implements C1: issuing, verifying, and revoking tenant
// credentials.
type CredentialService interface {
	Issue(ctx context.Context, req models.CreateTenantRequest) (*models.IssuedCredential, error)
	Verify(ctx context.Context, tenantID, presentedKey string) (*models.Tenant, error)
	Revoke(ctx context.Context, tenantID string) error
	List(ctx context.Context, ownerUserID string, limit, offset int) ([]models.TenantSummary, bool, error)
	Get(ctx context.Context, tenantID string) (*models.Tenant, error)
}

// IngestPipeline implements C4: authenticate, frame, parse, normalize,
// persist, broadcast.
type IngestPipeline interface {
	Ingest(ctx context.Context, tenantID, presentedKey string, body []byte) (*models.IngestAck, error)
}

// FanoutService implements C5: the per-tenant live subscriber registry.
type FanoutService interface {
	Subscribe(tenantID, subscriberID string) (Subscriber, error)
	Broadcast(ctx context.Context, tenantID string, record *models.LogRecord)
}

// Subscriber is the handle a live connection drains for fan-out events.
// try_send semantics live in the concrete implementation (internal/ws);
// this interface only exposes what callers outside that package need.
type Subscriber interface {
	ID() string
	Close(reason string)
}

// AnalyticsService implements C6: cached, on-demand report computation.
type AnalyticsService interface {
	Report(ctx context.Context, req models.ReportRequest) (any, error)
	Invalidate(ctx context.Context, tenantID string) error
}

// LogRecordStore is the persistence boundary for canonical log records,
// used by both the ingest pipeline and the analytics engine's snapshot read.
type LogRecordStore interface {
	InsertBatch(ctx context.Context, tenantID string, records []models.LogRecord) (int, error)
	Query(ctx context.Context, tenantID string, scopeID string, since, until time.Time) ([]models.LogRecord, error)
	PurgeOlderThan(ctx context.Context, tenantID string, cutoff time.Time) (int64, error)
}

// AnalyticsCacheStore is the durable mirror behind internal/analyticscache's
// Redis-backed TTL cache.
type AnalyticsCacheStore interface {
	Get(ctx context.Context, tenantID string, analyticsType models.AnalyticsType, scopeID string) (*models.AnalyticsCacheEntry, error)
	Put(ctx context.Context, entry models.AnalyticsCacheEntry) error
	Invalidate(ctx context.Context, tenantID string) error
}
