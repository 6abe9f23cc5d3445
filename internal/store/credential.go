package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/loglytics/ingestd/internal/models"
)

// CredentialStore persists tenant credential records for C1. It implements
// credential.Store.
type CredentialStore struct {
	Base
}

// NewCredentialStore creates a CredentialStore with the given shared base.
func NewCredentialStore(base Base) *CredentialStore {
	return &CredentialStore{Base: base}
}

// Create inserts a new tenant credential record, assigning its tenant ID.
func (s *CredentialStore) Create(ctx context.Context, tenant *models.Tenant) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tenant.TenantID = uuid.NewString()

	const sql = `INSERT INTO tenants
		(tenant_id, owner_user_id, name, platform_tag, api_key_hash, api_key_salt,
		 api_key_prefix, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.Pool.Exec(ctx, sql,
		tenant.TenantID, tenant.OwnerUserID, tenant.Name, tenant.PlatformTag,
		tenant.APIKeyHash, tenant.APIKeySalt, tenant.APIKeyPrefix,
		tenant.Status, tenant.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting tenant: %w", err)
	}

	return nil
}

// NameExists reports whether ownerUserID already has a tenant named name.
func (s *CredentialStore) NameExists(ctx context.Context, ownerUserID, name string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var exists bool

	err := s.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM tenants WHERE owner_user_id = $1 AND name = $2)`,
		ownerUserID, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking tenant name collision: %w", err)
	}

	return exists, nil
}

// GetByID fetches the full tenant record, including credential material,
// by tenant ID.
func (s *CredentialStore) GetByID(ctx context.Context, tenantID string) (*models.Tenant, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const sql = `SELECT tenant_id, owner_user_id, name, platform_tag,
		api_key_hash, api_key_salt, api_key_prefix, status,
		last_seen_at, total_received, created_at, revoked_at
		FROM tenants WHERE tenant_id = $1`

	t := &models.Tenant{}

	err := s.Pool.QueryRow(ctx, sql, tenantID).Scan(
		&t.TenantID, &t.OwnerUserID, &t.Name, &t.PlatformTag,
		&t.APIKeyHash, &t.APIKeySalt, &t.APIKeyPrefix, &t.Status,
		&t.LastSeenAt, &t.TotalReceived, &t.CreatedAt, &t.RevokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUnknownTenant
		}

		return nil, fmt.Errorf("fetching tenant %s: %w", tenantID, err)
	}

	return t, nil
}

// ListByOwner returns a page of tenant summaries owned by ownerUserID,
// newest first, and whether more rows exist past this page.
func (s *CredentialStore) ListByOwner(ctx context.Context, ownerUserID string, limit, offset int) ([]models.TenantSummary, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	const sql = `SELECT tenant_id, name, platform_tag, api_key_prefix, status,
		last_seen_at, total_received, created_at
		FROM tenants WHERE owner_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.Pool.Query(ctx, sql, ownerUserID, limit+1, offset)
	if err != nil {
		return nil, false, fmt.Errorf("listing tenants for owner %s: %w", ownerUserID, err)
	}
	defer rows.Close()

	summaries := make([]models.TenantSummary, 0, limit)

	for rows.Next() {
		var ts models.TenantSummary
		if err := rows.Scan(&ts.TenantID, &ts.Name, &ts.PlatformTag, &ts.APIKeyPrefix,
			&ts.Status, &ts.LastSeenAt, &ts.TotalReceived, &ts.CreatedAt); err != nil {
			return nil, false, fmt.Errorf("scanning tenant summary: %w", err)
		}

		summaries = append(summaries, ts)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating tenant summaries: %w", err)
	}

	hasMore := len(summaries) > limit
	if hasMore {
		summaries = summaries[:limit]
	}

	return summaries, hasMore, nil
}

// RecordActivity implements C4 step 6: advances a tenant's counters after
// a successful ingest batch — total_received accumulates, last_seen_at
// moves forward, and status flips to active on first traffic.
func (s *CredentialStore) RecordActivity(ctx context.Context, tenantID string, count int64, at time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.Pool.Exec(ctx,
		`UPDATE tenants SET total_received = total_received + $2, last_seen_at = $3, status = 'active'
		 WHERE tenant_id = $1`, tenantID, count, at)
	if err != nil {
		return fmt.Errorf("recording activity for tenant %s: %w", tenantID, err)
	}

	return nil
}

// Revoke marks a tenant's credential unusable.
func (s *CredentialStore) Revoke(ctx context.Context, tenantID string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx,
		`UPDATE tenants SET revoked_at = NOW(), status = 'inactive'
		 WHERE tenant_id = $1 AND revoked_at IS NULL`, tenantID)
	if err != nil {
		return fmt.Errorf("revoking tenant %s: %w", tenantID, err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrUnknownTenant
	}

	s.notify("tenants", "REVOKE", tenantID)

	return nil
}
