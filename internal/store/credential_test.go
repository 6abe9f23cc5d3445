package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/loglytics/ingestd/internal/store"
)

func TestCredentialStore_CreateAndGetByID(t *testing.T) {
	base, tenantID := setupTestTenant(t)
	creds := store.NewCredentialStore(base)

	tenant, err := creds.GetByID(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if tenant.TenantID != tenantID {
		t.Fatalf("expected tenant_id %s, got %s", tenantID, tenant.TenantID)
	}

	if tenant.Status != "inactive" {
		t.Fatalf("expected freshly created tenant to be inactive, got %s", tenant.Status)
	}
}

func TestCredentialStore_NameExists(t *testing.T) {
	base, _ := setupTestTenant(t)
	creds := store.NewCredentialStore(base)

	exists, err := creds.NameExists(context.Background(), "test-owner", "test-tenant")
	if err != nil {
		t.Fatalf("NameExists: %v", err)
	}

	if !exists {
		t.Fatal("expected name collision to be detected for the tenant just created")
	}

	exists, err = creds.NameExists(context.Background(), "test-owner", "no-such-name")
	if err != nil {
		t.Fatalf("NameExists: %v", err)
	}

	if exists {
		t.Fatal("expected no collision for an unused name")
	}
}

func TestCredentialStore_RecordActivity(t *testing.T) {
	base, tenantID := setupTestTenant(t)
	creds := store.NewCredentialStore(base)

	at := time.Now().UTC()
	if err := creds.RecordActivity(context.Background(), tenantID, 3, at); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}

	tenant, err := creds.GetByID(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if tenant.TotalReceived != 3 {
		t.Fatalf("expected total_received=3, got %d", tenant.TotalReceived)
	}

	if tenant.Status != "active" {
		t.Fatalf("expected status flipped to active, got %s", tenant.Status)
	}

	if tenant.LastSeenAt == nil || !tenant.LastSeenAt.Equal(at) {
		t.Fatalf("expected last_seen_at %v, got %v", at, tenant.LastSeenAt)
	}

	// A second call accumulates rather than overwriting.
	if err := creds.RecordActivity(context.Background(), tenantID, 2, at.Add(time.Minute)); err != nil {
		t.Fatalf("RecordActivity (second call): %v", err)
	}

	tenant, err = creds.GetByID(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if tenant.TotalReceived != 5 {
		t.Fatalf("expected total_received accumulated to 5, got %d", tenant.TotalReceived)
	}
}

func TestCredentialStore_Revoke(t *testing.T) {
	base, tenantID := setupTestTenant(t)
	creds := store.NewCredentialStore(base)

	if err := creds.Revoke(context.Background(), tenantID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	tenant, err := creds.GetByID(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if tenant.RevokedAt == nil {
		t.Fatal("expected revoked_at to be set")
	}

	if err := creds.Revoke(context.Background(), tenantID); err == nil {
		t.Fatal("expected revoking an already-revoked tenant to fail")
	}
}

func TestCredentialStore_ListByOwner(t *testing.T) {
	base, tenantID := setupTestTenant(t)
	creds := store.NewCredentialStore(base)

	summaries, hasMore, err := creds.ListByOwner(context.Background(), "test-owner", 10, 0)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}

	if hasMore {
		t.Fatal("did not expect more pages for a single tenant")
	}

	found := false
	for _, s := range summaries {
		if s.TenantID == tenantID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected tenant %s in owner's summary list, got %+v", tenantID, summaries)
	}
}
