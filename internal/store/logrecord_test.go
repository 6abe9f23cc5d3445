package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/loglytics/ingestd/internal/models"
	"github.com/loglytics/ingestd/internal/store"
)

func TestLogRecordStore_InsertAndQuery(t *testing.T) {
	base, tenantID := setupTestTenant(t)
	records := store.NewLogRecordStore(base)

	now := time.Now().UTC().Truncate(time.Second)

	batch := []models.LogRecord{
		{
			TenantID:   tenantID,
			IngestedAt: now,
			EventTime:  now.Add(-time.Minute),
			Level:      models.LevelInfo,
			Message:    "first record",
			Source:     "api",
			Service:    "ingestd",
			Metadata:   map[string]any{"k": "v"},
			Raw:        `{"message":"first record"}`,
		},
		{
			TenantID:   tenantID,
			IngestedAt: now,
			EventTime:  now,
			Level:      models.LevelError,
			Message:    "second record",
			Source:     "api",
			Service:    "ingestd",
			Metadata:   map[string]any{},
			Raw:        `{"message":"second record"}`,
		},
	}

	stored, err := records.InsertBatch(context.Background(), tenantID, batch)
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}

	if stored != 2 {
		t.Fatalf("expected 2 rows stored, got %d", stored)
	}

	got, err := records.Query(context.Background(), tenantID, "", now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}

	if got[0].Message != "first record" || got[1].Message != "second record" {
		t.Fatalf("expected oldest-first ordering, got %+v", got)
	}

	if got[0].Raw != batch[0].Raw {
		t.Fatalf("expected raw payload to round-trip through encryption, got %q", got[0].Raw)
	}

	if got[0].Metadata["k"] != "v" {
		t.Fatalf("expected metadata to round-trip, got %+v", got[0].Metadata)
	}
}

func TestLogRecordStore_QueryScopedBySource(t *testing.T) {
	base, tenantID := setupTestTenant(t)
	records := store.NewLogRecordStore(base)

	now := time.Now().UTC().Truncate(time.Second)

	batch := []models.LogRecord{
		{TenantID: tenantID, IngestedAt: now, EventTime: now, Level: models.LevelInfo, Message: "a", Source: "svc-a", Metadata: map[string]any{}},
		{TenantID: tenantID, IngestedAt: now, EventTime: now, Level: models.LevelInfo, Message: "b", Source: "svc-b", Metadata: map[string]any{}},
	}

	if _, err := records.InsertBatch(context.Background(), tenantID, batch); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}

	got, err := records.Query(context.Background(), tenantID, "svc-a", now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if len(got) != 1 || got[0].Source != "svc-a" {
		t.Fatalf("expected a single svc-a record, got %+v", got)
	}
}

func TestLogRecordStore_PurgeOlderThan(t *testing.T) {
	base, tenantID := setupTestTenant(t)
	records := store.NewLogRecordStore(base)

	old := time.Now().UTC().Add(-48 * time.Hour)
	recent := time.Now().UTC()

	batch := []models.LogRecord{
		{TenantID: tenantID, IngestedAt: old, EventTime: old, Level: models.LevelInfo, Message: "stale", Metadata: map[string]any{}},
		{TenantID: tenantID, IngestedAt: recent, EventTime: recent, Level: models.LevelInfo, Message: "fresh", Metadata: map[string]any{}},
	}

	if _, err := records.InsertBatch(context.Background(), tenantID, batch); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}

	deleted, err := records.PurgeOlderThan(context.Background(), tenantID, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PurgeOlderThan: %v", err)
	}

	if deleted != 1 {
		t.Fatalf("expected 1 row purged, got %d", deleted)
	}

	remaining, err := records.Query(context.Background(), tenantID, "", recent.Add(-time.Hour), recent.Add(time.Hour))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if len(remaining) != 1 || remaining[0].Message != "fresh" {
		t.Fatalf("expected only the fresh record to survive, got %+v", remaining)
	}
}
