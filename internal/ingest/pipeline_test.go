package ingest_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loglytics/ingestd/internal/apierr"
	"github.com/loglytics/ingestd/internal/ingest"
	"github.com/loglytics/ingestd/internal/models"
)

type fakeVerifier struct {
	forbidden bool
}

func (f *fakeVerifier) Verify(_ context.Context, tenantID, presentedKey string) (*models.Tenant, error) {
	if f.forbidden {
		return nil, apierr.New(apierr.KindForbidden, "unknown_tenant", "unknown tenant or invalid key")
	}
	return &models.Tenant{TenantID: tenantID}, nil
}

type fakeRecordStore struct {
	inserted []models.LogRecord
}

func (f *fakeRecordStore) InsertBatch(_ context.Context, _ string, records []models.LogRecord) (int, error) {
	f.inserted = append(f.inserted, records...)
	return len(records), nil
}

type fakeCounters struct {
	calls int
	last  int64
}

func (f *fakeCounters) RecordActivity(_ context.Context, _ string, count int64, _ time.Time) error {
	f.calls++
	f.last = count
	return nil
}

type fakeBroadcaster struct {
	events []string
}

func (f *fakeBroadcaster) BroadcastEvent(eventType, _ string, _ json.RawMessage) {
	f.events = append(f.events, eventType)
}

func newTestPipeline(verifier *fakeVerifier, records *fakeRecordStore, counters *fakeCounters, bc *fakeBroadcaster) *ingest.Pipeline {
	log := logrus.New()
	log.SetOutput(nilWriter{})
	return ingest.NewPipeline(verifier, records, counters, bc, log, ingest.Config{RatePerSecond: 10000, Burst: 10000})
}

type nilWriter struct{}

func (nilWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestPipeline_Ingest_NDJSON(t *testing.T) {
	verifier := &fakeVerifier{}
	records := &fakeRecordStore{}
	counters := &fakeCounters{}
	bc := &fakeBroadcaster{}
	p := newTestPipeline(verifier, records, counters, bc)

	body := []byte(`{"message":"hello","level":"info"}` + "\n" + `{"message":"world","level":"error"}`)

	ack, err := p.Ingest(context.Background(), "tenant-1", "key", body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ack.Received != 2 || ack.Stored != 2 {
		t.Fatalf("expected received=2 stored=2, got %+v", ack)
	}

	if len(records.inserted) != 2 {
		t.Fatalf("expected 2 records inserted, got %d", len(records.inserted))
	}

	if counters.calls != 1 || counters.last != 2 {
		t.Fatalf("expected counters updated once with count=2, got calls=%d last=%d", counters.calls, counters.last)
	}

	if len(bc.events) != 2 {
		t.Fatalf("expected 2 broadcast events, got %d", len(bc.events))
	}
}

func TestPipeline_Ingest_MissingToken(t *testing.T) {
	p := newTestPipeline(&fakeVerifier{}, &fakeRecordStore{}, &fakeCounters{}, &fakeBroadcaster{})

	_, err := p.Ingest(context.Background(), "tenant-1", "", []byte(`{}`))

	e, ok := apierr.As(err)
	if !ok || e.Kind != apierr.KindUnauthorized {
		t.Fatalf("expected KindUnauthorized, got %v", err)
	}
}

func TestPipeline_Ingest_UnknownTenant(t *testing.T) {
	p := newTestPipeline(&fakeVerifier{forbidden: true}, &fakeRecordStore{}, &fakeCounters{}, &fakeBroadcaster{})

	_, err := p.Ingest(context.Background(), "tenant-1", "key", []byte(`{}`))

	e, ok := apierr.As(err)
	if !ok || e.Kind != apierr.KindForbidden {
		t.Fatalf("expected KindForbidden, got %v", err)
	}
}

func TestPipeline_Ingest_MalformedBody(t *testing.T) {
	p := newTestPipeline(&fakeVerifier{}, &fakeRecordStore{}, &fakeCounters{}, &fakeBroadcaster{})

	_, err := p.Ingest(context.Background(), "tenant-1", "key", []byte("\x00\x01"))
	if err != nil {
		// a lone control-byte body is still framed as one raw text line,
		// so it is parsed and stored instead of returning an error.
		t.Fatalf("unexpected error for control-byte body: %v", err)
	}
}

func TestPipeline_Ingest_AdmissionLimit(t *testing.T) {
	p := ingest.NewPipeline(&fakeVerifier{}, &fakeRecordStore{}, &fakeCounters{}, &fakeBroadcaster{}, logrus.New(), ingest.Config{RatePerSecond: 1, Burst: 1})

	body := []byte(strings.Repeat(`{"message":"x"}`+"\n", 5))

	_, err := p.Ingest(context.Background(), "tenant-1", "key", body)

	e, ok := apierr.As(err)
	if !ok || e.Kind != apierr.KindRateLimited {
		t.Fatalf("expected KindRateLimited, got %v", err)
	}
}

func TestPipeline_Ingest_RawTextLinesReachFormatDetector(t *testing.T) {
	records := &fakeRecordStore{}
	p := newTestPipeline(&fakeVerifier{}, records, &fakeCounters{}, &fakeBroadcaster{})

	body := []byte("127.0.0.1 - - [10/Oct/2023:13:55:36 +0000] \"GET /index.html HTTP/1.1\" 200 2326\n" +
		"127.0.0.1 - - [10/Oct/2023:13:55:37 +0000] \"GET /favicon.ico HTTP/1.1\" 404 209")

	ack, err := p.Ingest(context.Background(), "tenant-1", "key", body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ack.Stored != 2 {
		t.Fatalf("expected 2 stored, got %d", ack.Stored)
	}

	for _, rec := range records.inserted {
		if rec.Metadata["original_format"] != "apache-access-common" && rec.Metadata["original_format"] != "apache-access-combined" {
			t.Fatalf("expected an apache access format, got %v", rec.Metadata["original_format"])
		}
	}
}
