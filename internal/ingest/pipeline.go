// Package ingest implements C4: the end-to-end path from a raw HTTP body
// to stored, canonical, broadcast log records.
//
// Grounded on the teacher's internal/store/bulk.go for the batched,
// single-transaction persistence idiom and internal/middleware.RateLimiter
// for the token-bucket admission shape, generalized here to a per-tenant
// records/sec budget instead of a per-IP requests/sec one.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loglytics/ingestd/internal/apierr"
	"github.com/loglytics/ingestd/internal/logformat"
	"github.com/loglytics/ingestd/internal/metrics"
	"github.com/loglytics/ingestd/internal/models"
	"github.com/loglytics/ingestd/internal/normalize"
	"github.com/loglytics/ingestd/internal/workerpool"
)

// CredentialVerifier is C1's verify operation, as consumed by C4 step 2.
type CredentialVerifier interface {
	Verify(ctx context.Context, tenantID, presentedKey string) (*models.Tenant, error)
}

// RecordStore is the persistence boundary C4 step 5 writes through.
type RecordStore interface {
	InsertBatch(ctx context.Context, tenantID string, records []models.LogRecord) (int, error)
}

// TenantCounters is C4 step 6's counter-advance operation.
type TenantCounters interface {
	RecordActivity(ctx context.Context, tenantID string, count int64, at time.Time) error
}

// Broadcaster is C5's post-commit fan-out entrypoint, satisfied directly by
// *internal/ws.Hub.
type Broadcaster interface {
	BroadcastEvent(eventType, tenantID string, data json.RawMessage)
}

// Pipeline implements domain.IngestPipeline.
type Pipeline struct {
	credentials CredentialVerifier
	records     RecordStore
	counters    TenantCounters
	broadcaster Broadcaster
	limiter     *admissionLimiter
	formats     *formatCache
	log         *logrus.Logger
}

// Config bounds the admission limiter's sliding window, per spec.md §4.4's
// "R records/s, B burst" backpressure contract.
type Config struct {
	RatePerSecond int
	Burst         int
}

// DefaultConfig matches spec.md's suggested admission defaults.
var DefaultConfig = Config{RatePerSecond: 1000, Burst: 5000}

// NewPipeline constructs a Pipeline.
func NewPipeline(credentials CredentialVerifier, records RecordStore, counters TenantCounters, broadcaster Broadcaster, log *logrus.Logger, cfg Config) *Pipeline {
	if cfg.RatePerSecond <= 0 {
		cfg = DefaultConfig
	}

	return &Pipeline{
		credentials: credentials,
		records:     records,
		counters:    counters,
		broadcaster: broadcaster,
		limiter:     newAdmissionLimiter(cfg.RatePerSecond, cfg.Burst),
		formats:     newFormatCache(),
		log:         log,
	}
}

// Ingest implements the full C4 algorithm: authenticate, frame, parse,
// normalize, persist as one atomic batch, advance counters, then broadcast
// each stored record after commit.
func (p *Pipeline) Ingest(ctx context.Context, tenantID, presentedKey string, body []byte) (*models.IngestAck, error) {
	if presentedKey == "" {
		return nil, apierr.New(apierr.KindUnauthorized, "missing_token", "missing or malformed bearer token")
	}

	if _, err := p.credentials.Verify(ctx, tenantID, presentedKey); err != nil {
		return nil, err
	}

	lines, err := logformat.Frame(body)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindBadRequest, "malformed_body", "request body is not a recognized shape", err)
	}

	received := len(lines)
	if received == 0 {
		now := time.Now().UTC()
		return &models.IngestAck{Received: 0, Stored: 0, TenantID: tenantID, At: now}, nil
	}

	if !p.limiter.allow(tenantID, received) {
		metrics.AdmissionRejectedTotal.WithLabelValues(tenantID).Inc()
		return nil, apierr.New(apierr.KindRateLimited, "admission_limit", "tenant admission rate exceeded")
	}

	ingestedAt := time.Now().UTC()
	format := p.formats.resolve(tenantID, lines)

	type parsedUnit struct {
		record models.LogRecord
	}

	parsed, err := workerpool.Map(ctx, workerpool.DefaultLimit, lines, func(_ context.Context, _ int, line string) (parsedUnit, error) {
		truncatedLine, truncated := logformat.TruncateLine(line)

		pl, perr := logformat.Parse(format, truncatedLine)
		if perr != nil {
			pl = models.ParsedLine{
				Message:  truncatedLine,
				RawLevel: "ERROR",
				Metadata: map[string]any{"parse_error": true, "original_format": string(format)},
			}
			metrics.ParseErrorsTotal.WithLabelValues(string(format)).Inc()
		}

		if truncated {
			if pl.Metadata == nil {
				pl.Metadata = map[string]any{}
			}
			pl.Metadata["truncated"] = true
		}

		rec := normalize.Normalize(pl, format, truncatedLine, ingestedAt)
		rec.TenantID = tenantID
		rec.IngestedAt = ingestedAt

		return parsedUnit{record: rec}, nil
	})
	if err != nil {
		return nil, apierr.Internal("parse_failed", "parsing ingest batch", err)
	}

	records := make([]models.LogRecord, len(parsed))
	for i, u := range parsed {
		records[i] = u.record
	}

	stored, err := p.records.InsertBatch(ctx, tenantID, records)
	if err != nil {
		return nil, apierr.Internal("persist_failed", "persisting ingest batch", err)
	}

	if err := p.counters.RecordActivity(ctx, tenantID, int64(stored), ingestedAt); err != nil {
		p.log.WithError(err).WithField("tenant_id", tenantID).Warn("failed to advance tenant counters")
	}

	p.broadcastAll(tenantID, records)

	metrics.LogsIngestedTotal.WithLabelValues(tenantID).Add(float64(stored))

	return &models.IngestAck{
		Received: received,
		Stored:   stored,
		TenantID: tenantID,
		At:       ingestedAt,
	}, nil
}

// broadcastAll fans each stored record out to C5 after commit. Failures
// are logged and swallowed, per spec.md §4.4 step 7.
func (p *Pipeline) broadcastAll(tenantID string, records []models.LogRecord) {
	for i := range records {
		event := records[i].ToWireEvent()

		data, err := json.Marshal(event)
		if err != nil {
			p.log.WithError(err).WithField("tenant_id", tenantID).Warn("failed to encode broadcast event")
			continue
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					p.log.WithField("tenant_id", tenantID).Warnf("broadcast panic recovered: %v", r)
				}
			}()

			p.broadcaster.BroadcastEvent("new_log", tenantID, data)
		}()
	}
}
