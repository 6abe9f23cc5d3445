package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/loglytics/ingestd/internal/models"
)

// maxBulkBatchSize limits the number of rows per INSERT statement to avoid
// exceeding PostgreSQL's parameter limit (65535 params).
const maxBulkBatchSize = 500

// LogRecordStore persists canonical log records (C4's write side) and
// serves the analytics engine's snapshot reads. It implements
// domain.LogRecordStore.
type LogRecordStore struct {
	Base
}

// NewLogRecordStore creates a LogRecordStore with the given shared base.
func NewLogRecordStore(base Base) *LogRecordStore {
	return &LogRecordStore{Base: base}
}

// InsertBatch persists records in multi-row INSERT batches within a single
// transaction, per C4 step 5's atomic-batch guarantee: either every row in
// the call becomes visible or none do. seq is assigned by the database
// (BIGSERIAL), so retried calls are not deduplicated here — that is the
// caller's concern, not the store's.
func (s *LogRecordStore) InsertBatch(ctx context.Context, tenantID string, records []models.LogRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	encryptedRaw := make([]string, len(records))
	metadataJSON := make([][]byte, len(records))

	for i, rec := range records {
		raw, err := s.encryptRaw(ctx, tenantID, rec.Raw)
		if err != nil {
			return 0, fmt.Errorf("preparing record %d raw payload: %w", i, err)
		}

		encryptedRaw[i] = raw

		meta := rec.Metadata
		if meta == nil {
			meta = map[string]any{}
		}

		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return 0, fmt.Errorf("marshalling record %d metadata: %w", i, err)
		}

		metadataJSON[i] = metaJSON
	}

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("insert log records: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	total := 0

	for i := 0; i < len(records); i += maxBulkBatchSize {
		end := i + maxBulkBatchSize
		if end > len(records) {
			end = len(records)
		}

		batch := records[i:end]
		batchRaw := encryptedRaw[i:end]
		batchMeta := metadataJSON[i:end]

		valueParts := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*9)

		for j, rec := range batch {
			base := j*9 + 1
			valueParts = append(valueParts, fmt.Sprintf(
				"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				base, base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
			))
			args = append(args, tenantID, rec.IngestedAt, rec.EventTime,
				rec.Level, rec.Message, rec.Source, rec.Service, batchMeta[j], batchRaw[j])
		}

		sql := `INSERT INTO log_records
			(tenant_id, ingested_at, event_time, level, message, source, service, metadata, raw)
			VALUES ` + strings.Join(valueParts, ", ")

		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return 0, fmt.Errorf("inserting log records batch: %w", err)
		}

		total += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing log records insert: %w", err)
	}

	s.notify("log_records", "INSERT", tenantID)

	return total, nil
}

// Query returns records for tenantID (optionally scoped to scopeID, matched
// against source) within [since, until), ordered oldest first.
func (s *LogRecordStore) Query(ctx context.Context, tenantID, scopeID string, since, until time.Time) ([]models.LogRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query log records: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // read-only, rollback is a no-op cleanup.

	sql := `SELECT tenant_id, seq, ingested_at, event_time, level, message, source, service, metadata, raw
		FROM log_records
		WHERE tenant_id = $1 AND event_time >= $2 AND event_time < $3`
	args := []any{tenantID, since, until}

	if scopeID != "" {
		sql += " AND source = $4"
		args = append(args, scopeID)
	}

	sql += " ORDER BY event_time ASC"

	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying log records: %w", err)
	}
	defer rows.Close()

	var records []models.LogRecord

	for rows.Next() {
		var rec models.LogRecord
		var metaJSON []byte
		var encRaw string

		if err := rows.Scan(&rec.TenantID, &rec.Seq, &rec.IngestedAt, &rec.EventTime,
			&rec.Level, &rec.Message, &rec.Source, &rec.Service, &metaJSON, &encRaw); err != nil {
			return nil, fmt.Errorf("scanning log record: %w", err)
		}

		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshalling record metadata: %w", err)
			}
		}

		raw, err := s.decryptRaw(ctx, tenantID, encRaw)
		if err != nil {
			return nil, fmt.Errorf("decrypting record raw payload: %w", err)
		}
		rec.Raw = raw

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating log records: %w", err)
	}

	return records, nil
}

// PurgeOlderThan deletes records ingested before cutoff, returning the
// number of rows removed. No scheduled retention sweep calls it.
func (s *LogRecordStore) PurgeOlderThan(ctx context.Context, tenantID string, cutoff time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("purge log records: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	tag, err := tx.Exec(ctx,
		`DELETE FROM log_records WHERE tenant_id = $1 AND ingested_at < $2`,
		tenantID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging log records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing purge: %w", err)
	}

	deleted := tag.RowsAffected()
	if deleted > 0 {
		s.notify("log_records", "PURGE", tenantID)
	}

	return deleted, nil
}
