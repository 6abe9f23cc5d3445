// Package analytics implements C6: on-demand, cached report computation
// over a tenant's normalized log records. Each report type is grounded on
// its own file in original_source/backend/app/services/analytics, with
// constants and thresholds carried over exactly (z-score 2.0, volume
// 100%/200%, temporal 3x, pattern rarity 5%, anomaly-score weights
// 0.5/0.3/0.2/0.2/0.1, top-N truncations of 10/15/20).
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loglytics/ingestd/internal/analyticscache"
	"github.com/loglytics/ingestd/internal/models"
	"github.com/loglytics/ingestd/internal/workerpool"
)

// RecordReader is the read-side slice of domain.LogRecordStore the engine
// needs: a consistent snapshot of a tenant's (optionally scoped) records.
type RecordReader interface {
	Query(ctx context.Context, tenantID, scopeID string, since, until time.Time) ([]models.LogRecord, error)
}

// snapshotLookback bounds how far back a report's "all records" query
// reaches; combined with the forward slack below it approximates an
// unbounded scan without an literal min/max timestamp round-trip per call.
const snapshotLookback = 5 * 365 * 24 * time.Hour

// snapshotForwardSlack covers timestamps clamped forward by C3's
// future-timestamp guard (up to 24h ahead of ingestion).
const snapshotForwardSlack = 25 * time.Hour

// Engine computes and caches the six C6 report types.
type Engine struct {
	records RecordReader
	cache   *analyticscache.Cache
	log     *logrus.Logger
}

// NewEngine creates an Engine.
func NewEngine(records RecordReader, cache *analyticscache.Cache, log *logrus.Logger) *Engine {
	return &Engine{records: records, cache: cache, log: log}
}

// Report implements domain.AnalyticsService.Report: dispatch to the
// requested report type, serving from cache unless req.Force is set.
func (e *Engine) Report(ctx context.Context, req models.ReportRequest) (any, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("unknown analytics type %q", req.Type)
	}

	return e.cache.Resolve(ctx, req.TenantID, req.Type, req.ScopeID, req.Force, func(ctx context.Context) (any, error) {
		return e.compute(ctx, req.TenantID, req.Type, req.ScopeID)
	})
}

// Invalidate implements domain.AnalyticsService.Invalidate.
func (e *Engine) Invalidate(ctx context.Context, tenantID string) error {
	return e.cache.Invalidate(ctx, tenantID)
}

func (e *Engine) compute(ctx context.Context, tenantID string, analyticsType models.AnalyticsType, scopeID string) (any, error) {
	switch analyticsType {
	case models.AnalyticsOverview:
		records, err := e.snapshot(ctx, tenantID, scopeID)
		if err != nil {
			return nil, err
		}
		return computeOverview(records), nil

	case models.AnalyticsErrorAnalysis:
		records, err := e.snapshot(ctx, tenantID, scopeID)
		if err != nil {
			return nil, err
		}
		return computeErrorAnalysis(records), nil

	case models.AnalyticsAnomalies:
		records, err := e.snapshot(ctx, tenantID, scopeID)
		if err != nil {
			return nil, err
		}
		return computeAnomalies(records), nil

	case models.AnalyticsPerformance:
		records, err := e.snapshot(ctx, tenantID, scopeID)
		if err != nil {
			return nil, err
		}
		return computePerformance(records), nil

	case models.AnalyticsPatterns:
		records, err := e.snapshot(ctx, tenantID, scopeID)
		if err != nil {
			return nil, err
		}
		return computePatterns(records), nil

	case models.AnalyticsInsights:
		return e.computeInsights(ctx, tenantID, scopeID)

	default:
		return nil, fmt.Errorf("unknown analytics type %q", analyticsType)
	}
}

// snapshot fetches a consistent read of a tenant's (optionally scoped)
// records at a single point in time, per spec.md §5's snapshot-read
// requirement.
func (e *Engine) snapshot(ctx context.Context, tenantID, scopeID string) ([]models.LogRecord, error) {
	now := time.Now().UTC()

	records, err := e.records.Query(ctx, tenantID, scopeID, now.Add(-snapshotLookback), now.Add(snapshotForwardSlack))
	if err != nil {
		return nil, fmt.Errorf("reading tenant snapshot: %w", err)
	}

	return records, nil
}

// computeInsights gathers the other five reports (concurrently, bounded by
// workerpool, since each is an independent CPU-bound aggregation over the
// same snapshot) and synthesizes severity-tagged sentences from them.
func (e *Engine) computeInsights(ctx context.Context, tenantID, scopeID string) (*models.InsightsReport, error) {
	records, err := e.snapshot(ctx, tenantID, scopeID)
	if err != nil {
		return nil, err
	}

	type computed struct {
		overview    *models.OverviewReport
		errors      *models.ErrorAnalysisReport
		anomalies   *models.AnomaliesReport
		performance *models.PerformanceReport
		patterns    *models.PatternsReport
	}

	steps := []func() any{
		func() any { return computeOverview(records) },
		func() any { return computeErrorAnalysis(records) },
		func() any { return computeAnomalies(records) },
		func() any { return computePerformance(records) },
		func() any { return computePatterns(records) },
	}

	results, err := workerpool.Map(ctx, workerpool.DefaultLimit, steps, func(_ context.Context, _ int, fn func() any) (any, error) {
		return fn(), nil
	})
	if err != nil {
		return nil, err
	}

	c := computed{
		overview:    results[0].(*models.OverviewReport),
		errors:      results[1].(*models.ErrorAnalysisReport),
		anomalies:   results[2].(*models.AnomaliesReport),
		performance: results[3].(*models.PerformanceReport),
		patterns:    results[4].(*models.PatternsReport),
	}

	return synthesizeInsights(c.overview, c.errors, c.anomalies, c.performance, c.patterns), nil
}
