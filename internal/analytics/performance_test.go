package analytics

import (
	"testing"
	"time"

	"github.com/loglytics/ingestd/internal/models"
)

func TestPercentile_Interpolates(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	if got := percentile(values, 50); got != 3 {
		t.Fatalf("expected median 3, got %v", got)
	}
	if got := percentile(values, 0); got != 1 {
		t.Fatalf("expected p0 1, got %v", got)
	}
	if got := percentile(values, 100); got != 5 {
		t.Fatalf("expected p100 5, got %v", got)
	}
}

func TestResponseTimeStats_FiltersOutOfRangeValues(t *testing.T) {
	base := time.Now()

	records := []models.LogRecord{
		rec(models.LevelInfo, base, "request completed in 120 ms", "svc"),
		rec(models.LevelInfo, base, "response: 80ms", "svc"),
		rec(models.LevelInfo, base, "response: 999999 ms", "svc"),
	}

	stats := responseTimeStats(records)
	if stats == nil {
		t.Fatalf("expected response time stats")
	}
	if stats.Count != 2 {
		t.Fatalf("expected 2 in-range samples, got %d", stats.Count)
	}
}

func TestSlowOperations_FlagsSeverityByDuration(t *testing.T) {
	base := time.Now()

	records := []models.LogRecord{
		rec(models.LevelWarn, base, "slow query: select *: 15000 ms", "svc"),
		rec(models.LevelWarn, base, "slow query: select id: 1500 ms", "svc"),
	}

	ops := slowOperations(records)
	if len(ops) != 2 {
		t.Fatalf("expected 2 slow operations, got %d", len(ops))
	}
	if ops[0].Severity != "critical" {
		t.Fatalf("expected the 15s operation to rank first as critical, got %+v", ops[0])
	}
}

func TestEndpointPerformance_ScoresByLatencyAndErrors(t *testing.T) {
	base := time.Now()

	records := []models.LogRecord{
		rec(models.LevelInfo, base, "GET /api/widgets responded in 50 ms", "svc"),
		rec(models.LevelError, base, "GET /api/widgets responded in 5000 ms", "svc"),
	}

	endpoints := endpointPerformance(records)
	if len(endpoints) != 1 {
		t.Fatalf("expected a single aggregated endpoint, got %d", len(endpoints))
	}
	if endpoints[0].SampleSize != 2 {
		t.Fatalf("expected sample size 2, got %d", endpoints[0].SampleSize)
	}
	if endpoints[0].ErrorRate != 0.5 {
		t.Fatalf("expected error rate 0.5, got %v", endpoints[0].ErrorRate)
	}
}
