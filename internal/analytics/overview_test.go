package analytics

import (
	"testing"
	"time"

	"github.com/loglytics/ingestd/internal/models"
)

func rec(level models.Level, t time.Time, message, source string) models.LogRecord {
	return models.LogRecord{Level: level, EventTime: t, Message: message, Source: source}
}

func TestComputeOverview_Empty(t *testing.T) {
	report := computeOverview(nil)

	if report.TotalCount != 0 {
		t.Fatalf("expected zero total count, got %d", report.TotalCount)
	}
	if report.TimelineGranularity != "hourly" {
		t.Fatalf("expected hourly granularity default, got %q", report.TimelineGranularity)
	}
}

func TestComputeOverview_GranularitySwitchesAtSevenDays(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	short := []models.LogRecord{
		rec(models.LevelInfo, base, "a", "svc"),
		rec(models.LevelInfo, base.Add(2*time.Hour), "b", "svc"),
	}
	if got := computeOverview(short).TimelineGranularity; got != "hourly" {
		t.Fatalf("expected hourly for a 2h span, got %q", got)
	}

	long := []models.LogRecord{
		rec(models.LevelInfo, base, "a", "svc"),
		rec(models.LevelInfo, base.Add(8*24*time.Hour), "b", "svc"),
	}
	if got := computeOverview(long).TimelineGranularity; got != "daily" {
		t.Fatalf("expected daily for an 8 day span, got %q", got)
	}
}

func TestComputeOverview_TopErrorsTruncatedAndRanked(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	records := []models.LogRecord{
		rec(models.LevelError, base, "boom", "svc"),
		rec(models.LevelError, base, "boom", "svc"),
		rec(models.LevelError, base, "rare", "svc"),
		rec(models.LevelWarn, base, "careful", "svc"),
	}

	report := computeOverview(records)

	if len(report.TopErrors) != 2 {
		t.Fatalf("expected 2 distinct error messages, got %d", len(report.TopErrors))
	}
	if report.TopErrors[0].Message != "boom" || report.TopErrors[0].Count != 2 {
		t.Fatalf("expected boom to rank first with count 2, got %+v", report.TopErrors[0])
	}
	if len(report.TopWarnings) != 1 {
		t.Fatalf("expected 1 warning message, got %d", len(report.TopWarnings))
	}
	if report.DistinctSources != 1 {
		t.Fatalf("expected 1 distinct source, got %d", report.DistinctSources)
	}
}
