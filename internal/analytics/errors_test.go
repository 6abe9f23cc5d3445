package analytics

import (
	"testing"
	"time"

	"github.com/loglytics/ingestd/internal/models"
)

func TestComputeErrorAnalysis_NoErrors(t *testing.T) {
	records := []models.LogRecord{
		rec(models.LevelInfo, time.Now(), "fine", "svc"),
	}

	report := computeErrorAnalysis(records)

	if report.MTBFHours != 0 || len(report.Hotspots) != 0 {
		t.Fatalf("expected empty report with no errors, got %+v", report)
	}
}

func TestComputeErrorAnalysis_MTBFRequiresTwoErrors(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	one := []models.LogRecord{rec(models.LevelError, base, "boom", "svc")}
	if got := computeErrorAnalysis(one).MTBFHours; got != 0 {
		t.Fatalf("expected 0 MTBF with a single error, got %v", got)
	}

	two := []models.LogRecord{
		rec(models.LevelError, base, "boom", "svc"),
		rec(models.LevelError, base.Add(2*time.Hour), "boom again", "svc"),
	}
	if got := computeErrorAnalysis(two).MTBFHours; got != 2 {
		t.Fatalf("expected MTBF of 2h, got %v", got)
	}
}

func TestComputeErrorAnalysis_HotspotsAndCategories(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	records := []models.LogRecord{
		rec(models.LevelError, base, "connection refused", "db-worker"),
		rec(models.LevelError, base.Add(time.Minute), "connection refused", "db-worker"),
		rec(models.LevelCritical, base.Add(2*time.Minute), "permission denied", "auth-svc"),
	}

	report := computeErrorAnalysis(records)

	if len(report.Hotspots) == 0 || report.Hotspots[0].Source != "db-worker" {
		t.Fatalf("expected db-worker as top hotspot, got %+v", report.Hotspots)
	}
	if report.Hotspots[0].ErrorCount != 2 {
		t.Fatalf("expected 2 errors for db-worker, got %d", report.Hotspots[0].ErrorCount)
	}

	foundConnection := false
	for _, c := range report.Categories {
		if c.Category == "connection" && c.Count == 2 {
			foundConnection = true
		}
	}
	if !foundConnection {
		t.Fatalf("expected connection category with count 2, got %+v", report.Categories)
	}

	if report.RecurringCount != 1 || report.FirstTimeCount != 1 {
		t.Fatalf("expected 1 recurring + 1 first-time message, got recurring=%d first=%d", report.RecurringCount, report.FirstTimeCount)
	}
}
