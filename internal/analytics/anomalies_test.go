package analytics

import (
	"testing"
	"time"

	"github.com/loglytics/ingestd/internal/models"
)

func TestStatisticalAnomalies_RequiresMinimumHours(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var records []models.LogRecord
	for i := 0; i < 2; i++ {
		for j := 0; j < 5; j++ {
			records = append(records, rec(models.LevelInfo, base.Add(time.Duration(i)*time.Hour), "ok", "svc"))
		}
	}

	if got := computeAnomalies(records).Statistical; got != nil {
		t.Fatalf("expected no statistical anomalies with only 2 distinct hours, got %+v", got)
	}
}

func TestStatisticalAnomalies_FlagsSpike(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var records []models.LogRecord
	for h := 0; h < 10; h++ {
		count := 5
		if h == 5 {
			count = 200
		}
		for i := 0; i < count; i++ {
			records = append(records, rec(models.LevelInfo, base.Add(time.Duration(h)*time.Hour), "ok", "svc"))
		}
	}

	anomalies := computeAnomalies(records).Statistical
	if len(anomalies) == 0 {
		t.Fatalf("expected a statistical anomaly to be flagged")
	}
	if anomalies[0].Direction != "spike" {
		t.Fatalf("expected a spike, got %+v", anomalies[0])
	}
}

func TestTemporalAnomalies_RequiresMinimumErrors(t *testing.T) {
	base := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)

	var records []models.LogRecord
	for i := 0; i < 60; i++ {
		records = append(records, rec(models.LevelInfo, base.Add(time.Duration(i)*time.Minute), "ok", "svc"))
	}

	if got := computeAnomalies(records).Temporal; got != nil {
		t.Fatalf("expected no temporal anomalies without enough errors, got %+v", got)
	}
}

func TestPatternAnomalies_FlagsRareMessage(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var records []models.LogRecord
	for i := 0; i < 25; i++ {
		records = append(records, rec(models.LevelInfo, base.Add(time.Duration(i)*time.Minute), "noise", "svc"))
	}
	for i := 0; i < 39; i++ {
		records = append(records, rec(models.LevelError, base.Add(time.Duration(i)*time.Minute), "common failure", "svc"))
	}
	records = append(records, rec(models.LevelError, base, "one-off glitch", "svc"))

	anomalies := computeAnomalies(records).Pattern
	found := false
	for _, a := range anomalies {
		if a.Message == "one-off glitch" {
			found = true
			if a.Severity != "high" {
				t.Fatalf("expected high severity for a singleton rare message, got %q", a.Severity)
			}
		}
	}
	if !found {
		t.Fatalf("expected one-off glitch to be flagged as a pattern anomaly, got %+v", anomalies)
	}
}
