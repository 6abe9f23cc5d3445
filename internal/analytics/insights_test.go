package analytics

import (
	"testing"

	"github.com/loglytics/ingestd/internal/models"
)

func TestHealthScore_SumsPenaltiesAndFloors(t *testing.T) {
	insights := []models.Insight{
		{Severity: models.InsightCritical, Summary: "a"},
		{Severity: models.InsightCritical, Summary: "b"},
		{Severity: models.InsightCritical, Summary: "c"},
		{Severity: models.InsightCritical, Summary: "d"},
		{Severity: models.InsightCritical, Summary: "e"},
	}

	if got := healthScore(insights); got != 0 {
		t.Fatalf("expected health score floored at 0, got %d", got)
	}

	if got := healthScore(nil); got != 100 {
		t.Fatalf("expected health score of 100 with no insights, got %d", got)
	}
}

func TestSynthesizeInsights_FlagsHighErrorRate(t *testing.T) {
	overview := &models.OverviewReport{
		TotalCount: 100,
		LevelCounts: []models.LevelCount{
			{Level: models.LevelError, Count: 20},
			{Level: models.LevelInfo, Count: 80},
		},
	}

	report := synthesizeInsights(overview, nil, nil, nil, nil)

	found := false
	for _, i := range report.Insights {
		if i.Severity == models.InsightCritical {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a critical error-rate insight, got %+v", report.Insights)
	}
	if report.HealthScore != 75 {
		t.Fatalf("expected health score 75 after one critical penalty, got %d", report.HealthScore)
	}
}
