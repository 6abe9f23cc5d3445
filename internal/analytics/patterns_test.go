package analytics

import (
	"testing"
	"time"

	"github.com/loglytics/ingestd/internal/models"
)

func TestSimplifyMessage_NormalizesDigitsAndPunctuation(t *testing.T) {
	got := simplifyMessage("User 12345 failed login! (attempt #3)")
	want := "user n failed login attempt n"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMessageClusters_GroupsNormalizedMessages(t *testing.T) {
	base := time.Now()

	records := []models.LogRecord{
		rec(models.LevelError, base, "User 1 failed login", "svc"),
		rec(models.LevelError, base, "User 2 failed login", "svc"),
		rec(models.LevelError, base, "totally unrelated message", "svc"),
	}

	clusters := messageClusters(records, 15)
	if len(clusters) != 1 {
		t.Fatalf("expected a single cluster of size 2, got %+v", clusters)
	}
	if clusters[0].Size != 2 {
		t.Fatalf("expected cluster size 2, got %d", clusters[0].Size)
	}
}

func TestRootCauses_MatchesFirstCategoryOnly(t *testing.T) {
	base := time.Now()

	records := []models.LogRecord{
		rec(models.LevelError, base, "connection refused by upstream", "svc"),
		rec(models.LevelError, base, "permission denied writing to disk", "svc"),
	}

	causes := rootCauses(records, 10)

	byCategory := map[string]int64{}
	for _, c := range causes {
		byCategory[c.Category] = c.Count
	}

	if byCategory["connection_issues"] != 1 {
		t.Fatalf("expected 1 connection_issues match, got %+v", causes)
	}
	if byCategory["permission_issues"] != 1 {
		t.Fatalf("expected 1 permission_issues match, got %+v", causes)
	}
}

func TestErrorCorrelations_RequiresTwoDistinctTypesInWindow(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	records := []models.LogRecord{
		rec(models.LevelError, base, "connection timeout", "svc"),
		rec(models.LevelError, base.Add(time.Minute), "permission denied", "svc"),
	}

	correlations := errorCorrelations(records, 10)
	if len(correlations) == 0 {
		t.Fatalf("expected at least one correlation for a mixed window")
	}
}

func TestCommonPatterns_RequiresCountAboveTwo(t *testing.T) {
	base := time.Now()

	var records []models.LogRecord
	for i := 0; i < 3; i++ {
		records = append(records, rec(models.LevelInfo, base, "request handler failed badly", "svc"))
	}

	patterns := commonPatterns(records, 15)
	if len(patterns) == 0 {
		t.Fatalf("expected common 2/3-grams with count 3 to surface")
	}
}
