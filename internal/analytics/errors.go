package analytics

import (
	"sort"
	"strings"

	"github.com/loglytics/ingestd/internal/models"
)

// errorCategoryKeywords maps each fixed category to its matching keywords,
// checked in table order so each error contributes to the first match
// only. Grounded on
// original_source/.../analytics/metrics_calculator.py's _categorize_errors.
var errorCategoryKeywords = []struct {
	category string
	keywords []string
}{
	{"timeout", []string{"timeout", "timed out", "time out"}},
	{"connection", []string{"connection refused", "connection failed", "cannot connect"}},
	{"null_reference", []string{"null pointer", "nullpointerexception", "none type"}},
	{"permission", []string{"permission denied", "access denied", "forbidden"}},
	{"not_found", []string{"not found", "404", "does not exist"}},
	{"database", []string{"database error", "sql", "query failed"}},
	{"network", []string{"network error", "unreachable", "connection reset"}},
}

// computeErrorAnalysis is grounded on
// original_source/.../analytics/metrics_calculator.py's calculate_error_analysis.
func computeErrorAnalysis(records []models.LogRecord) *models.ErrorAnalysisReport {
	report := &models.ErrorAnalysisReport{}

	var errs []models.LogRecord
	for _, rec := range records {
		if rec.Level.IsErrorClass() {
			errs = append(errs, rec)
		}
	}

	if len(errs) == 0 {
		return report
	}

	sort.Slice(errs, func(i, j int) bool { return errs[i].EventTime.Before(errs[j].EventTime) })

	report.Timeline = buildTimeline(errs, "hourly")
	report.ByService = errorsByService(errs, 20)
	report.MTBFHours = mtbfHours(errs)
	report.Hotspots = errorHotspots(errs, 10)
	report.Categories = categorizeErrors(errs)

	recurring, firstTime := errorRecurrence(errs)
	report.RecurringCount = recurring
	report.FirstTimeCount = firstTime

	return report
}

func errorsByService(errs []models.LogRecord, limit int) []models.ServiceErrorCount {
	counts := map[string]int64{}
	for _, rec := range errs {
		service := rec.Service
		if service == "" {
			service = "unknown"
		}
		counts[service]++
	}

	out := make([]models.ServiceErrorCount, 0, len(counts))
	for service, count := range counts {
		out = append(out, models.ServiceErrorCount{Service: service, Count: count})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Service < out[j].Service
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out
}

// mtbfHours returns the mean of the intervals between consecutive ordered
// error timestamps, or 0 if fewer than two errors.
func mtbfHours(errs []models.LogRecord) float64 {
	if len(errs) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(errs); i++ {
		total += errs[i].EventTime.Sub(errs[i-1].EventTime).Hours()
	}

	return total / float64(len(errs)-1)
}

func errorHotspots(errs []models.LogRecord, limit int) []models.ErrorHotspot {
	counts := map[string]int64{}
	messages := map[string]map[string]struct{}{}

	for _, rec := range errs {
		source := rec.Source
		if source == "" {
			source = "unknown"
		}

		counts[source]++

		if messages[source] == nil {
			messages[source] = map[string]struct{}{}
		}
		messages[source][rec.Message] = struct{}{}
	}

	out := make([]models.ErrorHotspot, 0, len(counts))
	for source, count := range counts {
		out = append(out, models.ErrorHotspot{
			Source:           source,
			ErrorCount:       count,
			DistinctMessages: len(messages[source]),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ErrorCount != out[j].ErrorCount {
			return out[i].ErrorCount > out[j].ErrorCount
		}
		return out[i].Source < out[j].Source
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out
}

func categorizeErrors(errs []models.LogRecord) []models.ErrorCategoryCount {
	counts := map[string]int64{}
	for _, cat := range errorCategoryKeywords {
		counts[cat.category] = 0
	}
	counts["other"] = 0

	for _, rec := range errs {
		message := strings.ToLower(rec.Message)

		matched := false
		for _, cat := range errorCategoryKeywords {
			for _, kw := range cat.keywords {
				if strings.Contains(message, kw) {
					counts[cat.category]++
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}

		if !matched {
			counts["other"]++
		}
	}

	out := make([]models.ErrorCategoryCount, 0, len(counts))
	for _, cat := range errorCategoryKeywords {
		out = append(out, models.ErrorCategoryCount{Category: cat.category, Count: counts[cat.category]})
	}
	out = append(out, models.ErrorCategoryCount{Category: "other", Count: counts["other"]})

	return out
}

func errorRecurrence(errs []models.LogRecord) (recurring, firstTime int64) {
	counts := map[string]int64{}
	for _, rec := range errs {
		counts[rec.Message]++
	}

	for _, count := range counts {
		if count > 1 {
			recurring++
		} else {
			firstTime++
		}
	}

	return recurring, firstTime
}
