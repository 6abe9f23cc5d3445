package analytics

import (
	"sort"
	"time"

	"github.com/loglytics/ingestd/internal/models"
)

// truncateDisplay keeps the first maxMessageDisplay runes of a message for
// report display and appends "..." when it cuts, per spec.md §4.6's
// "truncated to 100 chars".
const maxMessageDisplay = 100

func truncateDisplay(s string) string {
	r := []rune(s)
	if len(r) <= maxMessageDisplay {
		return s
	}
	return string(r[:maxMessageDisplay]) + "..."
}

// computeOverview is grounded on
// original_source/.../analytics/metrics_calculator.py's calculate_overview.
func computeOverview(records []models.LogRecord) *models.OverviewReport {
	report := &models.OverviewReport{}

	if len(records) == 0 {
		report.TimelineGranularity = "hourly"
		return report
	}

	report.TotalCount = int64(len(records))

	earliest := records[0].EventTime
	latest := records[0].EventTime
	levelCounts := map[models.Level]int64{}
	sources := map[string]struct{}{}
	errorCounts := map[string]int64{}
	warnCounts := map[string]int64{}

	for _, rec := range records {
		if rec.EventTime.Before(earliest) {
			earliest = rec.EventTime
		}
		if rec.EventTime.After(latest) {
			latest = rec.EventTime
		}

		levelCounts[rec.Level]++

		if rec.Source != "" {
			sources[rec.Source] = struct{}{}
		}

		switch rec.Level {
		case models.LevelError:
			errorCounts[rec.Message]++
		case models.LevelWarn:
			warnCounts[rec.Message]++
		}
	}

	report.EarliestEvent = &earliest
	report.LatestEvent = &latest
	report.DistinctSources = len(sources)

	for level, count := range levelCounts {
		report.LevelCounts = append(report.LevelCounts, models.LevelCount{Level: level, Count: count})
	}
	sort.Slice(report.LevelCounts, func(i, j int) bool { return report.LevelCounts[i].Level < report.LevelCounts[j].Level })

	report.TopErrors = topMessages(errorCounts, 10)
	report.TopWarnings = topMessages(warnCounts, 10)

	granularity := "hourly"
	if latest.Sub(earliest) >= 7*24*time.Hour {
		granularity = "daily"
	}
	report.TimelineGranularity = granularity

	report.Timeline = buildTimeline(records, granularity)

	return report
}

func topMessages(counts map[string]int64, limit int) []models.MessageCount {
	out := make([]models.MessageCount, 0, len(counts))
	for msg, count := range counts {
		out = append(out, models.MessageCount{Message: truncateDisplay(msg), Count: count})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Message < out[j].Message
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out
}

// bucketTime aligns t to the start of its UTC hour (hourly granularity) or
// UTC day (daily granularity).
func bucketTime(t time.Time, granularity string) time.Time {
	t = t.UTC()
	if granularity == "daily" {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
}

func buildTimeline(records []models.LogRecord, granularity string) []models.TimelineBucket {
	buckets := map[time.Time]*models.TimelineBucket{}

	for _, rec := range records {
		key := bucketTime(rec.EventTime, granularity)

		b, ok := buckets[key]
		if !ok {
			b = &models.TimelineBucket{Bucket: key, Counts: map[models.Level]int64{}}
			buckets[key] = b
		}

		b.Counts[rec.Level]++
		b.Total++
	}

	out := make([]models.TimelineBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Bucket.Before(out[j].Bucket) })

	return out
}
