package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/loglytics/ingestd/internal/models"
)

// Thresholds grounded on
// original_source/.../analytics/anomaly_detector.py.
const (
	statAnomalyMinRecords  = 10
	statAnomalyMinHours    = 3
	statAnomalyZThreshold  = 2.0
	statAnomalySevereZ     = 3.0
	volumeAnomalyMinRecords = 20
	volumeAnomalyPct       = 100.0
	volumeAnomalySeverePct = 200.0
	temporalAnomalyMinRecords = 50
	temporalAnomalyMinErrors  = 10
	temporalAnomalyRatio      = 3.0
	temporalAnomalySevereRatio = 5.0
	patternAnomalyMinRecords = 20
	patternAnomalyMinErrors  = 10
	patternAnomalyRarity     = 0.05
)

type hourBucket struct {
	hour  time.Time
	total int64
	errs  int64
}

// computeAnomalies is grounded on
// original_source/.../analytics/anomaly_detector.py's detect_anomalies.
func computeAnomalies(records []models.LogRecord) *models.AnomaliesReport {
	report := &models.AnomaliesReport{}

	hours := hourlyBuckets(records)

	report.Statistical = statisticalAnomalies(hours)
	report.Volume = volumeAnomalies(hours)
	report.Temporal = temporalAnomalies(records)
	report.Pattern = patternAnomalies(records)
	report.Scores = anomalyScores(hours, report.Statistical, report.Volume)

	return report
}

func hourlyBuckets(records []models.LogRecord) []hourBucket {
	byHour := map[time.Time]*hourBucket{}

	for _, rec := range records {
		key := bucketTime(rec.EventTime, "hourly")

		b, ok := byHour[key]
		if !ok {
			b = &hourBucket{hour: key}
			byHour[key] = b
		}

		b.total++
		if rec.Level == models.LevelError || rec.Level == models.LevelCritical {
			b.errs++
		}
	}

	out := make([]hourBucket, 0, len(byHour))
	for _, b := range byHour {
		out = append(out, *b)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].hour.Before(out[j].hour) })

	return out
}

// statisticalAnomalies flags hours whose total log count deviates from the
// mean by more than statAnomalyZThreshold standard deviations.
func statisticalAnomalies(hours []hourBucket) []models.Anomaly {
	var totalRecords int64
	for _, h := range hours {
		totalRecords += h.total
	}

	if totalRecords < statAnomalyMinRecords || len(hours) < statAnomalyMinHours {
		return nil
	}

	var sum float64
	for _, h := range hours {
		sum += float64(h.total)
	}
	mean := sum / float64(len(hours))

	var variance float64
	for _, h := range hours {
		d := float64(h.total) - mean
		variance += d * d
	}
	variance /= float64(len(hours))
	stddev := math.Sqrt(variance)

	if stddev == 0 {
		return nil
	}

	var out []models.Anomaly
	for _, h := range hours {
		z := (float64(h.total) - mean) / stddev
		if math.Abs(z) <= statAnomalyZThreshold {
			continue
		}

		severity := "medium"
		if math.Abs(z) > statAnomalySevereZ {
			severity = "high"
		}

		direction := "drop"
		if z > 0 {
			direction = "spike"
		}

		hour := h.hour
		out = append(out, models.Anomaly{
			Type:      models.AnomalyStatistical,
			Hour:      &hour,
			Message:   fmt.Sprintf("log volume %s at %s: %d entries (z=%.2f)", direction, hour.Format(time.RFC3339), h.total, z),
			Direction: direction,
			Severity:  severity,
			ZScore:    z,
			Value:     float64(h.total),
		})
	}

	sort.Slice(out, func(i, j int) bool { return math.Abs(out[i].ZScore) > math.Abs(out[j].ZScore) })

	return topAnomalies(out, 10)
}

// volumeAnomalies flags hour-over-hour percentage swings between
// consecutive non-empty hours.
func volumeAnomalies(hours []hourBucket) []models.Anomaly {
	nonEmpty := make([]hourBucket, 0, len(hours))
	for _, h := range hours {
		if h.total > 0 {
			nonEmpty = append(nonEmpty, h)
		}
	}

	if len(nonEmpty) < 2 {
		return nil
	}

	var totalRecords int64
	for _, h := range nonEmpty {
		totalRecords += h.total
	}
	if totalRecords < volumeAnomalyMinRecords {
		return nil
	}

	var out []models.Anomaly
	for i := 1; i < len(nonEmpty); i++ {
		prev, curr := nonEmpty[i-1], nonEmpty[i]
		if prev.total == 0 {
			continue
		}

		changePct := (float64(curr.total) - float64(prev.total)) / float64(prev.total) * 100

		if math.Abs(changePct) <= volumeAnomalyPct {
			continue
		}

		severity := "medium"
		if math.Abs(changePct) > volumeAnomalySeverePct {
			severity = "high"
		}

		direction := "drop"
		if changePct > 0 {
			direction = "spike"
		}

		hour := curr.hour
		out = append(out, models.Anomaly{
			Type:      models.AnomalyVolume,
			Hour:      &hour,
			Message:   fmt.Sprintf("volume %s at %s: %+.1f%% vs prior hour", direction, hour.Format(time.RFC3339), changePct),
			Direction: direction,
			Severity:  severity,
			Value:     changePct,
		})
	}

	sort.Slice(out, func(i, j int) bool { return math.Abs(out[i].Value) > math.Abs(out[j].Value) })

	return topAnomalies(out, 10)
}

// temporalAnomalies flags hours-of-day whose error counts, aggregated
// across the whole snapshot, greatly exceed the expected per-hour share.
func temporalAnomalies(records []models.LogRecord) []models.Anomaly {
	if len(records) < temporalAnomalyMinRecords {
		return nil
	}

	byHourOfDay := make([]int64, 24)
	var totalErrors int64

	for _, rec := range records {
		if rec.Level != models.LevelError && rec.Level != models.LevelCritical {
			continue
		}
		h := rec.EventTime.UTC().Hour()
		byHourOfDay[h]++
		totalErrors++
	}

	if totalErrors < temporalAnomalyMinErrors {
		return nil
	}

	expected := float64(totalErrors) / 24.0

	var out []models.Anomaly
	for hour, count := range byHourOfDay {
		if expected <= 0 || float64(count) <= temporalAnomalyRatio*expected {
			continue
		}

		ratio := float64(count) / expected

		severity := "medium"
		if ratio > temporalAnomalySevereRatio {
			severity = "high"
		}

		hourOfDay := hour
		out = append(out, models.Anomaly{
			Type:      models.AnomalyTemporal,
			HourOfDay: &hourOfDay,
			Message:   fmt.Sprintf("hour %02d:00 concentrates %d errors (%.1fx expected)", hour, count, ratio),
			Direction: "spike",
			Severity:  severity,
			ZScore:    ratio,
			Value:     float64(count),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Value > out[j].Value })

	return out
}

// patternAnomalies flags ERROR/CRITICAL messages that occur far less often
// than the typical error message, i.e. rare, possibly-novel failures.
func patternAnomalies(records []models.LogRecord) []models.Anomaly {
	var errs []models.LogRecord
	for _, rec := range records {
		if rec.Level == models.LevelError || rec.Level == models.LevelCritical {
			errs = append(errs, rec)
		}
	}

	if len(records) < patternAnomalyMinRecords || len(errs) < patternAnomalyMinErrors {
		return nil
	}

	counts := map[string]int64{}
	for _, rec := range errs {
		counts[rec.Message]++
	}

	threshold := float64(len(errs)) * patternAnomalyRarity

	var out []models.Anomaly
	for msg, count := range counts {
		if float64(count) >= threshold {
			continue
		}

		severity := "medium"
		if count == 1 {
			severity = "high"
		}

		share := float64(count) / float64(len(errs))

		out = append(out, models.Anomaly{
			Type:      models.AnomalyPattern,
			Message:   truncateDisplay(msg),
			Direction: "rare",
			Severity:  severity,
			Value:     float64(count),
			Share:     share,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Share != out[j].Share {
			return out[i].Share < out[j].Share
		}
		return out[i].Message < out[j].Message
	})

	return topAnomalies(out, 10)
}

// anomalyScores computes the weighted per-hour risk score: base time-of-day
// weight, error-rate weight, volume-percentile weight, plus bonuses for a
// coinciding statistical or volume anomaly in that hour.
func anomalyScores(hours []hourBucket, statistical, volume []models.Anomaly) []models.AnomalyScore {
	if len(hours) == 0 {
		return nil
	}

	totals := make([]float64, len(hours))
	for i, h := range hours {
		totals[i] = float64(h.total)
	}
	p90 := percentile(append([]float64(nil), totals...), 90)

	statHours := map[time.Time]bool{}
	for _, a := range statistical {
		if a.Hour != nil {
			statHours[*a.Hour] = true
		}
	}
	volHours := map[time.Time]bool{}
	for _, a := range volume {
		if a.Hour != nil {
			volHours[*a.Hour] = true
		}
	}

	var out []models.AnomalyScore
	for _, h := range hours {
		var score float64

		hourOfDay := h.hour.UTC().Hour()
		if hourOfDay >= 2 && hourOfDay <= 6 {
			score += 0.5
		}

		if h.total > 0 {
			errorRate := float64(h.errs) / float64(h.total)
			if errorRate > 0.1 {
				score += 0.3 * math.Min(errorRate*10, 1.0)
			}
		}

		if float64(h.total) > p90 {
			score += 0.2
		}

		if statHours[h.hour] {
			score += 0.2
		}
		if volHours[h.hour] {
			score += 0.1
		}

		if score > 1.0 {
			score = 1.0
		}

		if score <= 0.1 {
			continue
		}

		out = append(out, models.AnomalyScore{Hour: h.hour, Score: score})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	if len(out) > 20 {
		out = out[:20]
	}

	return out
}

func topAnomalies(anomalies []models.Anomaly, limit int) []models.Anomaly {
	if len(anomalies) > limit {
		return anomalies[:limit]
	}
	return anomalies
}
