package analytics

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/loglytics/ingestd/internal/models"
)

// responseTimeMin/Max bound a plausible response-time reading in
// milliseconds; anything outside is treated as a parse artifact rather
// than a real measurement. Grounded on
// original_source/.../analytics/performance_analyzer.py.
const (
	responseTimeMin = 0.0
	responseTimeMax = 300000.0
	slowOpThresholdMS = 1000.0
	slowOpCriticalMS  = 10000.0
	slowOpHighMS      = 5000.0
)

var responseTimePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:response|took|duration)[:\s]+(\d+\.?\d*)\s*(?:ms|milliseconds)`),
	regexp.MustCompile(`(?i)completed in (\d+\.?\d*)\s*(?:ms|milliseconds)`),
	regexp.MustCompile(`(?i)execution time[:\s]+(\d+\.?\d*)\s*(?:ms|milliseconds)`),
	regexp.MustCompile(`(?i)processing time[:\s]+(\d+\.?\d*)\s*(?:ms|milliseconds)`),
	regexp.MustCompile(`(\d+\.?\d*)\s*ms`),
}

var slowOpPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)slow query[:\s]+(.+?)[:\s]+(\d+\.?\d*)\s*(?:ms|milliseconds)`),
	regexp.MustCompile(`(?i)query took (.+?)[:\s]+(\d+\.?\d*)\s*(?:ms|milliseconds)`),
	regexp.MustCompile(`(?i)timeout[:\s]+(.+?)[:\s]+(\d+\.?\d*)\s*(?:ms|milliseconds)`),
	regexp.MustCompile(`(?i)operation[:\s]+(.+?)[:\s]+(\d+\.?\d*)\s*(?:ms|milliseconds)`),
	regexp.MustCompile(`(?i)execution[:\s]+(.+?)[:\s]+(\d+\.?\d*)\s*(?:ms|milliseconds)`),
}

var endpointPattern = regexp.MustCompile(`(?i)(GET|POST|PUT|DELETE|PATCH)\s+(\S+).*?(\d+\.?\d*)\s*ms`)

var cpuPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)cpu usage[:\s]+(\d+\.?\d*)%?`),
	regexp.MustCompile(`(?i)cpu load[:\s]+(\d+\.?\d*)%?`),
	regexp.MustCompile(`(?i)cpu[:\s]+(\d+\.?\d*)%?`),
}

var memoryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)memory usage[:\s]+(\d+\.?\d*)\s*(?:mb|gb|%)?`),
	regexp.MustCompile(`(?i)ram[:\s]+(\d+\.?\d*)\s*(?:mb|gb|%)?`),
	regexp.MustCompile(`(?i)memory[:\s]+(\d+\.?\d*)\s*(?:mb|gb|%)?`),
}

// computePerformance is grounded on
// original_source/.../analytics/performance_analyzer.py's analyze_performance.
func computePerformance(records []models.LogRecord) *models.PerformanceReport {
	return &models.PerformanceReport{
		ResponseTime: responseTimeStats(records),
		Throughput:   throughputStats(records),
		SlowOps:      slowOperations(records),
		Endpoints:    endpointPerformance(records),
		CPU:          resourceUsageStats(records, cpuPatterns, 0, 100),
		Memory:       resourceUsageStats(records, memoryPatterns, 0, 100),
	}
}

func extractFirstMatch(patterns []*regexp.Regexp, message string) (float64, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[len(m)-1], 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

func responseTimeStats(records []models.LogRecord) *models.ResponseTimeStats {
	var values []float64
	for _, rec := range records {
		v, ok := extractFirstMatch(responseTimePatterns, rec.Message)
		if !ok || v <= responseTimeMin || v >= responseTimeMax {
			continue
		}
		values = append(values, v)
	}

	if len(values) == 0 {
		return nil
	}

	sort.Float64s(values)

	return &models.ResponseTimeStats{
		Count:     len(values),
		MinMS:     values[0],
		MaxMS:     values[len(values)-1],
		MeanMS:    mean(values),
		MedianMS:  percentile(values, 50),
		P95MS:     percentile(values, 95),
		P99MS:     percentile(values, 99),
		Histogram: histogram(values, 10),
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// percentile implements linear-interpolation percentile over a
// pre-sorted slice, matching numpy's default ("linear") method.
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	idx := (pct / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))

	if lower == upper {
		return sorted[lower]
	}

	frac := idx - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}

// histogram buckets sorted values into buckets equal-width bins spanning
// [min, max], with the final bucket inclusive of max.
func histogram(sorted []float64, buckets int) []int {
	out := make([]int, buckets)

	min, max := sorted[0], sorted[len(sorted)-1]
	width := (max - min) / float64(buckets)

	if width == 0 {
		out[0] = len(sorted)
		return out
	}

	for _, v := range sorted {
		idx := int((v - min) / width)
		if idx >= buckets {
			idx = buckets - 1
		}
		out[idx]++
	}

	return out
}

func throughputStats(records []models.LogRecord) *models.ThroughputStats {
	if len(records) == 0 {
		return nil
	}

	byMinute := map[time.Time]int64{}
	for _, rec := range records {
		t := rec.EventTime.UTC()
		key := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
		byMinute[key]++
	}

	type minuteCount struct {
		minute time.Time
		count  int64
	}

	minutes := make([]minuteCount, 0, len(byMinute))
	for m, c := range byMinute {
		minutes = append(minutes, minuteCount{m, c})
	}
	sort.Slice(minutes, func(i, j int) bool { return minutes[i].minute.Before(minutes[j].minute) })

	var minC, maxC, sumC int64 = minutes[0].count, minutes[0].count, 0
	peak := minutes[0]

	for _, mc := range minutes {
		if mc.count < minC {
			minC = mc.count
		}
		if mc.count > maxC {
			maxC = mc.count
			peak = mc
		}
		sumC += mc.count
	}

	avg := float64(sumC) / float64(len(minutes))

	return &models.ThroughputStats{
		MinPerMinute:    float64(minC),
		MaxPerMinute:    float64(maxC),
		AvgPerMinute:    avg,
		EstimatedPerSec: avg / 60.0,
		PeakMinute:      peak.minute,
	}
}

func slowOperations(records []models.LogRecord) []models.SlowOperation {
	var out []models.SlowOperation

	for _, rec := range records {
		for _, re := range slowOpPatterns {
			m := re.FindStringSubmatch(rec.Message)
			if m == nil {
				continue
			}

			duration, err := strconv.ParseFloat(m[len(m)-1], 64)
			if err != nil || duration <= slowOpThresholdMS {
				break
			}

			severity := "medium"
			switch {
			case duration > slowOpCriticalMS:
				severity = "critical"
			case duration > slowOpHighMS:
				severity = "high"
			}

			out = append(out, models.SlowOperation{
				Message:    truncateDisplay(rec.Message),
				DurationMS: duration,
				Severity:   severity,
				EventTime:  rec.EventTime,
			})

			break
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].DurationMS > out[j].DurationMS })

	if len(out) > 20 {
		out = out[:20]
	}

	return out
}

func endpointPerformance(records []models.LogRecord) []models.EndpointPerformance {
	type agg struct {
		method string
		path   string
		total  float64
		count  int
		errors int
	}

	byEndpoint := map[string]*agg{}

	for _, rec := range records {
		m := endpointPattern.FindStringSubmatch(rec.Message)
		if m == nil {
			continue
		}

		ms, err := strconv.ParseFloat(m[3], 64)
		if err != nil || ms <= responseTimeMin || ms >= responseTimeMax {
			continue
		}

		key := strings.ToUpper(m[1]) + " " + m[2]

		a, ok := byEndpoint[key]
		if !ok {
			a = &agg{method: strings.ToUpper(m[1]), path: m[2]}
			byEndpoint[key] = a
		}

		a.total += ms
		a.count++
		if rec.Level.IsErrorClass() {
			a.errors++
		}
	}

	out := make([]models.EndpointPerformance, 0, len(byEndpoint))
	for _, a := range byEndpoint {
		avg := a.total / float64(a.count)
		errorRate := float64(a.errors) / float64(a.count)

		out = append(out, models.EndpointPerformance{
			Method:     a.method,
			Path:       a.path,
			AvgMS:      avg,
			ErrorRate:  errorRate,
			Score:      (1 - errorRate) * (1000 / (avg + 1)),
			SampleSize: a.count,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	if len(out) > 15 {
		out = out[:15]
	}

	return out
}

func resourceUsageStats(records []models.LogRecord, patterns []*regexp.Regexp, min, max float64) *models.ResourceUsageStats {
	var values []float64
	for _, rec := range records {
		v, ok := extractFirstMatch(patterns, rec.Message)
		if !ok || v < min || v > max {
			continue
		}
		values = append(values, v)
	}

	if len(values) == 0 {
		return nil
	}

	sort.Float64s(values)

	return &models.ResourceUsageStats{
		Count:     len(values),
		MinPct:    values[0],
		MaxPct:    values[len(values)-1],
		MeanPct:   mean(values),
		MedianPct: percentile(values, 50),
	}
}
