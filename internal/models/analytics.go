package models

import "time"

// AnalyticsType enumerates the C6 report kinds.
type AnalyticsType string

const (
	AnalyticsOverview      AnalyticsType = "overview"
	AnalyticsErrorAnalysis AnalyticsType = "error-analysis"
	AnalyticsAnomalies     AnalyticsType = "anomalies"
	AnalyticsPerformance   AnalyticsType = "performance"
	AnalyticsPatterns      AnalyticsType = "patterns"
	AnalyticsInsights      AnalyticsType = "insights"
)

// Valid reports whether t is one of the six dispatchable report types.
func (t AnalyticsType) Valid() bool {
	switch t {
	case AnalyticsOverview, AnalyticsErrorAnalysis, AnalyticsAnomalies,
		AnalyticsPerformance, AnalyticsPatterns, AnalyticsInsights:
		return true
	default:
		return false
	}
}

// DefaultCacheTTL is the default lifetime of a cached analytics payload.
const DefaultCacheTTL = time.Hour

// AnalyticsCacheEntry is a computed report, cached under
// (tenant_id, analytics_type, scope_id) and replaced atomically on recompute.
type AnalyticsCacheEntry struct {
	TenantID      string        `json:"tenant_id"`
	AnalyticsType AnalyticsType `json:"analytics_type"`
	ScopeID       string        `json:"scope_id,omitempty"`
	Payload       []byte        `json:"payload"`
	ComputedAt    time.Time     `json:"computed_at"`
}

// Expired reports whether this entry is older than ttl relative to now.
func (e *AnalyticsCacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.ComputedAt) > ttl
}

// ReportRequest is the dispatch input to the Analytics Engine.
type ReportRequest struct {
	TenantID string
	Type     AnalyticsType
	ScopeID  string
	Force    bool
}

// LevelCount pairs a canonical level with an occurrence count.
type LevelCount struct {
	Level Level `json:"level"`
	Count int64 `json:"count"`
}

// TimelineBucket is one point in a count-over-time series.
type TimelineBucket struct {
	Bucket time.Time        `json:"bucket"`
	Counts map[Level]int64  `json:"counts"`
	Total  int64            `json:"total"`
}

// MessageCount pairs a (possibly truncated) message with its occurrence count.
type MessageCount struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

// OverviewReport is the payload for AnalyticsOverview.
type OverviewReport struct {
	TotalCount      int64            `json:"total_count"`
	EarliestEvent   *time.Time       `json:"earliest_event,omitempty"`
	LatestEvent     *time.Time       `json:"latest_event,omitempty"`
	LevelCounts     []LevelCount     `json:"level_counts"`
	Timeline        []TimelineBucket `json:"timeline"`
	TimelineGranularity string       `json:"timeline_granularity"`
	TopErrors       []MessageCount   `json:"top_errors"`
	TopWarnings     []MessageCount   `json:"top_warnings"`
	DistinctSources int              `json:"distinct_sources"`
}

// ServiceErrorCount pairs a service name with its error count.
type ServiceErrorCount struct {
	Service string `json:"service"`
	Count   int64  `json:"count"`
}

// ErrorHotspot is a top-N source ranked by error count.
type ErrorHotspot struct {
	Source          string `json:"source"`
	ErrorCount      int64  `json:"error_count"`
	DistinctMessages int   `json:"distinct_messages"`
}

// ErrorCategoryCount is a keyword-mapped error category with its count.
type ErrorCategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// ErrorAnalysisReport is the payload for AnalyticsErrorAnalysis.
type ErrorAnalysisReport struct {
	Timeline         []TimelineBucket     `json:"timeline"`
	ByService        []ServiceErrorCount  `json:"by_service"`
	MTBFHours        float64              `json:"mtbf_hours"`
	Hotspots         []ErrorHotspot       `json:"hotspots"`
	Categories       []ErrorCategoryCount `json:"categories"`
	RecurringCount   int64                `json:"recurring_count"`
	FirstTimeCount   int64                `json:"first_time_count"`
}

// AnomalyType enumerates the four anomaly sub-checks.
type AnomalyType string

const (
	AnomalyStatistical AnomalyType = "statistical"
	AnomalyVolume      AnomalyType = "volume"
	AnomalyTemporal    AnomalyType = "temporal"
	AnomalyPattern     AnomalyType = "pattern"
)

// Anomaly is one flagged data point from any of the four sub-checks.
type Anomaly struct {
	Type      AnomalyType `json:"type"`
	Hour      *time.Time  `json:"hour,omitempty"`
	HourOfDay *int        `json:"hour_of_day,omitempty"`
	Message   string      `json:"message,omitempty"`
	Direction string      `json:"direction,omitempty"` // "spike" | "drop", statistical only
	Severity  string      `json:"severity,omitempty"`  // "high" | "medium", volume only
	ZScore    float64     `json:"z_score,omitempty"`
	Value     float64     `json:"value,omitempty"`
	Share     float64     `json:"share,omitempty"`
}

// AnomalyScore is the weighted composite score for one hour bucket.
type AnomalyScore struct {
	Hour  time.Time `json:"hour"`
	Score float64   `json:"score"`
}

// AnomaliesReport is the payload for AnalyticsAnomalies.
type AnomaliesReport struct {
	Statistical []Anomaly      `json:"statistical"`
	Volume      []Anomaly      `json:"volume"`
	Temporal    []Anomaly      `json:"temporal"`
	Pattern     []Anomaly      `json:"pattern"`
	Scores      []AnomalyScore `json:"scores"`
}

// ResponseTimeStats summarizes a distribution of extracted response times.
type ResponseTimeStats struct {
	Count     int        `json:"count"`
	MinMS     float64    `json:"min_ms"`
	MaxMS     float64    `json:"max_ms"`
	MeanMS    float64    `json:"mean_ms"`
	MedianMS  float64    `json:"median_ms"`
	P95MS     float64    `json:"p95_ms"`
	P99MS     float64    `json:"p99_ms"`
	Histogram []int      `json:"histogram"`
}

// ThroughputStats summarizes per-minute log volume.
type ThroughputStats struct {
	MinPerMinute    float64   `json:"min_per_minute"`
	MaxPerMinute    float64   `json:"max_per_minute"`
	AvgPerMinute    float64   `json:"avg_per_minute"`
	EstimatedPerSec float64   `json:"estimated_per_sec"`
	PeakMinute      time.Time `json:"peak_minute"`
}

// SlowOperation is a single flagged slow-query/operation line.
type SlowOperation struct {
	Message    string    `json:"message"`
	DurationMS float64   `json:"duration_ms"`
	Severity   string    `json:"severity"` // "critical" | "high" | "medium"
	EventTime  time.Time `json:"event_time"`
}

// EndpointPerformance is per-(method,path) latency/error/score summary.
type EndpointPerformance struct {
	Method     string  `json:"method"`
	Path       string  `json:"path"`
	AvgMS      float64 `json:"avg_ms"`
	ErrorRate  float64 `json:"error_rate"`
	Score      float64 `json:"score"`
	SampleSize int     `json:"sample_size"`
}

// ResourceUsageStats summarizes extracted CPU or memory percentages.
type ResourceUsageStats struct {
	Count  int     `json:"count"`
	MinPct float64 `json:"min_pct"`
	MaxPct float64 `json:"max_pct"`
	MeanPct float64 `json:"mean_pct"`
	MedianPct float64 `json:"median_pct"`
}

// PerformanceReport is the payload for AnalyticsPerformance.
type PerformanceReport struct {
	ResponseTime *ResponseTimeStats    `json:"response_time,omitempty"`
	Throughput   *ThroughputStats      `json:"throughput,omitempty"`
	SlowOps      []SlowOperation       `json:"slow_operations"`
	Endpoints    []EndpointPerformance `json:"endpoints"`
	CPU          *ResourceUsageStats   `json:"cpu,omitempty"`
	Memory       *ResourceUsageStats   `json:"memory,omitempty"`
}

// NGram is a tokenized phrase with its occurrence count.
type NGram struct {
	Phrase string `json:"phrase"`
	Count  int64  `json:"count"`
}

// RootCauseCategory groups messages under a keyword-matched category.
type RootCauseCategory struct {
	Category string   `json:"category"`
	Count    int64    `json:"count"`
	Examples []string `json:"examples"`
}

// Correlation is a pair of categories co-occurring in a 5-minute window.
type Correlation struct {
	CategoryA string  `json:"category_a"`
	CategoryB string  `json:"category_b"`
	Score     float64 `json:"score"`
}

// MessageCluster groups near-identical messages under a simplified key.
type MessageCluster struct {
	Key       string   `json:"key"`
	Size      int64    `json:"size"`
	Example   string   `json:"example"`
}

// PatternsReport is the payload for AnalyticsPatterns.
type PatternsReport struct {
	CommonPatterns []NGram              `json:"common_patterns"`
	RootCauses     []RootCauseCategory  `json:"root_causes"`
	Correlations   []Correlation        `json:"correlations"`
	Clusters       []MessageCluster     `json:"clusters"`
}

// InsightSeverity is the severity tag on a synthesized insight sentence.
type InsightSeverity string

const (
	InsightCritical InsightSeverity = "critical"
	InsightHigh     InsightSeverity = "high"
	InsightMedium   InsightSeverity = "medium"
	InsightInfo     InsightSeverity = "info"
)

// insightPenalty maps an InsightSeverity to its health-score deduction.
var insightPenalty = map[InsightSeverity]int{
	InsightCritical: 25,
	InsightHigh:     15,
	InsightMedium:   10,
	InsightInfo:     0,
}

// Penalty returns the health-score deduction for s.
func (s InsightSeverity) Penalty() int { return insightPenalty[s] }

// Insight is one synthesized, severity-tagged observation.
type Insight struct {
	Severity InsightSeverity `json:"severity"`
	Summary  string          `json:"summary"`
}

// InsightsReport is the payload for AnalyticsInsights.
type InsightsReport struct {
	Insights    []Insight `json:"insights"`
	HealthScore int       `json:"health_score"`
}
