// Package metrics defines Prometheus metrics for ingestd.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingestd_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestd_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestd_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingestd_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)

	LogsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestd_logs_ingested_total",
			Help: "Total canonical log records persisted, by tenant.",
		},
		[]string{"tenant_id"},
	)

	ParseErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestd_parse_errors_total",
			Help: "Total per-line parse failures recovered as synthetic error records.",
		},
		[]string{"format"},
	)

	AdmissionRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestd_admission_rejected_total",
			Help: "Total ingest calls rejected by the per-tenant admission limiter.",
		},
		[]string{"tenant_id"},
	)

	BroadcastDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestd_ws_broadcast_dropped_total",
			Help: "Total fan-out deliveries dropped due to a full subscriber buffer.",
		},
		[]string{"tenant_id"},
	)

	AnalyticsCacheHitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestd_analytics_cache_hit_total",
			Help: "Total analytics report cache hits, by report type.",
		},
		[]string{"analytics_type"},
	)

	AnalyticsCacheMissTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestd_analytics_cache_miss_total",
			Help: "Total analytics report cache misses, by report type.",
		},
		[]string{"analytics_type"},
	)

	AnalyticsComputeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingestd_analytics_compute_duration_seconds",
			Help:    "Analytics report compute duration in seconds, by report type.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"analytics_type"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal, WSConnections,
		LogsIngestedTotal, ParseErrorsTotal, AdmissionRejectedTotal,
		BroadcastDroppedTotal, AnalyticsCacheHitTotal, AnalyticsCacheMissTotal,
		AnalyticsComputeDuration,
	)
}
