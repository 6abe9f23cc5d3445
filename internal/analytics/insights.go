package analytics

import (
	"fmt"

	"github.com/loglytics/ingestd/internal/models"
)

// synthesizeInsights is grounded on
// original_source/.../analytics/analytics_engine.py's generate_insights and
// _calculate_health_score, folded into models.Insight's simpler
// {Severity, Summary} shape (the Python's separate per-insight
// recommendation list has no Go model counterpart and is dropped).
func synthesizeInsights(overview *models.OverviewReport, errs *models.ErrorAnalysisReport, anomalies *models.AnomaliesReport, perf *models.PerformanceReport, patterns *models.PatternsReport) *models.InsightsReport {
	var insights []models.Insight

	if errorRate, ok := errorRate(overview); ok {
		switch {
		case errorRate > 0.10:
			insights = append(insights, models.Insight{
				Severity: models.InsightCritical,
				Summary:  fmt.Sprintf("error rate is %.1f%%, well above the 10%% threshold", errorRate*100),
			})
		case errorRate > 0.05:
			insights = append(insights, models.Insight{
				Severity: models.InsightHigh,
				Summary:  fmt.Sprintf("error rate is %.1f%%, above the 5%% threshold", errorRate*100),
			})
		}
	}

	if errs != nil && errs.MTBFHours > 0 {
		switch {
		case errs.MTBFHours < 1:
			insights = append(insights, models.Insight{
				Severity: models.InsightCritical,
				Summary:  fmt.Sprintf("mean time between failures is %.1f minutes", errs.MTBFHours*60),
			})
		case errs.MTBFHours < 24:
			insights = append(insights, models.Insight{
				Severity: models.InsightMedium,
				Summary:  fmt.Sprintf("mean time between failures is %.1f hours", errs.MTBFHours),
			})
		}
	}

	if anomalies != nil {
		highRisk := 0
		for _, s := range anomalies.Scores {
			if s.Score > 0.7 {
				highRisk++
			}
		}

		switch {
		case highRisk > 5:
			insights = append(insights, models.Insight{
				Severity: models.InsightHigh,
				Summary:  fmt.Sprintf("%d hours this period carry high-risk anomaly scores", highRisk),
			})
		case highRisk > 0:
			insights = append(insights, models.Insight{
				Severity: models.InsightMedium,
				Summary:  fmt.Sprintf("%d hour(s) this period carry elevated anomaly scores", highRisk),
			})
		}
	}

	if perf != nil {
		switch {
		case len(perf.SlowOps) > 10:
			insights = append(insights, models.Insight{
				Severity: models.InsightHigh,
				Summary:  fmt.Sprintf("%d slow operations detected, exceeding the 1s threshold", len(perf.SlowOps)),
			})
		case len(perf.SlowOps) > 0:
			insights = append(insights, models.Insight{
				Severity: models.InsightMedium,
				Summary:  fmt.Sprintf("%d slow operation(s) detected", len(perf.SlowOps)),
			})
		}
	}

	if patterns != nil && len(patterns.RootCauses) > 0 {
		top := patterns.RootCauses[0]
		insights = append(insights, models.Insight{
			Severity: models.InsightMedium,
			Summary:  fmt.Sprintf("%q is the leading root cause category with %d occurrences", top.Category, top.Count),
		})
	}

	if anomalies != nil && len(anomalies.Temporal) > 0 {
		top := anomalies.Temporal[0]
		hourOfDay := 0
		if top.HourOfDay != nil {
			hourOfDay = *top.HourOfDay
		}
		insights = append(insights, models.Insight{
			Severity: models.InsightMedium,
			Summary:  fmt.Sprintf("hour %02d:00 shows an unusual concentration of errors", hourOfDay),
		})
	}

	if errs != nil && len(errs.Hotspots) > 0 {
		top := errs.Hotspots[0]
		insights = append(insights, models.Insight{
			Severity: models.InsightInfo,
			Summary:  fmt.Sprintf("%q is the top error source with %d errors", top.Source, top.ErrorCount),
		})
	}

	return &models.InsightsReport{
		Insights:    insights,
		HealthScore: healthScore(insights),
	}
}

func errorRate(overview *models.OverviewReport) (float64, bool) {
	if overview == nil || overview.TotalCount == 0 {
		return 0, false
	}

	var errorCount int64
	for _, lc := range overview.LevelCounts {
		if lc.Level == models.LevelError || lc.Level == models.LevelCritical {
			errorCount += lc.Count
		}
	}

	return float64(errorCount) / float64(overview.TotalCount), true
}

func healthScore(insights []models.Insight) int {
	score := 100
	for _, i := range insights {
		score -= i.Severity.Penalty()
	}
	if score < 0 {
		score = 0
	}
	return score
}
