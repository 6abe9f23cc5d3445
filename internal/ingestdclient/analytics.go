package ingestdclient

import (
	"context"
	"net/url"

	"github.com/loglytics/ingestd/internal/models"
)

// Report fetches an on-demand analytics report (C6) of the given type,
// optionally scoped and optionally forcing a cache bypass.
func (c *Client) Report(ctx context.Context, reportType models.AnalyticsType, scopeID string, force bool) (map[string]any, error) {
	params := url.Values{}
	if scopeID != "" {
		params.Set("scope_id", scopeID)
	}
	if force {
		params.Set("force", "true")
	}

	var report map[string]any
	if err := c.get(ctx, "/api/v1/analytics/"+url.PathEscape(string(reportType)), params, &report); err != nil {
		return nil, err
	}
	return report, nil
}

// InvalidateReports busts the caller's cached analytics reports.
func (c *Client) InvalidateReports(ctx context.Context) error {
	return c.del(ctx, "/api/v1/analytics", nil)
}
