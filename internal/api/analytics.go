package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loglytics/ingestd/internal/models"
)

// AnalyticsHandler serves the on-demand analytics report endpoints (C6).
type AnalyticsHandler struct {
	analytics Analytics
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(analytics Analytics) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Report handles GET /analytics/:type — dispatches to the analytics engine
// for the report type named by the path, scoped to the authenticated tenant.
func (h *AnalyticsHandler) Report(c *gin.Context) {
	reportType := models.AnalyticsType(c.Param("type"))
	if !reportType.Valid() {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "unknown analytics report type")
		return
	}

	req := models.ReportRequest{
		TenantID: c.GetString("tenant_id"),
		Type:     reportType,
		ScopeID:  c.Query("scope_id"),
		Force:    c.Query("force") == "true",
	}

	report, err := h.analytics.Report(c.Request.Context(), req)
	if err != nil {
		respondAPIErr(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// Invalidate handles a cache-busting call for a tenant's analytics reports,
// e.g. after a bulk purge.
func (h *AnalyticsHandler) Invalidate(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	if err := h.analytics.Invalidate(c.Request.Context(), tenantID); err != nil {
		respondAPIErr(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
