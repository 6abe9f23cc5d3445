package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loglytics/ingestd/internal/middleware"
	"github.com/loglytics/ingestd/internal/models"
)

// IngestHandler serves the log ingestion endpoint (C4) and the connection
// smoke test.
type IngestHandler struct {
	ingest Ingest
}

// NewIngestHandler creates an IngestHandler.
func NewIngestHandler(ingest Ingest) *IngestHandler {
	return &IngestHandler{ingest: ingest}
}

// Ingest handles POST /ingest — authenticate, frame, parse, normalize,
// persist, and broadcast the request body's log lines.
func (h *IngestHandler) Ingest(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	apiKey := middleware.ExtractBearerToken(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "failed to read request body")
		return
	}

	ack, err := h.ingest.Ingest(c.Request.Context(), tenantID, apiKey, body)
	if err != nil {
		respondAPIErr(c, err)
		return
	}

	c.JSON(http.StatusOK, ack)
}

// Test handles GET /ingest/test — a connectivity smoke test for a caller
// that has already authenticated. It never touches the pipeline itself.
func (h *IngestHandler) Test(c *gin.Context) {
	platform := ""
	status := "active"

	if v, ok := c.Get("tenant"); ok {
		if tenant, ok := v.(*models.Tenant); ok {
			platform = tenant.PlatformTag
			status = string(tenant.Status)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"platform": platform,
		"status":   status,
	})
}
