package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/loglytics/ingestd/internal/models"
)

// ConnectionsHandler serves the tenant credential lifecycle: issuing,
// listing, and revoking ingest connections (C1).
type ConnectionsHandler struct {
	credentials Credentials
}

// NewConnectionsHandler creates a ConnectionsHandler.
func NewConnectionsHandler(credentials Credentials) *ConnectionsHandler {
	return &ConnectionsHandler{credentials: credentials}
}

// Create handles POST /connections — issues a new tenant credential and
// returns the plaintext key exactly once.
func (h *ConnectionsHandler) Create(c *gin.Context) {
	var req models.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
		return
	}

	cred, err := h.credentials.Issue(c.Request.Context(), req)
	if err != nil {
		respondAPIErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, cred)
}

// List handles GET /connections — returns the caller's tenants without
// any credential material.
func (h *ConnectionsHandler) List(c *gin.Context) {
	ownerUserID := c.Query("owner_user_id")
	if ownerUserID == "" {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "owner_user_id is required")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	offset := 0
	if raw := c.Query("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}

	tenants, hasMore, err := h.credentials.List(c.Request.Context(), ownerUserID, limit, offset)
	if err != nil {
		respondAPIErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connections": tenants,
		"has_more":    hasMore,
	})
}

// Revoke handles a revoke call for an existing connection, identified by
// tenant_id path parameter.
func (h *ConnectionsHandler) Revoke(c *gin.Context) {
	tenantID := c.Param("tenant_id")
	if tenantID == "" {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "tenant_id is required")
		return
	}

	if err := h.credentials.Revoke(c.Request.Context(), tenantID); err != nil {
		respondAPIErr(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
