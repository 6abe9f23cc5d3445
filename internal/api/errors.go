package api

import (
	"github.com/gin-gonic/gin"

	"github.com/loglytics/ingestd/internal/apierr"
	"github.com/loglytics/ingestd/internal/httputil"
	"github.com/loglytics/ingestd/internal/metrics"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeInternalError   = "internal_error"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeValidationError = "validation_error"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondAPIErr unpacks an *apierr.Error (or wraps an opaque error as
// internal) and writes the corresponding standardized JSON error response.
func respondAPIErr(c *gin.Context, err error) {
	e, ok := apierr.As(err)
	if !ok {
		respondError(c, 500, ErrCodeInternalError, "internal error")
		return
	}

	respondError(c, e.Status(), e.Code, e.Message)
}
