package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/loglytics/ingestd/internal/models"
)

// authTimingFloor is the minimum response time for auth endpoints to prevent
// timing oracle attacks that could distinguish valid from invalid API keys.
const authTimingFloor = 50 * time.Millisecond

// CredentialVerifier is the interface for verifying a presented API key
// against a claimed tenant ID (C1.verify).
type CredentialVerifier interface {
	Verify(ctx context.Context, tenantID, presentedKey string) (*models.Tenant, error)
}

// truncateKey returns at most the first 4 characters of key followed by "...".
func truncateKey(key string) string {
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return key
}

// enforceTimingFloor sleeps if needed so the response takes at least authTimingFloor.
func enforceTimingFloor(start time.Time) {
	if elapsed := time.Since(start); elapsed < authTimingFloor {
		time.Sleep(authTimingFloor - elapsed)
	}
}

// AuthMiddleware returns Gin middleware that authenticates requests via the
// `Authorization: Bearer <key>` + `X-Tenant-ID: <tenant_id>` header pair.
// If a BruteForceGuard is provided, failed verify attempts are tracked per
// tenant ID and feed the kRateLimited response on repeated failure.
func AuthMiddleware(verifier CredentialVerifier, log *logrus.Logger, guards ...*BruteForceGuard) gin.HandlerFunc {
	var guard *BruteForceGuard
	if len(guards) > 0 {
		guard = guards[0]
	}

	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if c.Writer.Status() == http.StatusUnauthorized || c.Writer.Status() == http.StatusForbidden {
				enforceTimingFloor(start)
			}
		}()

		apiKey := ExtractBearerToken(c)
		if apiKey == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", "missing or invalid authorization header")
			return
		}

		tenantID := c.GetHeader("X-Tenant-ID")
		if tenantID == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", "missing X-Tenant-ID header")
			return
		}

		if guard != nil && guard.IsBlocked(tenantID) {
			respondError(c, http.StatusTooManyRequests, "rate_limited", "too many failed verification attempts")
			return
		}

		tenant, err := verifier.Verify(c.Request.Context(), tenantID, apiKey)
		if err != nil || tenant == nil {
			logAuthFailure(log, c, tenantID, apiKey)

			if guard != nil {
				guard.RecordFailure(tenantID)
			}

			respondError(c, http.StatusForbidden, "forbidden", "unknown tenant or invalid key")
			return
		}

		if guard != nil {
			guard.ResetKey(tenantID)
		}

		c.Set("tenant_id", tenantID)
		c.Set("tenant", tenant)
		c.Next()
	}
}

// ExtractBearerToken extracts the API key from the Authorization header.
func ExtractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// logAuthFailure logs a failed authentication attempt.
func logAuthFailure(log *logrus.Logger, c *gin.Context, tenantID, apiKey string) {
	log.WithFields(logrus.Fields{
		"client_ip":  c.ClientIP(),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"request_id": c.GetString("request_id"),
		"tenant_id":  tenantID,
		"key_prefix": truncateKey(apiKey),
	}).Warn("authentication failed: invalid api key")
}
