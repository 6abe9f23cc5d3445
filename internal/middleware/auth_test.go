package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/loglytics/ingestd/internal/middleware"
	"github.com/loglytics/ingestd/internal/models"
)

type mockVerifier struct {
	valid map[string]string // tenantID -> expected key
}

func (m *mockVerifier) Verify(_ context.Context, tenantID, presentedKey string) (*models.Tenant, error) {
	want, ok := m.valid[tenantID]
	if !ok || want != presentedKey {
		return nil, errors.New("invalid credential")
	}
	return &models.Tenant{TenantID: tenantID}, nil
}

func TestAuthMiddleware(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	verifier := &mockVerifier{valid: map[string]string{"tenant-1": "good-key"}}

	tests := []struct {
		name       string
		authHeader string
		tenantID   string
		wantCode   int
	}{
		{"valid token", "Bearer good-key", "tenant-1", http.StatusOK},
		{"missing header", "", "tenant-1", http.StatusUnauthorized},
		{"invalid token", "Bearer bad-key", "tenant-1", http.StatusForbidden},
		{"no bearer prefix", "good-key", "tenant-1", http.StatusUnauthorized},
		{"missing tenant header", "Bearer good-key", "", http.StatusUnauthorized},
		{"unknown tenant", "Bearer good-key", "tenant-2", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(middleware.AuthMiddleware(verifier, log))
			r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			if tt.tenantID != "" {
				req.Header.Set("X-Tenant-ID", tt.tenantID)
			}
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("got %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestAuthMiddleware_SetsTenantID(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	verifier := &mockVerifier{valid: map[string]string{"t1": "k1"}}

	var gotTenant string
	r := gin.New()
	r.Use(middleware.AuthMiddleware(verifier, log))
	r.GET("/test", func(c *gin.Context) {
		v, _ := c.Get("tenant_id")
		gotTenant, _ = v.(string)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer k1")
	req.Header.Set("X-Tenant-ID", "t1")
	r.ServeHTTP(w, req)

	if gotTenant != "t1" {
		t.Fatalf("expected tenant_id=t1, got %q", gotTenant)
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"abc123", ""},
		{"", ""},
		{"Bearer ", ""},
		{"bearer abc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}
			got := middleware.ExtractBearerToken(c)
			if got != tt.want {
				t.Errorf("ExtractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}
