package ingestdclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/loglytics/ingestd/internal/models"
)

func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := New(srv.URL, WithAPIKey("test-key"), WithTenantID("tenant-1"))
	return srv, c
}

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func TestCreateConnection(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/connections": func(w http.ResponseWriter, r *http.Request) {
			var req models.CreateTenantRequest
			json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
			if req.Name != "prod" {
				t.Errorf("got name %q, want prod", req.Name)
			}
			jsonResponse(w, http.StatusCreated, models.IssuedCredential{TenantID: "t1", PlaintextKey: "secret"})
		},
	})

	cred, err := c.CreateConnection(context.Background(), models.CreateTenantRequest{
		OwnerUserID: "u1", Name: "prod", PlatformTag: "web",
	})
	if err != nil {
		t.Fatalf("CreateConnection() error: %v", err)
	}
	if cred.TenantID != "t1" || cred.PlaintextKey != "secret" {
		t.Errorf("got %+v", cred)
	}
}

func TestListConnections(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/connections": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("owner_user_id") != "u1" {
				t.Errorf("missing owner_user_id query param")
			}
			jsonResponse(w, http.StatusOK, map[string]any{
				"connections": []models.TenantSummary{{TenantID: "t1"}, {TenantID: "t2"}},
				"has_more":    true,
			})
		},
	})

	tenants, hasMore, err := c.ListConnections(context.Background(), "u1", 10, 0)
	if err != nil {
		t.Fatalf("ListConnections() error: %v", err)
	}
	if len(tenants) != 2 || !hasMore {
		t.Errorf("got %d tenants, hasMore=%v", len(tenants), hasMore)
	}
}

func TestRevokeConnection(t *testing.T) {
	called := false
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"DELETE /api/v1/connections/t1": func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusNoContent)
		},
	})

	if err := c.RevokeConnection(context.Background(), "t1"); err != nil {
		t.Fatalf("RevokeConnection() error: %v", err)
	}
	if !called {
		t.Fatal("expected revoke endpoint to be called")
	}
}

func TestIngest(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/ingest": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Tenant-ID") != "tenant-1" {
				t.Errorf("missing tenant header")
			}
			jsonResponse(w, http.StatusOK, models.IngestAck{Received: 3, Stored: 3, TenantID: "tenant-1"})
		},
	})

	ack, err := c.Ingest(context.Background(), []byte("line one\nline two\n"))
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if ack.Stored != 3 {
		t.Errorf("got stored %d, want 3", ack.Stored)
	}
}

func TestReport(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/analytics/overview": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("force") != "true" {
				t.Errorf("expected force=true query param")
			}
			jsonResponse(w, http.StatusOK, map[string]any{"total_count": 42})
		},
	})

	report, err := c.Report(context.Background(), models.AnalyticsOverview, "", true)
	if err != nil {
		t.Fatalf("Report() error: %v", err)
	}
	if report["total_count"].(float64) != 42 {
		t.Errorf("got %+v", report)
	}
}

func TestAPIErrorParsing(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/connections": func(w http.ResponseWriter, r *http.Request) {
			jsonResponse(w, http.StatusNotFound, map[string]string{"code": "not_found", "message": "no such tenant"})
		},
	})

	_, _, err := c.ListConnections(context.Background(), "u1", 0, 0)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsNotFound(err) {
		t.Errorf("expected IsNotFound(err) to be true, got %v", err)
	}
}
