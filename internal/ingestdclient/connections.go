package ingestdclient

import (
	"context"
	"net/url"
	"strconv"

	"github.com/loglytics/ingestd/internal/models"
)

// CreateConnection issues a new tenant credential (C1). The returned
// plaintext key is never recoverable after this call.
func (c *Client) CreateConnection(ctx context.Context, req models.CreateTenantRequest) (*models.IssuedCredential, error) {
	var cred models.IssuedCredential
	if err := c.post(ctx, "/api/v1/connections", req, &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

// connectionsListResponse mirrors the JSON shape returned by GET /connections.
type connectionsListResponse struct {
	Connections []models.TenantSummary `json:"connections"`
	HasMore     bool                   `json:"has_more"`
}

// ListConnections returns the caller's tenants, paginated.
func (c *Client) ListConnections(ctx context.Context, ownerUserID string, limit, offset int) ([]models.TenantSummary, bool, error) {
	params := url.Values{"owner_user_id": {ownerUserID}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}

	var resp connectionsListResponse
	if err := c.get(ctx, "/api/v1/connections", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Connections, resp.HasMore, nil
}

// RevokeConnection revokes a tenant credential by ID.
func (c *Client) RevokeConnection(ctx context.Context, tenantID string) error {
	return c.del(ctx, "/api/v1/connections/"+url.PathEscape(tenantID), nil)
}
