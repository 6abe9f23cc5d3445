package ingestdclient

import (
	"context"

	"github.com/loglytics/ingestd/internal/models"
)

// Ingest sends a raw batch body (NDJSON, a JSON object or array, or plain
// newline-delimited text) as-is to POST /ingest and returns the admission
// ack.
func (c *Client) Ingest(ctx context.Context, body []byte) (*models.IngestAck, error) {
	var ack models.IngestAck
	if err := c.postRaw(ctx, "/api/v1/ingest", "application/octet-stream", body, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// TestConnection calls GET /ingest/test to confirm the credential is valid
// and the tenant's ingest channel is active.
func (c *Client) TestConnection(ctx context.Context) (map[string]any, error) {
	var resp map[string]any
	if err := c.get(ctx, "/api/v1/ingest/test", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
