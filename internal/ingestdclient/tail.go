package ingestdclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"
)

// Tail dials the live fan-out endpoint (C5) for tenantID and invokes onEvent
// for each raw event frame received, until ctx is canceled or the connection
// closes. onEvent has no error return; Tail logs nothing itself and leaves
// reporting to the caller.
func (c *Client) Tail(ctx context.Context, tenantID string, onEvent func(raw []byte)) error {
	wsURL := strings.Replace(c.baseURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	wsURL += "/api/v1/ws/" + tenantID

	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.tenantID != "" {
		header.Set("X-Tenant-ID", c.tenantID)
	}

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return fmt.Errorf("dial tail endpoint: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done") //nolint:errcheck // best-effort close.

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		onEvent(data)
	}
}
