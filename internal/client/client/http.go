package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/twosync/internal/client/models"
)

// DefaultExportEndpoint is the production Twos export URL.
const DefaultExportEndpoint = "https://www.twosapp.com/apiV2/user/export"

type exportRequest struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
	Page   int    `json:"page"`
}

// HTTPClient talks to the Twos export endpoint over HTTPS.
type HTTPClient struct {
	endpoint string
	timeout  time.Duration
	hc       *http.Client
}

// NewHTTPClient returns a client for endpoint. A zero timeout disables the
// per-request deadline; the caller's context still applies.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{endpoint: endpoint, timeout: timeout, hc: &http.Client{}}
}

// Export posts {user_id, token, page: 0} and decodes the snapshot.
func (c *HTTPClient) Export(ctx context.Context, userID, token string) (*models.Snapshot, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(exportRequest{UserID: userID, Token: token, Page: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrFetch, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrFetch, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, c.mapStatus(resp.Status, resp.StatusCode, b)
	}

	var snap models.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrFetch, err)
	}
	return &snap, nil
}

func (c *HTTPClient) mapStatus(status string, code int, body []byte) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: %w: %s", ErrFetch, ErrUnauthorized, status)
	case code >= 500:
		return fmt.Errorf("%w: %w: %s", ErrFetch, ErrUnavailable, status)
	default:
		return fmt.Errorf("%w: %s; body: %s", ErrFetch, status, string(body))
	}
}
