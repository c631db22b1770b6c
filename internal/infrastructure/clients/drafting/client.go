package drafting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/providers"
	"github.com/zatekoja/Medicalqueryreview/pkg/config"
)

// maxResponseBytes bounds how much of a drafting response is read
const maxResponseBytes = 1 << 20

// ErrNoDraft is returned when a response does not carry a successful draft
var ErrNoDraft = errors.New("drafting response carries no draft")

// Client calls an external drafting service over HTTP
type Client struct {
	endpoint   string
	httpClient *http.Client
}

var _ providers.DraftProvider = (*Client)(nil)

// NewClient creates a drafting client for cfg.Endpoint
func NewClient(cfg *config.DraftConfig) (*Client, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, errors.New("drafting endpoint is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Draft posts the request and extracts the draft text from the response
func (c *Client) Draft(ctx context.Context, request entities.DraftRequest) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordDraftMetric(ctx, 0, time.Since(start), err)
		return "", fmt.Errorf("drafting request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("drafting request failed with status %d", resp.StatusCode)
		recordDraftMetric(ctx, resp.StatusCode, time.Since(start), err)
		return "", err
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		recordDraftMetric(ctx, resp.StatusCode, time.Since(start), err)
		return "", fmt.Errorf("failed to read drafting response: %w", err)
	}

	text, err := ExtractDraft(raw)
	recordDraftMetric(ctx, resp.StatusCode, time.Since(start), err)
	if err != nil {
		return "", err
	}
	return text, nil
}
