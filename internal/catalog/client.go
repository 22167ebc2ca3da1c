package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/facturacr/edocs-api/internal/models"
	"github.com/facturacr/edocs-api/internal/utils"
)

// Client talks to the tax-authority catalog API. Name lookups feed record
// enrichment and are expected to fail sometimes; callers keep the raw code
// when they do.
type Client interface {
	BranchName(ctx context.Context, channel, code string) (string, error)
	ActivityName(ctx context.Context, channel, code string) (string, error)
	FetchActivities(ctx context.Context, channel string) ([]models.ActivityRow, error)
}

type httpClient struct {
	baseURL string
	logger  *utils.Logger
	client  *http.Client
}

type nameResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func NewHTTPClient(baseURL string, logger *utils.Logger) Client {
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *httpClient) BranchName(ctx context.Context, channel, code string) (string, error) {
	return c.lookupName(ctx, channel, "branches", code)
}

func (c *httpClient) ActivityName(ctx context.Context, channel, code string) (string, error) {
	return c.lookupName(ctx, channel, "activities", code)
}

func (c *httpClient) lookupName(ctx context.Context, channel, kind, code string) (string, error) {
	endpoint := fmt.Sprintf("%s/channels/%s/%s/%s",
		c.baseURL, url.PathEscape(channel), kind, url.PathEscape(code))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return "", err
	}

	var resp nameResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse catalog response: %w", err)
	}

	return resp.Name, nil
}

// FetchActivities pulls the already-normalized activity rows for a channel.
func (c *httpClient) FetchActivities(ctx context.Context, channel string) ([]models.ActivityRow, error) {
	endpoint := fmt.Sprintf("%s/channels/%s/activities", c.baseURL, url.PathEscape(channel))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var rows []models.ActivityRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse activity catalog: %w", err)
	}

	for i := range rows {
		rows[i].Channel = channel
	}

	return rows, nil
}

func (c *httpClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Catalog lookup returned non-OK status",
			"status", resp.StatusCode, "endpoint", endpoint)
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	return body, nil
}
