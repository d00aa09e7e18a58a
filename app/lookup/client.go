package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const defaultEndpoint = "https://www.googleapis.com/customsearch/v1"

var _ Client = (*WebClient)(nil)

// WebClient calls a Custom Search style JSON API.
type WebClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	engineID   string
}

func NewWebClient(httpClient *http.Client, apiKey, engineID string) *WebClient {
	return &WebClient{
		httpClient: httpClient,
		endpoint:   defaultEndpoint,
		apiKey:     apiKey,
		engineID:   engineID,
	}
}

type searchResponse struct {
	Items []Item `json:"items"`
}

func (c *WebClient) Search(ctx context.Context, query string) ([]Item, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("num", "10")

	req, err := http.NewRequestWithContext(ctx, "GET", c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call search API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search API error: %d %s: %s", resp.StatusCode, resp.Status, string(body))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return result.Items, nil
}
