package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"supmap-playback/internal/playback"
)

type Client struct {
	sourceURL  string
	httpClient *http.Client
}

type ClientOptions struct {
	Timeout time.Duration
}

func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout: 7 * time.Second,
	}
}

func NewClient(sourceURL string, options ...ClientOptions) *Client {
	opts := DefaultClientOptions()
	if len(options) > 0 {
		opts = options[0]
	}

	return &Client{
		sourceURL:  sourceURL,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

// FetchRoute downloads the route document once. There is no retry.
func (c *Client) FetchRoute(ctx context.Context) (playback.Route, error) {
	reqURL, err := url.Parse(c.sourceURL)
	if err != nil {
		return playback.Route{}, fmt.Errorf("failed to parse URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return playback.Route{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return playback.Route{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return playback.Route{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return playback.Route{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return doc.Route()
}
