package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"classicist-scraper/internal/types"
)

// HTTPClient provides plain HTTP fetching with rate limiting for pages that
// do not need browser rendering. Retry policy is owned by the callers, which
// apply backoff across whatever fetcher they were given.
type HTTPClient struct {
	client  *http.Client
	config  *types.Config
	logger  types.Logger
	limiter *time.Ticker
}

// NewHTTPClient creates a new HTTP client with the given configuration
func NewHTTPClient(config *types.Config, logger types.Logger) *HTTPClient {
	client := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	// A zero or negative delay means no throttling, and NewTicker rejects
	// non-positive intervals.
	var limiter *time.Ticker
	if config.RequestDelay > 0 {
		limiter = time.NewTicker(config.RequestDelay)
	}

	return &HTTPClient{
		client:  client,
		config:  config,
		logger:  logger,
		limiter: limiter,
	}
}

// FetchPage performs a rate-limited GET and returns the response body.
// The waitSelector is ignored: static content is already "rendered".
func (h *HTTPClient) FetchPage(ctx context.Context, pageURL string, waitSelector string) (string, error) {
	if err := CheckHost(h.config, pageURL); err != nil {
		return "", err
	}

	// Wait for rate limiter
	if h.limiter != nil {
		select {
		case <-h.limiter.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", types.ErrNetwork, err)
	}

	req.Header.Set("User-Agent", h.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	h.logger.Debugf("Making request to %s", pageURL)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request failed: %v", types.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: status %d for %s", types.ErrNotFound, resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response body: %v", types.ErrNetwork, err)
	}

	h.logger.Debugf("Successfully retrieved %d bytes from %s", len(body), pageURL)
	return string(body), nil
}

// Close cleans up resources
func (h *HTTPClient) Close() {
	if h.limiter != nil {
		h.limiter.Stop()
	}
}
