package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"classicist-scraper/internal/types"
)

// BrowserClient provides headless browser functionality
type BrowserClient struct {
	config *types.Config
	logger types.Logger
}

// NewBrowserClient creates a new browser client
func NewBrowserClient(config *types.Config, logger types.Logger) *BrowserClient {
	// Suppress chromedp debug logging
	log.SetOutput(io.Discard)

	return &BrowserClient{
		config: config,
		logger: logger,
	}
}

// FetchPage navigates to pageURL, waits for waitSelector to become ready and
// returns the rendered outer HTML. The URL must be well-formed and its host
// must be on the configured allow-list. Each call uses a fresh browser tab;
// callers must not assume connection reuse.
func (b *BrowserClient) FetchPage(ctx context.Context, pageURL string, waitSelector string) (string, error) {
	if err := CheckHost(b.config, pageURL); err != nil {
		return "", err
	}

	browserCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.config.Timeout)
	defer cancel()

	resp, err := chromedp.RunResponse(browserCtx, chromedp.Navigate(pageURL))
	if err != nil {
		return "", classifyNavError(pageURL, err)
	}
	if resp != nil && resp.Status >= 400 {
		return "", fmt.Errorf("%w: status %d for %s", types.ErrNotFound, resp.Status, pageURL)
	}

	tasks := chromedp.Tasks{}
	if waitSelector != "" {
		tasks = append(tasks, chromedp.WaitReady(waitSelector, chromedp.ByQuery))
	}
	// Small settle window for content that renders after the wait condition
	tasks = append(tasks, chromedp.Sleep(500*time.Millisecond))

	var html string
	tasks = append(tasks, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(browserCtx, tasks); err != nil {
		return "", classifyNavError(pageURL, err)
	}

	b.logger.Debugf("Successfully retrieved page content from %s (%d bytes)", pageURL, len(html))
	return html, nil
}

// classifyNavError maps chromedp failures onto the fetch error taxonomy
func classifyNavError(pageURL string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", types.ErrNavigationTimeout, pageURL, err)
	}
	return fmt.Errorf("%w: %s: %v", types.ErrNetwork, pageURL, err)
}

// CheckHost validates that rawURL is well-formed http(s) and that its host is
// on the configured allow-list. An empty allow-list permits any host.
func CheckHost(config *types.Config, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: invalid url %q: %v", types.ErrNetwork, rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q in %s", types.ErrNetwork, u.Scheme, rawURL)
	}
	if len(config.AllowedHosts) == 0 {
		return nil
	}
	host := strings.ToLower(u.Hostname())
	for _, allowed := range config.AllowedHosts {
		if host == strings.ToLower(allowed) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", types.ErrHostNotAllowed, host)
}
