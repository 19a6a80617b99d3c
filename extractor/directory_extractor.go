package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"classicist-scraper/adapters"
	"classicist-scraper/internal/types"
	"classicist-scraper/normalizer"
)

// DirectoryExtractor walks the membership directory listing page by page,
// accumulating one summary record per member.
type DirectoryExtractor struct {
	adapter *adapters.ClassicistAdapter
	config  *types.Config
	logger  types.Logger
}

// NewDirectoryExtractor creates a new directory extractor
func NewDirectoryExtractor(config *types.Config, logger types.Logger) *DirectoryExtractor {
	return &DirectoryExtractor{
		adapter: adapters.NewClassicistAdapter(config, logger),
		config:  config,
		logger:  logger,
	}
}

// NewDirectoryExtractorWithFetcher creates a directory extractor with an
// injected page fetcher, for tests
func NewDirectoryExtractorWithFetcher(config *types.Config, logger types.Logger, fetcher types.PageFetcher) *DirectoryExtractor {
	return &DirectoryExtractor{
		adapter: adapters.NewClassicistAdapterWithFetcher(config, logger, fetcher),
		config:  config,
		logger:  logger,
	}
}

// ExtractAll traverses listing pages until a page yields zero previously
// unseen detail URLs. Rows are deduplicated by detail URL across the whole
// run, so a source that keeps re-serving the same members still terminates.
// A page whose fetch fails beyond the retry budget ends the run with partial
// results preserved; cancellation between pages does the same.
func (d *DirectoryExtractor) ExtractAll(ctx context.Context) (*types.ScrapeRun, error) {
	run := &types.ScrapeRun{
		SourceURL: d.config.TargetURL,
		StartedAt: time.Now(),
		Records:   []types.MemberRecord{},
		Errors:    []types.ScrapeError{},
	}

	d.logger.Infof("Starting directory traversal at %s", d.config.TargetURL)

	seen := make(map[string]bool)
	for page := 1; ; page++ {
		if ctx.Err() != nil {
			d.logger.Warnf("Traversal stopped after %d records: %v", len(run.Records), ctx.Err())
			return run, ctx.Err()
		}

		pageURL := listingPageURL(d.config.TargetURL, page)
		rows, err := d.extractPageWithRetry(ctx, pageURL)
		if err != nil {
			run.Errors = append(run.Errors, types.ScrapeError{
				DetailURL: pageURL,
				Reason:    err.Error(),
			})
			d.logger.Errorf("Giving up on page %d: %v", page, err)
			return run, fmt.Errorf("listing traversal failed at page %d: %w", page, err)
		}

		newRows := 0
		for _, raw := range rows {
			summary := normalizer.NormalizeSummary(raw)
			if summary.Name == "" && summary.DetailURL == "" {
				continue
			}
			if seen[summary.DetailURL] {
				continue
			}
			seen[summary.DetailURL] = true
			newRows++
			run.Records = append(run.Records, types.MemberRecord{
				SummaryRecord: summary,
				Timestamp:     run.StartedAt,
			})
		}

		d.logger.Infof("Page %d: %d rows, %d new (total %d)", page, len(rows), newRows, len(run.Records))

		// Zero new rows is the sole termination signal, regardless of how
		// the source paginates.
		if newRows == 0 {
			break
		}

		if !sleepCtx(ctx, d.config.RequestDelay) {
			return run, ctx.Err()
		}
	}

	d.logger.Infof("Directory traversal completed: %d members", len(run.Records))
	return run, nil
}

// extractPageWithRetry fetches and extracts one listing page. Fetch-level
// failures and required-field misses are retried with increasing backoff up
// to the configured budget; anything else fails immediately.
func (d *DirectoryExtractor) extractPageWithRetry(ctx context.Context, pageURL string) ([]*adapters.RawFields, error) {
	var lastErr error

	for attempt := 1; attempt <= d.config.MaxRetries+1; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		rows, err := d.extractPage(ctx, pageURL)
		if err == nil {
			return rows, nil
		}
		lastErr = err

		if !types.IsRetryable(err) && !errors.Is(err, types.ErrRequiredFieldMissing) {
			return nil, err
		}

		d.logger.Warnf("Page fetch failed (attempt %d/%d): %v", attempt, d.config.MaxRetries+1, err)
		if attempt <= d.config.MaxRetries {
			if !sleepCtx(ctx, backoff(d.config.RequestDelay, attempt)) {
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("all retry attempts failed: %w", lastErr)
}

func (d *DirectoryExtractor) extractPage(ctx context.Context, pageURL string) ([]*adapters.RawFields, error) {
	html, err := d.adapter.FetchPage(ctx, pageURL, d.config.ListingWaitSelector)
	if err != nil {
		return nil, err
	}
	doc, err := d.adapter.ParseHTML(html)
	if err != nil {
		return nil, err
	}
	return d.adapter.ExtractListingRows(doc, pageURL)
}

// listingPageURL builds the URL for the Nth listing page. Page 1 is the
// target URL unchanged; later pages carry a page query parameter.
func listingPageURL(target string, page int) string {
	if page <= 1 {
		return target
	}
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// Close cleans up resources
func (d *DirectoryExtractor) Close() {
	if d.adapter != nil {
		d.adapter.Close()
	}
}
