package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classicist-scraper/adapters"
	"classicist-scraper/internal/types"
	"classicist-scraper/normalizer"
)

// DetailExtractor enriches summary records with detail-page data, one member
// at a time.
type DetailExtractor struct {
	adapter *adapters.ClassicistAdapter
	config  *types.Config
	logger  types.Logger
}

// NewDetailExtractor creates a new detail extractor
func NewDetailExtractor(config *types.Config, logger types.Logger) *DetailExtractor {
	return &DetailExtractor{
		adapter: adapters.NewClassicistAdapter(config, logger),
		config:  config,
		logger:  logger,
	}
}

// NewDetailExtractorWithFetcher creates a detail extractor with an injected
// page fetcher, for tests
func NewDetailExtractorWithFetcher(config *types.Config, logger types.Logger, fetcher types.PageFetcher) *DetailExtractor {
	return &DetailExtractor{
		adapter: adapters.NewClassicistAdapterWithFetcher(config, logger, fetcher),
		config:  config,
		logger:  logger,
	}
}

// Run processes the window [startIndex, startIndex+limit) of summaries
// sequentially, fetching and merging each member's detail page. A failed
// item contributes its summary-only record plus an error entry; the batch
// never aborts except on cancellation, which returns accumulated results.
// delay is the mandatory wait between consecutive detail fetches and is
// honored after failures too.
func (d *DetailExtractor) Run(ctx context.Context, summaries []types.SummaryRecord, startIndex int, limit int, delay time.Duration) *types.ScrapeRun {
	run := &types.ScrapeRun{
		SourceURL: d.config.TargetURL,
		StartedAt: time.Now(),
		Records:   []types.MemberRecord{},
		Errors:    []types.ScrapeError{},
	}

	if startIndex < 0 {
		startIndex = 0
	}
	if startIndex >= len(summaries) {
		d.logger.Warnf("Start index %d is past the collection of %d summaries", startIndex, len(summaries))
		return run
	}
	end := startIndex + limit
	if limit <= 0 || end > len(summaries) {
		end = len(summaries)
	}
	selected := summaries[startIndex:end]

	d.logger.Infof("Scraping details for %d members (%d-%d)", len(selected), startIndex, end-1)

	for i, summary := range selected {
		if i > 0 {
			if !sleepCtx(ctx, delay) {
				d.logger.Warnf("Detail batch stopped after %d records: %v", len(run.Records), ctx.Err())
				return run
			}
		}
		if ctx.Err() != nil {
			d.logger.Warnf("Detail batch stopped after %d records: %v", len(run.Records), ctx.Err())
			return run
		}

		detail, err := d.extractDetailWithRetry(ctx, summary.DetailURL)
		if err != nil {
			if ctx.Err() != nil {
				d.logger.Warnf("Detail batch stopped after %d records: %v", len(run.Records), ctx.Err())
				return run
			}
			d.logger.Warnf("Failed to scrape details for %s: %v", summary.Name, err)
			run.Errors = append(run.Errors, types.ScrapeError{
				DetailURL: summary.DetailURL,
				Reason:    err.Error(),
			})
			continue
		}

		member := types.MemberRecord{
			SummaryRecord: summary,
			Timestamp:     run.StartedAt,
		}

		// Merge is a single step: either the full detail record lands on the
		// member or none of it does.
		if err := member.MergeDetail(summary.DetailURL, detail); err != nil {
			run.Errors = append(run.Errors, types.ScrapeError{
				DetailURL: summary.DetailURL,
				Reason:    err.Error(),
			})
		}
		run.Records = append(run.Records, member)
		d.logger.Debugf("Processed %s (%d/%d)", summary.Name, i+1, len(selected))
	}

	d.logger.Infof("Detail batch completed: %d records, %d errors", len(run.Records), len(run.Errors))
	return run
}

// extractDetailWithRetry fetches, extracts and normalizes one detail page,
// retrying fetch-level failures with increasing backoff
func (d *DetailExtractor) extractDetailWithRetry(ctx context.Context, detailURL string) (*types.DetailRecord, error) {
	if detailURL == "" {
		return nil, fmt.Errorf("%w: record has no detail url", types.ErrExtraction)
	}

	var lastErr error
	for attempt := 1; attempt <= d.config.MaxRetries+1; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		detail, err := d.extractDetail(ctx, detailURL)
		if err == nil {
			return detail, nil
		}
		lastErr = err

		if !types.IsRetryable(err) && !errors.Is(err, types.ErrRequiredFieldMissing) {
			return nil, err
		}

		d.logger.Warnf("Detail fetch failed for %s (attempt %d/%d): %v", detailURL, attempt, d.config.MaxRetries+1, err)
		if attempt <= d.config.MaxRetries {
			if !sleepCtx(ctx, backoff(d.config.RequestDelay, attempt)) {
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("all retry attempts failed: %w", lastErr)
}

func (d *DetailExtractor) extractDetail(ctx context.Context, detailURL string) (*types.DetailRecord, error) {
	html, err := d.adapter.FetchPage(ctx, detailURL, "body")
	if err != nil {
		return nil, err
	}
	doc, err := d.adapter.ParseHTML(html)
	if err != nil {
		return nil, err
	}
	raw, err := d.adapter.ExtractDetail(doc, detailURL)
	if err != nil {
		return nil, err
	}
	return normalizer.NormalizeDetail(raw), nil
}

// Close cleans up resources
func (d *DetailExtractor) Close() {
	if d.adapter != nil {
		d.adapter.Close()
	}
}
