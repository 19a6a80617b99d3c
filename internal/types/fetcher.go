package types

import "context"

// PageFetcher retrieves the rendered markup of a page. On success the
// returned content reflects the DOM after waitSelector became ready,
// bounded by the configured timeout. waitSelector may be empty.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string, waitSelector string) (string, error)
}
