package types

import (
	"errors"
	"fmt"
)

// Fetch-level errors. These are retryable with backoff up to Config.MaxRetries
// before a walker or batch runner records the item as failed.
var (
	// ErrNavigationTimeout indicates the page's wait condition was never satisfied
	ErrNavigationTimeout = errors.New("navigation timeout")
	// ErrNetwork indicates a DNS or connection failure
	ErrNetwork = errors.New("network error")
	// ErrNotFound indicates a 4xx/5xx response status
	ErrNotFound = errors.New("page not found")
	// ErrHostNotAllowed indicates the URL's host is not on the configured allow-list
	ErrHostNotAllowed = errors.New("host not allowed")
)

// Parse-level errors. These are not retried: they signal a site structure
// mismatch, except ErrRequiredFieldMissing which converts the affected page
// into a fetch-level failure for retry purposes.
var (
	// ErrExtraction indicates the markup could not be parsed into fields
	ErrExtraction = errors.New("extraction failed")
	// ErrRequiredFieldMissing indicates a required field yielded no value
	ErrRequiredFieldMissing = errors.New("required field missing")
)

// MergeError reports an attempt to merge a detail record into a summary whose
// detail URL does not match. This is an internal error, not a site condition.
type MergeError struct {
	Want string
	Got  string
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge conflict: detail for %s does not match summary %s", e.Got, e.Want)
}

// IsRetryable reports whether err is a fetch-level error worth retrying
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNavigationTimeout) ||
		errors.Is(err, ErrNetwork) ||
		errors.Is(err, ErrNotFound)
}
