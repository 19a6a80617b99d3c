package extractor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classicist-scraper/internal/types"
)

const directoryURL = "https://www.classicist.org/membership-directory/"

// stubFetcher serves canned markup per URL and records every fetch
type stubFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	errs    map[string]error
	calls   []string
	onFetch func(url string)
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		pages: make(map[string]string),
		errs:  make(map[string]error),
	}
}

func (f *stubFetcher) FetchPage(ctx context.Context, url string, waitSelector string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	if f.onFetch != nil {
		f.onFetch(url)
	}
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	if html, ok := f.pages[url]; ok {
		return html, nil
	}
	return "", fmt.Errorf("%w: status 404 for %s", types.ErrNotFound, url)
}

func (f *stubFetcher) fetchCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == url {
			n++
		}
	}
	return n
}

// listingPage builds a directory page containing one row per member slug
func listingPage(slugs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, slug := range slugs {
		fmt.Fprintf(&b, `<div class="list-item level-10">
			<span class="list-item-title-name"><a href="/members/%s/">%s</a></span>
		</div>`, slug, slug)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func testConfig() *types.Config {
	config := types.DefaultConfig()
	config.RequestDelay = 0
	config.MaxRetries = 2
	return config
}

func pageURL(n int) string {
	if n <= 1 {
		return directoryURL
	}
	return fmt.Sprintf("%s?page=%d", directoryURL, n)
}

func TestExtractAll_TerminatesOnDuplicateContent(t *testing.T) {
	fetcher := newStubFetcher()
	// Every page serves the same two members; the walker must still stop
	fetcher.pages[pageURL(1)] = listingPage("jane", "john")
	fetcher.pages[pageURL(2)] = listingPage("jane", "john")
	fetcher.pages[pageURL(3)] = listingPage("jane", "john")

	d := NewDirectoryExtractorWithFetcher(testConfig(), logrus.New(), fetcher)
	run, err := d.ExtractAll(context.Background())

	require.NoError(t, err)
	assert.Len(t, run.Records, 2)
	assert.Empty(t, run.Errors)
	// Stopped at the first page with zero new rows
	assert.Equal(t, 0, fetcher.fetchCount(pageURL(3)))
}

func TestExtractAll_DeduplicatesAcrossPages(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.pages[pageURL(1)] = listingPage("jane", "john")
	fetcher.pages[pageURL(2)] = listingPage("john", "mary")
	fetcher.pages[pageURL(3)] = listingPage("mary")

	d := NewDirectoryExtractorWithFetcher(testConfig(), logrus.New(), fetcher)
	run, err := d.ExtractAll(context.Background())

	require.NoError(t, err)
	require.Len(t, run.Records, 3)

	urls := make(map[string]bool)
	for _, r := range run.Records {
		urls[r.DetailURL] = true
	}
	assert.Len(t, urls, 3)
}

func TestExtractAll_DedupeIndependentOfPageOrder(t *testing.T) {
	countFor := func(p1, p2 []string) int {
		fetcher := newStubFetcher()
		fetcher.pages[pageURL(1)] = listingPage(p1...)
		fetcher.pages[pageURL(2)] = listingPage(p2...)
		fetcher.pages[pageURL(3)] = listingPage(p2...)

		d := NewDirectoryExtractorWithFetcher(testConfig(), logrus.New(), fetcher)
		run, err := d.ExtractAll(context.Background())
		require.NoError(t, err)
		return len(run.Records)
	}

	forward := countFor([]string{"jane", "john"}, []string{"john", "mary"})
	reversed := countFor([]string{"john", "mary"}, []string{"jane", "john"})
	assert.Equal(t, 3, forward)
	assert.Equal(t, forward, reversed)
}

func TestExtractAll_RowTimestampsConsistent(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.pages[pageURL(1)] = listingPage("jane", "john")
	fetcher.pages[pageURL(2)] = listingPage("jane", "john")

	d := NewDirectoryExtractorWithFetcher(testConfig(), logrus.New(), fetcher)
	run, err := d.ExtractAll(context.Background())

	require.NoError(t, err)
	for _, r := range run.Records {
		assert.Equal(t, run.StartedAt, r.Timestamp)
	}
}

func TestExtractAll_RetriesThenFails(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.errs[pageURL(1)] = fmt.Errorf("%w: connection refused", types.ErrNetwork)

	config := testConfig()
	d := NewDirectoryExtractorWithFetcher(config, logrus.New(), fetcher)
	run, err := d.ExtractAll(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNetwork)
	assert.Empty(t, run.Records)
	require.Len(t, run.Errors, 1)
	assert.Equal(t, pageURL(1), run.Errors[0].DetailURL)
	// One initial attempt plus the configured retries
	assert.Equal(t, config.MaxRetries+1, fetcher.fetchCount(pageURL(1)))
}

func TestExtractAll_FailureMidwayPreservesPartialResults(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.pages[pageURL(1)] = listingPage("jane", "john")
	fetcher.errs[pageURL(2)] = fmt.Errorf("%w: wait condition never satisfied", types.ErrNavigationTimeout)

	d := NewDirectoryExtractorWithFetcher(testConfig(), logrus.New(), fetcher)
	run, err := d.ExtractAll(context.Background())

	require.Error(t, err)
	assert.Len(t, run.Records, 2)
	require.Len(t, run.Errors, 1)
}

func TestExtractAll_RequiredFieldMissTreatedAsFetchFailure(t *testing.T) {
	fetcher := newStubFetcher()
	// Page renders but its rows lack the mandatory name/url markup:
	// the required-field miss gets the same retry budget as a fetch failure
	fetcher.pages[pageURL(1)] = `<div class="list-item"><span class="other">x</span></div>`

	config := testConfig()
	d := NewDirectoryExtractorWithFetcher(config, logrus.New(), fetcher)
	run, err := d.ExtractAll(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrRequiredFieldMissing)
	assert.Empty(t, run.Records)
	assert.Equal(t, config.MaxRetries+1, fetcher.fetchCount(pageURL(1)))
}

func TestExtractAll_Cancellation(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.pages[pageURL(1)] = listingPage("jane", "john")
	fetcher.pages[pageURL(2)] = listingPage("mary")

	ctx, cancel := context.WithCancel(context.Background())
	// Stop after the first page fetch; the walker must return what it has
	fetcher.onFetch = func(url string) {
		if url == pageURL(1) {
			cancel()
		}
	}

	d := NewDirectoryExtractorWithFetcher(testConfig(), logrus.New(), fetcher)
	run, err := d.ExtractAll(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, run.Records, 2)
	assert.Equal(t, 0, fetcher.fetchCount(pageURL(2)))
}

func TestListingPageURL(t *testing.T) {
	assert.Equal(t, directoryURL, listingPageURL(directoryURL, 1))
	assert.Equal(t, directoryURL+"?page=2", listingPageURL(directoryURL, 2))
	assert.Equal(t,
		"https://www.classicist.org/directory?page=3&sort=name",
		listingPageURL("https://www.classicist.org/directory?sort=name", 3))
}

func TestExtractAll_PageDelayHonored(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.pages[pageURL(1)] = listingPage("jane")
	fetcher.pages[pageURL(2)] = listingPage("john")
	fetcher.pages[pageURL(3)] = listingPage("john")

	config := testConfig()
	config.RequestDelay = 30 * time.Millisecond

	d := NewDirectoryExtractorWithFetcher(config, logrus.New(), fetcher)
	start := time.Now()
	run, err := d.ExtractAll(context.Background())

	require.NoError(t, err)
	assert.Len(t, run.Records, 2)
	// Two page advances, so at least two politeness delays elapsed
	assert.GreaterOrEqual(t, time.Since(start), 2*config.RequestDelay)
}
