package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"classicist-scraper/internal/types"
	"classicist-scraper/utils"
)

// Locator addresses one value in the markup: a CSS selector plus an optional
// attribute name. An empty Attr means the element's collapsed text.
type Locator struct {
	Selector string
	Attr     string
}

// Rule describes how one field is extracted. Locators are evaluated in order
// until one yields a non-empty value.
type Rule struct {
	Field    string
	Locators []Locator
	Required bool
}

// RawLink is an anchor captured before any normalization
type RawLink struct {
	URL  string
	Text string
}

// RawFields holds the raw extracted values for one record shape. Values are
// whitespace-collapsed but otherwise untouched; business normalization
// happens in the normalizer package.
type RawFields struct {
	Values map[string]string
	Lists  map[string][]string
	Links  []RawLink
}

// NewRawFields returns an empty RawFields with initialized maps
func NewRawFields() *RawFields {
	return &RawFields{
		Values: make(map[string]string),
		Lists:  make(map[string][]string),
	}
}

// BaseAdapter provides the common extraction machinery for site adapters:
// page fetching, HTML parsing and the field rules engine.
type BaseAdapter struct {
	config     *types.Config
	logger     types.Logger
	fetcher    types.PageFetcher
	httpClient *utils.HTTPClient
}

// NewBaseAdapter creates a base adapter wired to either the headless browser
// or the plain HTTP client, depending on configuration.
func NewBaseAdapter(config *types.Config, logger types.Logger) *BaseAdapter {
	b := &BaseAdapter{
		config: config,
		logger: logger,
	}
	if config.UseHeadlessBrowser {
		b.fetcher = utils.NewBrowserClient(config, logger)
	} else {
		b.httpClient = utils.NewHTTPClient(config, logger)
		b.fetcher = b.httpClient
	}
	return b
}

// NewBaseAdapterWithFetcher creates a base adapter using the given fetcher.
// Used by tests to run the extraction pipeline against canned markup.
func NewBaseAdapterWithFetcher(config *types.Config, logger types.Logger, fetcher types.PageFetcher) *BaseAdapter {
	return &BaseAdapter{
		config:  config,
		logger:  logger,
		fetcher: fetcher,
	}
}

// FetchPage retrieves the rendered markup for pageURL
func (b *BaseAdapter) FetchPage(ctx context.Context, pageURL string, waitSelector string) (string, error) {
	return b.fetcher.FetchPage(ctx, pageURL, waitSelector)
}

// ParseHTML parses HTML content into a goquery document
func (b *BaseAdapter) ParseHTML(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrExtraction, err)
	}
	return doc, nil
}

// ApplyRules evaluates each rule against sel and stores the first value its
// locator chain yields. A missing optional field is recorded as an empty
// string; a missing required field fails the whole extraction.
func (b *BaseAdapter) ApplyRules(sel *goquery.Selection, rules []Rule, out *RawFields) error {
	for _, rule := range rules {
		value := ""
		for _, loc := range rule.Locators {
			value = locatorValue(sel, loc)
			if value != "" {
				break
			}
		}
		if value == "" && rule.Required {
			return fmt.Errorf("%w: %s", types.ErrRequiredFieldMissing, rule.Field)
		}
		out.Values[rule.Field] = value
	}
	return nil
}

// locatorValue resolves a single locator to a whitespace-collapsed value
func locatorValue(sel *goquery.Selection, loc Locator) string {
	element := sel.Find(loc.Selector).First()
	if element.Length() == 0 {
		return ""
	}
	if loc.Attr != "" {
		value, _ := element.Attr(loc.Attr)
		return CollapseWhitespace(value)
	}
	return CollapseWhitespace(element.Text())
}

// CollapseWhitespace trims a string and folds internal whitespace runs into
// single spaces
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ResolveURL converts href into an absolute URL against base. Malformed
// inputs are returned trimmed but otherwise unchanged.
func ResolveURL(base string, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

// Close cleans up resources
func (b *BaseAdapter) Close() {
	if b.httpClient != nil {
		b.httpClient.Close()
	}
}

// Config returns the config field of the BaseAdapter
func (b *BaseAdapter) Config() *types.Config {
	return b.config
}
