package types

import "time"

// SocialLink represents a single social media link found on a member page
type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Text     string `json:"text"`
}

// SummaryRecord holds the fields captured from one directory listing row.
// Records are keyed by DetailURL across a run.
type SummaryRecord struct {
	Name            string `json:"name"`
	Certified       bool   `json:"certified"`
	DetailURL       string `json:"detail_url"`
	MembershipLevel string `json:"membership_level,omitempty"`
}

// DetailRecord holds the extended fields captured from a member detail page.
// A DetailRecord is never mutated after creation; retries replace it wholesale.
type DetailRecord struct {
	Field          string       `json:"field"`
	City           string       `json:"city"`
	State          string       `json:"state"`
	Location       string       `json:"location"`
	MailingAddress string       `json:"mailing_address"`
	Phone          string       `json:"phone"`
	Email          string       `json:"email"`
	About          string       `json:"about"`
	Highlights     []string     `json:"highlights"`
	SocialMedia    []SocialLink `json:"social_media"`
	Logo           string       `json:"logo,omitempty"`
	Photos         []string     `json:"photos"`
}

// MemberRecord is the unit persisted to storage: a summary plus an optional
// merged detail record and the capture timestamp. A MemberRecord without a
// Detail is valid; detail scraping is optional.
type MemberRecord struct {
	SummaryRecord
	Detail    *DetailRecord `json:"detail,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// MergeDetail merges a detail record into the member as a single step.
// The detail must belong to this member's DetailURL.
func (m *MemberRecord) MergeDetail(detailURL string, d *DetailRecord) error {
	if detailURL != m.DetailURL {
		return &MergeError{Want: m.DetailURL, Got: detailURL}
	}
	m.Detail = d
	return nil
}

// ScrapeError records one skipped record and the reason it was skipped
type ScrapeError struct {
	DetailURL string `json:"detail_url"`
	Reason    string `json:"reason"`
}

// ScrapeRun is the result of one listing traversal or one detail batch.
// A run always completes: a fully-failed batch returns an empty Records set
// and a full Errors set rather than failing.
type ScrapeRun struct {
	SourceURL string         `json:"source_url"`
	StartedAt time.Time      `json:"started_at"`
	Records   []MemberRecord `json:"records"`
	Errors    []ScrapeError  `json:"errors"`
}

// Config holds the configuration for the scraper
type Config struct {
	TargetURL           string
	AllowedHosts        []string
	RequestDelay        time.Duration
	MaxRetries          int
	Timeout             time.Duration
	UseHeadlessBrowser  bool
	UserAgent           string
	ListingWaitSelector string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		TargetURL:           "https://www.classicist.org/membership-directory/",
		AllowedHosts:        []string{"www.classicist.org", "classicist.org"},
		RequestDelay:        2 * time.Second,
		MaxRetries:          3,
		Timeout:             30 * time.Second,
		UseHeadlessBrowser:  true,
		UserAgent:           "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ListingWaitSelector: ".list-item",
	}
}

// Logger defines the logging interface
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
