// Package normalizer converts raw extracted fields into the canonical record
// schema. Every rule is deterministic and idempotent: normalizing the same
// raw fields twice yields identical output.
package normalizer

import (
	"net/url"
	"regexp"
	"strings"

	"classicist-scraper/adapters"
	"classicist-scraper/internal/types"
)

// certifiedMarkers is the token set that classifies a member as certified,
// matched case-insensitively against the raw badge value.
var certifiedMarkers = map[string]bool{
	"certified":        true,
	"certified member": true,
	"icaa certified":   true,
}

// platformByHost maps host substrings to platform tags. Hosts matching none
// of these keep the link with platform "website".
var platformByHost = []struct {
	substr   string
	platform string
}{
	{"facebook", "facebook"},
	{"twitter", "twitter"},
	{"linkedin", "linkedin"},
	{"instagram", "instagram"},
	{"youtube", "youtube"},
	{"pinterest", "pinterest"},
}

// statePattern matches a two-letter region code at the start of a segment,
// e.g. "GA 30076"
var statePattern = regexp.MustCompile(`^([A-Za-z]{2})(\s|$)`)

// NormalizeSummary converts raw listing-row fields into a SummaryRecord
func NormalizeSummary(raw *adapters.RawFields) types.SummaryRecord {
	return types.SummaryRecord{
		Name:            strings.TrimSpace(raw.Values[adapters.FieldName]),
		Certified:       IsCertified(raw.Values[adapters.FieldCertified]),
		DetailURL:       strings.TrimSpace(raw.Values[adapters.FieldDetailURL]),
		MembershipLevel: strings.TrimSpace(raw.Values[adapters.FieldMembershipLevel]),
	}
}

// NormalizeDetail converts raw detail-page fields into a DetailRecord.
// Fields that cannot be normalized keep their raw trimmed value; nothing
// here is fatal.
func NormalizeDetail(raw *adapters.RawFields) *types.DetailRecord {
	d := &types.DetailRecord{
		Field:          strings.TrimSpace(raw.Values[adapters.FieldField]),
		Location:       strings.TrimSpace(raw.Values[adapters.FieldLocation]),
		MailingAddress: strings.TrimSpace(raw.Values[adapters.FieldMailingAddress]),
		Phone:          normalizePhone(raw.Values[adapters.FieldPhone]),
		Email:          normalizeEmail(raw.Values[adapters.FieldEmail]),
		About:          strings.TrimSpace(raw.Values[adapters.FieldAbout]),
		Logo:           strings.TrimSpace(raw.Values[adapters.FieldLogo]),
		Highlights:     []string{},
		SocialMedia:    []types.SocialLink{},
		Photos:         []string{},
	}

	d.City, d.State = SplitAddress(d.Location)
	if d.City == "" && d.State == "" {
		d.City, d.State = SplitAddress(d.MailingAddress)
	}

	d.Highlights = append(d.Highlights, raw.Lists[adapters.ListHighlights]...)
	d.Photos = append(d.Photos, raw.Lists[adapters.ListPhotos]...)
	d.SocialMedia = NormalizeSocialLinks(raw.Links)

	return d
}

// IsCertified reports whether the raw badge value marks a certified member
func IsCertified(raw string) bool {
	return certifiedMarkers[strings.ToLower(strings.TrimSpace(raw))]
}

// SplitAddress splits a comma-delimited address into city and state. The
// last segment whose prefix matches a two-letter region code becomes the
// state; the segment before it becomes the city. Inputs that do not fit the
// pattern yield empty strings; the caller keeps the full raw address.
func SplitAddress(raw string) (city string, state string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}
	segments := strings.Split(raw, ",")
	for i := len(segments) - 1; i > 0; i-- {
		seg := strings.TrimSpace(segments[i])
		m := statePattern.FindStringSubmatch(seg)
		if m == nil {
			continue
		}
		state = strings.ToUpper(m[1])
		city = strings.TrimSpace(segments[i-1])
		return city, state
	}
	return "", ""
}

// NormalizeSocialLinks deduplicates raw anchors by normalized URL
// (scheme+host+path, query stripped) and tags each with a platform inferred
// from its host. Order of first appearance is preserved.
func NormalizeSocialLinks(links []adapters.RawLink) []types.SocialLink {
	out := []types.SocialLink{}
	seen := make(map[string]bool)

	for _, link := range links {
		key, host := normalizeLinkURL(link.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, types.SocialLink{
			Platform: platformForHost(host),
			URL:      strings.TrimSpace(link.URL),
			Text:     strings.TrimSpace(link.Text),
		})
	}

	return out
}

// normalizeLinkURL reduces a URL to its dedupe key and returns the host
func normalizeLinkURL(raw string) (key string, host string) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", ""
	}
	host = strings.ToLower(u.Hostname())
	key = strings.ToLower(u.Scheme) + "://" + host + strings.TrimSuffix(u.Path, "/")
	return key, host
}

// platformForHost maps a host to its platform tag, defaulting to "website"
func platformForHost(host string) string {
	for _, entry := range platformByHost {
		if strings.Contains(host, entry.substr) {
			return entry.platform
		}
	}
	return "website"
}

// normalizePhone strips a tel: scheme left over from href-based extraction
func normalizePhone(raw string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "tel:"))
}

// normalizeEmail strips a mailto: scheme left over from href-based extraction
func normalizeEmail(raw string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "mailto:"))
}
