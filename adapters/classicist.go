package adapters

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"classicist-scraper/internal/types"
)

// Field names shared between the extraction rulesets and the normalizer
const (
	FieldName            = "name"
	FieldDetailURL       = "detail_url"
	FieldCertified       = "certified"
	FieldMembershipLevel = "membership_level"
	FieldField           = "field"
	FieldLocation        = "location"
	FieldMailingAddress  = "mailing_address"
	FieldPhone           = "phone"
	FieldEmail           = "email"
	FieldAbout           = "about"
	FieldLogo            = "logo"

	ListHighlights = "highlights"
	ListPhotos     = "photos"
)

// ClassicistAdapter extracts member data from the classicist.org
// membership directory and its per-member detail pages.
type ClassicistAdapter struct {
	*BaseAdapter
}

// NewClassicistAdapter creates a new classicist.org adapter
func NewClassicistAdapter(config *types.Config, logger types.Logger) *ClassicistAdapter {
	return &ClassicistAdapter{
		BaseAdapter: NewBaseAdapter(config, logger),
	}
}

// NewClassicistAdapterWithFetcher creates an adapter with an injected page
// fetcher, for tests
func NewClassicistAdapterWithFetcher(config *types.Config, logger types.Logger, fetcher types.PageFetcher) *ClassicistAdapter {
	return &ClassicistAdapter{
		BaseAdapter: NewBaseAdapterWithFetcher(config, logger, fetcher),
	}
}

// listingRules is the ruleset applied to each .list-item row container
func listingRules() []Rule {
	return []Rule{
		{
			Field:    FieldName,
			Locators: []Locator{{Selector: ".list-item-title-name a"}, {Selector: ".list-item-title-name"}},
			Required: true,
		},
		{
			Field:    FieldDetailURL,
			Locators: []Locator{{Selector: ".list-item-title-name a", Attr: "href"}},
			Required: true,
		},
		{
			Field:    FieldCertified,
			Locators: []Locator{{Selector: ".certified", Attr: "class"}, {Selector: ".certified"}},
		},
	}
}

// detailRules is the ruleset applied once per member detail page. The
// fallback chains mirror the markup variants seen across member pages.
func detailRules() []Rule {
	return []Rule{
		{
			Field: FieldField,
			Locators: []Locator{
				{Selector: ".field"},
				{Selector: ".classification"},
				{Selector: ".profession"},
				{Selector: ".category"},
			},
		},
		{
			Field: FieldLocation,
			Locators: []Locator{
				{Selector: ".location"},
				{Selector: ".city"},
			},
		},
		{
			Field: FieldMailingAddress,
			Locators: []Locator{
				{Selector: ".address"},
				{Selector: ".mailing-address"},
				{Selector: ".location"},
				{Selector: ".contact"},
			},
		},
		{
			Field: FieldPhone,
			Locators: []Locator{
				{Selector: ".phone"},
				{Selector: ".telephone"},
				{Selector: ".tel"},
				{Selector: "a[href^='tel:']", Attr: "href"},
			},
		},
		{
			Field: FieldEmail,
			Locators: []Locator{
				{Selector: ".email"},
				{Selector: "a[href^='mailto:']", Attr: "href"},
			},
		},
		{
			Field: FieldAbout,
			Locators: []Locator{
				{Selector: ".about"},
				{Selector: ".description"},
				{Selector: ".bio"},
				{Selector: ".summary"},
			},
		},
		{
			Field: FieldLogo,
			Locators: []Locator{
				{Selector: "img[src*='logo']", Attr: "src"},
				{Selector: ".logo img", Attr: "src"},
			},
		},
	}
}

// socialAnchorSelector captures anchors pointing at known social hosts plus
// any anchor inside a social links container
const socialAnchorSelector = "a[href*='facebook'], a[href*='twitter'], a[href*='linkedin'], " +
	"a[href*='instagram'], a[href*='youtube'], a[href*='pinterest'], .social a[href], .social-media a[href]"

// highlightSelector captures achievement / award style content blocks
const highlightSelector = ".highlight, .achievement, .award, .feature"

// ExtractListingRows applies the listing ruleset to every member row on a
// directory page. Row URLs are resolved against pageURL. Missing required
// fields on any row fail the whole page so the caller can retry the fetch.
func (c *ClassicistAdapter) ExtractListingRows(doc *goquery.Document, pageURL string) ([]*RawFields, error) {
	var rows []*RawFields
	var rowErr error

	doc.Find(".list-item").EachWithBreak(func(i int, row *goquery.Selection) bool {
		fields := NewRawFields()
		if err := c.ApplyRules(row, listingRules(), fields); err != nil {
			rowErr = err
			return false
		}
		fields.Values[FieldDetailURL] = ResolveURL(pageURL, fields.Values[FieldDetailURL])

		// Membership level rides on the row's class list as level-XXXX
		if class, ok := row.Attr("class"); ok {
			for _, cls := range strings.Fields(class) {
				if strings.HasPrefix(cls, "level-") {
					fields.Values[FieldMembershipLevel] = strings.TrimPrefix(cls, "level-")
					break
				}
			}
		}

		rows = append(rows, fields)
		return true
	})

	if rowErr != nil {
		return nil, rowErr
	}

	c.logger.Debugf("Extracted %d listing rows from %s", len(rows), pageURL)
	return rows, nil
}

// ExtractDetail applies the detail ruleset to a member page, capturing the
// scalar fields plus highlights, social anchors and photos.
func (c *ClassicistAdapter) ExtractDetail(doc *goquery.Document, pageURL string) (*RawFields, error) {
	fields := NewRawFields()
	if err := c.ApplyRules(doc.Selection, detailRules(), fields); err != nil {
		return nil, err
	}
	fields.Values[FieldLogo] = ResolveURL(pageURL, fields.Values[FieldLogo])

	doc.Find(highlightSelector).Each(func(i int, s *goquery.Selection) {
		if text := CollapseWhitespace(s.Text()); text != "" {
			fields.Lists[ListHighlights] = append(fields.Lists[ListHighlights], text)
		}
	})

	doc.Find(socialAnchorSelector).Each(func(i int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = ResolveURL(pageURL, href)
		if href == "" {
			return
		}
		fields.Links = append(fields.Links, RawLink{
			URL:  href,
			Text: CollapseWhitespace(s.Text()),
		})
	})

	logo := fields.Values[FieldLogo]
	doc.Find("img[src]").Each(func(i int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		src = ResolveURL(pageURL, src)
		if src == "" || src == logo {
			return
		}
		// Skip chrome: logos, icons, tracking pixels
		if strings.Contains(src, "logo") || strings.Contains(src, "icon") || len(src) <= 10 {
			return
		}
		fields.Lists[ListPhotos] = append(fields.Lists[ListPhotos], src)
	})

	return fields, nil
}
