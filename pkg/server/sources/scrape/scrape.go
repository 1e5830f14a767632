// Package scrape implements HTML-selector adapters for marketplaces with
// no usable public API: each adapter fetches a search results page through
// the fetch package's hardened client and extracts listings with goquery
// selectors, falling back to a secondary selector family or structured
// JSON-LD data when the primary markup doesn't match.
package scrape

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"hwp.dev/oracle/pkg/domain"
	"hwp.dev/oracle/pkg/server/sources"
)

// blockMarkers are substrings that indicate the response was an anti-bot
// challenge page rather than real search results.
var blockMarkers = []string{
	"captcha", "are you a human", "unusual traffic", "access denied", "robot check",
}

// looksBlocked inspects raw page text for a CAPTCHA/anti-bot challenge.
func looksBlocked(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range blockMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// parsePrice extracts a decimal price from free-form text like "$1,599.99"
// or "1599.99 USD", stripping everything but digits, the sign, and one
// decimal point.
func parsePrice(raw string) (decimal.Decimal, bool) {
	var b strings.Builder
	seenDot := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !seenDot:
			seenDot = true
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return decimal.Decimal{}, false
	}
	price, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Decimal{}, false
	}
	return price, true
}

// firstMatch runs selectors in order against doc and returns the first one
// that yields at least one node, used to fall back across markup versions.
func firstMatch(doc *goquery.Document, selectors ...string) (*goquery.Selection, string) {
	for _, sel := range selectors {
		nodes := doc.Find(sel)
		if nodes.Length() > 0 {
			return nodes, sel
		}
	}
	return nil, ""
}

// jsonLDOffer is the subset of schema.org Offer fields listings embed.
type jsonLDOffer struct {
	Price         json.Number `json:"price"`
	PriceCurrency string      `json:"priceCurrency"`
}

// jsonLDProduct is the subset of schema.org Product fields a listing page
// embeds in a <script type="application/ld+json"> block. Retailers emit
// this for SEO independent of whatever display markup they reskin, which
// makes it a more stable fallback than any particular CSS selector.
type jsonLDProduct struct {
	Type   string      `json:"@type"`
	Name   string      `json:"name"`
	URL    string      `json:"url"`
	Offers jsonLDOffer `json:"offers"`
}

// structuredListing is one product extracted from embedded JSON-LD data.
type structuredListing struct {
	title string
	price decimal.Decimal
	url   string
}

// parseJSONLD scans every <script type="application/ld+json"> block in doc
// and extracts any that describe a Product (or an ItemList/Offer array of
// them), used as a fallback when none of an adapter's CSS selectors match
// the page's display markup. Blocks that don't parse as JSON, or that parse
// but aren't Product-shaped, are skipped rather than treated as errors:
// pages routinely carry unrelated JSON-LD (breadcrumbs, organization info)
// alongside product data.
func parseJSONLD(doc *goquery.Document) []structuredListing {
	var listings []structuredListing

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, node *goquery.Selection) {
		raw := node.Text()
		if strings.TrimSpace(raw) == "" {
			return
		}

		// A block may hold a single object or an array of them.
		var candidates []json.RawMessage
		var single json.RawMessage
		if err := json.Unmarshal([]byte(raw), &single); err == nil {
			var asArray []json.RawMessage
			if err := json.Unmarshal(single, &asArray); err == nil {
				candidates = asArray
			} else {
				candidates = []json.RawMessage{single}
			}
		}

		for _, c := range candidates {
			var p jsonLDProduct
			if err := json.Unmarshal(c, &p); err != nil {
				continue
			}
			if !strings.EqualFold(p.Type, "Product") || p.Name == "" {
				continue
			}
			price, err := decimal.NewFromString(p.Offers.Price.String())
			if err != nil || price.IsZero() {
				continue
			}
			listings = append(listings, structuredListing{title: p.Name, price: price, url: p.URL})
		}
	})

	return listings
}

// structuredToObservations converts JSON-LD listings into observations,
// applying the same relevance filter the CSS-selector path uses so a
// fallback parse can't admit off-topic products a live selector would have
// caught.
func structuredToObservations(assetID, sourceName, seller string, nowMs int64, listings []structuredListing) []domain.Observation {
	observations := make([]domain.Observation, 0, len(listings))
	for _, l := range listings {
		if !sources.IsRelevantListing(assetID, l.title, l.price) {
			continue
		}
		observations = append(observations, domain.Observation{
			AssetID:   assetID,
			Price:     l.price,
			Source:    sourceName,
			Timestamp: nowMs,
			Metadata: &domain.Metadata{
				ProductName: l.title,
				Seller:      seller,
				Condition:   domain.ConditionNew,
				URL:         l.url,
			},
		})
	}
	return observations
}
