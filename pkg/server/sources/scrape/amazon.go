package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"hwp.dev/oracle/pkg/catalog"
	"hwp.dev/oracle/pkg/domain"
	"hwp.dev/oracle/pkg/logging"
	"hwp.dev/oracle/pkg/server/fetch"
	"hwp.dev/oracle/pkg/server/sources"
)

const (
	amazonHomepageURL = "https://www.amazon.com/"
	amazonSearchURL   = "https://www.amazon.com/s?k=%s"
)

var amazonItemSelectors = []string{"div[data-component-type='s-search-result']", ".s-result-item"}

// AmazonScrapeSource scrapes Amazon's search page, complementing the PA-API
// adapter with a credential-free fallback at the cost of heavier anti-bot
// defenses and a higher block rate.
type AmazonScrapeSource struct {
	*sources.BaseSource

	client *fetch.StealthClient
}

// NewAmazonScrapeSource builds the adapter.
func NewAmazonScrapeSource(client *fetch.StealthClient, logger *logging.Logger) *AmazonScrapeSource {
	return &AmazonScrapeSource{
		BaseSource: sources.NewBaseSource("amazon-scraper", logger),
		client:     client,
	}
}

// IsAvailable is always true.
func (s *AmazonScrapeSource) IsAvailable() bool {
	return true
}

// FetchPrices fetches and parses the Amazon search page for assetID.
func (s *AmazonScrapeSource) FetchPrices(ctx context.Context, assetID string) ([]domain.Observation, error) {
	asset, ok := catalog.GetHardwareAsset(assetID)
	if !ok {
		return nil, sources.NewAdapterError("amazon-scraper", sources.CodeFetchFailed, "unknown asset "+assetID, nil)
	}

	target := fmt.Sprintf(amazonSearchURL, url.QueryEscape(asset.SearchTerms[0]))
	referer := s.client.Warmup(ctx, amazonHomepageURL)

	body, status, err := s.client.FetchWithRetry(ctx, target, referer, 4)
	if err != nil {
		s.SetHealthy(false)
		return nil, sources.NewAdapterError("amazon-scraper", sources.CodeFetchFailed, fmt.Sprintf("status %d", status), err)
	}
	if status == 403 || status == 429 {
		s.SetHealthy(false)
		return nil, sources.NewAdapterError("amazon-scraper", sources.CodeBlocked, fmt.Sprintf("status %d", status), nil)
	}
	if looksBlocked(string(body)) {
		s.SetHealthy(false)
		return nil, sources.NewAdapterError("amazon-scraper", sources.CodeCaptcha, "anti-bot challenge page returned", nil)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, sources.NewAdapterError("amazon-scraper", sources.CodeScrapeFailed, "parse html", err)
	}

	now := sources.NowMillis()

	items, _ := firstMatch(doc, amazonItemSelectors...)
	if items == nil {
		structured := parseJSONLD(doc)
		if len(structured) == 0 {
			s.SetHealthy(false)
			return nil, sources.NewAdapterError("amazon-scraper", sources.CodeScrapeFailed, "no item nodes matched any known selector and no JSON-LD product data was embedded", nil)
		}
		s.SetHealthy(true)
		return structuredToObservations(assetID, s.Name(), "Amazon", now, structured), nil
	}

	var observations []domain.Observation
	items.Each(func(_ int, item *goquery.Selection) {
		title := item.Find("h2 span").First().Text()
		if title == "" {
			return
		}
		whole := item.Find(".a-price-whole").First().Text()
		fraction := item.Find(".a-price-fraction").First().Text()
		price, ok := parsePrice(whole + "." + fraction)
		if !ok {
			return
		}
		if !sources.IsRelevantListing(assetID, title, price) {
			return
		}
		link, _ := item.Find("h2 a").Attr("href")

		observations = append(observations, domain.Observation{
			AssetID:   assetID,
			Price:     price,
			Source:    s.Name(),
			Timestamp: now,
			Metadata: &domain.Metadata{
				ProductName: title,
				Seller:      "Amazon",
				Condition:   domain.ConditionNew,
				URL:         link,
			},
		})
	})

	s.SetHealthy(true)
	return observations, nil
}
