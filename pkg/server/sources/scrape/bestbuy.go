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
	bestBuyHomepageURL = "https://www.bestbuy.com/"
	bestBuySearchURL   = "https://www.bestbuy.com/site/searchpage.jsp?st=%s"
)

var bestBuyItemSelectors = []string{".sku-item", "li.sku-item"}

// BestBuyScrapeSource scrapes Best Buy's search page, used as a
// cross-check against the official BestBuySource API adapter and as a
// fallback when no API key is configured.
type BestBuyScrapeSource struct {
	*sources.BaseSource

	client *fetch.StealthClient
}

// NewBestBuyScrapeSource builds the adapter.
func NewBestBuyScrapeSource(client *fetch.StealthClient, logger *logging.Logger) *BestBuyScrapeSource {
	return &BestBuyScrapeSource{
		BaseSource: sources.NewBaseSource("bestbuy-scraper", logger),
		client:     client,
	}
}

// IsAvailable is always true.
func (s *BestBuyScrapeSource) IsAvailable() bool {
	return true
}

// FetchPrices fetches and parses the Best Buy search page for assetID.
func (s *BestBuyScrapeSource) FetchPrices(ctx context.Context, assetID string) ([]domain.Observation, error) {
	asset, ok := catalog.GetHardwareAsset(assetID)
	if !ok {
		return nil, sources.NewAdapterError("bestbuy-scraper", sources.CodeFetchFailed, "unknown asset "+assetID, nil)
	}

	target := fmt.Sprintf(bestBuySearchURL, url.QueryEscape(asset.SearchTerms[0]))
	referer := s.client.Warmup(ctx, bestBuyHomepageURL)

	body, status, err := s.client.FetchWithRetry(ctx, target, referer, 4)
	if err != nil {
		s.SetHealthy(false)
		return nil, sources.NewAdapterError("bestbuy-scraper", sources.CodeFetchFailed, fmt.Sprintf("status %d", status), err)
	}
	if status == 403 || status == 429 {
		s.SetHealthy(false)
		return nil, sources.NewAdapterError("bestbuy-scraper", sources.CodeBlocked, fmt.Sprintf("status %d", status), nil)
	}
	if looksBlocked(string(body)) {
		s.SetHealthy(false)
		return nil, sources.NewAdapterError("bestbuy-scraper", sources.CodeCaptcha, "anti-bot challenge page returned", nil)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, sources.NewAdapterError("bestbuy-scraper", sources.CodeScrapeFailed, "parse html", err)
	}

	now := sources.NowMillis()

	items, _ := firstMatch(doc, bestBuyItemSelectors...)
	if items == nil {
		structured := parseJSONLD(doc)
		if len(structured) == 0 {
			s.SetHealthy(false)
			return nil, sources.NewAdapterError("bestbuy-scraper", sources.CodeScrapeFailed, "no item nodes matched any known selector and no JSON-LD product data was embedded", nil)
		}
		s.SetHealthy(true)
		return structuredToObservations(assetID, s.Name(), "Best Buy", now, structured), nil
	}

	var observations []domain.Observation
	items.Each(func(_ int, item *goquery.Selection) {
		title := item.Find(".sku-title a").First().Text()
		if title == "" {
			return
		}
		priceText := item.Find(".priceView-customer-price span").First().Text()
		price, ok := parsePrice(priceText)
		if !ok {
			return
		}
		if !sources.IsRelevantListing(assetID, title, price) {
			return
		}
		link, _ := item.Find(".sku-title a").Attr("href")

		observations = append(observations, domain.Observation{
			AssetID:   assetID,
			Price:     price,
			Source:    s.Name(),
			Timestamp: now,
			Metadata: &domain.Metadata{
				ProductName: title,
				Seller:      "Best Buy",
				Condition:   domain.ConditionNew,
				URL:         link,
			},
		})
	})

	s.SetHealthy(true)
	return observations, nil
}
