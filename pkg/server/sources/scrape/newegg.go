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
	neweggHomepageURL = "https://www.newegg.com/"
	neweggSearchURL   = "https://www.newegg.com/p/pl?d=%s"
)

// neweggItemSelectors lists selector families tried in order: Newegg has
// reskinned its search result markup at least twice in recent years, so
// the adapter tries the current item-cell class first and falls back to
// the older item-container class.
var neweggItemSelectors = []string{".item-cell", ".item-container"}

// NeweggSource scrapes Newegg's search results page for GPU and memory
// listings. It has no API, so every observation comes from HTML parsing.
type NeweggSource struct {
	*sources.BaseSource

	client *fetch.StealthClient
}

// NewNeweggSource builds the adapter.
func NewNeweggSource(client *fetch.StealthClient, logger *logging.Logger) *NeweggSource {
	return &NeweggSource{
		BaseSource: sources.NewBaseSource("newegg-scraper", logger),
		client:     client,
	}
}

// IsAvailable is always true: scraping needs no credentials.
func (s *NeweggSource) IsAvailable() bool {
	return true
}

// FetchPrices fetches and parses the Newegg search page for assetID.
func (s *NeweggSource) FetchPrices(ctx context.Context, assetID string) ([]domain.Observation, error) {
	asset, ok := catalog.GetHardwareAsset(assetID)
	if !ok {
		return nil, sources.NewAdapterError("newegg-scraper", sources.CodeFetchFailed, "unknown asset "+assetID, nil)
	}

	target := fmt.Sprintf(neweggSearchURL, url.QueryEscape(asset.SearchTerms[0]))
	referer := s.client.Warmup(ctx, neweggHomepageURL)

	body, status, err := s.client.FetchWithRetry(ctx, target, referer, 4)
	if err != nil {
		s.SetHealthy(false)
		return nil, sources.NewAdapterError("newegg-scraper", sources.CodeFetchFailed, fmt.Sprintf("status %d", status), err)
	}

	if status == 403 || status == 429 {
		s.SetHealthy(false)
		return nil, sources.NewAdapterError("newegg-scraper", sources.CodeBlocked, fmt.Sprintf("status %d", status), nil)
	}

	if looksBlocked(string(body)) {
		s.SetHealthy(false)
		return nil, sources.NewAdapterError("newegg-scraper", sources.CodeCaptcha, "anti-bot challenge page returned", nil)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, sources.NewAdapterError("newegg-scraper", sources.CodeScrapeFailed, "parse html", err)
	}

	now := sources.NowMillis()

	items, _ := firstMatch(doc, neweggItemSelectors...)
	if items == nil {
		structured := parseJSONLD(doc)
		if len(structured) == 0 {
			s.SetHealthy(false)
			return nil, sources.NewAdapterError("newegg-scraper", sources.CodeScrapeFailed, "no item nodes matched any known selector and no JSON-LD product data was embedded", nil)
		}
		s.SetHealthy(true)
		return structuredToObservations(assetID, s.Name(), "Newegg", now, structured), nil
	}

	var observations []domain.Observation
	items.Each(func(_ int, item *goquery.Selection) {
		title := item.Find(".item-title").First().Text()
		if title == "" {
			return
		}
		priceText := item.Find(".price-current").First().Text()
		price, ok := parsePrice(priceText)
		if !ok {
			return
		}
		if !sources.IsRelevantListing(assetID, title, price) {
			return
		}
		link, _ := item.Find("a.item-title").Attr("href")

		observations = append(observations, domain.Observation{
			AssetID:   assetID,
			Price:     price,
			Source:    s.Name(),
			Timestamp: now,
			Metadata: &domain.Metadata{
				ProductName: title,
				Seller:      "Newegg",
				Condition:   domain.ConditionNew,
				URL:         link,
			},
		})
	})

	s.SetHealthy(true)
	return observations, nil
}
