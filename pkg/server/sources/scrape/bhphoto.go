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
	bhphotoHomepageURL = "https://www.bhphotovideo.com/"
	bhphotoSearchURL   = "https://www.bhphotovideo.com/c/search?q=%s"
)

var bhphotoItemSelectors = []string{"[data-selenium='miniProductPage']", ".miniProductPage_miniProductPageWrapper__"}

// BHPhotoSource scrapes B&H Photo's search page. B&H carries workstation
// and server-class GPUs other retailers often don't stock, which makes it
// a useful fourth vote even though it is the thinnest-volume source.
type BHPhotoSource struct {
	*sources.BaseSource

	client *fetch.StealthClient
}

// NewBHPhotoSource builds the adapter.
func NewBHPhotoSource(client *fetch.StealthClient, logger *logging.Logger) *BHPhotoSource {
	return &BHPhotoSource{
		BaseSource: sources.NewBaseSource("bhphoto-scraper", logger),
		client:     client,
	}
}

// IsAvailable is always true.
func (s *BHPhotoSource) IsAvailable() bool {
	return true
}

// FetchPrices fetches and parses the B&H Photo search page for assetID.
func (s *BHPhotoSource) FetchPrices(ctx context.Context, assetID string) ([]domain.Observation, error) {
	asset, ok := catalog.GetHardwareAsset(assetID)
	if !ok {
		return nil, sources.NewAdapterError("bhphoto-scraper", sources.CodeFetchFailed, "unknown asset "+assetID, nil)
	}

	target := fmt.Sprintf(bhphotoSearchURL, url.QueryEscape(asset.SearchTerms[0]))
	referer := s.client.Warmup(ctx, bhphotoHomepageURL)

	body, status, err := s.client.FetchWithRetry(ctx, target, referer, 4)
	if err != nil {
		s.SetHealthy(false)
		return nil, sources.NewAdapterError("bhphoto-scraper", sources.CodeFetchFailed, fmt.Sprintf("status %d", status), err)
	}
	if status == 403 || status == 429 {
		s.SetHealthy(false)
		return nil, sources.NewAdapterError("bhphoto-scraper", sources.CodeBlocked, fmt.Sprintf("status %d", status), nil)
	}
	if looksBlocked(string(body)) {
		s.SetHealthy(false)
		return nil, sources.NewAdapterError("bhphoto-scraper", sources.CodeCaptcha, "anti-bot challenge page returned", nil)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, sources.NewAdapterError("bhphoto-scraper", sources.CodeScrapeFailed, "parse html", err)
	}

	now := sources.NowMillis()

	items, _ := firstMatch(doc, bhphotoItemSelectors...)
	if items == nil {
		structured := parseJSONLD(doc)
		if len(structured) == 0 {
			s.SetHealthy(false)
			return nil, sources.NewAdapterError("bhphoto-scraper", sources.CodeScrapeFailed, "no item nodes matched any known selector and no JSON-LD product data was embedded", nil)
		}
		s.SetHealthy(true)
		return structuredToObservations(assetID, s.Name(), "B&H Photo", now, structured), nil
	}

	var observations []domain.Observation
	items.Each(func(_ int, item *goquery.Selection) {
		title := item.Find("[data-selenium='miniProductPageProductName']").First().Text()
		if title == "" {
			return
		}
		priceText := item.Find("[data-selenium='uppedDecimalPrice']").First().Text()
		price, ok := parsePrice(priceText)
		if !ok {
			return
		}
		if !sources.IsRelevantListing(assetID, title, price) {
			return
		}
		link, _ := item.Find("a").First().Attr("href")

		observations = append(observations, domain.Observation{
			AssetID:   assetID,
			Price:     price,
			Source:    s.Name(),
			Timestamp: now,
			Metadata: &domain.Metadata{
				ProductName: title,
				Seller:      "B&H Photo",
				Condition:   domain.ConditionNew,
				URL:         link,
			},
		})
	})

	s.SetHealthy(true)
	return observations, nil
}
