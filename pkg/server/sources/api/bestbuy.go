package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"hwp.dev/oracle/pkg/catalog"
	"hwp.dev/oracle/pkg/domain"
	"hwp.dev/oracle/pkg/logging"
	"hwp.dev/oracle/pkg/server/sources"
	"hwp.dev/oracle/pkg/version"
)

const bestBuyProductsURL = "https://api.bestbuy.com/v1/products"

// BestBuySource queries the Best Buy Products API, a simple API-key-only
// REST endpoint unlike eBay's OAuth2 or Amazon's SigV4 flows.
type BestBuySource struct {
	*sources.BaseSource

	apiKey string
	client *http.Client
}

// NewBestBuySource builds the adapter.
func NewBestBuySource(apiKey string, logger *logging.Logger) *BestBuySource {
	return &BestBuySource{
		BaseSource: sources.NewBaseSource("bestbuy", logger),
		apiKey:     apiKey,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// IsAvailable reports whether an API key was configured.
func (s *BestBuySource) IsAvailable() bool {
	return s.apiKey != ""
}

type bestBuyProduct struct {
	Name                string  `json:"name"`
	SalePrice           float64 `json:"salePrice"`
	Condition           string  `json:"condition"`
	URL                 string  `json:"url"`
	InStoreAvailability bool    `json:"inStoreAvailability"`
	OnlineAvailability  bool    `json:"onlineAvailability"`
}

type bestBuySearchResponse struct {
	Products []bestBuyProduct `json:"products"`
}

// FetchPrices searches Best Buy for assetID's primary search term.
func (s *BestBuySource) FetchPrices(ctx context.Context, assetID string) ([]domain.Observation, error) {
	if !s.IsAvailable() {
		return nil, sources.NewAdapterError("bestbuy", sources.CodeAuthMissing, "BESTBUY_API_KEY not configured", nil)
	}

	asset, ok := catalog.GetHardwareAsset(assetID)
	if !ok {
		return nil, sources.NewAdapterError("bestbuy", sources.CodeFetchFailed, "unknown asset "+assetID, nil)
	}

	query := fmt.Sprintf("(search=%s)", url.QueryEscape(asset.SearchTerms[0]))
	endpoint := fmt.Sprintf("%s%s?apiKey=%s&format=json&show=name,salePrice,condition,url,inStoreAvailability,onlineAvailability&pageSize=25",
		bestBuyProductsURL, query, s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, sources.NewAdapterError("bestbuy", sources.CodeFetchFailed, "build request", err)
	}
	req.Header.Set("User-Agent", version.AgentString())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, sources.NewAdapterError("bestbuy", sources.CodeFetchFailed, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		s.SetHealthy(false)
		return nil, sources.NewAdapterError("bestbuy", sources.CodeAuthFailed, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		s.SetHealthy(false)
		return nil, sources.NewAdapterError("bestbuy", sources.CodeHTTPError, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var parsed bestBuySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, sources.NewAdapterError("bestbuy", sources.CodeFetchFailed, "decode response", err)
	}

	now := sources.NowMillis()
	observations := make([]domain.Observation, 0, len(parsed.Products))
	for _, p := range parsed.Products {
		if !p.OnlineAvailability && !p.InStoreAvailability {
			continue
		}
		price := decimal.NewFromFloat(p.SalePrice)
		if !sources.IsRelevantListing(assetID, p.Name, price) {
			continue
		}
		observations = append(observations, domain.Observation{
			AssetID:   assetID,
			Price:     price,
			Source:    s.Name(),
			Timestamp: now,
			Metadata: &domain.Metadata{
				ProductName: p.Name,
				Seller:      "Best Buy",
				Condition:   bestBuyCondition(p.Condition),
				URL:         p.URL,
			},
		})
	}

	s.SetHealthy(true)
	return observations, nil
}

func bestBuyCondition(raw string) domain.Condition {
	switch raw {
	case "", "new":
		return domain.ConditionNew
	case "refurbished", "preowned/refurbished":
		return domain.ConditionRefurbished
	default:
		return domain.ConditionUsed
	}
}
