// Package api implements adapters that speak each marketplace's official
// REST API, as opposed to the scrape package's HTML-selector adapters.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hwp.dev/oracle/pkg/catalog"
	"hwp.dev/oracle/pkg/domain"
	"hwp.dev/oracle/pkg/logging"
	"hwp.dev/oracle/pkg/server/sources"
	"hwp.dev/oracle/pkg/version"
)

const ebayBrowseURL = "https://api.ebay.com/buy/browse/v1/item_summary/search"

// EbaySource queries the eBay Browse API for active listings matching a
// hardware asset's search terms.
type EbaySource struct {
	*sources.BaseSource

	appID  string
	certID string
	client *http.Client

	token      string
	tokenUntil time.Time
}

// NewEbaySource builds the adapter. It is unavailable until both the app
// and cert IDs are configured.
func NewEbaySource(appID, certID string, logger *logging.Logger) *EbaySource {
	return &EbaySource{
		BaseSource: sources.NewBaseSource("ebay", logger),
		appID:      appID,
		certID:     certID,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// IsAvailable reports whether both credential halves are present.
func (s *EbaySource) IsAvailable() bool {
	return s.appID != "" && s.certID != ""
}

type ebayItemSummary struct {
	Title string `json:"title"`
	Price struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	} `json:"price"`
	Condition  string `json:"condition"`
	ItemWebURL string `json:"itemWebUrl"`
	Seller     struct {
		Username string `json:"username"`
	} `json:"seller"`
}

type ebaySearchResponse struct {
	ItemSummaries []ebayItemSummary `json:"itemSummaries"`
}

// FetchPrices searches the Browse API for assetID's search terms and
// returns one observation per relevant, in-stock, USD-priced listing.
func (s *EbaySource) FetchPrices(ctx context.Context, assetID string) ([]domain.Observation, error) {
	if !s.IsAvailable() {
		return nil, sources.NewAdapterError("ebay", sources.CodeAuthMissing, "EBAY_APP_ID/EBAY_CERT_ID not configured", nil)
	}

	asset, ok := catalog.GetHardwareAsset(assetID)
	if !ok {
		return nil, sources.NewAdapterError("ebay", sources.CodeFetchFailed, "unknown asset "+assetID, nil)
	}

	token, err := s.accessToken(ctx)
	if err != nil {
		return nil, sources.NewAdapterError("ebay", sources.CodeAuthFailed, "oauth token request failed", err)
	}

	query := asset.SearchTerms[0]
	endpoint := fmt.Sprintf("%s?q=%s&filter=conditionIds:{1000|1500|2000|2500|3000},priceCurrency:USD&limit=50",
		ebayBrowseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, sources.NewAdapterError("ebay", sources.CodeFetchFailed, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", "EBAY_US")
	req.Header.Set("User-Agent", version.AgentString())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, sources.NewAdapterError("ebay", sources.CodeFetchFailed, "browse request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.SetHealthy(false)
		return nil, sources.NewAdapterError("ebay", sources.CodeHTTPError, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var parsed ebaySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, sources.NewAdapterError("ebay", sources.CodeFetchFailed, "decode response", err)
	}

	now := sources.NowMillis()
	observations := make([]domain.Observation, 0, len(parsed.ItemSummaries))
	for _, item := range parsed.ItemSummaries {
		if item.Price.Currency != "" && item.Price.Currency != "USD" {
			continue
		}
		price, err := decimal.NewFromString(item.Price.Value)
		if err != nil {
			continue
		}
		if !sources.IsRelevantListing(assetID, item.Title, price) {
			continue
		}
		observations = append(observations, domain.Observation{
			AssetID:   assetID,
			Price:     price,
			Source:    s.Name(),
			Timestamp: now,
			Metadata: &domain.Metadata{
				ProductName: item.Title,
				Seller:      item.Seller.Username,
				Condition:   ebayCondition(item.Condition),
				URL:         item.ItemWebURL,
			},
		})
	}

	s.SetHealthy(true)
	return observations, nil
}

func ebayCondition(raw string) domain.Condition {
	switch raw {
	case "NEW", "NEW_OTHER", "NEW_WITH_DEFECTS":
		return domain.ConditionNew
	case "CERTIFIED_REFURBISHED", "EXCELLENT_REFURBISHED", "SELLER_REFURBISHED":
		return domain.ConditionRefurbished
	default:
		return domain.ConditionUsed
	}
}

// accessToken fetches (and caches) an eBay OAuth2 client-credentials token
// scoped to the Browse API's public read scope.
func (s *EbaySource) accessToken(ctx context.Context) (string, error) {
	if s.token != "" && time.Now().Before(s.tokenUntil) {
		return s.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", "https://api.ebay.com/oauth/api_scope")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.ebay.com/identity/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.appID, s.certID)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oauth token status %d", resp.StatusCode)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", err
	}

	s.token = tok.AccessToken
	s.tokenUntil = time.Now().Add(time.Duration(tok.ExpiresIn-60) * time.Second)
	return s.token, nil
}
