package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hwp.dev/oracle/pkg/catalog"
	"hwp.dev/oracle/pkg/domain"
	"hwp.dev/oracle/pkg/logging"
	"hwp.dev/oracle/pkg/server/sources"
	"hwp.dev/oracle/pkg/version"
)

const (
	amazonHost    = "webservices.amazon.com"
	amazonRegion  = "us-east-1"
	amazonService = "ProductAdvertisingAPI"
	amazonTarget  = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems"
)

// AmazonSource queries the Amazon Product Advertising API (PA-API 5.0) for
// listings matching a hardware asset's search terms. PA-API requests are
// signed with AWS Signature V4.
type AmazonSource struct {
	*sources.BaseSource

	accessKey  string
	secretKey  string
	partnerTag string
	client     *http.Client
}

// NewAmazonSource builds the adapter. It is unavailable until all three
// credential fields are configured.
func NewAmazonSource(accessKey, secretKey, partnerTag string, logger *logging.Logger) *AmazonSource {
	return &AmazonSource{
		BaseSource: sources.NewBaseSource("amazon", logger),
		accessKey:  accessKey,
		secretKey:  secretKey,
		partnerTag: partnerTag,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// IsAvailable reports whether credentials and a partner tag are present.
func (s *AmazonSource) IsAvailable() bool {
	return s.accessKey != "" && s.secretKey != "" && s.partnerTag != ""
}

type amazonSearchRequest struct {
	Keywords    string   `json:"Keywords"`
	PartnerTag  string   `json:"PartnerTag"`
	PartnerType string   `json:"PartnerType"`
	Marketplace string   `json:"Marketplace"`
	Resources   []string `json:"Resources"`
	ItemCount   int      `json:"ItemCount"`
}

type amazonSearchResponse struct {
	SearchResult struct {
		Items []struct {
			ASIN          string `json:"ASIN"`
			DetailPageURL string `json:"DetailPageURL"`
			ItemInfo      struct {
				Title struct {
					DisplayValue string `json:"DisplayValue"`
				} `json:"Title"`
			} `json:"ItemInfo"`
			Offers struct {
				Listings []struct {
					Price struct {
						Amount   float64 `json:"Amount"`
						Currency string  `json:"Currency"`
					} `json:"Price"`
					Condition struct {
						Value string `json:"Value"`
					} `json:"Condition"`
				} `json:"Listings"`
			} `json:"Offers"`
		} `json:"Items"`
	} `json:"SearchResult"`
}

// FetchPrices searches PA-API for assetID's primary search term and
// returns one observation per relevant USD offer listing, so an item with
// several listings yields several observations.
func (s *AmazonSource) FetchPrices(ctx context.Context, assetID string) ([]domain.Observation, error) {
	if !s.IsAvailable() {
		return nil, sources.NewAdapterError("amazon", sources.CodeAuthMissing, "AMAZON_ACCESS_KEY/SECRET_KEY/PARTNER_TAG not configured", nil)
	}

	asset, ok := catalog.GetHardwareAsset(assetID)
	if !ok {
		return nil, sources.NewAdapterError("amazon", sources.CodeFetchFailed, "unknown asset "+assetID, nil)
	}

	reqBody := amazonSearchRequest{
		Keywords:    asset.SearchTerms[0],
		PartnerTag:  s.partnerTag,
		PartnerType: "Associates",
		Marketplace: "www.amazon.com",
		Resources:   []string{"ItemInfo.Title", "Offers.Listings.Price", "Offers.Listings.Condition"},
		ItemCount:   10,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, sources.NewAdapterError("amazon", sources.CodeFetchFailed, "marshal request", err)
	}

	endpoint := fmt.Sprintf("https://%s/paapi5/searchitems", amazonHost)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payload)))
	if err != nil {
		return nil, sources.NewAdapterError("amazon", sources.CodeFetchFailed, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("X-Amz-Target", amazonTarget)
	req.Header.Set("User-Agent", version.AgentString())
	s.signRequest(req, payload)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, sources.NewAdapterError("amazon", sources.CodeFetchFailed, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.SetHealthy(false)
		return nil, sources.NewAdapterError("amazon", sources.CodeHTTPError, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var parsed amazonSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, sources.NewAdapterError("amazon", sources.CodeFetchFailed, "decode response", err)
	}

	now := sources.NowMillis()
	var observations []domain.Observation
	for _, item := range parsed.SearchResult.Items {
		title := item.ItemInfo.Title.DisplayValue
		for _, listing := range item.Offers.Listings {
			if listing.Price.Currency != "" && listing.Price.Currency != "USD" {
				continue
			}
			price := decimal.NewFromFloat(listing.Price.Amount)
			if !sources.IsRelevantListing(assetID, title, price) {
				continue
			}
			observations = append(observations, domain.Observation{
				AssetID:   assetID,
				Price:     price,
				Source:    s.Name(),
				Timestamp: now,
				Metadata: &domain.Metadata{
					ProductName: title,
					Seller:      "Amazon",
					Condition:   amazonCondition(listing.Condition.Value),
					URL:         item.DetailPageURL,
				},
			})
		}
	}

	s.SetHealthy(true)
	return observations, nil
}

func amazonCondition(raw string) domain.Condition {
	switch strings.ToLower(raw) {
	case "new":
		return domain.ConditionNew
	case "refurbished":
		return domain.ConditionRefurbished
	default:
		return domain.ConditionUsed
	}
}

// signRequest applies AWS Signature V4 to req, as required by PA-API 5.0.
func (s *AmazonSource) signRequest(req *http.Request, payload []byte) {
	now := time.Now().UTC()
	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")

	req.Header.Set("X-Amz-Date", amzDate)
	req.Header.Set("Host", amazonHost)

	canonicalHeaders := fmt.Sprintf("content-type:application/json; charset=utf-8\nhost:%s\nx-amz-date:%s\nx-amz-target:%s\n",
		amazonHost, amzDate, amazonTarget)
	signedHeaders := "content-type;host;x-amz-date;x-amz-target"
	payloadHash := sha256Hex(payload)

	canonicalRequest := strings.Join([]string{
		"POST", "/paapi5/searchitems", "", canonicalHeaders, signedHeaders, payloadHash,
	}, "\n")

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, amazonRegion, amazonService)
	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256", amzDate, credentialScope, sha256Hex([]byte(canonicalRequest)),
	}, "\n")

	signingKey := amazonSigningKey(s.secretKey, dateStamp, amazonRegion, amazonService)
	signature := hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	authHeader := fmt.Sprintf("AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		s.accessKey, credentialScope, signedHeaders, signature)
	req.Header.Set("Authorization", authHeader)
}

func sha256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

func amazonSigningKey(secret, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, "aws4_request")
}
