// Package rental implements the cloud GPU rental-marketplace adapter.
package rental

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"

	"github.com/shopspring/decimal"

	"hwp.dev/oracle/pkg/catalog"
	"hwp.dev/oracle/pkg/domain"
	"hwp.dev/oracle/pkg/logging"
	"hwp.dev/oracle/pkg/server/fetch"
	"hwp.dev/oracle/pkg/server/sources"
)

const vastSearchURL = "https://cloud.vast.ai/api/v0/bundles/?q=%s"

// bundleSearchResponse is the shape of Vast.ai's bundle-search JSON API:
// a flat array of matching machine offers under an "offers" key.
type bundleSearchResponse struct {
	Offers []bundleOffer `json:"offers"`
}

// bundleOffer is the subset of fields this adapter reads off one bundle.
// MinBid is a pointer because the field's presence, not its value, is what
// the API uses to mark an offer as interruptible/spot-priced: on-demand
// offers omit it entirely rather than sending it as zero or null.
type bundleOffer struct {
	GPUName      string   `json:"gpu_name"`
	NumGPUs      int      `json:"num_gpus"`
	DPHTotal     float64  `json:"dph_total"`
	Reliability2 float64  `json:"reliability2"`
	MinBid       *float64 `json:"min_bid"`
}

// Source calls Vast.ai's bundle-search API for GPU rental offers. When the
// endpoint cannot be reached or parsed, it falls back to a randomized
// synthetic offer book so downstream aggregation always has data to work
// with, flagging the offers it fabricated.
type Source struct {
	*sources.BaseSource

	client *fetch.StealthClient
}

// New builds the rental adapter.
func New(client *fetch.StealthClient, logger *logging.Logger) *Source {
	return &Source{
		BaseSource: sources.NewBaseSource("rental-marketplace", logger),
		client:     client,
	}
}

// IsAvailable is always true: the fallback generator guarantees output.
func (s *Source) IsAvailable() bool {
	return true
}

// FetchOffers returns the current offer book for gpuType, along with a
// flag reporting whether the offers were fabricated rather than scraped.
func (s *Source) FetchOffers(ctx context.Context, gpuType string) ([]domain.RentalOffer, bool, error) {
	rental, ok := catalog.GetRentalType(gpuType)
	if !ok {
		return nil, false, sources.NewAdapterError("rental-marketplace", sources.CodeFetchFailed, "unknown rental type "+gpuType, nil)
	}

	offers, err := s.scrapeOffers(ctx, rental)
	if err != nil || len(offers) == 0 {
		s.Logger().Warn("falling back to synthetic rental offers", "gpuType", gpuType, "error", err)
		return fallbackOffers(rental), true, nil
	}

	s.SetHealthy(true)
	return offers, false, nil
}

func (s *Source) scrapeOffers(ctx context.Context, rental catalog.RentalType) ([]domain.RentalOffer, error) {
	target := fmt.Sprintf(vastSearchURL, url.QueryEscape(rental.DisplayQuery))

	body, status, err := s.client.FetchWithRetry(ctx, target, "", 3)
	if err != nil {
		s.SetHealthy(false)
		return nil, sources.NewAdapterError("rental-marketplace", sources.CodeFetchFailed, fmt.Sprintf("status %d", status), err)
	}

	var parsed bundleSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, sources.NewAdapterError("rental-marketplace", sources.CodeScrapeFailed, "parse bundle-search response", err)
	}

	var offers []domain.RentalOffer
	for _, b := range parsed.Offers {
		if b.DPHTotal <= 0 {
			continue
		}
		gpuCount := b.NumGPUs
		if gpuCount < 1 {
			gpuCount = 1
		}
		price := decimal.NewFromFloat(b.DPHTotal).Round(4)
		reliability := decimal.NewFromFloat(b.Reliability2)
		if reliability.IsZero() {
			reliability = decimal.NewFromFloat(0.97)
		}
		offers = append(offers, domain.RentalOffer{
			GPUType:         rental.ID,
			GPUCount:        gpuCount,
			PricePerHour:    price,
			PricePerGPUHour: price.Div(decimal.NewFromInt(int64(gpuCount))),
			Reliability:     reliability,
			ProviderClass:   "community",
			Interruptible:   b.MinBid != nil,
		})
	}

	return offers, nil
}

// fallbackOffers synthesizes a plausible offer book around a rental type's
// nominal BasePrice, used whenever scraping fails outright.
func fallbackOffers(rental catalog.RentalType) []domain.RentalOffer {
	count := 5 + rand.Intn(6) // 5..10
	offers := make([]domain.RentalOffer, 0, count)
	for i := 0; i < count; i++ {
		spread := rental.BasePrice * (0.85 + rand.Float64()*0.3)
		interruptible := i%3 == 0
		if interruptible {
			spread *= 0.6
		}
		price := decimal.NewFromFloat(spread).Round(4)
		offers = append(offers, domain.RentalOffer{
			GPUType:         rental.ID,
			GPUCount:        1,
			PricePerHour:    price,
			PricePerGPUHour: price,
			Reliability:     decimal.NewFromFloat(0.9 + rand.Float64()*0.09),
			ProviderClass:   "community",
			Interruptible:   interruptible,
		})
	}
	return offers
}
