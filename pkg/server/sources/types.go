// Package sources defines the pluggable source-adapter contract and the
// shared relevance/price-floor helpers every concrete adapter uses.
package sources

import (
	"context"

	"hwp.dev/oracle/pkg/domain"
)

// Source is the uniform contract every concrete adapter implements: a
// stable display name, an availability flag, and a per-round fetch that
// never returns an error for "no data" — only for authentication, fetch,
// block, or protocol failures.
type Source interface {
	// Name returns the stable lowercase identifier used in provenance and
	// as the collapse key for per-source aggregation.
	Name() string

	// IsAvailable reports whether the adapter has what it needs to run
	// (credentials, reachable dependencies, etc.).
	IsAvailable() bool

	// FetchPrices returns 0..N observations for one asset in one round.
	FetchPrices(ctx context.Context, assetID string) ([]domain.Observation, error)
}

// RentalSource is the analogous contract for the rental-marketplace
// adapter, which fetches a full offer book per GPU type rather than a
// flat observation list.
type RentalSource interface {
	Name() string
	IsAvailable() bool
	FetchOffers(ctx context.Context, gpuType string) ([]domain.RentalOffer, bool, error)
}

// SourceFactory constructs a Source from nothing but process configuration
// (each factory closes over whatever it needs).
type SourceFactory func() (Source, error)

// DisplayNames maps adapter names to their user-visible display form.
// Names absent from this map are shown as-is.
var DisplayNames = map[string]string{
	"mock":            "Simulated",
	"newegg-scraper":  "Newegg",
	"bestbuy-scraper": "Best Buy",
	"amazon-scraper":  "Amazon",
	"bhphoto-scraper": "B&H Photo",
	"ebay":            "eBay",
	"amazon":          "Amazon API",
	"bestbuy":         "Best Buy API",
}

// DisplayName returns the user-visible form of an adapter name.
func DisplayName(name string) string {
	if d, ok := DisplayNames[name]; ok {
		return d
	}
	return name
}
