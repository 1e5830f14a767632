// Package aggregator fuses per-source observations into a single price per
// asset: outlier filtering, median, TWAP, per-source collapsing, and
// fixed-point scaling for the envelope API.
package aggregator

import "errors"

var (
	// ErrNoObservations indicates a round produced zero observations across
	// every adapter for an asset.
	ErrNoObservations = errors.New("no observations for asset")
	// ErrUnknownAsset indicates updatePrice was called for an asset outside
	// the hardware catalog.
	ErrUnknownAsset = errors.New("unknown hardware asset")
)
