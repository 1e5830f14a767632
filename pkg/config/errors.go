// Package config loads and validates the oracle's process configuration
// from environment variables.
package config

import "errors"

var (
	// ErrInvalidPort indicates that PORT is not a usable TCP port number.
	ErrInvalidPort = errors.New("invalid port")
	// ErrInvalidUpdateInterval indicates UPDATE_INTERVAL_MS is not positive.
	ErrInvalidUpdateInterval = errors.New("update interval must be positive")
	// ErrInvalidTWAPWindow indicates TWAP_WINDOW_MS is not positive.
	ErrInvalidTWAPWindow = errors.New("twap window must be positive")
	// ErrInvalidPriceChangeThreshold indicates PRICE_CHANGE_THRESHOLD is out of range.
	ErrInvalidPriceChangeThreshold = errors.New("price change threshold must be in [0, 1]")
	// ErrInvalidLogLevel indicates that LOG_LEVEL is invalid.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidPricePolicy indicates that PRICE_POLICY names no known policy.
	ErrInvalidPricePolicy = errors.New("invalid price policy")
)
