// Package config loads and validates the oracle's process configuration
// from environment variables.
package config

import "time"

// Config is the root configuration structure, populated once at startup
// from environment variables. There is no dynamic reload.
type Config struct {
	Port int `mapstructure:"PORT"`

	UpdateIntervalMs     int     `mapstructure:"UPDATE_INTERVAL_MS"`
	PriceChangeThreshold float64 `mapstructure:"PRICE_CHANGE_THRESHOLD"`
	TWAPWindowMs         int     `mapstructure:"TWAP_WINDOW_MS"`
	RentalIntervalMs     int     `mapstructure:"RENTAL_UPDATE_INTERVAL_MS"`

	PricePolicy string `mapstructure:"PRICE_POLICY"`

	DemoMode   bool `mapstructure:"DEMO_MODE"`
	ScrapeMode bool `mapstructure:"SCRAPE_MODE"`

	UseProxy  bool   `mapstructure:"USE_PROXY"`
	ProxyURLs string `mapstructure:"PROXY_URLS"`

	ScraperAPIKey string `mapstructure:"SCRAPER_API_KEY"`

	EbayAppID  string `mapstructure:"EBAY_APP_ID"`
	EbayCertID string `mapstructure:"EBAY_CERT_ID"`

	AmazonAccessKey  string `mapstructure:"AMAZON_ACCESS_KEY"`
	AmazonSecretKey  string `mapstructure:"AMAZON_SECRET_KEY"`
	AmazonPartnerTag string `mapstructure:"AMAZON_PARTNER_TAG"`

	BestBuyAPIKey string `mapstructure:"BESTBUY_API_KEY"`

	HistoryStoreURL string `mapstructure:"HISTORY_STORE_URL"`
	HistoryStoreKey string `mapstructure:"HISTORY_STORE_KEY"`

	CORSOrigins string `mapstructure:"CORS_ORIGINS"`

	MetricsEnabled bool   `mapstructure:"METRICS_ENABLED"`
	MetricsAddr    string `mapstructure:"METRICS_ADDR"`

	WSEnabled bool `mapstructure:"WS_ENABLED"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	LogOutput string `mapstructure:"LOG_OUTPUT"`
}

// UpdateInterval is UpdateIntervalMs as a time.Duration.
func (c *Config) UpdateInterval() time.Duration {
	return time.Duration(c.UpdateIntervalMs) * time.Millisecond
}

// RentalInterval is RentalIntervalMs as a time.Duration.
func (c *Config) RentalInterval() time.Duration {
	return time.Duration(c.RentalIntervalMs) * time.Millisecond
}

// TWAPWindow is TWAPWindowMs as a time.Duration.
func (c *Config) TWAPWindow() time.Duration {
	return time.Duration(c.TWAPWindowMs) * time.Millisecond
}

// HistoryConfigured reports whether a history store URL was supplied.
func (c *Config) HistoryConfigured() bool {
	return c.HistoryStoreURL != ""
}
