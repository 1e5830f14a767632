// Package config provides configuration loading and validation for the
// price oracle.
package config

import (
	"github.com/spf13/viper"
)

// Load populates a Config from environment variables, applying the
// defaults. No config file is read — every
// recognized setting is an environment variable.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", 8080)
	v.SetDefault("UPDATE_INTERVAL_MS", 30000)
	v.SetDefault("PRICE_CHANGE_THRESHOLD", 0.005)
	v.SetDefault("TWAP_WINDOW_MS", 300000)
	v.SetDefault("RENTAL_UPDATE_INTERVAL_MS", 5*60*1000)
	v.SetDefault("PRICE_POLICY", "median")
	v.SetDefault("DEMO_MODE", false)
	v.SetDefault("SCRAPE_MODE", false)
	v.SetDefault("USE_PROXY", false)
	v.SetDefault("PROXY_URLS", "")
	v.SetDefault("SCRAPER_API_KEY", "")
	v.SetDefault("EBAY_APP_ID", "")
	v.SetDefault("EBAY_CERT_ID", "")
	v.SetDefault("AMAZON_ACCESS_KEY", "")
	v.SetDefault("AMAZON_SECRET_KEY", "")
	v.SetDefault("AMAZON_PARTNER_TAG", "")
	v.SetDefault("BESTBUY_API_KEY", "")
	v.SetDefault("HISTORY_STORE_URL", "")
	v.SetDefault("HISTORY_STORE_KEY", "")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("METRICS_ENABLED", false)
	v.SetDefault("METRICS_ADDR", ":9090")
	v.SetDefault("WS_ENABLED", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT", "stdout")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
