package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration for internal consistency.
func Validate(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, cfg.Port)
	}
	if cfg.UpdateIntervalMs <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidUpdateInterval, cfg.UpdateIntervalMs)
	}
	if cfg.TWAPWindowMs <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTWAPWindow, cfg.TWAPWindowMs)
	}
	if cfg.PriceChangeThreshold < 0 || cfg.PriceChangeThreshold > 1 {
		return fmt.Errorf("%w: %f", ErrInvalidPriceChangeThreshold, cfg.PriceChangeThreshold)
	}
	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	if err := validatePricePolicy(cfg.PricePolicy); err != nil {
		return fmt.Errorf("price policy config: %w", err)
	}
	return nil
}

func validatePricePolicy(policy string) error {
	valid := []string{"median", "illiquid-multi", "illiquid-ema", "illiquid-hybrid"}
	p := strings.ToLower(policy)
	for _, v := range valid {
		if p == v {
			return nil
		}
	}
	return fmt.Errorf("%w: %s (must be one of: %s)", ErrInvalidPricePolicy, policy, strings.Join(valid, ", "))
}

func validateLogLevel(level string) error {
	valid := []string{"debug", "info", "warn", "error"}
	l := strings.ToLower(level)
	for _, v := range valid {
		if l == v {
			return nil
		}
	}
	return fmt.Errorf("%w: %s (must be one of: %s)", ErrInvalidLogLevel, level, strings.Join(valid, ", "))
}

// Mode reports which adapter class the service should run, following the
// precedence rule: SCRAPE_MODE wins, then DEMO_MODE, then API
// adapters (filtered by availability), falling back to the mock adapter if
// none are available.
type Mode string

const (
	ModeScrape Mode = "scrape"
	ModeDemo   Mode = "demo"
	ModeAPI    Mode = "api"
)

// SelectMode resolves the configured adapter mode.
func (c *Config) SelectMode() Mode {
	if c.ScrapeMode {
		return ModeScrape
	}
	if c.DemoMode {
		return ModeDemo
	}
	return ModeAPI
}

// ProxyList splits PROXY_URLS into a slice, trimming whitespace and
// dropping empty entries.
func (c *Config) ProxyList() []string {
	if c.ProxyURLs == "" {
		return nil
	}
	parts := strings.Split(c.ProxyURLs, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CORSOriginList splits CORS_ORIGINS into a slice of allowed origins.
func (c *Config) CORSOriginList() []string {
	if c.CORSOrigins == "" {
		return []string{"*"}
	}
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
