package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Port:                 8080,
		UpdateIntervalMs:     30000,
		TWAPWindowMs:         300000,
		PriceChangeThreshold: 0.005,
		PricePolicy:          "median",
		LogLevel:             "info",
	}
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_RejectsInvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.Port = 0
	assert.ErrorIs(t, Validate(cfg), ErrInvalidPort)

	cfg.Port = 70000
	assert.ErrorIs(t, Validate(cfg), ErrInvalidPort)
}

func TestValidate_RejectsNonPositiveUpdateInterval(t *testing.T) {
	cfg := validConfig()
	cfg.UpdateIntervalMs = 0
	assert.ErrorIs(t, Validate(cfg), ErrInvalidUpdateInterval)
}

func TestValidate_RejectsNonPositiveTWAPWindow(t *testing.T) {
	cfg := validConfig()
	cfg.TWAPWindowMs = -1
	assert.ErrorIs(t, Validate(cfg), ErrInvalidTWAPWindow)
}

func TestValidate_RejectsOutOfRangeChangeThreshold(t *testing.T) {
	cfg := validConfig()
	cfg.PriceChangeThreshold = 1.5
	assert.ErrorIs(t, Validate(cfg), ErrInvalidPriceChangeThreshold)

	cfg.PriceChangeThreshold = -0.1
	assert.ErrorIs(t, Validate(cfg), ErrInvalidPriceChangeThreshold)
}

func TestValidate_RejectsUnknownLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "verbose"
	assert.ErrorIs(t, Validate(cfg), ErrInvalidLogLevel)
}

func TestValidate_AcceptsEachKnownPricePolicy(t *testing.T) {
	for _, policy := range []string{"median", "illiquid-multi", "illiquid-ema", "illiquid-hybrid", "MEDIAN"} {
		cfg := validConfig()
		cfg.PricePolicy = policy
		assert.NoError(t, Validate(cfg), "policy %s should be valid", policy)
	}
}

func TestValidate_RejectsUnknownPricePolicy(t *testing.T) {
	cfg := validConfig()
	cfg.PricePolicy = "moving-average"
	assert.ErrorIs(t, Validate(cfg), ErrInvalidPricePolicy)
}

func TestSelectMode_ScrapeModeWinsOverDemoMode(t *testing.T) {
	cfg := &Config{ScrapeMode: true, DemoMode: true}
	assert.Equal(t, ModeScrape, cfg.SelectMode())
}

func TestSelectMode_DemoModeWinsOverAPI(t *testing.T) {
	cfg := &Config{DemoMode: true}
	assert.Equal(t, ModeDemo, cfg.SelectMode())
}

func TestSelectMode_DefaultsToAPI(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, ModeAPI, cfg.SelectMode())
}

func TestProxyList_EmptyStringYieldsNil(t *testing.T) {
	cfg := &Config{ProxyURLs: ""}
	assert.Nil(t, cfg.ProxyList())
}

func TestProxyList_SplitsAndTrims(t *testing.T) {
	cfg := &Config{ProxyURLs: "http://a.example, http://b.example ,,"}
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.ProxyList())
}

func TestCORSOriginList_DefaultsToWildcard(t *testing.T) {
	cfg := &Config{CORSOrigins: ""}
	assert.Equal(t, []string{"*"}, cfg.CORSOriginList())
}

func TestCORSOriginList_SplitsConfiguredOrigins(t *testing.T) {
	cfg := &Config{CORSOrigins: "https://a.example, https://b.example"}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOriginList())
}

func TestHistoryConfigured_ReflectsURL(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.HistoryConfigured())

	cfg.HistoryStoreURL = "http://history.example"
	assert.True(t, cfg.HistoryConfigured())
}
