package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ScraperAPIProxy fetches pages through the third-party ScraperAPI
// rendering proxy, used by scrape adapters when direct fetches are
// consistently blocked. It is a thin wrapper: the real work (selector
// parsing) happens in the adapter that calls it.
type ScraperAPIProxy struct {
	apiKey     string
	httpClient *http.Client
}

// NewScraperAPIProxy builds a client bound to a ScraperAPI account key.
// An empty apiKey produces a proxy whose Available() is false.
func NewScraperAPIProxy(apiKey string, timeout time.Duration) *ScraperAPIProxy {
	return &ScraperAPIProxy{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Available reports whether an API key was configured.
func (s *ScraperAPIProxy) Available() bool {
	return s.apiKey != ""
}

// Fetch requests targetURL through the ScraperAPI endpoint, optionally
// asking for JS rendering and a specific exit country.
func (s *ScraperAPIProxy) Fetch(ctx context.Context, targetURL string, renderJS bool, country string) ([]byte, error) {
	if !s.Available() {
		return nil, fmt.Errorf("scraperapi: no API key configured")
	}

	q := url.Values{}
	q.Set("api_key", s.apiKey)
	q.Set("url", targetURL)
	if renderJS {
		q.Set("render", "true")
	}
	if country != "" {
		q.Set("country_code", country)
	}

	endpoint := "https://api.scraperapi.com/?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("scraperapi: build request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraperapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("scraperapi: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scraperapi: status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
