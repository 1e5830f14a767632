// Package fetch provides the hardened HTTP client substrate shared by every
// scraping adapter: header randomization, proxy rotation, and retry with
// backoff tuned for anti-bot responses.
package fetch

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"hwp.dev/oracle/pkg/logging"
)

// StealthClient issues HTTP GETs with rotated browser fingerprints and,
// when a ProxyPool is configured, rotated egress IPs. It is the transport
// every scrape adapter uses instead of the zero-value http.Client.
type StealthClient struct {
	httpClient *http.Client
	proxies    *ProxyPool
	scraperAPI *ScraperAPIProxy
	logger     *logging.Logger
}

// NewStealthClient builds a StealthClient. proxies may be nil, meaning all
// requests go out directly.
func NewStealthClient(timeout time.Duration, proxies *ProxyPool, logger *logging.Logger) *StealthClient {
	return &StealthClient{
		httpClient: &http.Client{Timeout: timeout},
		proxies:    proxies,
		logger:     logger,
	}
}

// WithScraperAPI attaches a third-party rendering proxy used as the last
// resort once direct and proxied attempts are both exhausted.
func (c *StealthClient) WithScraperAPI(proxy *ScraperAPIProxy) *StealthClient {
	c.scraperAPI = proxy
	return c
}

// Warmup fetches homepageURL with no referer and then sleeps a randomized
// 800-2200ms interval, approximating the dwell time a real browser spends
// rendering a landing page before navigating to a search. It returns
// homepageURL for the caller to pass back in as the referer on the
// subsequent search request; errors are logged but not fatal; a failed
// warmup still lets the caller proceed to the real request cold.
func (c *StealthClient) Warmup(ctx context.Context, homepageURL string) string {
	resp, err := c.Get(ctx, homepageURL, "")
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("warmup request failed", "url", homepageURL, "error", err.Error())
		}
		return ""
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	delay := time.Duration(800+rand.Intn(1400)) * time.Millisecond
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
	return homepageURL
}

// Get issues a single GET with a randomized header set and, if a proxy pool
// is loaded, a rotated transport. referer is attached as the Referer header
// when non-empty. Callers that need retry semantics should use
// FetchWithRetry instead.
func (c *StealthClient) Get(ctx context.Context, url string, referer string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	applyBrowserHeaders(req, referer)

	client := c.httpClient
	if c.proxies != nil && c.proxies.Len() > 0 {
		transport := c.proxies.Next()
		client = &http.Client{Timeout: c.httpClient.Timeout, Transport: transport}
	}

	return client.Do(req)
}

// retryableStatus reports whether resp's status code warrants a retry
// rather than an immediate hard failure.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusForbidden,
		http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return true
	default:
		return status >= 500
	}
}

// FetchWithRetry performs up to maxAttempts GETs, backing off
// 2^attempt*1000ms plus 500-1500ms of jitter between tries, with an
// additional 3-6s jitter tacked on whenever the prior attempt was blocked
// (403) or rate-limited (429). It returns the response body on the first
// 2xx; the caller is responsible for parsing it. referer is threaded
// through to every attempt, typically the homepage URL visited by a prior
// Warmup call.
func (c *StealthClient) FetchWithRetry(ctx context.Context, url string, referer string, maxAttempts int) ([]byte, int, error) {
	var lastErr error
	var lastStatus int

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt, lastStatus)
			select {
			case <-ctx.Done():
				return nil, lastStatus, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := c.Get(ctx, url, referer)
		if err != nil {
			lastErr = err
			if c.logger != nil {
				c.logger.Warn("fetch attempt failed", "url", url, "attempt", attempt+1, "error", err.Error())
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		lastStatus = resp.StatusCode

		if readErr != nil {
			lastErr = fmt.Errorf("read body: %w", readErr)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, resp.StatusCode, nil
		}

		lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
		if !retryableStatus(resp.StatusCode) {
			return body, resp.StatusCode, lastErr
		}
		if c.logger != nil {
			c.logger.Warn("fetch got retryable status", "url", url, "status", resp.StatusCode, "attempt", attempt+1)
		}
	}

	if c.scraperAPI != nil && c.scraperAPI.Available() {
		if c.logger != nil {
			c.logger.Warn("falling back to ScraperAPI proxy", "url", url, "lastError", lastErr)
		}
		body, err := c.scraperAPI.Fetch(ctx, url, false, "")
		if err == nil {
			return body, http.StatusOK, nil
		}
		lastErr = fmt.Errorf("scraperapi fallback: %w", err)
	}

	return nil, lastStatus, fmt.Errorf("all %d attempts failed: %w", maxAttempts, lastErr)
}

// backoffDelay implements the exponential-backoff-plus-jitter schedule,
// with extra delay injected after a block/rate-limit response on the
// previous attempt.
func backoffDelay(attempt int, lastStatus int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	jitter := time.Duration(500+rand.Intn(1000)) * time.Millisecond
	delay := base + jitter

	if lastStatus == http.StatusForbidden || lastStatus == http.StatusTooManyRequests {
		delay += time.Duration(3000+rand.Intn(3000)) * time.Millisecond
	}
	return delay
}
