package fetch

import (
	"math/rand"
	"net/http"
)

// browserProfile is one plausible User-Agent plus the Accept/Sec-CH headers
// a real browser of that family sends alongside it. Scraping adapters
// rotate across these so consecutive requests don't carry an identical
// fingerprint.
type browserProfile struct {
	userAgent      string
	acceptLanguage string
	secChUA        string
	platform       string
}

var browserProfiles = []browserProfile{
	{
		userAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		acceptLanguage: "en-US,en;q=0.9",
		secChUA:        `"Chromium";v="124", "Google Chrome";v="124", "Not-A.Brand";v="99"`,
		platform:       `"Windows"`,
	},
	{
		userAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		acceptLanguage: "en-US,en;q=0.9",
		secChUA:        "",
		platform:       `"macOS"`,
	},
	{
		userAgent:      "Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
		acceptLanguage: "en-US,en;q=0.5",
		secChUA:        "",
		platform:       `"Linux"`,
	},
	{
		userAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36 Edg/123.0.0.0",
		acceptLanguage: "en-US,en;q=0.9",
		secChUA:        `"Microsoft Edge";v="123", "Not:A-Brand";v="8", "Chromium";v="123"`,
		platform:       `"Windows"`,
	},
}

// randomProfile picks one of the four fingerprint families at random.
func randomProfile() browserProfile {
	return browserProfiles[rand.Intn(len(browserProfiles))]
}

// applyBrowserHeaders stamps req with a randomly chosen, internally
// consistent set of browser headers. When referer is non-empty, Sec-Fetch-Site
// is reported as "same-origin" and a Referer header is attached, mimicking a
// search request that followed a warmed-up homepage visit rather than a
// request arriving cold.
func applyBrowserHeaders(req *http.Request, referer string) {
	p := randomProfile()
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", p.acceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	if p.secChUA != "" {
		req.Header.Set("Sec-CH-UA", p.secChUA)
		req.Header.Set("Sec-CH-UA-Platform", p.platform)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
		req.Header.Set("Sec-Fetch-Site", "same-origin")
	} else {
		req.Header.Set("Sec-Fetch-Site", "none")
	}
}
