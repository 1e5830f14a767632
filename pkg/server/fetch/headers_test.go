package fetch

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyBrowserHeaders_SetsCoreFingerprintHeaders(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "https://example.com/", nil)
	applyBrowserHeaders(req, "")

	assert.NotEmpty(t, req.Header.Get("User-Agent"))
	assert.NotEmpty(t, req.Header.Get("Accept"))
	assert.NotEmpty(t, req.Header.Get("Accept-Language"))
	assert.Equal(t, "none", req.Header.Get("Sec-Fetch-Site"))
	assert.Empty(t, req.Header.Get("Referer"))
}

func TestApplyBrowserHeaders_WithRefererSetsSameOrigin(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "https://example.com/search", nil)
	applyBrowserHeaders(req, "https://example.com/")

	assert.Equal(t, "https://example.com/", req.Header.Get("Referer"))
	assert.Equal(t, "same-origin", req.Header.Get("Sec-Fetch-Site"))
}

func TestRandomProfile_AlwaysReturnsAKnownUserAgent(t *testing.T) {
	known := make(map[string]bool, len(browserProfiles))
	for _, p := range browserProfiles {
		known[p.userAgent] = true
	}

	for i := 0; i < 20; i++ {
		p := randomProfile()
		assert.True(t, known[p.userAgent])
	}
}
