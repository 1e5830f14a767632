package fetch

import (
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"golang.org/x/net/proxy"
)

// ProxyPool round-robins requests across a fixed set of upstream proxies,
// each described by a scheme-typed URL (http://, https://, socks5://).
// A pool with zero entries is a valid no-op: Next and Random return nil and
// callers fall back to the default direct transport.
type ProxyPool struct {
	entries []proxyEntry
	next    uint64
}

type proxyEntry struct {
	raw       string
	transport http.RoundTripper
}

// NewProxyPool parses rawURLs (as produced by Config.ProxyList) into a
// pool of dialers. Malformed entries are skipped with an error collected
// in the returned slice rather than aborting the whole pool.
func NewProxyPool(rawURLs []string) (*ProxyPool, []error) {
	pool := &ProxyPool{}
	var errs []error

	for _, raw := range rawURLs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		rt, err := buildRoundTripper(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("proxy %q: %w", raw, err))
			continue
		}
		pool.entries = append(pool.entries, proxyEntry{raw: raw, transport: rt})
	}

	return pool, errs
}

func buildRoundTripper(raw string) (http.RoundTripper, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "http", "https":
		return &http.Transport{Proxy: http.ProxyURL(u)}, nil
	case "socks5", "socks5h", "socks4", "socks4a":
		var auth *proxy.Auth
		if u.User != nil {
			pw, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: pw}
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if err != nil {
			return nil, err
		}
		return &http.Transport{Dial: dialer.Dial}, nil
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
}

// Len reports how many proxies are loaded.
func (p *ProxyPool) Len() int {
	return len(p.entries)
}

// Next returns the round-robin next transport, or nil if the pool is empty.
func (p *ProxyPool) Next() http.RoundTripper {
	if len(p.entries) == 0 {
		return nil
	}
	i := atomic.AddUint64(&p.next, 1)
	return p.entries[(i-1)%uint64(len(p.entries))].transport
}

// Random returns a uniformly random transport, or nil if the pool is empty.
// StealthClient rotates with Next; nothing in this module calls Random.
func (p *ProxyPool) Random() http.RoundTripper {
	if len(p.entries) == 0 {
		return nil
	}
	return p.entries[rand.Intn(len(p.entries))].transport
}
