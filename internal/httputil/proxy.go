package httputil

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// BaseTransport returns the pooled transport under Transport. An empty
// proxy means the standard proxy environment variables apply; otherwise
// every request goes through the given http, https or socks5 proxy.
func BaseTransport(proxy string) (*http.Transport, error) {
	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	proxy = strings.TrimSpace(proxy)
	if proxy == "" {
		return t, nil
	}
	u, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("proxy url %q has no host", proxy)
	}
	t.Proxy = http.ProxyURL(u)
	return t, nil
}

// Redact hides the password of a proxy URL for logging.
func Redact(proxy string) string {
	u, err := url.Parse(proxy)
	if err != nil {
		return "<invalid>"
	}
	return u.Redacted()
}
