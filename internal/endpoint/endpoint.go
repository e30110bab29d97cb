// Package endpoint decides which catalog service the client talks to.
package endpoint

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/lukman83/storefront/internal/apperrors"
	"github.com/lukman83/storefront/internal/kvstore"
)

// Defaults used when nothing more specific is known.
const (
	LocalBase    = "http://localhost:8080"
	FallbackBase = "https://api.storefront.example"

	// QueryParam is the page query parameter that overrides the base.
	QueryParam = "api"
	storeKey   = "api_base"
)

// Resolver picks the service base URL. The first usable candidate wins:
// explicit override, page query parameter, remembered override, localhost
// when the page is served from a loopback host, the page origin, and
// finally FallbackBase.
type Resolver struct {
	Override string
	Page     *url.URL
	Store    *kvstore.Adapter
}

// ResolveBase never touches the network and never writes.
func (r *Resolver) ResolveBase(ctx context.Context) string {
	if base, ok := normalize(r.Override); ok {
		return base
	}
	if r.Page != nil {
		if base, ok := normalize(r.Page.Query().Get(QueryParam)); ok {
			return base
		}
	}
	if r.Store != nil {
		if stored, found := r.Store.GetString(ctx, storeKey); found {
			if base, ok := normalize(stored); ok {
				return base
			}
		}
	}
	if r.Page != nil && r.Page.Host != "" {
		if isLoopback(r.Page.Hostname()) {
			return LocalBase
		}
		if base, ok := normalize(r.Page.Scheme + "://" + r.Page.Host); ok {
			return base
		}
	}
	return FallbackBase
}

// Source names which rule produced the base, for diagnostics.
func (r *Resolver) Source(ctx context.Context) string {
	switch {
	case valid(r.Override):
		return "override"
	case r.Page != nil && valid(r.Page.Query().Get(QueryParam)):
		return "query"
	}
	if r.Store != nil {
		if stored, found := r.Store.GetString(ctx, storeKey); found && valid(stored) {
			return "stored"
		}
	}
	switch {
	case r.Page != nil && r.Page.Host != "" && isLoopback(r.Page.Hostname()):
		return "loopback"
	case r.Page != nil && r.Page.Host != "" && valid(r.Page.Scheme+"://"+r.Page.Host):
		return "origin"
	default:
		return "fallback"
	}
}

// Remember persists base as the stored override.
func (r *Resolver) Remember(ctx context.Context, base string) error {
	b, ok := normalize(base)
	if !ok {
		return apperrors.InvalidInput(fmt.Sprintf("base %q must be an absolute http(s) URL", base))
	}
	if r.Store == nil {
		return kvstore.ErrNoStore
	}
	return r.Store.SetString(ctx, storeKey, b)
}

// Forget drops the stored override.
func (r *Resolver) Forget(ctx context.Context) error {
	if r.Store == nil {
		return kvstore.ErrNoStore
	}
	return r.Store.Remove(ctx, storeKey)
}

func valid(raw string) bool {
	_, ok := normalize(raw)
	return ok
}

// normalize accepts absolute http(s) URLs and strips trailing slashes.
func normalize(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/"), true
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
