// Package api talks to the remote catalog/order service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/lukman83/storefront/internal/apperrors"
	"github.com/lukman83/storefront/internal/httputil"
)

const serviceName = "catalog service"

// ErrMalformed marks a response that could not be understood.
var ErrMalformed = errors.New("malformed response")

// BaseResolver yields the service base URL for each call.
type BaseResolver interface {
	ResolveBase(ctx context.Context) string
}

// BreakerConfig tunes the circuit breaker in front of the service.
type BreakerConfig struct {
	Name         string
	Timeout      time.Duration // how long the breaker stays open
	MinRequests  uint32
	FailureRatio float64
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:         "catalog-api",
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.5,
	}
}

// Options configures a Client.
type Options struct {
	Base       BaseResolver
	HTTPClient *http.Client
	MaxRetries int
	Backoff    *httputil.Backoff
	Breaker    BreakerConfig
	Logger     *slog.Logger
	Now        func() time.Time
}

// Client is a thin typed wrapper over the service's JSON endpoints.
type Client struct {
	base    BaseResolver
	http    *http.Client
	retries int
	backoff *httputil.Backoff
	breaker *gobreaker.CircuitBreaker[*response]
	log     *slog.Logger
	now     func() time.Time
}

type response struct {
	status int
	body   []byte
}

var breakerState = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "storefront_api_circuit_breaker_state",
		Help: "Circuit breaker state for the catalog service (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

func init() {
	prometheus.MustRegister(breakerState)
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func New(opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = httputil.NewHTTPClient(nil, 10*time.Second)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Breaker.Name == "" {
		opts.Breaker = DefaultBreakerConfig()
	}
	log := opts.Logger.With("component", "api")
	cfg := opts.Breaker

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}
	breakerState.WithLabelValues(cfg.Name).Set(0)

	return &Client{
		base:    opts.Base,
		http:    opts.HTTPClient,
		retries: opts.MaxRetries,
		backoff: opts.Backoff,
		breaker: gobreaker.NewCircuitBreaker[*response](settings),
		log:     log,
		now:     opts.Now,
	}
}

// do sends one request through the breaker. Transport failures and 5xx
// count against the breaker; other statuses are returned to the caller.
func (c *Client) do(ctx context.Context, method, path string, payload any, header http.Header) (*response, error) {
	base := strings.TrimRight(c.base.ResolveBase(ctx), "/")
	url := base + path

	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
	}

	resp, err := c.breaker.Execute(func() (*response, error) {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, rd)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range header {
			req.Header[k] = v
		}

		httpResp, err := httputil.DoWithRetry(c.http, req, c.retries, c.backoff)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		data, err := httputil.ReadBody(httpResp)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if httpResp.StatusCode >= 500 {
			return nil, fmt.Errorf("server error %d", httpResp.StatusCode)
		}
		return &response{status: httpResp.StatusCode, body: data}, nil
	})
	if err != nil {
		c.log.Debug("request failed", "method", method, "url", url, "err", err)
		return nil, apperrors.Unavailable(serviceName, fmt.Errorf("%s %s: %w", method, path, err))
	}
	return resp, nil
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func statusError(path string, r *response) error {
	return apperrors.Unavailable(serviceName, fmt.Errorf("%s returned status %d", path, r.status))
}
