// Package catalog loads the product catalog, racing the catalog service
// against the bundled copy and caching whichever answers.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/lukman83/storefront/internal/kvstore"
	"github.com/lukman83/storefront/internal/models"
	"github.com/lukman83/storefront/internal/progress"
	"github.com/lukman83/storefront/internal/race"
)

const (
	DefaultGrace         = 350 * time.Millisecond
	DefaultTTL           = 10 * time.Minute
	DefaultRemoteTimeout = 15 * time.Second

	storeKey = "catalog"
)

var sourceWins = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_catalog_loads_total",
		Help: "Catalog loads by the source that supplied the products",
	},
	[]string{"source"},
)

func init() {
	prometheus.MustRegister(sourceWins)
}

// Options configures a Loader. Zero durations fall back to the defaults.
type Options struct {
	Remote  Source
	Bundled Source
	Store   *kvstore.Adapter

	Grace         time.Duration
	TTL           time.Duration
	RemoteTimeout time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

// Loader returns the catalog, hitting the sources only when neither the
// in-process nor a fresh durable cache holds one.
type Loader struct {
	remote  Source
	bundled Source
	store   *kvstore.Adapter

	grace         time.Duration
	ttl           time.Duration
	remoteTimeout time.Duration

	log *slog.Logger
	now func() time.Time

	group singleflight.Group

	mu     sync.Mutex
	cached *snapshot
	// gen is bumped by Invalidate; results of races started earlier are
	// dropped.
	gen uint64
}

// snapshot is also the durable cache format.
type snapshot struct {
	SavedAt  time.Time        `json:"savedAt"`
	Source   string           `json:"source"`
	Products []models.Product `json:"products"`
}

func NewLoader(opts Options) *Loader {
	if opts.Grace <= 0 {
		opts.Grace = DefaultGrace
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = DefaultRemoteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Loader{
		remote:        opts.Remote,
		bundled:       opts.Bundled,
		store:         opts.Store,
		grace:         opts.Grace,
		ttl:           opts.TTL,
		remoteTimeout: opts.RemoteTimeout,
		log:           opts.Logger.With("component", "catalog"),
		now:           opts.Now,
	}
}

// Load never fails: with no usable source it returns an empty catalog,
// which is not cached.
func (l *Loader) Load(ctx context.Context) []models.Product {
	if products, ok := l.fromCache(ctx); ok {
		return products
	}

	ch := l.group.DoChan(storeKey, func() (any, error) {
		return l.fetch(context.WithoutCancel(ctx)), nil
	})
	select {
	case res := <-ch:
		return slices.Clone(res.Val.([]models.Product))
	case <-ctx.Done():
		l.log.Debug("catalog load abandoned", "err", ctx.Err())
		return []models.Product{}
	}
}

// Source reports which source the cached catalog came from, or "" when
// nothing is cached in-process.
func (l *Loader) Source() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cached == nil {
		return ""
	}
	return l.cached.Source
}

// Invalidate drops both caches so the next Load races the sources again.
// Races still in flight no longer populate the cache.
func (l *Loader) Invalidate(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.cached = nil
	l.group.Forget(storeKey)
	if l.store == nil {
		return nil
	}
	return l.store.Remove(ctx, storeKey)
}

func (l *Loader) generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

func (l *Loader) fromCache(ctx context.Context) ([]models.Product, bool) {
	l.mu.Lock()
	if l.cached != nil {
		products := slices.Clone(l.cached.Products)
		l.mu.Unlock()
		return products, true
	}
	l.mu.Unlock()

	if l.store == nil {
		return nil, false
	}
	var snap snapshot
	if !l.store.ReadJSON(ctx, storeKey, &snap) {
		return nil, false
	}
	age := l.now().Sub(snap.SavedAt)
	if snap.Products == nil || age < 0 || age > l.ttl {
		return nil, false
	}

	l.mu.Lock()
	if l.cached == nil {
		l.cached = &snap
	}
	products := slices.Clone(l.cached.Products)
	l.mu.Unlock()
	l.log.Debug("catalog served from durable cache", "source", snap.Source, "age", age)
	return products, true
}

func (l *Loader) fetch(ctx context.Context) []models.Product {
	gen := l.generation()
	var attempts []race.Attempt[[]models.Product]
	var names []string

	// Listed in order of preference.
	if l.remote != nil {
		remote := l.remote
		attempts = append(attempts, func(ctx context.Context) ([]models.Product, error) {
			ctx, cancel := context.WithTimeout(ctx, l.remoteTimeout)
			defer cancel()
			products, err := remote.Fetch(ctx)
			if err != nil {
				l.log.Warn("catalog source failed", "source", remote.Name(), "err", err)
				return nil, err
			}
			// A remote answer is cached even when it arrives after losing.
			l.remember(ctx, gen, remote.Name(), products)
			return products, nil
		})
		names = append(names, remote.Name())
	}
	if l.bundled != nil {
		bundled := l.bundled
		attempts = append(attempts, func(ctx context.Context) ([]models.Product, error) {
			products, err := bundled.Fetch(ctx)
			if err != nil {
				l.log.Warn("catalog source failed", "source", bundled.Name(), "err", err)
			}
			return products, err
		})
		names = append(names, bundled.Name())
	}

	res, err := race.FirstSuccessful(ctx, l.grace, attempts...)
	if err != nil {
		l.log.Warn("no catalog source succeeded", "err", err)
		progress.Report(ctx, "catalog: unavailable")
		return []models.Product{}
	}

	source := names[res.Index]
	l.remember(ctx, gen, source, res.Value)
	sourceWins.WithLabelValues(source).Inc()
	l.log.Info("catalog loaded", "source", source, "products", len(res.Value), "late", res.Late)
	progress.Report(ctx, fmt.Sprintf("catalog: %d products via %s", len(res.Value), source))
	return res.Value
}

// remember caches products in-process and durably. A bundled catalog never
// replaces one that came from the service, and nothing from before the last
// Invalidate is kept.
func (l *Loader) remember(ctx context.Context, gen uint64, source string, products []models.Product) {
	if products == nil {
		products = []models.Product{}
	}
	snap := &snapshot{SavedAt: l.now(), Source: source, Products: slices.Clone(products)}

	// Held across the durable write so the store sees the same order.
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		l.log.Debug("dropping catalog from before invalidation", "source", source)
		return
	}
	if source != SourceRemote && l.cached != nil && l.cached.Source == SourceRemote {
		return
	}
	l.cached = snap

	if l.store == nil {
		return
	}
	if err := l.store.WriteJSON(context.WithoutCancel(ctx), storeKey, snap); err != nil {
		l.log.Warn("persist catalog failed", "err", err)
	}
}
