// Package storefront wires every component once and hands them out by
// reference.
package storefront

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lukman83/storefront/config"
	"github.com/lukman83/storefront/internal/api"
	"github.com/lukman83/storefront/internal/apperrors"
	"github.com/lukman83/storefront/internal/cart"
	"github.com/lukman83/storefront/internal/catalog"
	"github.com/lukman83/storefront/internal/endpoint"
	"github.com/lukman83/storefront/internal/favorites"
	"github.com/lukman83/storefront/internal/httputil"
	"github.com/lukman83/storefront/internal/kvstore"
	"github.com/lukman83/storefront/internal/models"
	"github.com/lukman83/storefront/internal/pricing"
	"github.com/lukman83/storefront/internal/reorder"
	"github.com/lukman83/storefront/internal/session"
	"github.com/lukman83/storefront/internal/wishlist"
)

// Deps are the collaborators New does not build from configuration.
// Zero values are filled in.
type Deps struct {
	Store      kvstore.Store
	HTTPClient *http.Client
	Logger     *slog.Logger
	Now        func() time.Time
}

type Storefront struct {
	Store     *kvstore.Adapter
	Resolver  *endpoint.Resolver
	API       *api.Client
	Catalog   *catalog.Loader
	Pricing   *pricing.Engine
	Cart      *cart.Store
	Favorites *favorites.Store
	Sessions  *session.Store
	Wishlists *wishlist.Manager
	Reorder   *reorder.Predictor

	backend kvstore.Store
}

// New builds the storefront. When deps.Store is nil the backend named by
// cfg.Store is opened and closed again by Close.
func New(ctx context.Context, cfg *config.Config, deps Deps) (*Storefront, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	log := deps.Logger

	backend := deps.Store
	if backend == nil {
		var err error
		backend, err = kvstore.Open(ctx, kvstore.Options{
			Backend:   cfg.Store,
			Path:      cfg.StateDir,
			RedisAddr: cfg.RedisAddr,
			RedisPass: cfg.RedisPassword,
			RedisDB:   cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
		}
	}
	store := kvstore.NewAdapter(backend, kvstore.DefaultPrefix, log)

	var page *url.URL
	if cfg.PageURL != "" {
		u, err := url.Parse(cfg.PageURL)
		if err != nil {
			return nil, fmt.Errorf("parse page url: %w", err)
		}
		page = u
	}
	resolver := &endpoint.Resolver{Override: cfg.APIBase, Page: page, Store: store}

	httpClient := deps.HTTPClient
	if httpClient == nil {
		base, err := httputil.BaseTransport(cfg.Proxy)
		if err != nil {
			return nil, err
		}
		if cfg.Proxy != "" {
			log.Info("using proxy", "proxy", httputil.Redact(cfg.Proxy))
		}
		httpClient = httputil.NewHTTPClient(&httputil.Transport{
			Base:        base,
			Headers:     httputil.JSONHeaders(),
			RateLimiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		}, cfg.RequestTimeout)
	}

	client := api.New(api.Options{
		Base:       resolver,
		HTTPClient: httpClient,
		MaxRetries: cfg.MaxRetries,
		Logger:     log,
		Now:        deps.Now,
	})

	bundled := catalog.Bundled()
	if cfg.BundledCatalog != "" {
		bundled = catalog.BundledFile(cfg.BundledCatalog)
	}
	loader := catalog.NewLoader(catalog.Options{
		Remote:  catalog.RemoteSource{Client: client},
		Bundled: bundled,
		Store:   store,
		Grace:   cfg.CatalogGrace,
		TTL:     cfg.CatalogTTL,
		Logger:  log,
		Now:     deps.Now,
	})

	engine := pricing.New(cfg.Pricing, store, log)
	sessions := session.New(store, deps.Now, log)

	return &Storefront{
		Store:     store,
		Resolver:  resolver,
		API:       client,
		Catalog:   loader,
		Pricing:   engine,
		Cart:      cart.New(store, engine, log),
		Favorites: favorites.New(store, log),
		Sessions:  sessions,
		Wishlists: wishlist.New(wishlist.Options{
			Store:    store,
			Sessions: sessions,
			Now:      deps.Now,
			Logger:   log,
		}),
		Reorder: reorder.New(cfg.Reorder),
		backend: backend,
	}, nil
}

// Close releases the durable store.
func (s *Storefront) Close() error {
	return s.backend.Close()
}

// Product looks id up in the catalog.
func (s *Storefront) Product(ctx context.Context, id string) (models.Product, bool) {
	for _, p := range s.Catalog.Load(ctx) {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// Quote is the price of qty units in one currency.
type Quote struct {
	ProductID  string `json:"productId"`
	Qty        int    `json:"qty"`
	Currency   string `json:"currency"`
	UnitCents  int64  `json:"unitCents"`
	LineCents  int64  `json:"lineCents"`
	Unit       string `json:"unit"`
	Line       string `json:"line"`
	ListCents  int64  `json:"listCents"`
	Discounted bool   `json:"discounted"`
}

// Quote prices qty units of p in target, or in the active currency when
// target is empty. Tiers apply in the product's currency before converting.
func (s *Storefront) Quote(ctx context.Context, p models.Product, qty int, target string) (Quote, error) {
	if qty < 1 {
		return Quote{}, apperrors.InvalidInput(fmt.Sprintf("quantity must be at least 1, got %d", qty))
	}
	target = s.currency(ctx, target)
	tiered := s.Pricing.TieredUnitPrice(p, qty)
	unit, err := s.Pricing.Convert(ctx, tiered, p.Currency, target)
	if err != nil {
		return Quote{}, err
	}
	list, err := s.Pricing.Convert(ctx, p.PriceCents, p.Currency, target)
	if err != nil {
		return Quote{}, err
	}
	line := unit * int64(qty)

	q := Quote{
		ProductID:  p.ID,
		Qty:        qty,
		Currency:   target,
		UnitCents:  unit,
		LineCents:  line,
		ListCents:  list,
		Discounted: tiered < p.PriceCents,
	}
	if q.Unit, err = s.Pricing.Format(unit, target); err != nil {
		return Quote{}, err
	}
	if q.Line, err = s.Pricing.Format(line, target); err != nil {
		return Quote{}, err
	}
	return q, nil
}

// SuggestReorders ranks due products from history, leaving out what is
// already in the cart or on a wishlist.
func (s *Storefront) SuggestReorders(ctx context.Context, history []models.OrderHistoryEntry) []reorder.Suggestion {
	return s.Reorder.Suggest(history, s.Sessions.Now(), reorder.Exclusions{
		CartIDs:     s.Cart.IDs(ctx),
		WishlistIDs: s.Wishlists.ProductIDs(ctx),
	})
}

// OrderHistory fetches the current session's orders; without a session it
// is empty.
func (s *Storefront) OrderHistory(ctx context.Context) ([]models.OrderHistoryEntry, error) {
	sess, ok := s.Sessions.Current(ctx)
	if !ok {
		return nil, nil
	}
	return s.API.Orders(ctx, sess)
}

// CartLine is a cart line priced in one currency.
type CartLine struct {
	models.CartItem
	UnitCents int64 `json:"unitCents"`
	LineCents int64 `json:"lineCents"`
}

// CartSummary is the cart priced in one currency.
type CartSummary struct {
	Currency   string     `json:"currency"`
	Lines      []CartLine `json:"lines"`
	Count      int        `json:"count"`
	TotalCents int64      `json:"totalCents"`
	Total      string     `json:"total"`
}

// CartSummary prices every line at its tier in target, or in the active
// currency when target is empty.
func (s *Storefront) CartSummary(ctx context.Context, target string) (CartSummary, error) {
	target = s.currency(ctx, target)
	sum := CartSummary{Currency: target, Lines: []CartLine{}}
	for _, it := range s.Cart.Get(ctx) {
		unit, err := s.Pricing.Convert(ctx, s.Pricing.UnitPrice(it.Category, it.PriceCentsBase, it.Qty), it.CurrencyBase, target)
		if err != nil {
			return CartSummary{}, fmt.Errorf("cart line %s: %w", it.ID, err)
		}
		line := unit * int64(it.Qty)
		sum.Lines = append(sum.Lines, CartLine{CartItem: it, UnitCents: unit, LineCents: line})
		sum.Count += it.Qty
		sum.TotalCents += line
	}
	total, err := s.Pricing.Format(sum.TotalCents, target)
	if err != nil {
		return CartSummary{}, err
	}
	sum.Total = total
	return sum, nil
}

func (s *Storefront) currency(ctx context.Context, code string) string {
	if code = strings.ToUpper(strings.TrimSpace(code)); code == "" {
		return s.Pricing.Currency(ctx)
	}
	return code
}
