// Package pricing converts between the two shop currencies, formats money
// and applies quantity tiers.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/lukman83/storefront/internal/apperrors"
	"github.com/lukman83/storefront/internal/kvstore"
	"github.com/lukman83/storefront/internal/notify"
)

// ErrUnsupportedCurrency is matched with errors.Is; the returned errors also
// match apperrors.ErrInvalidInput.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// FallbackRate is the primary to secondary rate used when neither the store
// nor the configuration supplies one.
const FallbackRate = "1.08"

const (
	currencyKey = "currency"
	rateKey     = "fx_rate"
)

type Currency struct {
	Code   string `mapstructure:"code"`
	Symbol string `mapstructure:"symbol"`
}

// Config holds the currency pair and tier table.
type Config struct {
	Primary   Currency
	Secondary Currency
	// DefaultRate converts one primary unit into secondary units. Empty or
	// invalid means FallbackRate.
	DefaultRate string
	Tiers       TierTable
}

func DefaultConfig() Config {
	return Config{
		Primary:     Currency{Code: "EUR", Symbol: "€"},
		Secondary:   Currency{Code: "USD", Symbol: "$"},
		DefaultRate: FallbackRate,
		Tiers:       DefaultTiers(),
	}
}

// CurrencyChanged is published when the active currency actually changes.
// Prices are derived on demand, so subscribers only need to re-read them.
type CurrencyChanged struct {
	From string
	To   string
}

// Engine is safe for concurrent use.
type Engine struct {
	primary   Currency
	secondary Currency
	fallback  decimal.Decimal
	tiers     TierTable
	store     *kvstore.Adapter
	log       *slog.Logger

	mu      sync.Mutex
	changed notify.Hub[CurrencyChanged]
}

func New(cfg Config, store *kvstore.Adapter, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	fallback := decimal.RequireFromString(FallbackRate)
	if r, err := ParseRate(cfg.DefaultRate); err == nil {
		fallback = r
	}
	return &Engine{
		primary:   normalizeCurrency(cfg.Primary),
		secondary: normalizeCurrency(cfg.Secondary),
		fallback:  fallback,
		tiers:     cfg.Tiers.normalized(),
		store:     store,
		log:       log.With("component", "pricing"),
	}
}

func normalizeCurrency(c Currency) Currency {
	c.Code = normalizeCode(c.Code)
	return c
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func unsupported(code string) error {
	return &apperrors.AppError{
		Code:    "INVALID_INPUT",
		Message: fmt.Sprintf("currency %q is not supported", code),
		Err:     errors.Join(apperrors.ErrInvalidInput, ErrUnsupportedCurrency),
	}
}

// ParseRate parses a positive exchange rate.
func ParseRate(s string) (decimal.Decimal, error) {
	r, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	if !r.IsPositive() {
		return decimal.Zero, fmt.Errorf("rate %s must be positive", s)
	}
	return r, nil
}

// Primary and Secondary return the configured pair.
func (e *Engine) Primary() Currency   { return e.primary }
func (e *Engine) Secondary() Currency { return e.secondary }

// Supported reports whether code is one of the two currencies.
func (e *Engine) Supported(code string) bool {
	code = normalizeCode(code)
	return code == e.primary.Code || code == e.secondary.Code
}

func (e *Engine) symbol(code string) string {
	if code == e.secondary.Code {
		return e.secondary.Symbol
	}
	return e.primary.Symbol
}

// Rate returns the primary to secondary rate: the persisted override when
// it is a positive number, else the configured default.
func (e *Engine) Rate(ctx context.Context) decimal.Decimal {
	if e.store == nil {
		return e.fallback
	}
	raw, ok := e.store.GetString(ctx, rateKey)
	if !ok {
		return e.fallback
	}
	r, err := ParseRate(raw)
	if err != nil {
		e.store.Reset(ctx, rateKey, err)
		return e.fallback
	}
	return r
}

// SetRate persists a rate override.
func (e *Engine) SetRate(ctx context.Context, rate string) error {
	r, err := ParseRate(rate)
	if err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("invalid exchange rate %q", rate))
	}
	if e.store == nil {
		return kvstore.ErrNoStore
	}
	return e.store.SetString(ctx, rateKey, r.String())
}

// Convert converts cents between the two currencies, rounding half away
// from zero to whole minor units.
func (e *Engine) Convert(ctx context.Context, cents int64, from, to string) (int64, error) {
	from, to = normalizeCode(from), normalizeCode(to)
	if !e.Supported(from) {
		return 0, unsupported(from)
	}
	if !e.Supported(to) {
		return 0, unsupported(to)
	}
	if from == to {
		return cents, nil
	}

	amount := decimal.NewFromInt(cents)
	rate := e.Rate(ctx)
	if from == e.primary.Code {
		amount = amount.Mul(rate)
	} else {
		amount = amount.Div(rate)
	}
	return amount.Round(0).IntPart(), nil
}

// Format renders cents as <symbol><units>.<cents>, e.g. €12.34 or -$1.00.
func (e *Engine) Format(cents int64, code string) (string, error) {
	code = normalizeCode(code)
	if !e.Supported(code) {
		return "", unsupported(code)
	}
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + e.symbol(code) + decimal.New(cents, -2).StringFixed(2), nil
}

// Money converts cents from source into target (the active currency when
// omitted) and formats the result.
func (e *Engine) Money(ctx context.Context, cents int64, source string, target ...string) (string, error) {
	to := e.Currency(ctx)
	if len(target) > 0 && target[0] != "" {
		to = target[0]
	}
	converted, err := e.Convert(ctx, cents, source, to)
	if err != nil {
		return "", err
	}
	return e.Format(converted, to)
}

// Currency returns the active currency. An unsupported stored value is
// reset and the primary currency applies.
func (e *Engine) Currency(ctx context.Context) string {
	if e.store == nil {
		return e.primary.Code
	}
	raw, ok := e.store.GetString(ctx, currencyKey)
	if !ok {
		return e.primary.Code
	}
	code := normalizeCode(raw)
	if !e.Supported(code) {
		e.store.Reset(ctx, currencyKey, unsupported(raw))
		return e.primary.Code
	}
	return code
}

// SetCurrency persists the active currency and notifies subscribers when
// it changed.
func (e *Engine) SetCurrency(ctx context.Context, code string) error {
	code = normalizeCode(code)
	if !e.Supported(code) {
		return unsupported(code)
	}
	if e.store == nil {
		return kvstore.ErrNoStore
	}

	e.mu.Lock()
	prev := e.Currency(ctx)
	if err := e.store.SetString(ctx, currencyKey, code); err != nil {
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()

	if prev != code {
		e.log.Info("currency changed", "from", prev, "to", code)
		e.changed.Publish(CurrencyChanged{From: prev, To: code})
	}
	return nil
}

// Subscribe registers fn for currency changes.
func (e *Engine) Subscribe(fn func(CurrencyChanged)) (unsubscribe func()) {
	return e.changed.Subscribe(fn)
}
