package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukman83/storefront/internal/apperrors"
	"github.com/lukman83/storefront/internal/kvstore"
	"github.com/lukman83/storefront/internal/logger"
	"github.com/lukman83/storefront/internal/models"
)

func newEngine(t *testing.T) (*Engine, *kvstore.Adapter) {
	t.Helper()
	store := kvstore.NewAdapter(kvstore.NewMemory(), kvstore.DefaultPrefix, logger.Discard())
	return New(DefaultConfig(), store, logger.Discard()), store
}

func TestConvert(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		cents    int64
		from, to string
		want     int64
	}{
		{"identity", 1234, "EUR", "EUR", 1234},
		{"primary to secondary", 1000, "EUR", "USD", 1080},
		{"exact", 50, "EUR", "USD", 54},
		{"rounds down", 1, "EUR", "USD", 1},
		{"rounds up", 7, "EUR", "USD", 8},
		{"secondary to primary", 1080, "USD", "EUR", 1000},
		{"secondary to primary rounds", 1, "USD", "EUR", 1},
		{"negative", -7, "EUR", "USD", -8},
		{"lower-case codes", 100, "eur", " usd ", 108},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Convert(ctx, tt.cents, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvert_HalfAwayFromZero(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultRate = "1.5"
	e := New(cfg, nil, logger.Discard())
	ctx := context.Background()

	got, err := e.Convert(ctx, 1, "EUR", "USD")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)

	got, err = e.Convert(ctx, -1, "EUR", "USD")
	require.NoError(t, err)
	assert.Equal(t, int64(-2), got)
}

func TestConvert_RoundTripWithinOneCent(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	for cents := int64(0); cents < 5000; cents += 37 {
		usd, err := e.Convert(ctx, cents, "EUR", "USD")
		require.NoError(t, err)
		back, err := e.Convert(ctx, usd, "USD", "EUR")
		require.NoError(t, err)
		assert.InDelta(t, cents, back, 1, "cents=%d", cents)
	}
}

func TestConvert_UnsupportedFailsLoudly(t *testing.T) {
	e, _ := newEngine(t)
	_, err := e.Convert(context.Background(), 100, "EUR", "JPY")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = e.Convert(context.Background(), 100, "GBP", "GBP")
	assert.ErrorIs(t, err, ErrUnsupportedCurrency, "same unsupported currency still fails")
}

func TestRate_Sources(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t)
	assert.Equal(t, "1.08", e.Rate(ctx).String())

	require.NoError(t, e.SetRate(ctx, "1.25"))
	got, err := e.Convert(ctx, 100, "EUR", "USD")
	require.NoError(t, err)
	assert.Equal(t, int64(125), got)

	require.NoError(t, store.SetString(ctx, rateKey, "-3"))
	assert.Equal(t, "1.08", e.Rate(ctx).String())
	_, found := store.GetString(ctx, rateKey)
	assert.False(t, found, "invalid persisted rate is reset")

	assert.ErrorIs(t, e.SetRate(ctx, "zero"), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, e.SetRate(ctx, "0"), apperrors.ErrInvalidInput)

	injected := New(Config{
		Primary:     Currency{Code: "EUR", Symbol: "€"},
		Secondary:   Currency{Code: "USD", Symbol: "$"},
		DefaultRate: "1.5",
	}, nil, logger.Discard())
	assert.Equal(t, "1.5", injected.Rate(ctx).String())

	broken := New(Config{Primary: Currency{Code: "EUR"}, Secondary: Currency{Code: "USD"}, DefaultRate: "abc"}, nil, logger.Discard())
	assert.Equal(t, "1.08", broken.Rate(ctx).String())
}

func TestMoney(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	s, err := e.Money(ctx, 1234, "EUR")
	require.NoError(t, err)
	assert.Equal(t, "€12.34", s)

	s, err = e.Money(ctx, 1000, "EUR", "USD")
	require.NoError(t, err)
	assert.Equal(t, "$10.80", s)

	s, err = e.Money(ctx, -100, "EUR", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "-€1.00", s)

	s, err = e.Money(ctx, 5, "EUR", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "€0.05", s)

	_, err = e.Money(ctx, 5, "CHF")
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
}

func TestSetCurrency(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()
	assert.Equal(t, "EUR", e.Currency(ctx))

	var events []CurrencyChanged
	unsub := e.Subscribe(func(ev CurrencyChanged) { events = append(events, ev) })
	defer unsub()

	require.NoError(t, e.SetCurrency(ctx, "usd"))
	require.NoError(t, e.SetCurrency(ctx, "USD"))
	assert.Equal(t, "USD", e.Currency(ctx))
	assert.Equal(t, []CurrencyChanged{{From: "EUR", To: "USD"}}, events, "unchanged value does not notify")

	s, err := e.Money(ctx, 1000, "EUR")
	require.NoError(t, err)
	assert.Equal(t, "$10.80", s, "prices follow the active currency")

	assert.ErrorIs(t, e.SetCurrency(ctx, "JPY"), ErrUnsupportedCurrency)
	assert.Equal(t, "USD", e.Currency(ctx))

	require.NoError(t, store.SetString(ctx, currencyKey, "XYZ"))
	assert.Equal(t, "EUR", e.Currency(ctx))
	_, found := store.GetString(ctx, currencyKey)
	assert.False(t, found)
}

func TestTieredUnitPrice(t *testing.T) {
	e, _ := newEngine(t)
	bulk := models.Product{ID: "tape", Category: "bulk", PriceCents: 500, Currency: "EUR"}
	other := models.Product{ID: "pen", Category: "stationery", PriceCents: 500, Currency: "EUR"}

	tests := []struct {
		qty  int
		want int64
	}{
		{1, 500}, {9, 500}, {10, 450}, {14, 450}, {15, 400}, {19, 400}, {20, 350}, {100, 350},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.TieredUnitPrice(bulk, tt.qty), "qty=%d", tt.qty)
		assert.Equal(t, int64(500), e.TieredUnitPrice(other, tt.qty), "qty=%d", tt.qty)
	}
}

func TestTieredUnitPrice_NeverAboveList(t *testing.T) {
	e, _ := newEngine(t)
	cheap := models.Product{ID: "twine", Category: "bulk", PriceCents: 420, Currency: "EUR"}

	assert.Equal(t, int64(420), e.TieredUnitPrice(cheap, 10))
	assert.Equal(t, int64(400), e.TieredUnitPrice(cheap, 15))
	assert.Equal(t, int64(350), e.TieredUnitPrice(cheap, 20))

	prev := e.TieredUnitPrice(cheap, 1)
	for qty := 2; qty <= 30; qty++ {
		unit := e.TieredUnitPrice(cheap, qty)
		assert.LessOrEqual(t, unit, prev, "qty=%d", qty)
		prev = unit
	}
}

func TestTierTable_IsData(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tiers = TierTable{
		"Paper": {{MinQty: 100, UnitCents: 10}, {MinQty: 50, UnitCents: 20}},
	}
	e := New(cfg, nil, logger.Discard())
	p := models.Product{Category: "paper", PriceCents: 30}

	assert.Equal(t, int64(30), e.TieredUnitPrice(p, 49))
	assert.Equal(t, int64(20), e.TieredUnitPrice(p, 50))
	assert.Equal(t, int64(10), e.TieredUnitPrice(p, 150))
	assert.Equal(t, []Tier{{100, 10}, {50, 20}}, e.Tiers("PAPER"))
	assert.Equal(t, int64(500), e.TieredUnitPrice(models.Product{Category: "bulk", PriceCents: 500}, 20))
}

func TestWithoutStore(t *testing.T) {
	e := New(DefaultConfig(), nil, logger.Discard())
	ctx := context.Background()

	var published int
	e.Subscribe(func(CurrencyChanged) { published++ })

	assert.ErrorIs(t, e.SetRate(ctx, "1.2"), kvstore.ErrNoStore)
	assert.Equal(t, FallbackRate, e.Rate(ctx).String())

	assert.ErrorIs(t, e.SetCurrency(ctx, "USD"), kvstore.ErrNoStore)
	assert.Equal(t, "EUR", e.Currency(ctx))
	assert.Zero(t, published)

	err := e.SetRate(ctx, "abc")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
