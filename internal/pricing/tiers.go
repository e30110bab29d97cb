package pricing

import (
	"slices"
	"strings"

	"github.com/lukman83/storefront/internal/models"
)

// Tier is a quantity band: from MinQty units on, each unit costs UnitCents
// in the product's own currency.
type Tier struct {
	MinQty    int   `mapstructure:"min_qty"`
	UnitCents int64 `mapstructure:"unit_cents"`
}

// TierTable maps a category to its bands.
type TierTable map[string][]Tier

func DefaultTiers() TierTable {
	return TierTable{
		"bulk": {
			{MinQty: 10, UnitCents: 450},
			{MinQty: 15, UnitCents: 400},
			{MinQty: 20, UnitCents: 350},
		},
	}
}

// normalized returns a copy keyed by lower-cased category with bands sorted
// by descending MinQty.
func (t TierTable) normalized() TierTable {
	out := make(TierTable, len(t))
	for cat, bands := range t {
		sorted := slices.Clone(bands)
		slices.SortFunc(sorted, func(a, b Tier) int { return b.MinQty - a.MinQty })
		out[strings.ToLower(strings.TrimSpace(cat))] = sorted
	}
	return out
}

// UnitPrice returns the unit price for qty units of an item in category
// listed at listCents. A band never raises the price above the list price.
func (e *Engine) UnitPrice(category string, listCents int64, qty int) int64 {
	for _, band := range e.tiers[strings.ToLower(strings.TrimSpace(category))] {
		if qty >= band.MinQty {
			return min(band.UnitCents, listCents)
		}
	}
	return listCents
}

// TieredUnitPrice is UnitPrice for a catalog product.
func (e *Engine) TieredUnitPrice(p models.Product, qty int) int64 {
	return e.UnitPrice(p.Category, p.PriceCents, qty)
}

// Tiers returns the bands for category, highest first.
func (e *Engine) Tiers(category string) []Tier {
	return slices.Clone(e.tiers[strings.ToLower(strings.TrimSpace(category))])
}
