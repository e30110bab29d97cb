// Package reorder predicts which previously bought products a customer is
// due to buy again.
package reorder

import (
	"cmp"
	"slices"
	"time"

	"github.com/lukman83/storefront/internal/models"
)

const day = 24 * time.Hour

// Config holds the heuristic's thresholds.
type Config struct {
	// MinOrders is the number of distinct orders needed to infer a cadence.
	MinOrders int `mapstructure:"min_orders"`
	// MinCadenceDays drops products bought so often the signal is noise.
	MinCadenceDays float64 `mapstructure:"min_cadence_days"`
	// A product is due while days since its last order lies within
	// [WindowLow*cadence, WindowHigh*cadence].
	WindowLow  float64 `mapstructure:"window_low"`
	WindowHigh float64 `mapstructure:"window_high"`
	MaxResults int     `mapstructure:"max_results"`
}

func DefaultConfig() Config {
	return Config{
		MinOrders:      2,
		MinCadenceDays: 7,
		WindowLow:      0.6,
		WindowHigh:     2.0,
		MaxResults:     5,
	}
}

// Exclusions are products the customer already has in hand.
type Exclusions struct {
	CartIDs     []string
	WishlistIDs []string
}

func (e Exclusions) has(id string) bool {
	return slices.Contains(e.CartIDs, id) || slices.Contains(e.WishlistIDs, id)
}

type Suggestion struct {
	ProductID   string    `json:"productId"`
	Orders      int       `json:"orders"`
	CadenceDays float64   `json:"cadenceDays"`
	DaysSince   float64   `json:"daysSince"`
	Score       float64   `json:"score"`
	LastOrdered time.Time `json:"lastOrdered"`
}

type Predictor struct {
	cfg Config
}

func New(cfg Config) *Predictor {
	return &Predictor{cfg: cfg}
}

func (p *Predictor) Config() Config { return p.cfg }

// Suggest ranks the products that are due at now, most overdue first. Ties
// go to the product ordered more often, then to the smaller product id.
func (p *Predictor) Suggest(history []models.OrderHistoryEntry, now time.Time, exclude Exclusions) []Suggestion {
	byProduct := make(map[string][]time.Time)
	for _, order := range history {
		for _, line := range order.Items {
			if line.ID == "" {
				continue
			}
			byProduct[line.ID] = append(byProduct[line.ID], order.CreatedAt)
		}
	}

	out := []Suggestion{}
	for id, times := range byProduct {
		if exclude.has(id) {
			continue
		}
		times = distinct(times)
		if len(times) < p.cfg.MinOrders || len(times) < 2 {
			continue
		}
		cadence := median(gaps(times))
		if cadence < p.cfg.MinCadenceDays || cadence <= 0 {
			continue
		}
		last := times[len(times)-1]
		since := now.Sub(last).Hours() / 24
		if since < p.cfg.WindowLow*cadence || since > p.cfg.WindowHigh*cadence {
			continue
		}
		out = append(out, Suggestion{
			ProductID:   id,
			Orders:      len(times),
			CadenceDays: cadence,
			DaysSince:   since,
			Score:       since / cadence,
			LastOrdered: last,
		})
	}

	slices.SortFunc(out, func(a, b Suggestion) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Orders, a.Orders); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	if p.cfg.MaxResults > 0 && len(out) > p.cfg.MaxResults {
		out = out[:p.cfg.MaxResults]
	}
	return out
}

// distinct sorts times and drops repeats of the same instant.
func distinct(times []time.Time) []time.Time {
	sorted := slices.Clone(times)
	slices.SortFunc(sorted, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(sorted, func(a, b time.Time) bool { return a.Equal(b) })
}

// gaps returns the sorted day gaps between consecutive times.
func gaps(times []time.Time) []float64 {
	out := make([]float64, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		out = append(out, float64(times[i].Sub(times[i-1]))/float64(day))
	}
	slices.Sort(out)
	return out
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
