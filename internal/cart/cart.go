// Package cart keeps the shopping cart in the durable store.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/lukman83/storefront/internal/apperrors"
	"github.com/lukman83/storefront/internal/kvstore"
	"github.com/lukman83/storefront/internal/models"
	"github.com/lukman83/storefront/internal/notify"
)

const storeKey = "cart"

// Pricer is the part of the pricing engine the cart needs for totals.
type Pricer interface {
	UnitPrice(category string, listCents int64, qty int) int64
	Convert(ctx context.Context, cents int64, from, to string) (int64, error)
}

// Store is an ordered list of lines keyed by product id. Every mutation
// persists the whole list and publishes the new item count.
type Store struct {
	store  *kvstore.Adapter
	pricer Pricer
	log    *slog.Logger

	mu    sync.Mutex
	count notify.Hub[int]
}

func New(store *kvstore.Adapter, pricer Pricer, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{store: store, pricer: pricer, log: log.With("component", "cart")}
}

// Get returns the cart lines. Malformed persisted data reads as empty.
func (s *Store) Get(ctx context.Context) []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) []models.CartItem {
	var items []models.CartItem
	if !s.store.ReadJSON(ctx, storeKey, &items) {
		return []models.CartItem{}
	}
	valid := items[:0]
	for _, it := range items {
		if it.ID == "" || it.Qty < 1 {
			s.log.Warn("dropping invalid cart line", "id", it.ID, "qty", it.Qty)
			continue
		}
		valid = append(valid, it)
	}
	if valid == nil {
		valid = []models.CartItem{}
	}
	return valid
}

func (s *Store) save(ctx context.Context, items []models.CartItem) error {
	return s.store.WriteJSON(ctx, storeKey, items)
}

// mutate applies fn to the stored lines under the lock and persists the
// result when fn reports a change. Subscribers run after the lock is
// released, so they may read the cart.
func (s *Store) mutate(ctx context.Context, fn func([]models.CartItem) ([]models.CartItem, bool, error)) ([]models.CartItem, error) {
	s.mu.Lock()
	items, changed, err := fn(s.load(ctx))
	if err == nil && changed {
		err = s.save(ctx, items)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if changed {
		s.count.Publish(countOf(items))
	}
	return items, nil
}

// Add puts qty units of p in the cart. An existing line gains qty and takes
// the product's current name, category and descriptions; its base price
// stays as first added.
func (s *Store) Add(ctx context.Context, p models.Product, qty int) ([]models.CartItem, error) {
	if p.ID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if qty < 1 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must be at least 1, got %d", qty))
	}

	return s.mutate(ctx, func(items []models.CartItem) ([]models.CartItem, bool, error) {
		if i := index(items, p.ID); i >= 0 {
			items[i].Qty += qty
			items[i].Name = p.Name
			items[i].Category = p.Category
			items[i].Descriptions = p.Descriptions
			return items, true, nil
		}
		return append(items, models.CartItem{
			ID:             p.ID,
			Name:           p.Name,
			Qty:            qty,
			PriceCentsBase: p.PriceCents,
			CurrencyBase:   p.Currency,
			Category:       p.Category,
			Descriptions:   p.Descriptions,
		}), true, nil
	})
}

// SetQuantity sets a line's quantity; zero removes it.
func (s *Store) SetQuantity(ctx context.Context, id string, qty int) ([]models.CartItem, error) {
	if qty < 0 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not be negative, got %d", qty))
	}

	return s.mutate(ctx, func(items []models.CartItem) ([]models.CartItem, bool, error) {
		i := index(items, id)
		if i < 0 {
			return nil, false, apperrors.NotFound("cart item", id)
		}
		if qty == 0 {
			return slices.Delete(items, i, i+1), true, nil
		}
		items[i].Qty = qty
		return items, true, nil
	})
}

// Remove drops the line for id; removing an absent id is a no-op.
func (s *Store) Remove(ctx context.Context, id string) ([]models.CartItem, error) {
	return s.mutate(ctx, func(items []models.CartItem) ([]models.CartItem, bool, error) {
		i := index(items, id)
		if i < 0 {
			return items, false, nil
		}
		return slices.Delete(items, i, i+1), true, nil
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.mutate(ctx, func([]models.CartItem) ([]models.CartItem, bool, error) {
		return []models.CartItem{}, true, nil
	})
	return err
}

// Count is the sum of quantities, the number shown on the cart badge.
func (s *Store) Count(ctx context.Context) int {
	return countOf(s.Get(ctx))
}

// IDs lists the product ids in the cart.
func (s *Store) IDs(ctx context.Context) []string {
	items := s.Get(ctx)
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// TotalCents sums every line at its tiered unit price, converted from the
// line's base currency into target.
func (s *Store) TotalCents(ctx context.Context, target string) (int64, error) {
	var total int64
	for _, it := range s.Get(ctx) {
		unit := s.pricer.UnitPrice(it.Category, it.PriceCentsBase, it.Qty)
		converted, err := s.pricer.Convert(ctx, unit, it.CurrencyBase, target)
		if err != nil {
			return 0, fmt.Errorf("cart line %s: %w", it.ID, err)
		}
		total += converted * int64(it.Qty)
	}
	return total, nil
}

// Subscribe registers fn for badge count changes.
func (s *Store) Subscribe(fn func(count int)) (unsubscribe func()) {
	return s.count.Subscribe(fn)
}

func index(items []models.CartItem, id string) int {
	return slices.IndexFunc(items, func(it models.CartItem) bool { return it.ID == id })
}

func countOf(items []models.CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Qty
	}
	return n
}
