// Package favorites keeps the set of favorited product ids. It does not
// depend on a session.
package favorites

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/lukman83/storefront/internal/apperrors"
	"github.com/lukman83/storefront/internal/kvstore"
	"github.com/lukman83/storefront/internal/notify"
)

const storeKey = "favorites"

// Changed carries the full set after a toggle.
type Changed struct {
	IDs []string
}

type Store struct {
	store *kvstore.Adapter
	log   *slog.Logger

	mu      sync.Mutex
	changed notify.Hub[Changed]
}

func New(store *kvstore.Adapter, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{store: store, log: log.With("component", "favorites")}
}

// List returns the favorited ids, deduplicated, in the order first added.
func (s *Store) List(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) []string {
	var raw []string
	if !s.store.ReadJSON(ctx, storeKey, &raw) {
		return []string{}
	}
	ids := make([]string, 0, len(raw))
	for _, id := range raw {
		if id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Store) Has(ctx context.Context, id string) bool {
	return slices.Contains(s.List(ctx), id)
}

// Toggle adds id when absent and removes it when present, then persists and
// notifies with the new set.
func (s *Store) Toggle(ctx context.Context, id string) ([]string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	s.mu.Lock()
	ids := s.load(ctx)
	if i := slices.Index(ids, id); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	} else {
		ids = append(ids, id)
	}
	if err := s.store.WriteJSON(ctx, storeKey, ids); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	s.changed.Publish(Changed{IDs: slices.Clone(ids)})
	return ids, nil
}

func (s *Store) Subscribe(fn func(Changed)) (unsubscribe func()) {
	return s.changed.Subscribe(fn)
}
