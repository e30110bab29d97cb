// Package wishlist manages named per-account wishlists. Every operation
// needs an active session; the lists of different accounts never mix.
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lukman83/storefront/internal/apperrors"
	"github.com/lukman83/storefront/internal/kvstore"
	"github.com/lukman83/storefront/internal/models"
	"github.com/lukman83/storefront/internal/notify"
)

// DefaultListName names the list created on first use.
const DefaultListName = "My wishlist"

const maxNameLen = 80

// ErrLastList is returned when deleting would leave the account without a
// list. It also matches apperrors.ErrConflict.
var ErrLastList = errors.New("cannot delete the last wishlist")

// Sessions yields the active session, if any.
type Sessions interface {
	Current(ctx context.Context) (models.Session, bool)
}

// Changed is published after every successful mutation.
type Changed struct {
	Account string
	Lists   []models.WishlistList
}

type Options struct {
	Store    *kvstore.Adapter
	Sessions Sessions
	Now      func() time.Time
	NewID    func() string
	Logger   *slog.Logger
}

type Manager struct {
	store    *kvstore.Adapter
	sessions Sessions
	now      func() time.Time
	newID    func() string
	log      *slog.Logger

	mu      sync.Mutex
	changed notify.Hub[Changed]
}

// activity is the per-account record persisted under activity:<account>.
type activity struct {
	Lists []models.WishlistList `json:"lists"`
}

func New(opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		store:    opts.Store,
		sessions: opts.Sessions,
		now:      opts.Now,
		newID:    opts.NewID,
		log:      opts.Logger.With("component", "wishlist"),
	}
}

func storeKey(account string) string {
	return "activity:" + account
}

// ListsFor returns the lists of sess's account, creating the default list on
// first use. An inactive session has no lists.
func (m *Manager) ListsFor(ctx context.Context, sess models.Session) []models.WishlistList {
	if !sess.Active(m.now()) {
		return []models.WishlistList{}
	}
	account := models.AccountKey(sess.Email)

	m.mu.Lock()
	defer m.mu.Unlock()
	lists, created := m.load(ctx, account)
	if created {
		if err := m.save(ctx, account, lists); err != nil {
			m.log.Warn("persist default wishlist failed", "err", err)
		}
	}
	return lists
}

// Lists returns the lists of the current session's account.
func (m *Manager) Lists(ctx context.Context) []models.WishlistList {
	sess, ok := m.sessions.Current(ctx)
	if !ok {
		return []models.WishlistList{}
	}
	return m.ListsFor(ctx, sess)
}

// IsInAnyList reports whether productID is on any list of the current
// account.
func (m *Manager) IsInAnyList(ctx context.Context, productID string) bool {
	for _, l := range m.Lists(ctx) {
		if l.Contains(productID) {
			return true
		}
	}
	return false
}

// ProductIDs returns every product id on any list, without duplicates.
func (m *Manager) ProductIDs(ctx context.Context) []string {
	var ids []string
	for _, l := range m.Lists(ctx) {
		for _, it := range l.Items {
			if !slices.Contains(ids, it.ProductID) {
				ids = append(ids, it.ProductID)
			}
		}
	}
	return ids
}

func (m *Manager) Create(ctx context.Context, name string) ([]models.WishlistList, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	return m.mutate(ctx, func(lists []models.WishlistList) ([]models.WishlistList, error) {
		return append(lists, models.WishlistList{ID: m.newID(), Name: name, Items: []models.WishlistItem{}}), nil
	})
}

func (m *Manager) Rename(ctx context.Context, listID, name string) ([]models.WishlistList, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	return m.mutate(ctx, func(lists []models.WishlistList) ([]models.WishlistList, error) {
		i, err := find(lists, listID)
		if err != nil {
			return nil, err
		}
		lists[i].Name = name
		return lists, nil
	})
}

// Delete removes a list unless it is the account's last one.
func (m *Manager) Delete(ctx context.Context, listID string) ([]models.WishlistList, error) {
	return m.mutate(ctx, func(lists []models.WishlistList) ([]models.WishlistList, error) {
		i, err := find(lists, listID)
		if err != nil {
			return nil, err
		}
		if len(lists) == 1 {
			return nil, &apperrors.AppError{
				Code:    "CONFLICT",
				Message: "an account keeps at least one wishlist",
				Err:     errors.Join(apperrors.ErrConflict, ErrLastList),
			}
		}
		return slices.Delete(lists, i, i+1), nil
	})
}

// AddItem puts productID on a list; an empty listID means the first list.
// Adding an item already on the list changes nothing.
func (m *Manager) AddItem(ctx context.Context, productID, listID string) ([]models.WishlistList, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	return m.mutate(ctx, func(lists []models.WishlistList) ([]models.WishlistList, error) {
		i, err := target(lists, listID)
		if err != nil {
			return nil, err
		}
		if !lists[i].Contains(productID) {
			lists[i].Items = append(lists[i].Items, models.WishlistItem{ProductID: productID})
		}
		return lists, nil
	})
}

// RemoveItem takes productID off a list; an empty listID means the first
// list.
func (m *Manager) RemoveItem(ctx context.Context, productID, listID string) ([]models.WishlistList, error) {
	return m.mutate(ctx, func(lists []models.WishlistList) ([]models.WishlistList, error) {
		i, err := target(lists, listID)
		if err != nil {
			return nil, err
		}
		lists[i].Items = slices.DeleteFunc(lists[i].Items, func(it models.WishlistItem) bool {
			return it.ProductID == productID
		})
		return lists, nil
	})
}

// Subscribe registers fn for list changes.
func (m *Manager) Subscribe(fn func(Changed)) (unsubscribe func()) {
	return m.changed.Subscribe(fn)
}

func (m *Manager) mutate(ctx context.Context, fn func([]models.WishlistList) ([]models.WishlistList, error)) ([]models.WishlistList, error) {
	sess, ok := m.sessions.Current(ctx)
	if !ok || !sess.Active(m.now()) {
		return nil, apperrors.Unauthorized("wishlists need an active session")
	}
	account := models.AccountKey(sess.Email)

	m.mu.Lock()
	lists, _ := m.load(ctx, account)
	lists, err := fn(lists)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if err := m.save(ctx, account, lists); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.mu.Unlock()

	m.changed.Publish(Changed{Account: account, Lists: clone(lists)})
	return lists, nil
}

// load returns the account's lists and whether the default list had to be
// created.
func (m *Manager) load(ctx context.Context, account string) ([]models.WishlistList, bool) {
	var rec activity
	m.store.ReadJSON(ctx, storeKey(account), &rec)

	lists := make([]models.WishlistList, 0, len(rec.Lists))
	for _, l := range rec.Lists {
		if l.ID == "" {
			continue
		}
		if l.Items == nil {
			l.Items = []models.WishlistItem{}
		}
		lists = append(lists, l)
	}
	if len(lists) > 0 {
		return lists, false
	}
	return []models.WishlistList{{ID: m.newID(), Name: DefaultListName, Items: []models.WishlistItem{}}}, true
}

func (m *Manager) save(ctx context.Context, account string, lists []models.WishlistList) error {
	return m.store.WriteJSON(ctx, storeKey(account), activity{Lists: lists})
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.InvalidInput("list name is required")
	}
	if len([]rune(name)) > maxNameLen {
		return "", apperrors.InvalidInput(fmt.Sprintf("list name must be at most %d characters", maxNameLen))
	}
	return name, nil
}

func find(lists []models.WishlistList, listID string) (int, error) {
	i := slices.IndexFunc(lists, func(l models.WishlistList) bool { return l.ID == listID })
	if i < 0 {
		return -1, apperrors.NotFound("wishlist", listID)
	}
	return i, nil
}

func target(lists []models.WishlistList, listID string) (int, error) {
	if listID == "" {
		return 0, nil
	}
	return find(lists, listID)
}

func clone(lists []models.WishlistList) []models.WishlistList {
	out := make([]models.WishlistList, len(lists))
	for i, l := range lists {
		l.Items = slices.Clone(l.Items)
		out[i] = l
	}
	return out
}
