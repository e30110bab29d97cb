package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// DefaultPrefix namespaces every key the storefront writes.
const DefaultPrefix = "storefront:"

// Adapter is the view of a Store that components use. Reads never fail:
// a missing, unreadable or malformed value is reported as absent, and a
// malformed value is removed so the next read starts from a clean default.
type Adapter struct {
	store  Store
	prefix string
	log    *slog.Logger
}

func NewAdapter(store Store, prefix string, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		store:  store,
		prefix: prefix,
		log:    log.With("component", "kvstore"),
	}
}

// Key returns the namespaced key for name.
func (a *Adapter) Key(name string) string {
	return a.prefix + name
}

// GetString returns the stored value and whether it was present.
func (a *Adapter) GetString(ctx context.Context, name string) (string, bool) {
	v, err := a.store.Get(ctx, a.Key(name))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.log.Warn("read failed, treating as absent", "key", name, "err", err)
		}
		return "", false
	}
	return v, true
}

func (a *Adapter) SetString(ctx context.Context, name, value string) error {
	if err := a.store.Set(ctx, a.Key(name), value); err != nil {
		return fmt.Errorf("persist %s: %w", name, err)
	}
	return nil
}

func (a *Adapter) Remove(ctx context.Context, name string) error {
	if err := a.store.Remove(ctx, a.Key(name)); err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// ReadJSON decodes the value stored under name into dst and reports whether
// dst was filled.
func (a *Adapter) ReadJSON(ctx context.Context, name string, dst any) bool {
	raw, ok := a.GetString(ctx, name)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		a.Reset(ctx, name, err)
		return false
	}
	return true
}

func (a *Adapter) WriteJSON(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return a.SetString(ctx, name, string(data))
}

// Reset drops a value that failed validation.
func (a *Adapter) Reset(ctx context.Context, name string, cause error) {
	a.log.Warn("malformed persisted value, resetting", "key", name, "err", cause)
	if err := a.store.Remove(ctx, a.Key(name)); err != nil {
		a.log.Warn("reset failed", "key", name, "err", err)
	}
}
