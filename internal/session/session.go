// Package session stores the session handed over by the auth collaborator.
// Only its expiry is ever checked.
package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lukman83/storefront/internal/kvstore"
	"github.com/lukman83/storefront/internal/models"
	"github.com/lukman83/storefront/internal/validation"
)

const storeKey = "session"

type Store struct {
	store *kvstore.Adapter
	now   func() time.Time
	log   *slog.Logger
}

// New returns a Store; a nil now means time.Now.
func New(store *kvstore.Adapter, now func() time.Time, log *slog.Logger) *Store {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{store: store, now: now, log: log.With("component", "session")}
}

// Current returns the stored session if it is present, well formed and not
// expired.
func (s *Store) Current(ctx context.Context) (models.Session, bool) {
	var sess models.Session
	if !s.store.ReadJSON(ctx, storeKey, &sess) {
		return models.Session{}, false
	}
	if err := validation.Struct(sess); err != nil {
		s.store.Reset(ctx, storeKey, err)
		return models.Session{}, false
	}
	if !sess.Active(s.now()) {
		s.log.Debug("session expired", "expires_at", sess.ExpiresAt)
		return models.Session{}, false
	}
	return sess, true
}

// Save validates and stores sess, replacing any previous session.
func (s *Store) Save(ctx context.Context, sess models.Session) error {
	sess.Email = strings.TrimSpace(sess.Email)
	sess.Token = strings.TrimSpace(sess.Token)
	if err := validation.Struct(sess); err != nil {
		return err
	}
	return s.store.WriteJSON(ctx, storeKey, sess)
}

func (s *Store) Clear(ctx context.Context) error {
	return s.store.Remove(ctx, storeKey)
}

// Now is the store's clock.
func (s *Store) Now() time.Time {
	return s.now()
}
