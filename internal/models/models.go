package models

import (
	"strings"
	"time"
)

// Product is a catalog entry as published by the catalog service.
// It is read-only on the client.
type Product struct {
	ID           string            `json:"id"`
	Slug         string            `json:"slug,omitempty"`
	Name         string            `json:"name"`
	Category     string            `json:"category,omitempty"`
	PriceCents   int64             `json:"priceCents"`
	Currency     string            `json:"currency"`
	Stock        int               `json:"stock"`
	Image        string            `json:"image,omitempty"`
	Descriptions map[string]string `json:"descriptions,omitempty"`
	Special      bool              `json:"special,omitempty"`
}

// Valid reports whether p carries the fields every consumer relies on.
func (p Product) Valid() bool {
	return p.ID != "" && p.PriceCents >= 0 && p.Stock >= 0 && p.Currency != ""
}

// CartItem is one cart line. PriceCentsBase and CurrencyBase are captured on
// the first add and never change afterwards.
type CartItem struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Qty            int               `json:"qty"`
	PriceCentsBase int64             `json:"priceCentsBase"`
	CurrencyBase   string            `json:"currencyBase"`
	Category       string            `json:"category,omitempty"`
	Descriptions   map[string]string `json:"descriptions,omitempty"`
}

type WishlistItem struct {
	ProductID string `json:"productId"`
}

type WishlistList struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Items []WishlistItem `json:"items"`
}

// Contains reports whether productID is on the list.
func (l WishlistList) Contains(productID string) bool {
	for _, it := range l.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

type OrderLine struct {
	ID  string `json:"id"`
	Qty int    `json:"qty"`
}

// OrderHistoryEntry is a past order supplied by the order service.
type OrderHistoryEntry struct {
	CreatedAt time.Time   `json:"createdAt"`
	Items     []OrderLine `json:"items"`
}

// Session is the proof of authentication handed over by the auth collaborator.
type Session struct {
	Token     string    `json:"token" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Active reports whether the session has not yet expired at now.
func (s Session) Active(now time.Time) bool {
	return s.Token != "" && s.Email != "" && s.ExpiresAt.After(now)
}

// AccountKey normalizes an email into the key that scopes per-account state.
func AccountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type Review struct {
	Author    string    `json:"author"`
	Rating    int       `json:"rating"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}
