package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/lukman83/storefront/internal/apperrors"
	"github.com/lukman83/storefront/internal/models"
	"github.com/lukman83/storefront/internal/validation"
)

type envelope struct {
	OK       bool            `json:"ok"`
	Error    string          `json:"error,omitempty"`
	Products json.RawMessage `json:"products,omitempty"`
	Reviews  json.RawMessage `json:"reviews,omitempty"`
	Orders   json.RawMessage `json:"orders,omitempty"`
}

// Products fetches the full catalog.
func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	const path = "/api/products"
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, statusError(path, resp)
	}
	return ParseProducts(resp.body)
}

// ParseProducts decodes a `{ok, products}` payload. ok must be true and
// products must be an array; entries without an id, currency or with a
// negative price or stock are dropped.
func ParseProducts(data []byte) ([]models.Product, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !env.OK {
		return nil, fmt.Errorf("%w: ok=false %s", ErrMalformed, env.Error)
	}
	return DecodeProductArray(env.Products)
}

// DecodeProductArray decodes a bare JSON array of products.
func DecodeProductArray(raw []byte) ([]models.Product, error) {
	var products []models.Product
	if err := decodeArray(raw, &products); err != nil {
		return nil, err
	}
	valid := products[:0]
	for _, p := range products {
		if p.Valid() {
			valid = append(valid, p)
		}
	}
	return valid, nil
}

func decodeArray(raw []byte, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return fmt.Errorf("%w: expected an array", ErrMalformed)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// Reviews lists reviews for one product.
func (c *Client) Reviews(ctx context.Context, productID string) ([]models.Review, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	path := "/api/products/" + url.PathEscape(productID) + "/reviews"
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusNotFound {
		return nil, apperrors.NotFound("product", productID)
	}
	if !resp.ok() {
		return nil, statusError(path, resp)
	}

	var env envelope
	if err := json.Unmarshal(resp.body, &env); err != nil || !env.OK {
		return nil, fmt.Errorf("%s: %w", path, ErrMalformed)
	}
	var reviews []models.Review
	if len(env.Reviews) == 0 {
		return reviews, nil
	}
	if err := decodeArray(env.Reviews, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// ReviewInput is what a reviewer submits.
type ReviewInput struct {
	Author string `json:"author" validate:"required,max=80"`
	Email  string `json:"email,omitempty" validate:"omitempty,email"`
	Rating int    `json:"rating" validate:"gte=1,lte=5"`
	Body   string `json:"body" validate:"required,max=4000"`
}

// SubmitReview validates in and posts it. Validation failures and a service
// rejection are returned as apperrors.ErrInvalidInput.
func (c *Client) SubmitReview(ctx context.Context, productID string, in ReviewInput) error {
	if strings.TrimSpace(productID) == "" {
		return apperrors.InvalidInput("product id is required")
	}
	in.Author = strings.TrimSpace(in.Author)
	in.Body = strings.TrimSpace(in.Body)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		return err
	}

	path := "/api/products/" + url.PathEscape(productID) + "/reviews"
	resp, err := c.do(ctx, http.MethodPost, path, in, nil)
	if err != nil {
		return err
	}

	var env envelope
	_ = json.Unmarshal(resp.body, &env)
	switch {
	case resp.ok() && env.OK:
		return nil
	case resp.status == http.StatusNotFound:
		return apperrors.NotFound("product", productID)
	case resp.status >= 400 && resp.status < 500, resp.ok():
		msg := env.Error
		if msg == "" {
			msg = "review rejected"
		}
		return apperrors.InvalidInput(msg)
	default:
		return statusError(path, resp)
	}
}

// Health probes the service; any 2xx is healthy.
func (c *Client) Health(ctx context.Context) error {
	const path = "/api/health"
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return statusError(path, resp)
	}
	return nil
}

// Orders returns the order history of the session's account. Without an
// active session, or when the service rejects the token, it returns nothing
// and no error.
func (c *Client) Orders(ctx context.Context, sess models.Session) ([]models.OrderHistoryEntry, error) {
	const path = "/api/orders"
	if !sess.Active(c.now()) {
		c.log.Debug("order history skipped, no active session")
		return nil, nil
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+sess.Token)
	resp, err := c.do(ctx, http.MethodGet, path, nil, header)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden {
		c.log.Info("order history unavailable for session", "status", resp.status)
		return nil, nil
	}
	if !resp.ok() {
		return nil, statusError(path, resp)
	}

	var env envelope
	if err := json.Unmarshal(resp.body, &env); err != nil || !env.OK {
		return nil, fmt.Errorf("%s: %w", path, ErrMalformed)
	}
	var orders []models.OrderHistoryEntry
	if len(env.Orders) == 0 {
		return orders, nil
	}
	if err := decodeArray(env.Orders, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
