// Package gateway wraps the external payment provider's order API. The
// provider owns the remote order for its whole lifetime: the service creates
// it at checkout-session start, fetches it once at verification, and never
// mutates it locally.
package gateway

import (
	"context"
	"fmt"
)

// Notes keys used to carry checkout context across the payment redirect.
// The notes map on the remote order is the sole source of truth for
// reconstructing the order server-side at verification time.
const (
	NoteUserID     = "userId"
	NoteCouponCode = "couponCode"
	NoteProducts   = "products"
)

// Order is the remote order record as returned by the provider.
// Amount is in minor currency units.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
	Notes    map[string]string
}

// CreateOrderRequest holds the parameters for creating a remote order.
// Amount is in minor currency units.
type CreateOrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Client is the payment provider's order API. Implementations must be safe
// for concurrent use.
type Client interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)
	FetchOrder(ctx context.Context, id string) (*Order, error)
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("gateway: %s (%s, http %d)", e.Description, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("gateway: http %d", e.StatusCode)
}
