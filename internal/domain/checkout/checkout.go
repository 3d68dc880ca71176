// Package checkout implements the payment checkout flow: creating a remote
// payment order for a cart and verifying the signed payment callback.
package checkout

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/checkout-service/internal/domain/coupon"
	"github.com/xenking/checkout-service/internal/domain/order"
)

// Sentinel errors mapped to client-fault responses at the handler boundary.
var (
	ErrEmptyCart             = errors.New("cart is empty")
	ErrMissingPaymentDetails = errors.New("missing payment details")
	ErrInvalidSignature      = errors.New("invalid signature")
	ErrInvalidMetadata       = errors.New("invalid order metadata")
	ErrMissingOrderData      = errors.New("missing order data")
)

// InvalidQuantityError indicates a cart line has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// ProductNotFoundError indicates a cart line references an unknown product.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// CartLine is a single client-supplied cart entry. Prices come from the
// catalog, never from the client.
type CartLine struct {
	ProductID string
	Quantity  int
}

// SessionRequest is the input for creating a checkout session.
type SessionRequest struct {
	UserID     string
	Lines      []CartLine
	CouponCode string
}

// SessionResult is the outcome of a created checkout session. Amount is the
// final charge in minor currency units.
type SessionResult struct {
	OrderID string
	Amount  int64
}

// VerifyRequest is the signed payment callback payload.
type VerifyRequest struct {
	OrderID   string
	PaymentID string
	Signature string
}

// VerifyResult reports the persisted order for a verified payment.
// AlreadyProcessed is true when the callback was a duplicate delivery and the
// order had been created by an earlier one.
type VerifyResult struct {
	OrderID          string
	AlreadyProcessed bool
}

// FinalizeParams is the unit of work applied when a payment verifies:
// deactivate the redeemed coupon (when CouponCode is non-empty) and insert
// the order, atomically.
type FinalizeParams struct {
	Order      *order.Order
	CouponCode string
}

// Store applies the verification unit of work. When an order with the same
// payment reference already exists, Finalize returns its id with
// created=false instead of inserting a duplicate.
type Store interface {
	Finalize(ctx context.Context, p FinalizeParams) (orderID string, created bool, err error)
}

// RewardIssuer grants a replacement reward coupon to a user.
type RewardIssuer interface {
	Replace(ctx context.Context, userID string) (*coupon.Coupon, error)
}
