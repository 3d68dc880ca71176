package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no matching coupon exists. Callers in the
// checkout flow treat it as a non-error: an unknown or inactive code simply
// leaves the cart at full price.
var ErrNotFound = errors.New("coupon not found")

// Coupon is a per-user discount code. At most one coupon per user is the
// intended invariant; the reward issuer replaces any prior coupon when
// granting a new one.
type Coupon struct {
	Code               string
	UserID             string
	DiscountPercentage decimal.Decimal
	IsActive           bool
	ExpirationDate     time.Time
}

// Repository provides lookup and mutation of per-user coupons.
type Repository interface {
	// FindActive returns the active, unexpired coupon owned by userID with
	// the exact code, or ErrNotFound.
	FindActive(ctx context.Context, code, userID string) (*Coupon, error)
	// DeleteByUser removes all coupons owned by userID.
	DeleteByUser(ctx context.Context, userID string) error
	// Create persists a new coupon.
	Create(ctx context.Context, c *Coupon) error
}
