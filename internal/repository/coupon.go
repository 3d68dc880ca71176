package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/checkout-service/internal/domain/coupon"
)

const (
	findActiveCouponSQL = `SELECT code, user_id, discount_percentage, is_active, expiration_date
		FROM coupons
		WHERE code = $1 AND user_id = $2 AND is_active AND expiration_date > now()`

	deleteCouponsByUserSQL = `DELETE FROM coupons WHERE user_id = $1`

	createCouponSQL = `INSERT INTO coupons (code, user_id, discount_percentage, is_active, expiration_date)
		VALUES ($1, $2, $3, $4, $5)`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindActive looks up the active, unexpired coupon owned by userID with the
// exact code. Returns coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) FindActive(ctx context.Context, code, userID string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, findActiveCouponSQL, code, userID)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}
	return &c, nil
}

// DeleteByUser removes all coupons owned by userID.
func (r *CouponRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, deleteCouponsByUserSQL, userID); err != nil {
		return fmt.Errorf("deleting coupons for user %q: %w", userID, err)
	}
	return nil
}

// Create persists a new coupon.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, createCouponSQL,
		c.Code, c.UserID, c.DiscountPercentage, c.IsActive, c.ExpirationDate,
	)
	if err != nil {
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(&c.Code, &c.UserID, &c.DiscountPercentage, &c.IsActive, &c.ExpirationDate)
	return c, err
}
