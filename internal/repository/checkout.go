package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/checkout-service/internal/domain/checkout"
)

const (
	deactivateCouponSQL = `UPDATE coupons SET is_active = FALSE
		WHERE code = $1 AND user_id = $2`

	insertOrderSQL = `INSERT INTO orders (id, user_id, items, total_amount, payment_reference)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (payment_reference) DO NOTHING`

	getOrderIDByPaymentRefSQL = `SELECT id FROM orders WHERE payment_reference = $1`
)

var _ checkout.Store = (*CheckoutStore)(nil)

// CheckoutStore applies the payment verification unit of work backed by
// PostgreSQL. Coupon deactivation and order insertion run in one transaction,
// and the unique constraint on payment_reference makes duplicate callback
// deliveries resolve to the originally created order.
type CheckoutStore struct {
	pool *pgxpool.Pool
}

// NewCheckoutStore returns a CheckoutStore that uses the given pool.
func NewCheckoutStore(pool *pgxpool.Pool) *CheckoutStore {
	return &CheckoutStore{pool: pool}
}

// Finalize deactivates the redeemed coupon (when set) and inserts the order
// atomically. When the payment reference was already recorded, it returns the
// existing order id with created=false; re-deactivating an already inactive
// coupon is a no-op, so duplicate deliveries converge on the same state.
func (s *CheckoutStore) Finalize(ctx context.Context, p checkout.FinalizeParams) (string, bool, error) {
	itemsJSON, err := json.Marshal(p.Order.Items)
	if err != nil {
		return "", false, fmt.Errorf("marshaling order items: %w", err)
	}

	orderID := p.Order.ID
	created := false

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if p.CouponCode != "" {
			if _, err := tx.Exec(ctx, deactivateCouponSQL, p.CouponCode, p.Order.UserID); err != nil {
				return fmt.Errorf("deactivating coupon %q: %w", p.CouponCode, err)
			}
		}

		tag, err := tx.Exec(ctx, insertOrderSQL,
			p.Order.ID, p.Order.UserID, itemsJSON, p.Order.TotalAmount, p.Order.PaymentReference,
		)
		if err != nil {
			return fmt.Errorf("creating order %q: %w", p.Order.ID, err)
		}

		if tag.RowsAffected() == 0 {
			// Duplicate delivery: surface the order the first delivery created.
			row := tx.QueryRow(ctx, getOrderIDByPaymentRefSQL, p.Order.PaymentReference)
			if err := row.Scan(&orderID); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return fmt.Errorf("order for payment %q vanished mid-transaction", p.Order.PaymentReference)
				}
				return fmt.Errorf("looking up order by payment reference: %w", err)
			}
			return nil
		}

		created = true
		return nil
	})
	if err != nil {
		return "", false, err
	}

	return orderID, created, nil
}
