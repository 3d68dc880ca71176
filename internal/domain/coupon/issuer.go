package coupon

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const (
	rewardCodePrefix = "GIFT"
	rewardCodeLength = 6
	rewardValidity   = 30 * 24 * time.Hour

	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var rewardDiscount = decimal.NewFromInt(10)

// Issuer grants reward coupons for large checkouts. Each grant replaces any
// coupon the user already holds, so a user never accumulates more than one.
type Issuer struct {
	repo Repository
	now  func() time.Time
}

// NewIssuer creates an Issuer backed by the given Repository.
func NewIssuer(repo Repository) *Issuer {
	return &Issuer{repo: repo, now: time.Now}
}

// Replace deletes any existing coupon owned by userID and issues a fresh one:
// a random GIFT code, 10% discount, active, expiring 30 days from now.
func (i *Issuer) Replace(ctx context.Context, userID string) (*Coupon, error) {
	if err := i.repo.DeleteByUser(ctx, userID); err != nil {
		return nil, errors.Wrap(err, "delete existing coupon")
	}

	code, err := generateCode()
	if err != nil {
		return nil, errors.Wrap(err, "generate code")
	}

	c := &Coupon{
		Code:               code,
		UserID:             userID,
		DiscountPercentage: rewardDiscount,
		IsActive:           true,
		ExpirationDate:     i.now().Add(rewardValidity),
	}
	if err := i.repo.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create coupon")
	}

	return c, nil
}

// generateCode produces the reward code: a fixed prefix followed by random
// uppercase alphanumerics. Collisions across users are not checked; the code
// space is large enough for the expected coupon volume.
func generateCode() (string, error) {
	buf := make([]byte, rewardCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return rewardCodePrefix + string(buf), nil
}
