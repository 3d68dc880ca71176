package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/checkout-service/internal/domain/coupon"
	"github.com/xenking/checkout-service/internal/domain/order"
	"github.com/xenking/checkout-service/internal/domain/product"
	"github.com/xenking/checkout-service/internal/gateway"
)

var (
	hundred     = decimal.NewFromInt(100)
	minorFactor = decimal.NewFromInt(100)
)

// ServiceConfig holds business parameters for the checkout flow.
type ServiceConfig struct {
	// Currency is the ISO code sent to the payment gateway.
	Currency string
	// RewardThreshold is the post-discount total (major units) at or above
	// which a reward coupon is issued.
	RewardThreshold decimal.Decimal
}

// Service implements checkout session creation and payment verification.
// All collaborators are injected; the service holds no package-level state.
type Service struct {
	products product.Repository
	coupons  coupon.Repository
	issuer   RewardIssuer
	store    Store
	gateway  gateway.Client
	signer   *Signer
	metrics  *Metrics

	currency        string
	rewardThreshold decimal.Decimal
	now             func() time.Time
}

// NewService creates a checkout Service with the required dependencies.
// metrics may be nil.
func NewService(
	cfg ServiceConfig,
	products product.Repository,
	coupons coupon.Repository,
	issuer RewardIssuer,
	store Store,
	gw gateway.Client,
	signer *Signer,
	metrics *Metrics,
) *Service {
	return &Service{
		products:        products,
		coupons:         coupons,
		issuer:          issuer,
		store:           store,
		gateway:         gw,
		signer:          signer,
		metrics:         metrics,
		currency:        cfg.Currency,
		rewardThreshold: cfg.RewardThreshold,
		now:             time.Now,
	}
}

// CreateSession prices the cart from the catalog, applies an optional coupon,
// creates the remote payment order with the cart snapshot in its notes, and
// issues a reward coupon for large totals. It returns the remote order id
// and the final charge in minor units.
func (s *Service) CreateSession(ctx context.Context, req SessionRequest) (*SessionResult, error) {
	res, err := s.createSession(ctx, req)
	if err != nil {
		s.metrics.addSession(ctx, "error")
		return nil, err
	}
	s.metrics.addSession(ctx, "ok")
	return res, nil
}

func (s *Service) createSession(ctx context.Context, req SessionRequest) (*SessionResult, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]string, len(req.Lines))
	for i, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: line.ProductID}
		}
		ids[i] = line.ProductID
	}

	// Authoritative prices come from the catalog in a single batch fetch;
	// any client-supplied price is ignored.
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	snapshot := make([]order.Item, len(req.Lines))
	total := decimal.Zero
	for i, line := range req.Lines {
		p, ok := byID[line.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: line.ProductID}
		}
		snapshot[i] = order.Item{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     p.Price,
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	// An unknown or inactive coupon is silently ignored: checkout proceeds
	// at full price.
	if req.CouponCode != "" {
		c, err := s.coupons.FindActive(ctx, req.CouponCode, req.UserID)
		switch {
		case err == nil:
			total = total.Sub(total.Mul(c.DiscountPercentage).Div(hundred))
		case errors.Is(err, coupon.ErrNotFound):
		default:
			return nil, errors.Wrap(err, "find coupon")
		}
	}
	total = total.Round(2)

	amount := total.Mul(minorFactor).Round(0).IntPart()
	remote, err := s.gateway.CreateOrder(ctx, gateway.CreateOrderRequest{
		Amount:   amount,
		Currency: s.currency,
		Receipt:  fmt.Sprintf("receipt_order_%d", s.now().UnixMilli()),
		Notes: map[string]string{
			gateway.NoteUserID:     req.UserID,
			gateway.NoteCouponCode: req.CouponCode,
			gateway.NoteProducts:   encodeCartNotes(snapshot),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create remote order")
	}

	if total.GreaterThanOrEqual(s.rewardThreshold) {
		// Best-effort: a failed reward grant must not fail the checkout.
		if _, err := s.issuer.Replace(ctx, req.UserID); err != nil {
			zctx.From(ctx).Warn("Reward coupon not issued",
				zap.String("user_id", req.UserID),
				zap.Error(err),
			)
		} else {
			s.metrics.addReward(ctx)
		}
	}

	return &SessionResult{OrderID: remote.ID, Amount: amount}, nil
}

// VerifyPayment authenticates the callback signature, reconstructs the order
// from the remote order's notes, and finalizes it: the redeemed coupon is
// deactivated and the order persisted in one transaction. Duplicate
// deliveries of the same payment reference resolve to the original order.
func (s *Service) VerifyPayment(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	res, err := s.verifyPayment(ctx, req)
	if err != nil {
		s.metrics.addPayment(ctx, "error")
		return nil, err
	}
	s.metrics.addPayment(ctx, "ok")
	return res, nil
}

func (s *Service) verifyPayment(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return nil, ErrMissingPaymentDetails
	}

	if !s.signer.Verify(req.OrderID, req.PaymentID, req.Signature) {
		return nil, ErrInvalidSignature
	}

	remote, err := s.gateway.FetchOrder(ctx, req.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "fetch remote order")
	}

	items, err := decodeCartNotes(remote.Notes[gateway.NoteProducts])
	if err != nil {
		zctx.From(ctx).Warn("Malformed cart snapshot in remote order notes",
			zap.String("remote_order_id", req.OrderID),
			zap.Error(err),
		)
		return nil, ErrInvalidMetadata
	}

	userID := remote.Notes[gateway.NoteUserID]
	if userID == "" || len(items) == 0 {
		return nil, ErrMissingOrderData
	}

	o := &order.Order{
		ID:               uuid.New().String(),
		UserID:           userID,
		Items:            items,
		TotalAmount:      decimal.NewFromInt(remote.Amount).Div(minorFactor),
		PaymentReference: req.PaymentID,
	}

	orderID, created, err := s.store.Finalize(ctx, FinalizeParams{
		Order:      o,
		CouponCode: remote.Notes[gateway.NoteCouponCode],
	})
	if err != nil {
		return nil, errors.Wrap(err, "finalize order")
	}

	return &VerifyResult{OrderID: orderID, AlreadyProcessed: !created}, nil
}
