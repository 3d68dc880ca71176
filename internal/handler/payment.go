package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/checkout-service/internal/domain/checkout"
)

type cartLineRequest struct {
	ID string `json:"_id"`
	// Price is accepted for wire compatibility with the storefront client
	// but never used: charging always uses catalog prices.
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

type createSessionRequest struct {
	Products   []cartLineRequest `json:"products"`
	CouponCode string            `json:"couponCode"`
}

type createSessionResponse struct {
	OrderID string `json:"orderId"`
	Amount  int64  `json:"amount"`
}

type checkoutSuccessRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

type checkoutSuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID string `json:"orderId"`
}

const invalidProductsMsg = "Invalid or empty products array"

// createCheckoutSession prices the cart, creates the remote payment order,
// and returns its id with the charge amount in minor units.
func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())
	if ident == nil {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClientError(w, http.StatusBadRequest, invalidProductsMsg)
		return
	}
	if len(req.Products) == 0 {
		writeClientError(w, http.StatusBadRequest, invalidProductsMsg)
		return
	}

	lines := make([]checkout.CartLine, len(req.Products))
	for i, p := range req.Products {
		lines[i] = checkout.CartLine{ProductID: p.ID, Quantity: p.Quantity}
	}

	res, err := h.checkout.CreateSession(r.Context(), checkout.SessionRequest{
		UserID:     ident.UserID,
		Lines:      lines,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		h.respondSessionError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, createSessionResponse{
		OrderID: res.OrderID,
		Amount:  res.Amount,
	})
}

func (h *Handler) respondSessionError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		iqErr  *checkout.InvalidQuantityError
		pnfErr *checkout.ProductNotFoundError
	)
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		writeClientError(w, http.StatusBadRequest, invalidProductsMsg)
	case errors.As(err, &iqErr):
		writeClientError(w, http.StatusBadRequest, iqErr.Error())
	case errors.As(err, &pnfErr):
		writeClientError(w, http.StatusBadRequest, pnfErr.Error())
	default:
		zctx.From(r.Context()).Error("Create checkout session failed", zap.Error(err))
		writeServerError(w, "Error creating checkout session", err)
	}
}

// checkoutSuccess verifies the signed payment callback and reports the
// persisted order.
func (h *Handler) checkoutSuccess(w http.ResponseWriter, r *http.Request) {
	var req checkoutSuccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing payment details")
		return
	}

	res, err := h.checkout.VerifyPayment(r.Context(), checkout.VerifyRequest{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		h.respondVerifyError(w, r, err)
		return
	}

	msg := "Payment verified and order created"
	if res.AlreadyProcessed {
		msg = "Payment already verified"
	}
	writeJSON(w, http.StatusOK, checkoutSuccessResponse{
		Success: true,
		Message: msg,
		OrderID: res.OrderID,
	})
}

func (h *Handler) respondVerifyError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, checkout.ErrMissingPaymentDetails):
		writeMessage(w, http.StatusBadRequest, "Missing payment details")
	case errors.Is(err, checkout.ErrInvalidSignature):
		writeMessage(w, http.StatusBadRequest, "Invalid signature")
	case errors.Is(err, checkout.ErrInvalidMetadata):
		writeMessage(w, http.StatusBadRequest, "Invalid order metadata")
	case errors.Is(err, checkout.ErrMissingOrderData):
		writeMessage(w, http.StatusBadRequest, "Missing order data")
	default:
		zctx.From(r.Context()).Error("Checkout verification failed", zap.Error(err))
		writeServerError(w, "Error processing checkout", err)
	}
}
