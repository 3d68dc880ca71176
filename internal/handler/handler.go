// Package handler exposes the checkout flow over HTTP with the storefront's
// JSON wire format.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/checkout-service/internal/domain/checkout"
)

// Handler serves the payment endpoints, delegating business logic to the
// checkout service.
type Handler struct {
	checkout *checkout.Service
}

// NewHandler constructs a Handler around the checkout service.
func NewHandler(svc *checkout.Service) *Handler {
	return &Handler{checkout: svc}
}

// Routes builds the payment router. The given middlewares (typically API key
// auth) are applied to every payment endpoint.
func (h *Handler) Routes(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Route("/payments", func(r chi.Router) {
		for _, mw := range middlewares {
			r.Use(mw)
		}
		r.Post("/create-checkout-session", h.createCheckoutSession)
		r.Post("/checkout-success", h.checkoutSuccess)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeClientError emits the {"error": ...} envelope used by session
// creation validation failures.
func writeClientError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeMessage emits the {"message": ...} envelope used by the verification
// endpoint and auth failures.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeServerError surfaces the underlying error text alongside a stable
// message, matching the storefront's error contract.
func writeServerError(w http.ResponseWriter, msg string, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"message": msg,
		"error":   err.Error(),
	})
}
