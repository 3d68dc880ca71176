//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestCreateSession_NoAuth(t *testing.T) {
	req := sessionRequest{
		Products: []sessionProduct{{ID: "prod-waffle", Quantity: 1}},
	}
	resp := doPost(t, "/api/payments/create-checkout-session", req, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCreateSession_InvalidKey(t *testing.T) {
	req := sessionRequest{
		Products: []sessionProduct{{ID: "prod-waffle", Quantity: 1}},
	}
	resp := doPost(t, "/api/payments/create-checkout-session", req, "wrong-key")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCreateSession_EmptyProducts(t *testing.T) {
	req := sessionRequest{Products: []sessionProduct{}}
	resp := doPost(t, "/api/payments/create-checkout-session", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorEnvelope](t, resp)
	if body.Error != "Invalid or empty products array" {
		t.Errorf("error: got %q, want %q", body.Error, "Invalid or empty products array")
	}
}

func TestCreateSession_UnknownProduct(t *testing.T) {
	req := sessionRequest{
		Products: []sessionProduct{{ID: "no-such-product", Quantity: 1}},
	}
	resp := doPost(t, "/api/payments/create-checkout-session", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorEnvelope](t, resp)
	if body.Error != "product no-such-product not found" {
		t.Errorf("error: got %q, want %q", body.Error, "product no-such-product not found")
	}
}

func TestCreateSession_ZeroQuantity(t *testing.T) {
	req := sessionRequest{
		Products: []sessionProduct{{ID: "prod-waffle", Quantity: 0}},
	}
	resp := doPost(t, "/api/payments/create-checkout-session", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCheckoutSuccess_MissingFields(t *testing.T) {
	req := callbackRequest{OrderID: "order_123"}
	resp := doPost(t, "/api/payments/checkout-success", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorEnvelope](t, resp)
	if body.Message != "Missing payment details" {
		t.Errorf("message: got %q, want %q", body.Message, "Missing payment details")
	}
}

func TestCheckoutSuccess_InvalidSignature(t *testing.T) {
	req := callbackRequest{
		OrderID:   "order_123",
		PaymentID: "pay_123",
		Signature: "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
	}
	resp := doPost(t, "/api/payments/checkout-success", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorEnvelope](t, resp)
	if body.Message != "Invalid signature" {
		t.Errorf("message: got %q, want %q", body.Message, "Invalid signature")
	}
}
