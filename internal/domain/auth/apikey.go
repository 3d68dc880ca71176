package auth

import "context"

// APIKeyInfo holds the identity data for a validated API key. UserID is the
// storefront account acting through the key; coupon ownership and order
// attribution are scoped to it.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	UserID  string
}

// Repository provides API key lookups by their HMAC-SHA256 hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
