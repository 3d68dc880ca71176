package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/xenking/checkout-service/internal/domain/auth"
)

// identityKey is the context key for the authenticated API key identity.
type identityKey struct{}

// IdentityFromContext extracts the authenticated identity from the context,
// or nil when the request was not authenticated.
func IdentityFromContext(ctx context.Context) *auth.APIKeyInfo {
	if info, ok := ctx.Value(identityKey{}).(*auth.APIKeyInfo); ok {
		return info
	}
	return nil
}

// APIKeyAuth returns a middleware that authenticates requests via the api_key
// header: the key is HMAC-SHA256 hashed with the pepper, looked up in the
// repository, and the stored hash compared in constant time. The resolved
// identity is stored in the request context.
func APIKeyAuth(apikeys auth.Repository, pepper []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("api_key")
			if key == "" {
				writeMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			mac := hmac.New(sha256.New, pepper)
			mac.Write([]byte(key))
			hash := mac.Sum(nil)

			info, err := apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			stored, err := hex.DecodeString(info.KeyHash)
			if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
				writeMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
