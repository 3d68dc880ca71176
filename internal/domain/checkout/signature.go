package checkout

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Signer computes and verifies the payment callback signature: the
// hex-encoded HMAC-SHA256 of "orderID|paymentID" keyed with the gateway
// secret. This signature is the sole authentication mechanism for the
// payment flow.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer with the given shared secret.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Sign returns the expected signature for the given order and payment ids.
func (s *Signer) Sign(orderID, paymentID string) string {
	return hex.EncodeToString(s.digest(orderID, paymentID))
}

// Verify reports whether signature matches the expected digest. The
// comparison runs over the full decoded digest in constant time.
func (s *Signer) Verify(orderID, paymentID, signature string) bool {
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(s.digest(orderID, paymentID), provided) == 1
}

func (s *Signer) digest(orderID, paymentID string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return mac.Sum(nil)
}
