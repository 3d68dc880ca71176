package checkout

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerSign(t *testing.T) {
	s := NewSigner([]byte("test_secret"))

	mac := hmac.New(sha256.New, []byte("test_secret"))
	mac.Write([]byte("order_1|pay_1"))
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, s.Sign("order_1", "pay_1"))
}

func TestSignerVerify(t *testing.T) {
	s := NewSigner([]byte("test_secret"))
	sig := s.Sign("order_1", "pay_1")

	assert.True(t, s.Verify("order_1", "pay_1", sig))
}

func TestSignerVerify_Tampered(t *testing.T) {
	s := NewSigner([]byte("test_secret"))
	sig := s.Sign("order_1", "pay_1")

	// Flipping any single hex digit must invalidate the signature.
	for i := range sig {
		tampered := []byte(sig)
		if tampered[i] == '0' {
			tampered[i] = '1'
		} else {
			tampered[i] = '0'
		}
		require.False(t, s.Verify("order_1", "pay_1", string(tampered)), "byte %d", i)
	}

	assert.False(t, s.Verify("order_2", "pay_1", sig))
	assert.False(t, s.Verify("order_1", "pay_2", sig))
}

func TestSignerVerify_NotHex(t *testing.T) {
	s := NewSigner([]byte("test_secret"))
	assert.False(t, s.Verify("order_1", "pay_1", "not-hex!"))
	assert.False(t, s.Verify("order_1", "pay_1", ""))
}

func TestSignerVerify_WrongSecret(t *testing.T) {
	sig := NewSigner([]byte("other_secret")).Sign("order_1", "pay_1")
	assert.False(t, NewSigner([]byte("test_secret")).Verify("order_1", "pay_1", sig))
}

func TestSignerVerify_TruncatedDigest(t *testing.T) {
	s := NewSigner([]byte("test_secret"))
	sig := s.Sign("order_1", "pay_1")
	assert.False(t, s.Verify("order_1", "pay_1", sig[:32]))
}
