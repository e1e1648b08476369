package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/xamanauth/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tk := NewJWTTokenizer(newKey(t), "xamanauth")

	token, err := tk.SessionToAccessToken(core.Session{WalletAddress: "rADDR123", AuthToken: "push"}, time.Minute)
	require.NoError(t, err)

	claims, err := tk.AccessTokenToClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "rADDR123", claims.Address)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, claims.IssuedAt.Add(time.Minute), claims.ExpiresAt, time.Second)
}

func TestAccessTokenRequiresAddress(t *testing.T) {
	tk := NewJWTTokenizer(newKey(t), "xamanauth")
	_, err := tk.SessionToAccessToken(core.Session{}, time.Minute)
	assert.ErrorIs(t, err, core.ErrNotConnected)
}

func TestAccessTokenExpired(t *testing.T) {
	tk := NewJWTTokenizer(newKey(t), "xamanauth")
	issued := time.Now().Add(-time.Hour)
	tk.now = func() time.Time { return issued }

	token, err := tk.SessionToAccessToken(core.Session{WalletAddress: "rADDR123"}, time.Minute)
	require.NoError(t, err)

	tk.now = time.Now
	_, err = tk.AccessTokenToClaims(token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestAccessTokenRejectsForeignKey(t *testing.T) {
	minted, err := NewJWTTokenizer(newKey(t), "xamanauth").
		SessionToAccessToken(core.Session{WalletAddress: "rADDR123"}, time.Minute)
	require.NoError(t, err)

	_, err = NewJWTTokenizer(newKey(t), "xamanauth").AccessTokenToClaims(minted)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestAccessTokenRejectsOtherIssuerAndAlgorithm(t *testing.T) {
	key := newKey(t)

	minted, err := NewJWTTokenizer(key, "someone-else").
		SessionToAccessToken(core.Session{WalletAddress: "rADDR123"}, time.Minute)
	require.NoError(t, err)
	_, err = NewJWTTokenizer(key, "xamanauth").AccessTokenToClaims(minted)
	assert.ErrorIs(t, err, core.ErrInvalidToken)

	hmac := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "rADDR123",
		Issuer:    "xamanauth",
		Audience:  jwt.ClaimStrings{AudienceAccess},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	signed, err := hmac.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = NewJWTTokenizer(key, "xamanauth").AccessTokenToClaims(signed)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestAccessTokenGarbage(t *testing.T) {
	_, err := NewJWTTokenizer(newKey(t), "xamanauth").AccessTokenToClaims("not-a-token")
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}
