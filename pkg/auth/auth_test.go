package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketLimiter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewTokenBucketLimiter(2, time.Second)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := limiter.Allow(ctx, "a")
	assert.False(t, ok, "bucket exhausted")

	ok, _ = limiter.Allow(ctx, "b")
	assert.True(t, ok, "keys are independent")

	now = now.Add(1500 * time.Millisecond)
	ok, _ = limiter.Allow(ctx, "a")
	assert.True(t, ok, "one token refilled")
	ok, _ = limiter.Allow(ctx, "a")
	assert.False(t, ok)

	now = now.Add(500 * time.Millisecond)
	ok, _ = limiter.Allow(ctx, "a")
	assert.True(t, ok, "partial refill carried over")
}

func TestTokenBucketLimiter_ResetAndSweep(t *testing.T) {
	now := time.Now()
	limiter := NewPerMinuteLimiter(1)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := limiter.Allow(ctx, "k")
	assert.True(t, ok)
	ok, _ = limiter.Allow(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, limiter.Reset(ctx, "k"))
	ok, _ = limiter.Allow(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, limiter.sweep())
}

func TestIPRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(NewPerMinuteLimiter(1))
	ctx := context.Background()

	ok, _ := limiter.Allow(ctx, "10.0.0.1")
	assert.True(t, ok)
	ok, _ = limiter.Allow(ctx, "10.0.0.1")
	assert.False(t, ok)
	ok, _ = limiter.Allow(ctx, "10.0.0.2")
	assert.True(t, ok)
}

func TestJWTValidator_RoundTrip(t *testing.T) {
	v, err := NewJWTValidator(JWTConfig{SecretKey: "s3cret", Issuer: "catalog-cache"})
	require.NoError(t, err)

	token, err := v.GenerateToken("ops", []string{RoleAdmin})
	require.NoError(t, err)

	claims, err := v.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.UserID)
	assert.True(t, claims.HasRole(RoleAdmin))
	assert.False(t, claims.HasRole("viewer"))
}

func TestJWTValidator_Rejects(t *testing.T) {
	v, err := NewJWTValidator(JWTConfig{SecretKey: "s3cret", Issuer: "catalog-cache"})
	require.NoError(t, err)

	other, err := NewJWTValidator(JWTConfig{SecretKey: "other", Issuer: "catalog-cache"})
	require.NoError(t, err)
	forged, err := other.GenerateToken("ops", []string{RoleAdmin})
	require.NoError(t, err)

	wrongIssuer, err := NewJWTValidator(JWTConfig{SecretKey: "s3cret", Issuer: "someone-else"})
	require.NoError(t, err)
	misissued, err := wrongIssuer.GenerateToken("ops", nil)
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: "ops",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "catalog-cache",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = v.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
	_, err = v.ValidateToken(forged)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	_, err = v.ValidateToken(misissued)
	assert.ErrorIs(t, err, ErrInvalidClaims)
	_, err = v.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)
	_, err = v.ValidateToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTValidator_RequiresSecret(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{})
	assert.Error(t, err)
}

func TestClaimsContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	ctx := SetClaimsInContext(context.Background(), &Claims{UserID: "u"})
	claims, ok := ClaimsFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u", claims.UserID)
}
