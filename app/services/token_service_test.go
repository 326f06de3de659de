package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/occsec/secure-dialer/config"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		SecretKey: "test-secret-key-for-token-validation",
		Issuer:    "occ-identity",
		Audience:  "secure-dialer",
	}
}

func signTestToken(t *testing.T, cfg *config.JWTConfig, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.SecretKey))
	require.NoError(t, err)
	return signed
}

func TestValidateTokenExtractsClaims(t *testing.T) {
	// Test that a well-formed token yields the session identity
	cfg := testJWTConfig()
	service := NewTokenService(cfg)

	signed := signTestToken(t, cfg, jwt.MapClaims{
		"sub":        "user-1",
		"email":      "jordan@example.com",
		"role":       "admin",
		"first_name": "Jordan",
		"iss":        cfg.Issuer,
		"aud":        cfg.Audience,
		"exp":        time.Now().Add(time.Hour).Unix(),
	})

	claims, err := service.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "jordan@example.com", claims.Email)
	assert.Equal(t, "Jordan", claims.FirstName)
	assert.True(t, claims.IsAdmin())
	assert.False(t, claims.ExpiresAt.IsZero())
}

func TestValidateTokenExpired(t *testing.T) {
	// Test that an expired token maps to the expiry error
	cfg := testJWTConfig()
	service := NewTokenService(cfg)

	signed := signTestToken(t, cfg, jwt.MapClaims{
		"sub": "user-1",
		"iss": cfg.Issuer,
		"aud": cfg.Audience,
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err := service.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateTokenRejectsBadSignature(t *testing.T) {
	// Test that a token signed with another key is invalid
	cfg := testJWTConfig()
	service := NewTokenService(cfg)

	other := &config.JWTConfig{SecretKey: "some-other-secret", Issuer: cfg.Issuer, Audience: cfg.Audience}
	signed := signTestToken(t, other, jwt.MapClaims{
		"sub": "user-1",
		"iss": cfg.Issuer,
		"aud": cfg.Audience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := service.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateTokenRejectsWrongAudience(t *testing.T) {
	// Test that issuer and audience are enforced
	cfg := testJWTConfig()
	service := NewTokenService(cfg)

	signed := signTestToken(t, cfg, jwt.MapClaims{
		"sub": "user-1",
		"iss": cfg.Issuer,
		"aud": "some-other-app",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := service.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateTokenRequiresSubject(t *testing.T) {
	// Test that a token without a subject is rejected
	cfg := testJWTConfig()
	service := NewTokenService(cfg)

	signed := signTestToken(t, cfg, jwt.MapClaims{
		"iss": cfg.Issuer,
		"aud": cfg.Audience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := service.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateTokenRequiresExpiry(t *testing.T) {
	// Test that tokens without an expiry are rejected outright
	cfg := testJWTConfig()
	service := NewTokenService(cfg)

	signed := signTestToken(t, cfg, jwt.MapClaims{
		"sub": "user-1",
		"iss": cfg.Issuer,
		"aud": cfg.Audience,
	})

	_, err := service.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
