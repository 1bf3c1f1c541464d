package security_test

import (
	"context"
	"testing"
	"time"

	"territory-run/internal/auth/adapter/security"
	"territory-run/internal/auth/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(ttl time.Duration) *config.Config {
	return &config.Config{
		MongoDBURI:     "mongodb://localhost:27017",
		JWTSecretKey:   "unit-test-secret-key",
		JWTIssuer:      "territory-run-test",
		AccessTokenTTL: ttl,
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc, err := security.NewJWTokenService(testConfig(time.Hour))
	require.NoError(t, err)

	ctx := context.Background()
	token, err := svc.GenerateToken(ctx, "user-1", "runner@example.com", "runner_1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "runner@example.com", claims.Email)
	assert.Equal(t, "runner_1", claims.Username)
	assert.Equal(t, "territory-run-test", claims.Issuer)
}

func TestValidateToken_Expired(t *testing.T) {
	svc, err := security.NewJWTokenService(testConfig(time.Millisecond))
	require.NoError(t, err)

	ctx := context.Background()
	token, err := svc.GenerateToken(ctx, "user-1", "runner@example.com", "runner_1")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, security.ErrTokenExpired)
}

func TestValidateToken_WrongKey(t *testing.T) {
	ctx := context.Background()

	svc, err := security.NewJWTokenService(testConfig(time.Hour))
	require.NoError(t, err)
	token, err := svc.GenerateToken(ctx, "user-1", "runner@example.com", "runner_1")
	require.NoError(t, err)

	otherCfg := testConfig(time.Hour)
	otherCfg.JWTSecretKey = "a-different-secret-key"
	other, err := security.NewJWTokenService(otherCfg)
	require.NoError(t, err)

	_, err = other.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, security.ErrTokenSignatureInvalid)
}

func TestValidateToken_Malformed(t *testing.T) {
	svc, err := security.NewJWTokenService(testConfig(time.Hour))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.ValidateToken(ctx, "")
	assert.ErrorIs(t, err, security.ErrTokenInvalid)

	_, err = svc.ValidateToken(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, security.ErrTokenInvalid)
}

func TestNewJWTokenService_ConfigValidation(t *testing.T) {
	cfg := testConfig(time.Hour)
	cfg.JWTSecretKey = ""
	_, err := security.NewJWTokenService(cfg)
	assert.Error(t, err)

	cfg = testConfig(0)
	_, err = security.NewJWTokenService(cfg)
	assert.Error(t, err)

	cfg = testConfig(time.Hour)
	cfg.JWTIssuer = ""
	_, err = security.NewJWTokenService(cfg)
	assert.Error(t, err)
}
