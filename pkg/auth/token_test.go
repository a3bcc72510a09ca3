package auth

import (
	"testing"
	"time"

	"github.com/gladosdev/glados-backend/pkg/config"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "glados",
		ExpirationMinutes: 60,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()

	signed, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: 7, Username: "nhamilton"})
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := ParseAccessToken(cfg, signed)
	require.NoError(t, err)
	require.Equal(t, int64(7), claims.UserID)
	require.Equal(t, "nhamilton", claims.Username)
	require.Equal(t, "glados", claims.Issuer)
	require.NotEmpty(t, claims.ID)
}

func TestMintAccessTokenValidation(t *testing.T) {
	now := time.Now().UTC()

	_, err := MintAccessToken(config.JWTConfig{Issuer: "glados", ExpirationMinutes: 5}, now, AccessTokenPayload{UserID: 1})
	require.Error(t, err)

	_, err = MintAccessToken(testJWTConfig(), now, AccessTokenPayload{UserID: 0})
	require.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{UserID: 3, Username: "old"})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, signed)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	minted, err := MintAccessToken(config.JWTConfig{Secret: "test-secret", Issuer: "other", ExpirationMinutes: 5}, time.Now(), AccessTokenPayload{UserID: 3})
	require.NoError(t, err)

	_, err = ParseAccessToken(testJWTConfig(), minted)
	require.Error(t, err)
}
