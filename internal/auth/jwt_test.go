package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initSecret(t *testing.T, secret string) {
	t.Helper()
	t.Setenv("JWT_SECRET", secret)
	require.NoError(t, InitJWTSecret())
}

func TestGenerateAndVerify(t *testing.T) {
	initSecret(t, "test-secret")

	token, err := GenerateJWT(42, "alice@example.com")
	require.NoError(t, err)

	claims, err := VerifyJWT(token)
	require.NoError(t, err)

	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "taskhive", claims.Issuer)

	remaining := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, remaining, 6*24*time.Hour)
	assert.LessOrEqual(t, remaining, 7*24*time.Hour)
}

func TestInitRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	assert.Error(t, InitJWTSecret())
}

func TestTTLOverride(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_TTL_HOURS", "2")
	require.NoError(t, InitJWTSecret())

	token, err := GenerateJWT(1, "a@example.com")
	require.NoError(t, err)

	claims, err := VerifyJWT(token)
	require.NoError(t, err)

	assert.LessOrEqual(t, time.Until(claims.ExpiresAt.Time), 2*time.Hour)
}

func TestInvalidTTLRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_TTL_HOURS", "soon")
	assert.Error(t, InitJWTSecret())
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	initSecret(t, "first-secret")

	token, err := GenerateJWT(1, "a@example.com")
	require.NoError(t, err)

	initSecret(t, "second-secret")

	_, err = VerifyJWT(token)
	assert.Error(t, err)
}

func TestVerifyRejectsForeignIssuer(t *testing.T) {
	initSecret(t, "test-secret")

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 1,
		Email:  "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	signed, err := foreign.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = VerifyJWT(signed)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	initSecret(t, "test-secret")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: 1,
		Email:  "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "taskhive",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = VerifyJWT(signed)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	initSecret(t, "test-secret")

	_, err := VerifyJWT("not.a.token")
	assert.Error(t, err)
}
