package auth

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload issued to a logged-in account.
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

const (
	tokenIssuer     = "taskhive"
	defaultTokenTTL = 7 * 24 * time.Hour
)

var (
	jwtSecret []byte
	tokenTTL  = defaultTokenTTL
)

// InitJWTSecret reads the signing secret and optional token lifetime from the
// environment. JWT_TTL_HOURS overrides the default seven-day lifetime.
func InitJWTSecret() error {
	secret := os.Getenv("JWT_SECRET")

	if secret == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}

	jwtSecret = []byte(secret)
	tokenTTL = defaultTokenTTL

	if raw := os.Getenv("JWT_TTL_HOURS"); raw != "" {
		hours, err := strconv.Atoi(raw)

		if err != nil || hours <= 0 {
			return fmt.Errorf("invalid JWT_TTL_HOURS value %q", raw)
		}

		tokenTTL = time.Duration(hours) * time.Hour
	}

	return nil
}

func GenerateJWT(userID uint, email string) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// VerifyJWT checks the signature, expiry and issuer, and returns the decoded
// claims.
func VerifyJWT(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil {
		return nil, fmt.Errorf("token rejected: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("token rejected")
	}

	return claims, nil
}
