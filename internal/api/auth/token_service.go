package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arbadev/sigilo/pkg/models"
)

// TokenService issues and validates the HS256 session tokens. Tokens carry
// the user code and role and expire after TokenDuration.
type TokenService struct {
	secretKey     []byte
	TokenDuration time.Duration
}

// Claims are the JWT claims of a session token.
type Claims struct {
	Code string `json:"code"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func NewTokenService(secretKey string, duration time.Duration) *TokenService {
	if duration <= 0 {
		duration = time.Hour
	}
	return &TokenService{
		secretKey:     []byte(secretKey),
		TokenDuration: duration,
	}
}

// CreateToken signs a session token for the given user.
func (ts *TokenService) CreateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Code: user.Code,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "sigilo",
			Subject:   user.Code,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a session token and returns its claims.
func (ts *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
