// Package auth issues and verifies the credential tokens that gate every
// HTTP and WebSocket entry point. A verified token yields a typed
// models.Identity; nothing downstream ever sees the raw token.
package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/querysense/querysense/pkg/models"
)

// TokenValidity is the fixed lifetime of issued tokens.
const TokenValidity = 7 * 24 * time.Hour

// ErrInvalidToken is returned when a token fails signature, structure, or
// expiry checks.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the JWT claims carried by issued tokens.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 tokens with a shared secret.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a token service. The clock is injectable for
// deterministic expiry tests; pass nil to use time.Now.
func NewTokenService(secret string, now func() time.Time) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	if now == nil {
		now = time.Now
	}
	return &TokenService{secret: []byte(secret), now: now}, nil
}

// NewTokenServiceFromEnv creates a token service from the JWT_SECRET
// environment variable.
func NewTokenServiceFromEnv() (*TokenService, error) {
	return NewTokenService(os.Getenv("JWT_SECRET"), nil)
}

// Issue creates a signed token for the identity, valid for TokenValidity.
func (s *TokenService) Issue(identity models.Identity) (string, error) {
	now := s.now()
	claims := Claims{
		Email: identity.Email,
		Role:  identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenValidity)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature, signing method, and expiry, and
// returns the identity it was issued for.
func (s *TokenService) Verify(tokenString string) (models.Identity, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !tok.Valid {
		return models.Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return models.Identity{}, ErrInvalidToken
	}

	return models.Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
