package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"comply/internal/platform/middleware"
)

// Validator verifies HS256 access tokens issued by the platform's identity
// service and extracts the claims the engine cares about.
type Validator struct {
	signingKey []byte
}

// NewValidator creates a validator for the given signing key.
func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

// ValidateToken parses and verifies tokenString, returning its claims.
func (v *Validator) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	out := &middleware.JWTClaims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if v, ok := claims["scope"].(string); ok {
		out.Scope = v
	}
	return out, nil
}
