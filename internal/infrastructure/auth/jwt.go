// Package auth adapts the identity provider's bearer tokens to the
// ports.TokenVerifier contract.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/semanticpilot/backend/internal/core/domain"
)

// JWTVerifier validates HS256-signed identity tokens carrying the user id in
// the sub claim.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier builds a verifier for the given shared secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token, yielding the caller identity.
// Any parse or signature failure maps to domain.ErrUnauthenticated.
func (v *JWTVerifier) Verify(_ context.Context, token string) (*domain.Identity, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("verify token: %w", domain.ErrUnauthenticated)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("verify token: missing subject: %w", domain.ErrUnauthenticated)
	}
	email, _ := claims["email"].(string)

	return &domain.Identity{UserID: sub, Email: email}, nil
}
