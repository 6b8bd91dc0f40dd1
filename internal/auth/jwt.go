// Package auth authenticates API requests with HMAC-signed bearer tokens.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clustersystems/commission-tracker/internal/identity"
)

// Claims is the token payload. Email doubles as the principal id for stored
// credentials.
type Claims struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// SignToken issues a token for the given actor, used by tests and tooling.
func SignToken(secret string, actor identity.Actor, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Email:   actor.Email,
		IsAdmin: actor.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseToken(secret, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Email == "" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}
