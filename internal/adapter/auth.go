package adapter

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/argusproj/argus/internal/config"
)

// serviceTokenTTL bounds the validity of minted service tokens. Tokens are
// minted per request, so the short window is never a refresh concern.
const serviceTokenTTL = 2 * time.Minute

// AuthToken returns the bearer token for a backend. Backends configured
// with a shared JWT secret get a short-lived signed service token; the rest
// use their static token (possibly empty for open endpoints).
func AuthToken(cfg config.BackendConfig) (string, error) {
	if cfg.JWTSecret == "" {
		return cfg.Token, nil
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    "argus",
		Subject:   string(cfg.Kind),
		IssuedAt:  jwt.NewNumericDate(now.Add(-30 * time.Second)), // Clock skew buffer
		ExpiresAt: jwt.NewNumericDate(now.Add(serviceTokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign service token: %w", err)
	}
	return signed, nil
}
