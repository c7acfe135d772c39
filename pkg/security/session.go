// Package security issues and verifies the website's session tokens
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is what the website knows about a logged in Discord user
type SessionClaims struct {
	UserID        string `json:"userId"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
	jwt.RegisteredClaims
}

// IssueSession signs an HS256 token for the user valid for ttl
func IssueSession(secret string, ttl time.Duration, c SessionClaims) (string, error) {
	if secret == "" {
		return "", errors.New("no signing secret provided")
	}

	now := time.Now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   c.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)

	s, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token, %w", err)
	}

	return s, nil
}

// ParseSession verifies signature, algorithm and expiry
func ParseSession(secret, tokenStr string) (*SessionClaims, error) {
	var claims SessionClaims

	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}

		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("session token invalid")
	}

	return &claims, nil
}
