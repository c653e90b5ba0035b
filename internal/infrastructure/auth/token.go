package auth

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers missing, malformed, expired and wrongly-signed
// tokens. Connections presenting one are rejected before the upgrade.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// Verifier checks connect-time tokens and extracts the user identity they
// are bound to. Token issuance lives elsewhere; this side only verifies.
type Verifier struct {
	secret []byte
}

// NewVerifierFromEnv reads the shared JWT_SECRET.
func NewVerifierFromEnv() (*Verifier, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("auth: JWT_SECRET environment variable is not set")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// UserID validates the token and returns the userId claim it carries.
// A connection is bound to that single identity for its whole lifetime.
func (v *Verifier) UserID(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	userID, _ := claims["userId"].(string)
	if userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}
