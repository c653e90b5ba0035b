package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/KJsquare9/chat/internal/infrastructure/auth"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return signed
}

func newVerifier(t *testing.T, secret string) *auth.Verifier {
	t.Helper()
	t.Setenv("JWT_SECRET", secret)
	v, err := auth.NewVerifierFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return v
}

func TestVerifierExtractsUserID(t *testing.T) {
	v := newVerifier(t, "super-secret")
	token := signToken(t, "super-secret", jwt.MapClaims{
		"userId": "alice",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	userID, err := v.UserID(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "alice" {
		t.Fatalf("expected alice, got %q", userID)
	}
}

func TestVerifierRejectsBadTokens(t *testing.T) {
	v := newVerifier(t, "super-secret")

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"wrong secret", signToken(t, "other-secret", jwt.MapClaims{"userId": "alice"})},
		{"expired", signToken(t, "super-secret", jwt.MapClaims{
			"userId": "alice",
			"exp":    time.Now().Add(-time.Hour).Unix(),
		})},
		{"missing userId claim", signToken(t, "super-secret", jwt.MapClaims{"sub": "alice"})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := v.UserID(tc.token); !errors.Is(err, auth.ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNewVerifierFromEnvRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := auth.NewVerifierFromEnv(); err == nil {
		t.Fatal("expected error when JWT_SECRET is unset")
	}
}
