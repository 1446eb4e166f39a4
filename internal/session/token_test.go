package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenExpiryJWT(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "acc-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("whatever"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, ok := TokenExpiry(token)
	if !ok {
		t.Fatal("expected expiry from JWT token")
	}
	if !got.Equal(exp) {
		t.Fatalf("expiry=%v, want %v", got, exp)
	}
}

func TestTokenExpiryOpaque(t *testing.T) {
	for _, token := range []string{"", "opaque-token", "a.b", "x.y.z"} {
		if _, ok := TokenExpiry(token); ok {
			t.Fatalf("opaque token %q reported an expiry", token)
		}
	}
}

func TestTokenExpiryJWTWithoutExp(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "acc-1",
	}).SignedString([]byte("whatever"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, ok := TokenExpiry(token); ok {
		t.Fatal("token without exp reported an expiry")
	}
}
