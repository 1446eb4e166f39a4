package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry inspects a bearer token that happens to be a JWT and returns
// its expiry claim. The token is issued and verified by the upstream; no
// signature check happens here, the claim is used only to discard sessions
// that are already dead and to report expiry to the operator.
func TokenExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
