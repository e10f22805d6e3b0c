package gateway

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiresAt reads the expiry claim out of a dashboard bearer token
// without verifying the signature (only the backend holds the key). A nil
// time with nil error means the token carries no expiry, which the gateway
// uses for version-invalidated long-lived tokens.
func TokenExpiresAt(token string) (*time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse bearer token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, nil
	}
	t := exp.Time
	return &t, nil
}

// TokenExpired reports whether the bearer token carries an expiry in the
// past. Malformed tokens count as expired so callers warn before the backend
// rejects them.
func TokenExpired(token string, now time.Time) bool {
	exp, err := TokenExpiresAt(token)
	if err != nil {
		return true
	}
	return exp != nil && exp.Before(now)
}
