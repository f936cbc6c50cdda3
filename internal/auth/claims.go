// Package auth reads the permission claims embedded in the bearer token.
// The token is decoded, never verified, on the client side; the service
// enforces permissions on every request.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Claims are the fields this client reads from the token payload.
type Claims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Exp      int64    `json:"exp"`
}

// ErrMalformedToken indicates the token is not a decodable JWT.
var ErrMalformedToken = errors.New("malformed token")

// DecodeClaims extracts the payload segment of a JWT without verifying
// the signature.
func DecodeClaims(token string) (Claims, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) < 2 {
		return Claims{}, ErrMalformedToken
	}
	decoded, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	var claims Claims
	if err := json.Unmarshal(decoded, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}

// Has reports whether the named permission is among the token's roles.
func (c Claims) Has(permission string) bool {
	for _, role := range c.Roles {
		if role == permission {
			return true
		}
	}
	return false
}

// Expired reports whether the token's expiry has passed. Tokens without
// an exp claim never expire client-side.
func (c Claims) Expired(now time.Time) bool {
	if c.Exp == 0 {
		return false
	}
	return time.Unix(c.Exp, 0).Before(now)
}
