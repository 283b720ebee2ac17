// Package token decodes bearer-token claims on the client side.
//
// The client never verifies signatures: it has no key material, and
// verification is the server's job. Decoding is only used to read the
// identity the server already vouched for (email, role, expiry).
package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

// ErrMalformed is returned when a token cannot be decoded or is missing the
// claims the client needs.
var ErrMalformed = errors.New("token: malformed bearer token")

// Claims holds the typed JWT payload the client reads.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin maps the role claim onto the 0/1 admin flag the UI consumes.
func (c *Claims) IsAdmin() int {
	role := strings.ToLower(strings.TrimPrefix(c.Role, "ROLE_"))
	if role == "admin" {
		return 1
	}
	return 0
}

// Decode parses the token WITHOUT verifying its signature and returns the
// claims. Expired tokens decode fine; the server decides validity.
func Decode(raw string) (*Claims, error) {
	parser := jwt.NewParser()
	tok, _, err := parser.ParseUnverified(raw, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok {
		return nil, ErrMalformed
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: missing email claim", ErrMalformed)
	}

	return claims, nil
}

// StripBearer removes the "Bearer " prefix from a header value. The second
// return is false when the value is empty or carries no prefix and no token.
func StripBearer(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	if strings.HasPrefix(v, bearerPrefix) {
		v = strings.TrimSpace(strings.TrimPrefix(v, bearerPrefix))
	}
	return v, v != ""
}
