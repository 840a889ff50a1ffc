// Package token decodes identity tokens issued by the user pool. Decoding is
// deliberately unverified: tokens only ever originate from the trusted issuer
// or from an HttpOnly cookie round trip the client cannot forge without the
// issuer's private key. Anything that needs a trust decision goes back to the
// provider, never to this package.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lifeledger/lifeledger/internal/common"
)

// Claims is the decoded payload of an identity token.
type Claims struct {
	// Subject is the stable user identifier (sub).
	Subject string
	// Username is the sign-in name (cognito:username).
	Username string
	// Email is the verified address, when present.
	Email string
	// ExpiresAt is the expiration claim as unix seconds; zero when absent.
	ExpiresAt int64
}

// Expired reports whether the token's expiration claim is not in the future.
// A missing exp claim counts as expired.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt <= now.Unix()
}

var parser = jwt.NewParser()

// Decode splits the compact serialization, base64url-decodes the payload
// segment, and extracts the claims this server cares about. The signature is
// not checked. Errors wrap common.ErrMalformedToken.
func Decode(raw string) (*Claims, error) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, mapClaims); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedToken, err)
	}

	claims := &Claims{}

	if sub, err := mapClaims.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if username, ok := mapClaims["cognito:username"].(string); ok {
		claims.Username = username
	}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Unix()
	}

	return claims, nil
}
