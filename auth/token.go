// Package auth reads the identity carried by an OAuth2 access token.
package auth

import (
	"chat-stomp/errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "ADMIN_USER"

// AccessClaims mirrors the claims of the authorization server tokens.
type AccessClaims struct {
	UserName    string   `json:"user_name"`
	Authorities []string `json:"authorities"`
	ClientID    string   `json:"client_id,omitempty"`
	Scope       []string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

func (c AccessClaims) IsAdmin() bool {
	return slices.Contains(c.Authorities, RoleAdmin)
}

// DecodeAccessToken reads the claims without checking the signature: the
// client holds no key, the server verifies the token on CONNECT. Expiry is
// still checked so a stale token fails at start-up rather than on connect.
func DecodeAccessToken(token string, now time.Time) (*AccessClaims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decoding access token: %w", err)
	}
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("%w at %s", errors.ErrTokenExpired, claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	return claims, nil
}
