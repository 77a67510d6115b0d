package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting an admin JWT.
type AccessTokenPayload struct {
	Shop string
	JTI  string
}

// AccessTokenClaims represents the typed JWT issued to the embedded admin UI.
type AccessTokenClaims struct {
	Shop string `json:"shop"`
	jwt.RegisteredClaims
}

// SessionTokenClaims holds the Shopify-issued checkout session token claims.
// Shopify signs these with the app's API secret; the audience is the app's
// API key and dest carries the shop origin.
type SessionTokenClaims struct {
	Dest string `json:"dest"`
	Sid  string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// ShopDomain strips the scheme from the dest claim.
func (c *SessionTokenClaims) ShopDomain() string {
	return strings.TrimPrefix(strings.TrimPrefix(c.Dest, "https://"), "http://")
}
