package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/upsellkit/upsellkit-backend/pkg/config"
)

// ParseSessionToken validates a Shopify checkout session token. The token is
// signed with the app's API secret and must be audienced to the app's API key;
// the dest claim identifies the calling shop.
func ParseSessionToken(cfg config.ShopifyConfig, tokenString string) (*SessionTokenClaims, error) {
	if cfg.APISecret == "" {
		return nil, fmt.Errorf("shopify api secret is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("shopify api key is required")
	}

	claims := &SessionTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.APISecret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithAudience(cfg.APIKey),
	)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(claims.Dest) == "" {
		return nil, fmt.Errorf("session token missing dest claim")
	}

	return claims, nil
}
