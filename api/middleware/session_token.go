package middleware

import (
	"encoding/json"
	"net/http"

	pkgAuth "github.com/upsellkit/upsellkit-backend/pkg/auth"
	"github.com/upsellkit/upsellkit-backend/pkg/config"
	"github.com/upsellkit/upsellkit-backend/pkg/logger"
)

// SessionToken validates the Shopify session token sent by the storefront
// extension and seeds the context with the calling shop. Responses here use
// the bare error shape the extension expects rather than the admin envelope.
func SessionToken(cfg config.ShopifyConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeBareError(w, http.StatusUnauthorized, "missing session token")
				return
			}

			claims, err := pkgAuth.ParseSessionToken(cfg, token)
			if err != nil {
				if logg != nil {
					logg.Warn(r.Context(), "session token rejected")
				}
				writeBareError(w, http.StatusUnauthorized, "invalid session token")
				return
			}

			shop := claims.ShopDomain()
			ctx := WithShop(r.Context(), shop)
			if logg != nil {
				ctx = logg.WithShop(ctx, shop)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeBareError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
