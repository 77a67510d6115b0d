package middleware

import (
	"net/http"
	"strings"

	"github.com/upsellkit/upsellkit-backend/api/responses"
	pkgAuth "github.com/upsellkit/upsellkit-backend/pkg/auth"
	"github.com/upsellkit/upsellkit-backend/pkg/config"
	pkgerrors "github.com/upsellkit/upsellkit-backend/pkg/errors"
	"github.com/upsellkit/upsellkit-backend/pkg/logger"
)

// Auth validates the admin bearer token and seeds the request context with
// the authenticated shop.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if strings.TrimSpace(claims.Shop) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing shop claim"))
				return
			}

			ctx := WithShop(r.Context(), claims.Shop)
			if logg != nil {
				ctx = logg.WithShop(ctx, claims.Shop)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
