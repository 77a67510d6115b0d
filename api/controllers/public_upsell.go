package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/upsellkit/upsellkit-backend/api/middleware"
	"github.com/upsellkit/upsellkit-backend/internal/upsell"
	pkgerrors "github.com/upsellkit/upsellkit-backend/pkg/errors"
	"github.com/upsellkit/upsellkit-backend/pkg/logger"
)

type latestGroupService interface {
	LatestGroup(ctx context.Context, shop string) (*upsell.EnrichedGroupDTO, error)
}

// PublicUpsell serves the storefront extension. The response is the bare
// group payload rather than the admin envelope, and enrichment failures have
// already been degraded to an empty product list by the service.
func PublicUpsell(svc latestGroupService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := middleware.ShopFromContext(r.Context())
		if shop == "" {
			writePublicError(w, http.StatusUnauthorized, "missing session token")
			return
		}

		group, err := svc.LatestGroup(r.Context(), shop)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				writePublicError(w, http.StatusNotFound, "no upsell group configured")
				return
			}
			if logg != nil {
				logg.Error(r.Context(), "public upsell lookup failed", err)
			}
			writePublicError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writePublicJSON(w, http.StatusOK, group)
	}
}

func writePublicJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writePublicError(w http.ResponseWriter, status int, message string) {
	writePublicJSON(w, status, map[string]string{"error": message})
}
