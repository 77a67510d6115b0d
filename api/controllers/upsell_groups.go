package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/upsellkit/upsellkit-backend/api/middleware"
	"github.com/upsellkit/upsellkit-backend/api/responses"
	"github.com/upsellkit/upsellkit-backend/api/validators"
	"github.com/upsellkit/upsellkit-backend/internal/catalog"
	"github.com/upsellkit/upsellkit-backend/internal/upsell"
	pkgerrors "github.com/upsellkit/upsellkit-backend/pkg/errors"
	"github.com/upsellkit/upsellkit-backend/pkg/logger"
)

type groupService interface {
	CreateGroup(ctx context.Context, shop string, input *upsell.GroupInput) (*upsell.GroupDTO, error)
	GetGroup(ctx context.Context, shop string, id uint) (*upsell.EnrichedGroupDTO, error)
	ListGroups(ctx context.Context, shop string) ([]upsell.EnrichedGroupDTO, error)
	UpdateGroup(ctx context.Context, shop string, id uint, input *upsell.GroupInput) (*upsell.GroupDTO, error)
	DeleteGroup(ctx context.Context, shop string, id uint) error
}

type productSearchService interface {
	SearchProducts(ctx context.Context, query string) ([]catalog.Product, error)
}

// CreateUpsellGroup stores a new group for the authenticated shop.
func CreateUpsellGroup(svc groupService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, ok := requireShop(w, r, logg)
		if !ok {
			return
		}

		var payload upsell.GroupInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.CreateGroup(r.Context(), shop, &payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, group)
	}
}

// ListUpsellGroups returns the shop's groups, newest first, with products
// resolved against the catalog.
func ListUpsellGroups(svc groupService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, ok := requireShop(w, r, logg)
		if !ok {
			return
		}

		groups, err := svc.ListGroups(r.Context(), shop)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, groups)
	}
}

// GetUpsellGroup returns one group with products resolved.
func GetUpsellGroup(svc groupService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, ok := requireShop(w, r, logg)
		if !ok {
			return
		}

		id, err := groupIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.GetGroup(r.Context(), shop, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, group)
	}
}

// UpdateUpsellGroup overwrites a group's title and product list.
func UpdateUpsellGroup(svc groupService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, ok := requireShop(w, r, logg)
		if !ok {
			return
		}

		id, err := groupIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload upsell.GroupInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.UpdateGroup(r.Context(), shop, id, &payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, group)
	}
}

// DeleteUpsellGroup removes a group. Repeated deletes stay successful.
func DeleteUpsellGroup(svc groupService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, ok := requireShop(w, r, logg)
		if !ok {
			return
		}

		id, err := groupIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteGroup(r.Context(), shop, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// SearchProducts runs a catalog title search for the admin product picker.
func SearchProducts(svc productSearchService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireShop(w, r, logg); !ok {
			return
		}

		products, err := svc.SearchProducts(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

func requireShop(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	shop := middleware.ShopFromContext(r.Context())
	if shop == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "shop context missing"))
		return "", false
	}
	return shop, true
}

func groupIDParam(r *http.Request) (uint, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid group id").WithDetails(map[string]string{"id": "must be a positive integer"})
	}
	return uint(id), nil
}
