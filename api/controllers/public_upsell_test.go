package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upsellkit/upsellkit-backend/api/middleware"
	"github.com/upsellkit/upsellkit-backend/internal/catalog"
	"github.com/upsellkit/upsellkit-backend/internal/upsell"
	pkgerrors "github.com/upsellkit/upsellkit-backend/pkg/errors"
)

type stubLatestService struct {
	group   *upsell.EnrichedGroupDTO
	err     error
	gotShop string
}

func (s *stubLatestService) LatestGroup(ctx context.Context, shop string) (*upsell.EnrichedGroupDTO, error) {
	s.gotShop = shop
	return s.group, s.err
}

func publicRequest(withShop bool) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/upsell", nil)
	if withShop {
		req = req.WithContext(middleware.WithShop(req.Context(), "demo.myshopify.com"))
	}
	return req
}

func TestPublicUpsellReturnsLatestGroup(t *testing.T) {
	svc := &stubLatestService{group: &upsell.EnrichedGroupDTO{
		GroupDTO: upsell.GroupDTO{ID: 5, Shop: "demo.myshopify.com", Title: "Checkout picks", ProductIDs: []string{"gid://shopify/Product/1"}},
		Products: []catalog.Product{{ID: "gid://shopify/Product/1", Title: "Socks"}},
	}}

	w := httptest.NewRecorder()
	PublicUpsell(svc, nil)(w, publicRequest(true))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "demo.myshopify.com", svc.gotShop)

	var payload upsell.EnrichedGroupDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "Checkout picks", payload.Title)
	assert.Equal(t, "demo.myshopify.com", payload.Shop)
	assert.Contains(t, w.Body.String(), `"shop":"demo.myshopify.com"`)
	require.Len(t, payload.Products, 1)
}

func TestPublicUpsellWithoutShop(t *testing.T) {
	svc := &stubLatestService{}

	w := httptest.NewRecorder()
	PublicUpsell(svc, nil)(w, publicRequest(false))

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "error")
}

func TestPublicUpsellNoGroupConfigured(t *testing.T) {
	svc := &stubLatestService{err: pkgerrors.New(pkgerrors.CodeNotFound, "no upsell group configured")}

	w := httptest.NewRecorder()
	PublicUpsell(svc, nil)(w, publicRequest(true))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublicUpsellInternalFailure(t *testing.T) {
	svc := &stubLatestService{err: errors.New("db down")}

	w := httptest.NewRecorder()
	PublicUpsell(svc, nil)(w, publicRequest(true))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body["error"])
}

func TestPublicUpsellDegradedGroupStillOK(t *testing.T) {
	svc := &stubLatestService{group: &upsell.EnrichedGroupDTO{
		GroupDTO: upsell.GroupDTO{ID: 5, Title: "Checkout picks", ProductIDs: []string{"gid://shopify/Product/1"}},
		Products: []catalog.Product{},
	}}

	w := httptest.NewRecorder()
	PublicUpsell(svc, nil)(w, publicRequest(true))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"products":[]`)
}
