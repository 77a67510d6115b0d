package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upsellkit/upsellkit-backend/pkg/config"
)

func testShopifyConfig(baseURL string) config.ShopifyConfig {
	return config.ShopifyConfig{
		Shop:        "demo.myshopify.com",
		AccessToken: "shpat_test",
		APIVersion:  "2024-10",
		BaseURL:     baseURL,
		HTTPTimeout: 2 * time.Second,
	}
}

func TestProductsByIDsBatchesAndDropsMissing(t *testing.T) {
	var gotReq gqlRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/admin/api/2024-10/graphql.json", r.URL.Path)
		assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"nodes":[
			{"id":"gid://shopify/Product/1","title":"Socks","handle":"socks","featuredImage":{"url":"https://cdn/socks.png"}},
			null,
			{"id":"gid://shopify/Product/3","title":"Hat","handle":"hat"}
		]}}`))
	}))
	defer server.Close()

	client := NewClient(testShopifyConfig(server.URL), nil)
	products, err := client.ProductsByIDs(context.Background(), []string{
		"gid://shopify/Product/1",
		"gid://shopify/Product/2",
		"gid://shopify/Product/3",
	})
	require.NoError(t, err)

	ids, ok := gotReq.Variables["ids"].([]any)
	require.True(t, ok)
	assert.Len(t, ids, 3)

	require.Len(t, products, 2)
	assert.Equal(t, "Socks", products[0].Title)
	assert.Equal(t, "https://cdn/socks.png", products[0].ImageURL)
	assert.Equal(t, "gid://shopify/Product/3", products[1].ID)
	assert.Empty(t, products[1].ImageURL)
}

func TestProductsByIDsEmptyInputSkipsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected request for empty id list")
	}))
	defer server.Close()

	client := NewClient(testShopifyConfig(server.URL), nil)
	products, err := client.ProductsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestProductsByIDsGraphQLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"throttled"}]}`))
	}))
	defer server.Close()

	client := NewClient(testShopifyConfig(server.URL), nil)
	_, err := client.ProductsByIDs(context.Background(), []string{"gid://shopify/Product/1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestProductsByIDsHTTPStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testShopifyConfig(server.URL), nil)
	_, err := client.ProductsByIDs(context.Background(), []string{"gid://shopify/Product/1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSearchBuildsTitlePattern(t *testing.T) {
	var gotReq gqlRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"data":{"products":{"edges":[
			{"node":{"id":"gid://shopify/Product/9","title":"Wool Socks","handle":"wool-socks","featuredImage":{"url":"https://cdn/wool.png"}}}
		]}}}`))
	}))
	defer server.Close()

	client := NewClient(testShopifyConfig(server.URL), nil)
	products, err := client.Search(context.Background(), "  socks ")
	require.NoError(t, err)

	assert.Equal(t, "title:*socks*", gotReq.Variables["query"])
	assert.EqualValues(t, 10, gotReq.Variables["first"])

	require.Len(t, products, 1)
	assert.Equal(t, "Wool Socks", products[0].Title)
}

func TestSearchEscapesQueryText(t *testing.T) {
	assert.Equal(t, `sock`, escapeQuery(` sock* `))
	assert.Equal(t, `say \"hi\"`, escapeQuery(`say "hi"`))
	assert.Equal(t, `a\\b`, escapeQuery(`a\b`))
}

func TestSearchPropagatesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"invalid token"}]}`))
	}))
	defer server.Close()

	client := NewClient(testShopifyConfig(server.URL), nil)
	_, err := client.Search(context.Background(), "socks")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
}
