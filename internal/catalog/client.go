package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/upsellkit/upsellkit-backend/pkg/config"
	"github.com/upsellkit/upsellkit-backend/pkg/logger"
)

// searchPageSize caps how many products the picker search returns.
const searchPageSize = 10

// Product is the display-ready shape resolved from the shop's catalog.
type Product struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Handle   string `json:"handle"`
	ImageURL string `json:"imageUrl,omitempty"`
}

const nodesByIDQuery = `query GroupProducts($ids: [ID!]!) {
  nodes(ids: $ids) {
    ... on Product {
      id
      title
      handle
      featuredImage {
        url
      }
    }
  }
}`

const productSearchQuery = `query ProductSearch($query: String!, $first: Int!) {
  products(first: $first, query: $query) {
    edges {
      node {
        id
        title
        handle
        featuredImage {
          url
        }
      }
    }
  }
}`

// Client talks to the Shopify Admin GraphQL API for the installed shop.
type Client struct {
	cfg  config.ShopifyConfig
	http *http.Client
	logg *logger.Logger
}

// NewClient builds an Admin API client from the shop credentials.
func NewClient(cfg config.ShopifyConfig, logg *logger.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.HTTPTimeout},
		logg: logg,
	}
}

// Shop returns the shop domain the client is bound to.
func (c *Client) Shop() string {
	return c.cfg.Shop
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type productNode struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Handle        string `json:"handle"`
	FeaturedImage *struct {
		URL string `json:"url"`
	} `json:"featuredImage"`
}

func (n *productNode) toProduct() Product {
	p := Product{ID: n.ID, Title: n.Title, Handle: n.Handle}
	if n.FeaturedImage != nil {
		p.ImageURL = n.FeaturedImage.URL
	}
	return p
}

// ProductsByIDs resolves the given product GIDs with a single batch query.
// Identifiers the catalog no longer knows come back as null nodes and are
// dropped; output order follows the response order.
func (c *Client) ProductsByIDs(ctx context.Context, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}

	var payload struct {
		Nodes []*productNode `json:"nodes"`
	}
	if err := c.do(ctx, nodesByIDQuery, map[string]any{"ids": ids}, &payload); err != nil {
		return nil, fmt.Errorf("fetching products by ids: %w", err)
	}

	products := make([]Product, 0, len(payload.Nodes))
	for _, node := range payload.Nodes {
		if node == nil || node.ID == "" {
			continue
		}
		products = append(products, node.toProduct())
	}
	return products, nil
}

// Search returns up to ten products whose title matches the query text.
func (c *Client) Search(ctx context.Context, query string) ([]Product, error) {
	pattern := fmt.Sprintf("title:*%s*", escapeQuery(query))

	var payload struct {
		Products struct {
			Edges []struct {
				Node productNode `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	}
	vars := map[string]any{"query": pattern, "first": searchPageSize}
	if err := c.do(ctx, productSearchQuery, vars, &payload); err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}

	products := make([]Product, 0, len(payload.Products.Edges))
	for _, edge := range payload.Products.Edges {
		node := edge.Node
		products = append(products, node.toProduct())
	}
	return products, nil
}

func (c *Client) do(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encoding graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AdminURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.cfg.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling admin api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("admin api status %d: %s", resp.StatusCode, string(snippet))
	}

	var envelope gqlEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding graphql response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		if c.logg != nil {
			c.logg.Warn(ctx, "admin api returned graphql errors")
		}
		return fmt.Errorf("graphql error: %s", envelope.Errors[0].Message)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decoding graphql data: %w", err)
		}
	}
	return nil
}

// escapeQuery keeps user text from breaking out of the search pattern.
func escapeQuery(query string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `*`, ``)
	return replacer.Replace(strings.TrimSpace(query))
}
