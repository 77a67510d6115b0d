package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/upsellkit/upsellkit-backend/pkg/logger"
	"github.com/upsellkit/upsellkit-backend/pkg/metrics"
	"github.com/upsellkit/upsellkit-backend/pkg/redis"
)

type productFetcher interface {
	ProductsByIDs(ctx context.Context, ids []string) ([]Product, error)
}

type productCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CatalogProductKey(shop, productGID string) string
}

// Resolver resolves product GIDs to display products, serving from the
// per-shop cache and batching the remaining misses into one catalog call.
type Resolver struct {
	fetcher productFetcher
	cache   productCache
	ttl     time.Duration
	met     *metrics.EnrichmentMetrics
	logg    *logger.Logger
}

// NewResolver wires a resolver over the catalog client. cache may be nil
// when Redis is not configured; every lookup then goes to the catalog.
func NewResolver(fetcher productFetcher, cache productCache, ttl time.Duration, met *metrics.EnrichmentMetrics, logg *logger.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		cache:   cache,
		ttl:     ttl,
		met:     met,
		logg:    logg,
	}
}

// Resolve returns the products for ids that still exist in the shop's
// catalog, in the requested-identifier order; ids the catalog no longer
// knows are dropped. Cache failures are logged and ignored; the catalog
// stays authoritative.
func (r *Resolver) Resolve(ctx context.Context, shop string, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}

	resolved := make(map[string]Product, len(ids))
	misses := make([]string, 0, len(ids))
	for _, id := range ids {
		if cached, ok := r.fromCache(ctx, shop, id); ok {
			r.met.IncCacheHit()
			resolved[id] = cached
			continue
		}
		r.met.IncCacheMiss()
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		fetched, err := r.fetcher.ProductsByIDs(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, product := range fetched {
			r.toCache(ctx, shop, product)
			resolved[product.ID] = product
		}
	}

	products := make([]Product, 0, len(ids))
	for _, id := range ids {
		if product, ok := resolved[id]; ok {
			products = append(products, product)
		}
	}
	return products, nil
}

func (r *Resolver) fromCache(ctx context.Context, shop, id string) (Product, bool) {
	if r.cache == nil {
		return Product{}, false
	}
	raw, err := r.cache.Get(ctx, r.cache.CatalogProductKey(shop, id))
	if err != nil {
		if !redis.IsMiss(err) && r.logg != nil {
			r.logg.Warn(ctx, "catalog cache read failed")
		}
		return Product{}, false
	}
	var product Product
	if err := json.Unmarshal([]byte(raw), &product); err != nil {
		return Product{}, false
	}
	return product, true
}

func (r *Resolver) toCache(ctx context.Context, shop string, product Product) {
	if r.cache == nil || product.ID == "" {
		return
	}
	raw, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, r.cache.CatalogProductKey(shop, product.ID), string(raw), r.ttl); err != nil && r.logg != nil {
		r.logg.Warn(ctx, "catalog cache write failed")
	}
}
