package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EnrichmentMetrics records catalog enrichment outcomes.
type EnrichmentMetrics struct {
	outcomes    *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewEnrichmentMetrics registers the enrichment metrics on the provided registerer.
func NewEnrichmentMetrics(reg prometheus.Registerer) *EnrichmentMetrics {
	if reg == nil {
		return &EnrichmentMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upsell_enrichment_total",
		Help: "Catalog enrichment calls by outcome.",
	}, []string{"outcome"})
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Catalog product cache hits.",
	})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_misses_total",
		Help: "Catalog product cache misses.",
	})
	reg.MustRegister(outcomes, cacheHits, cacheMisses)
	return &EnrichmentMetrics{
		outcomes:    outcomes,
		cacheHits:   cacheHits,
		cacheMisses: cacheMisses,
	}
}

// IncOK counts an enrichment that resolved against the catalog.
func (m *EnrichmentMetrics) IncOK() {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues("ok").Inc()
}

// IncDegraded counts an enrichment that fell back to an empty product list.
func (m *EnrichmentMetrics) IncDegraded() {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues("degraded").Inc()
}

// IncCacheHit counts a catalog cache hit.
func (m *EnrichmentMetrics) IncCacheHit() {
	if m == nil || m.cacheHits == nil {
		return
	}
	m.cacheHits.Inc()
}

// IncCacheMiss counts a catalog cache miss.
func (m *EnrichmentMetrics) IncCacheMiss() {
	if m == nil || m.cacheMisses == nil {
		return
	}
	m.cacheMisses.Inc()
}
