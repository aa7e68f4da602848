package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recipebook",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "recipebook",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// TaxonomyLookups counts get-or-create calls on tags and ingredients,
	// split by whether a new record was inserted.
	TaxonomyLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recipebook",
		Name:      "taxonomy_lookups_total",
		Help:      "Tag and ingredient get-or-create calls.",
	}, []string{"kind", "result"})
)

// ObserveTaxonomy records one get-or-create outcome.
func ObserveTaxonomy(kind string, created bool) {
	result := "existing"
	if created {
		result = "created"
	}
	TaxonomyLookups.WithLabelValues(kind, result).Inc()
}
