// Package metrics registers the Prometheus collectors for the discovery
// pipeline and exposes the scrape handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trailscout_cache_hits_total",
		Help: "Total query cache hits",
	})
	CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trailscout_cache_misses_total",
		Help: "Total query cache misses, including evictions",
	})
	CacheEvictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trailscout_cache_evictions_total",
		Help: "Total query cache evictions by reason",
	}, []string{"reason"})
	ProviderRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trailscout_provider_requests_total",
		Help: "Total upstream provider requests",
	}, []string{"provider"})
	ProviderFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trailscout_provider_failures_total",
		Help: "Total upstream provider failures after retries",
	}, []string{"provider"})
	ProviderDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trailscout_provider_duration_ms",
		Help:    "Upstream provider call duration in milliseconds",
		Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000},
	}, []string{"provider"})
	MatchAccepted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trailscout_match_accepted_total",
		Help: "Total accepted trail/place matches by selection track",
	}, []string{"track"})
	MatchRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trailscout_match_rejected_total",
		Help: "Total trail queries with no confident match",
	})
	BatchesStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trailscout_batches_started_total",
		Help: "Total enrichment batches started",
	})
	BatchesSettled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trailscout_batches_settled_total",
		Help: "Total enrichment batches settled",
	})
	BatchItems = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "trailscout_batch_items",
		Help:    "Items per enrichment batch after radius cutoff and cap",
		Buckets: []float64{1, 2, 5, 10, 15, 20},
	})
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trailscout_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})
	HTTPDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trailscout_http_request_duration_ms",
		Help:    "HTTP request latency in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"method", "route"})
)

func init() {
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(CacheEvictions)
	prometheus.MustRegister(ProviderRequests)
	prometheus.MustRegister(ProviderFailures)
	prometheus.MustRegister(ProviderDurationMs)
	prometheus.MustRegister(MatchAccepted)
	prometheus.MustRegister(MatchRejected)
	prometheus.MustRegister(BatchesStarted)
	prometheus.MustRegister(BatchesSettled)
	prometheus.MustRegister(BatchItems)
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPDurationMs)
}

// Handler returns the scrape endpoint for the registered collectors.
func Handler() http.Handler { return promhttp.Handler() }
