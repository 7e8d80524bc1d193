// Package metrics exposes Prometheus collectors for the ingestion worker.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pendingIDs         prometheus.Gauge
	discoveredArtists  prometheus.Gauge
	albumsDiscovered   prometheus.Counter
	albumsInserted     prometheus.Counter
	freshnessHits      prometheus.Counter
	itemFailures       prometheus.Counter
	apiRequestsTotal   *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors on the default registry. It is safe to call
// multiple times; every Observe helper calls it, so collectors exist even in
// tests that never wire the full app.
func Init() {
	once.Do(func() {
		pendingIDs = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "metadata_cache_pending_ids",
			Help: "Album ids currently waiting in the lookup queue.",
		})

		discoveredArtists = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "metadata_cache_discovered_artists",
			Help: "Distinct artists whose catalogs have been expanded this process lifetime.",
		})

		albumsDiscovered = promauto.NewCounter(prometheus.CounterOpts{
			Name: "metadata_cache_discovered_albums_total",
			Help: "Albums newly enqueued by catalog discovery.",
		})

		albumsInserted = promauto.NewCounter(prometheus.CounterOpts{
			Name: "metadata_cache_albums_inserted_total",
			Help: "Albums fetched and upserted into the durable store.",
		})

		freshnessHits = promauto.NewCounter(prometheus.CounterOpts{
			Name: "metadata_cache_freshness_hits_total",
			Help: "Lookups skipped because a fresh cache marker was present.",
		})

		itemFailures = promauto.NewCounter(prometheus.CounterOpts{
			Name: "metadata_cache_item_failures_total",
			Help: "Work items dropped after a fetch or persist failure.",
		})

		apiRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "metadata_cache_api_requests_total",
				Help: "Catalog API requests, labeled by endpoint and status code.",
			},
			[]string{"endpoint", "code"},
		)

		apiRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "metadata_cache_api_request_duration_seconds",
				Help:    "Catalog API request latencies, labeled by endpoint.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"endpoint"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveReport updates the gauge-style metrics emitted on each report tick.
func ObserveReport(pending int, artists int) {
	Init()
	pendingIDs.Set(float64(pending))
	discoveredArtists.Set(float64(artists))
}

// IncAlbumDiscovered counts an album newly enqueued by discovery.
func IncAlbumDiscovered() {
	Init()
	albumsDiscovered.Inc()
}

// IncAlbumInserted counts a successful fetch-and-persist cycle.
func IncAlbumInserted() {
	Init()
	albumsInserted.Inc()
}

// IncFreshnessHit counts a lookup short-circuited by the cache gate.
func IncFreshnessHit() {
	Init()
	freshnessHits.Inc()
}

// IncItemFailure counts a work item dropped after an error.
func IncItemFailure() {
	Init()
	itemFailures.Inc()
}

// ObserveAPIRequest records one catalog API round trip.
func ObserveAPIRequest(endpoint string, code int, duration time.Duration) {
	Init()
	apiRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	apiRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
