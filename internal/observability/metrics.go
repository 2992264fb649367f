package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_locator"

// Metrics holds the Prometheus counters and histograms for the location service.
type Metrics struct {
	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}

	// Geolocation metrics.
	GeolocationResolutions *prometheus.CounterVec // labels: state={resolved,unavailable,denied,timed_out}
	LocationCacheLookups   *prometheus.CounterVec // labels: result={hit,miss,stale}

	// Search metrics.
	SearchLookups        *prometheus.CounterVec // labels: outcome={skipped,success,empty,error,stale}
	SearchLookupDuration prometheus.Histogram

	// Coordinator metrics.
	LocationChanges *prometheus.CounterVec // labels: source={geolocation,search,selection}
	WeatherFetches  *prometheus.CounterVec // labels: outcome={success,empty}
	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

func newMetrics() *Metrics {
	return &Metrics{
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeolocationResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geolocation_resolutions_total",
			Help:      "Completed geolocation attempts by terminal state.",
		}, []string{"state"}),
		LocationCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_cache_lookups_total",
			Help:      "Location cache reads by result.",
		}, []string{"result"}),
		SearchLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_lookups_total",
			Help:      "Debounced suggestion lookups by outcome.",
		}, []string{"outcome"}),
		SearchLookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_lookup_duration_seconds",
			Help:      "Duration of a suggestion lookup including gateway pacing.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		LocationChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "canonical_location_changes_total",
			Help:      "Accepted canonical location changes by source.",
		}, []string{"source"}),
		WeatherFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_fetches_total",
			Help:      "Weather fetches by outcome.",
		}, []string{"outcome"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_events_published_total",
			Help:      "Location change events handed to the publisher by outcome.",
		}, []string{"outcome"}),
	}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.GeocodeRequests,
		m.GeocodeAPIDuration,
		m.GeolocationResolutions,
		m.LocationCacheLookups,
		m.SearchLookups,
		m.SearchLookupDuration,
		m.LocationChanges,
		m.WeatherFetches,
		m.EventsPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
