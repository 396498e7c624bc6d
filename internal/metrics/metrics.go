package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recommendation outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeNotFound     = "not_found"
	OutcomeAmbiguous    = "ambiguous"
	OutcomeInsufficient = "insufficient"
)

// Poster lookup outcomes.
const (
	PosterResolved       = "resolved"
	PosterMissing        = "missing_poster"
	PosterTransportError = "transport_error"
	PosterStatusError    = "status_error"
	PosterDecodeError    = "decode_error"
	PosterBreakerOpen    = "breaker_open"
	PosterNoClient       = "no_client"
	PosterInvalidID      = "invalid_id"
	PosterRateLimited    = "rate_limited"
)

var (
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_recommendations_total",
			Help: "Total similarity lookups by outcome",
		},
		[]string{"outcome"},
	)

	PosterLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_poster_lookups_total",
			Help: "Total poster resolutions by outcome",
		},
		[]string{"outcome"},
	)

	PosterLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cinematch_poster_lookup_duration_seconds",
			Help:    "Duration of TMDB movie detail requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PosterBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinematch_poster_breaker_state",
			Help: "Poster circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinematch_http_requests_total",
			Help: "Total HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinematch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	DatasetMovies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinematch_dataset_movies",
			Help: "Number of catalog entries in the loaded dataset",
		},
	)
)

// RecordRecommendation counts one similarity lookup.
func RecordRecommendation(outcome string) {
	RecommendationsTotal.WithLabelValues(outcome).Inc()
}

// RecordPosterLookup counts one poster resolution. A zero duration means no
// request was sent and is not observed.
func RecordPosterLookup(outcome string, duration time.Duration) {
	PosterLookupsTotal.WithLabelValues(outcome).Inc()
	if duration > 0 {
		PosterLookupDuration.Observe(duration.Seconds())
	}
}

// RecordBreakerState publishes the poster breaker state.
func RecordBreakerState(state int) {
	PosterBreakerState.Set(float64(state))
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordDatasetSize publishes the loaded catalog size.
func RecordDatasetSize(movies int) {
	DatasetMovies.Set(float64(movies))
}
