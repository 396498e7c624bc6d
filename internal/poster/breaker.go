package poster

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"cinematch/internal/logging"
	"cinematch/internal/metrics"
	"cinematch/internal/tmdb"
)

const defaultBreakerOpenTimeout = 30 * time.Second

func newBreaker(threshold uint32, openTimeout time.Duration, logger *slog.Logger) *gobreaker.CircuitBreaker[*tmdb.Movie] {
	if openTimeout <= 0 {
		openTimeout = defaultBreakerOpenTimeout
	}
	settings := gobreaker.Settings{
		Name:        "tmdb-posters",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerState(int(to))
			if to == gobreaker.StateOpen {
				logging.WarnWithContext(logger, "poster lookups suspended after repeated failures", "poster_breaker_open",
					logging.String("breaker", name),
					logging.Duration("open_for", openTimeout),
					logging.String(logging.FieldErrorHint, "check network connectivity to TMDB"),
					logging.String(logging.FieldImpact, "placeholder posters shown until TMDB recovers"),
				)
				return
			}
			logger.Info("poster breaker state changed",
				logging.String("breaker", name),
				logging.String("from", from.String()),
				logging.String("to", to.String()),
			)
		},
	}
	return gobreaker.NewCircuitBreaker[*tmdb.Movie](settings)
}

// countsAsSuccess reports whether err leaves the breaker's failure count
// untouched. 4xx answers other than 429 do, as do caller cancellation and
// lookups rejected before any request was sent.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, tmdb.ErrInvalidMovieID) ||
		errors.Is(err, tmdb.ErrRateLimited) {
		return true
	}
	var statusErr *tmdb.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode < 500 && statusErr.StatusCode != 429
	}
	return false
}
