package poster

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"cinematch/internal/config"
	"cinematch/internal/logging"
	"cinematch/internal/metrics"
	"cinematch/internal/tmdb"
)

const (
	// DefaultImageBaseURL is the TMDB image host with the w500 size segment.
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	// DefaultPlaceholderURL is served whenever no poster can be resolved.
	DefaultPlaceholderURL = "https://via.placeholder.com/500x750?text=No+Image+Available"
)

// Options configures a Resolver.
type Options struct {
	ImageBaseURL   string
	PlaceholderURL string
	// BreakerFailureThreshold is the number of consecutive lookup failures
	// that opens the breaker. Zero disables the breaker.
	BreakerFailureThreshold int
	BreakerOpenTimeout      time.Duration
	Logger                  *slog.Logger
}

// Resolver turns movie ids into poster URLs.
type Resolver struct {
	fetcher     tmdb.MovieFetcher
	imageBase   string
	placeholder string
	breaker     *gobreaker.CircuitBreaker[*tmdb.Movie]
	logger      *slog.Logger
}

// New creates a Resolver. A nil fetcher resolves every id to the placeholder.
func New(fetcher tmdb.MovieFetcher, opts Options) *Resolver {
	r := &Resolver{
		fetcher:     fetcher,
		imageBase:   strings.TrimSpace(opts.ImageBaseURL),
		placeholder: strings.TrimSpace(opts.PlaceholderURL),
		logger:      logging.NewComponentLogger(opts.Logger, "poster"),
	}
	if r.imageBase == "" {
		r.imageBase = DefaultImageBaseURL
	}
	if r.placeholder == "" {
		r.placeholder = DefaultPlaceholderURL
	}
	if opts.BreakerFailureThreshold > 0 {
		r.breaker = newBreaker(uint32(opts.BreakerFailureThreshold), opts.BreakerOpenTimeout, r.logger)
	}
	return r
}

// NewFromConfig wires a TMDB client, rate limiter and breaker from cfg. An
// empty API key yields a resolver that always serves the placeholder.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Resolver, error) {
	opts := Options{
		ImageBaseURL:            cfg.TMDB.ImageBaseURL,
		PlaceholderURL:          cfg.TMDB.PlaceholderURL,
		BreakerFailureThreshold: cfg.Poster.BreakerFailureThreshold,
		BreakerOpenTimeout:      cfg.BreakerOpenTimeout(),
		Logger:                  logger,
	}
	if strings.TrimSpace(cfg.TMDB.APIKey) == "" {
		logging.WarnWithContext(logging.NewComponentLogger(logger, "poster"),
			"tmdb api key not configured", "tmdb_key_missing",
			logging.String(logging.FieldErrorHint, "set tmdb.api_key or TMDB_API_KEY"),
			logging.String(logging.FieldImpact, "every recommendation shows the placeholder poster"),
		)
		return New(nil, opts), nil
	}

	clientOpts := []tmdb.Option{
		tmdb.WithHTTPClient(&http.Client{Timeout: cfg.TMDBTimeout()}),
	}
	if cfg.TMDB.RequestsPerSecond > 0 {
		clientOpts = append(clientOpts, tmdb.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.TMDB.RequestsPerSecond), cfg.TMDB.Burst)))
	}
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, clientOpts...)
	if err != nil {
		return nil, err
	}
	return New(client, opts), nil
}

// Placeholder returns the fallback image URL.
func (r *Resolver) Placeholder() string {
	return r.placeholder
}

// Resolve returns the poster URL for movieID, or the placeholder.
func (r *Resolver) Resolve(ctx context.Context, movieID int64) string {
	logger := logging.WithContext(ctx, r.logger).With(logging.Int64(logging.FieldMovieID, movieID))
	if r.fetcher == nil {
		metrics.RecordPosterLookup(metrics.PosterNoClient, 0)
		return r.placeholder
	}

	start := time.Now()
	movie, err := r.fetch(ctx, movieID)
	elapsed := time.Since(start)
	if err != nil {
		outcome := classify(err)
		if outcome == metrics.PosterBreakerOpen {
			metrics.RecordPosterLookup(outcome, 0)
			logger.Debug("poster lookup skipped; breaker open")
			return r.placeholder
		}
		metrics.RecordPosterLookup(outcome, elapsed)
		logging.WarnWithContext(logger, "poster lookup failed; using placeholder", "poster_fallback",
			logging.String("outcome", outcome),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(outcome)),
			logging.String(logging.FieldImpact, "placeholder poster shown"),
		)
		return r.placeholder
	}

	if movie == nil || movie.PosterPath == nil || strings.TrimSpace(*movie.PosterPath) == "" {
		metrics.RecordPosterLookup(metrics.PosterMissing, elapsed)
		logger.Debug("movie has no poster_path; using placeholder")
		return r.placeholder
	}

	metrics.RecordPosterLookup(metrics.PosterResolved, elapsed)
	return JoinURL(r.imageBase, *movie.PosterPath)
}

func (r *Resolver) fetch(ctx context.Context, movieID int64) (*tmdb.Movie, error) {
	if r.breaker == nil {
		return r.fetcher.GetMovieDetails(ctx, movieID)
	}
	return r.breaker.Execute(func() (*tmdb.Movie, error) {
		return r.fetcher.GetMovieDetails(ctx, movieID)
	})
}

// JoinURL joins the image host and a poster path with exactly one slash.
func JoinURL(imageBase, posterPath string) string {
	return strings.TrimRight(strings.TrimSpace(imageBase), "/") + "/" + strings.TrimLeft(strings.TrimSpace(posterPath), "/")
}

func classify(err error) string {
	var statusErr *tmdb.StatusError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return metrics.PosterBreakerOpen
	case errors.As(err, &statusErr):
		return metrics.PosterStatusError
	case errors.Is(err, tmdb.ErrMalformedResponse):
		return metrics.PosterDecodeError
	case errors.Is(err, tmdb.ErrInvalidMovieID):
		return metrics.PosterInvalidID
	case errors.Is(err, tmdb.ErrRateLimited):
		return metrics.PosterRateLimited
	default:
		return metrics.PosterTransportError
	}
}

func hintFor(outcome string) string {
	switch outcome {
	case metrics.PosterStatusError:
		return "check tmdb.api_key and the movie id"
	case metrics.PosterDecodeError:
		return "check tmdb.base_url points at the TMDB v3 API"
	case metrics.PosterInvalidID:
		return "check movie_id values in the dataset"
	case metrics.PosterRateLimited:
		return "raise tmdb.requests_per_second or tmdb.burst"
	default:
		return "check network connectivity to TMDB"
	}
}
