package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// Movie is the subset of the TMDB movie details payload cinematch reads.
// PosterPath is nil when the field is absent or null.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	PosterPath  *string `json:"poster_path"`
}

// StatusError reports a non-200 response from TMDB.
type StatusError struct {
	StatusCode int
	Latency    time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb movie details returned %d (latency=%v)", e.StatusCode, e.Latency)
}

var (
	// ErrMalformedResponse marks a 200 response whose body is not valid movie JSON.
	ErrMalformedResponse = errors.New("malformed tmdb response")
	// ErrInvalidMovieID rejects ids that TMDB cannot know; no request is sent.
	ErrInvalidMovieID = errors.New("movie id must be positive")
	// ErrRateLimited marks a request abandoned while waiting on the client
	// rate limiter; no request is sent.
	ErrRateLimited = errors.New("tmdb rate limiter wait aborted")
)

// MovieFetcher is the lookup surface the poster resolver depends on.
type MovieFetcher interface {
	GetMovieDetails(ctx context.Context, movieID int64) (*Movie, error)
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ MovieFetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimiter makes every request wait for a token from limiter.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// GetMovieDetails fetches movie details by TMDB ID.
func (c *Client) GetMovieDetails(ctx context.Context, movieID int64) (*Movie, error) {
	if movieID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMovieID, movieID)
	}
	endpoint, err := url.Parse(fmt.Sprintf("%s/movie/%d", c.baseURL, movieID))
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Latency: latency}
	}

	var payload Movie
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode movie details: %w: %w", ErrMalformedResponse, err)
	}
	return &payload, nil
}
