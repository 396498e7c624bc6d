// Package tmdb provides the minimal TMDB API client used to resolve posters.
//
// It authenticates requests with an api_key query parameter and exposes
// movie detail retrieval. Options allow callers to supply a custom HTTP
// client or a shared rate limiter so lookups stay under TMDB's request
// budget.
package tmdb
