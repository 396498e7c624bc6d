// Package poster maps TMDB movie ids to displayable poster image URLs.
//
// Resolve never fails: a missing poster_path, a transport error, a non-200
// response, malformed JSON or an open circuit breaker all yield the
// configured placeholder image. Lookups are not cached and not retried.
package poster
