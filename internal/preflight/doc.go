// Package preflight provides readiness checks for the files and services
// cinematch depends on.
//
// The CLI "config validate" command prints every result, and "serve" runs
// RunAll before binding so a missing dataset fails fast instead of on the
// first request. TMDB checks are optional: without them posters fall back
// to the placeholder but recommendations still work.
package preflight
