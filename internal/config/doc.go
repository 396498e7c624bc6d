// Package config loads, normalizes, and validates cinematch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY. The Config type centralizes every knob the CLI and web server
// need, so the dataset location, TMDB credentials, and poster fallbacks are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
