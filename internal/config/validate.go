package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validatePoster(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.Catalog) == "" {
		return errors.New("paths.catalog must be set")
	}
	return nil
}

// validateTMDB accepts an empty api key: the resolver then serves the
// placeholder for every poster, and preflight reports the missing key.
func (c *Config) validateTMDB() error {
	for key, value := range map[string]string{
		"tmdb.base_url":        c.TMDB.BaseURL,
		"tmdb.image_base_url":  c.TMDB.ImageBaseURL,
		"tmdb.placeholder_url": c.TMDB.PlaceholderURL,
	} {
		parsed, err := url.Parse(value)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", key, value)
		}
	}
	if _, err := language.Parse(c.TMDB.Language); err != nil {
		return fmt.Errorf("tmdb.language must be a BCP 47 tag such as en-US, got %q", c.TMDB.Language)
	}
	if c.TMDB.TimeoutSeconds <= 0 {
		return errors.New("tmdb.timeout_seconds must be positive")
	}
	if c.TMDB.RequestsPerSecond < 0 {
		return errors.New("tmdb.requests_per_second must be >= 0 (0 disables the limiter)")
	}
	return nil
}

func (c *Config) validatePoster() error {
	if c.Poster.BreakerFailureThreshold > 0 && c.Poster.BreakerOpenSeconds <= 0 {
		return errors.New("poster.breaker_open_seconds must be positive when the breaker is enabled")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if c.Recommend.Limit <= 0 {
		return errors.New("recommend.limit must be positive")
	}
	switch c.Recommend.DuplicateTitles {
	case DuplicateTitlesFirst, DuplicateTitlesError:
	default:
		return fmt.Errorf("recommend.duplicate_titles must be %q or %q, got %q",
			DuplicateTitlesFirst, DuplicateTitlesError, c.Recommend.DuplicateTitles)
	}
	return nil
}
