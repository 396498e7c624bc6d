package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizePoster()
	c.normalizeRecommend()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.Catalog) == "" {
		if value, ok := os.LookupEnv("CINEMATCH_CATALOG"); ok {
			c.Paths.Catalog = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Paths.Catalog) == "" {
		c.Paths.Catalog = defaultCatalogPath
	}
	if c.Paths.Catalog, err = expandPath(strings.TrimSpace(c.Paths.Catalog)); err != nil {
		return fmt.Errorf("paths.catalog: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	if c.Paths.APIRateLimit < 0 {
		c.Paths.APIRateLimit = 0
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	c.TMDB.ImageBaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.ImageBaseURL), "/")
	if c.TMDB.ImageBaseURL == "" {
		c.TMDB.ImageBaseURL = defaultTMDBImageBaseURL
	}
	c.TMDB.PlaceholderURL = strings.TrimSpace(c.TMDB.PlaceholderURL)
	if c.TMDB.PlaceholderURL == "" {
		c.TMDB.PlaceholderURL = defaultPlaceholderURL
	}
	if c.TMDB.TimeoutSeconds <= 0 {
		c.TMDB.TimeoutSeconds = defaultTMDBTimeoutSeconds
	}
	if c.TMDB.Burst <= 0 {
		c.TMDB.Burst = defaultTMDBBurst
	}
}

func (c *Config) normalizePoster() {
	if c.Poster.BreakerFailureThreshold < 0 {
		c.Poster.BreakerFailureThreshold = 0
	}
	if c.Poster.BreakerOpenSeconds <= 0 {
		c.Poster.BreakerOpenSeconds = defaultBreakerOpenSeconds
	}
}

func (c *Config) normalizeRecommend() {
	if c.Recommend.Limit <= 0 {
		c.Recommend.Limit = defaultRecommendLimit
	}
	c.Recommend.DuplicateTitles = strings.ToLower(strings.TrimSpace(c.Recommend.DuplicateTitles))
	if c.Recommend.DuplicateTitles == "" {
		c.Recommend.DuplicateTitles = defaultDuplicateTitles
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
