package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"cinematch/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Duplicate title policies for [recommend].duplicate_titles.
const (
	DuplicateTitlesFirst = "first"
	DuplicateTitlesError = "error"
)

// Paths contains file locations and the web server settings. APIRateLimit
// caps /api requests per client IP per minute; 0 disables it.
type Paths struct {
	Catalog      string `toml:"catalog"`
	LogDir       string `toml:"log_dir"`
	APIBind      string `toml:"api_bind"`
	APIRateLimit int    `toml:"api_rate_limit"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	Language          string  `toml:"language"`
	ImageBaseURL      string  `toml:"image_base_url"`
	PlaceholderURL    string  `toml:"placeholder_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// Poster contains the circuit breaker settings for poster resolution.
type Poster struct {
	// BreakerFailureThreshold is the number of consecutive lookup failures
	// that opens the breaker. Zero disables the breaker.
	BreakerFailureThreshold int `toml:"breaker_failure_threshold"`
	// BreakerOpenSeconds is how long the breaker stays open before a probe.
	BreakerOpenSeconds int `toml:"breaker_open_seconds"`
}

// Recommend contains similarity lookup settings.
type Recommend struct {
	Limit           int    `toml:"limit"`
	DuplicateTitles string `toml:"duplicate_titles"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for cinematch.
//
// Configuration sections by subsystem:
//   - Paths: dataset artifact, log directory, and web bind address
//   - TMDB: poster metadata lookups against The Movie Database
//   - Poster: circuit breaker for the poster resolver
//   - Recommend: result size and duplicate title policy
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	TMDB      TMDB      `toml:"tmdb"`
	Poster    Poster    `toml:"poster"`
	Recommend Recommend `toml:"recommend"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cinematch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cinematch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log directory.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// TMDBTimeout returns the HTTP timeout for TMDB requests.
func (c *Config) TMDBTimeout() time.Duration {
	return time.Duration(c.TMDB.TimeoutSeconds) * time.Second
}

// BreakerOpenTimeout returns how long the poster breaker stays open.
func (c *Config) BreakerOpenTimeout() time.Duration {
	return time.Duration(c.Poster.BreakerOpenSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		_, err := io.WriteString(w, sampleConfig)
		return err
	}); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
