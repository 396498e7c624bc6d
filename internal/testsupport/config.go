package testsupport

import (
	"path/filepath"
	"testing"

	"cinematch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.TMDB.APIKey = "test"
	cfgVal.Paths.Catalog = filepath.Join(base, "movie_data.json")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.TMDB.RequestsPerSecond = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithTMDBKey sets the TMDB API key on the test config.
func WithTMDBKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.APIKey = key
	}
}

// WithTMDBBaseURL points TMDB lookups at a stub server.
func WithTMDBBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.BaseURL = url
	}
}

// WithCatalogPath overrides the dataset path relative to the test base dir
// when name is not absolute.
func WithCatalogPath(name string) ConfigOption {
	return func(b *configBuilder) {
		if filepath.IsAbs(name) {
			b.cfg.Paths.Catalog = name
			return
		}
		b.cfg.Paths.Catalog = filepath.Join(b.baseDir, name)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
