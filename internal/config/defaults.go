package config

const (
	defaultCatalogPath             = "~/.local/share/cinematch/movie_data.json"
	defaultLogDir                  = "~/.local/share/cinematch/logs"
	defaultAPIBind                 = "127.0.0.1:8501"
	defaultAPIRateLimit            = 300
	defaultTMDBLanguage            = "en-US"
	defaultTMDBBaseURL             = "https://api.themoviedb.org/3"
	defaultTMDBImageBaseURL        = "https://image.tmdb.org/t/p/w500"
	defaultPlaceholderURL          = "https://via.placeholder.com/500x750?text=No+Image+Available"
	defaultTMDBTimeoutSeconds      = 10
	defaultTMDBRequestsPerSecond   = 40
	defaultTMDBBurst               = 10
	defaultBreakerFailureThreshold = 5
	defaultBreakerOpenSeconds      = 30
	defaultRecommendLimit          = 10
	defaultDuplicateTitles         = DuplicateTitlesFirst
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Catalog:      defaultCatalogPath,
			LogDir:       defaultLogDir,
			APIBind:      defaultAPIBind,
			APIRateLimit: defaultAPIRateLimit,
		},
		TMDB: TMDB{
			BaseURL:           defaultTMDBBaseURL,
			Language:          defaultTMDBLanguage,
			ImageBaseURL:      defaultTMDBImageBaseURL,
			PlaceholderURL:    defaultPlaceholderURL,
			TimeoutSeconds:    defaultTMDBTimeoutSeconds,
			RequestsPerSecond: defaultTMDBRequestsPerSecond,
			Burst:             defaultTMDBBurst,
		},
		Poster: Poster{
			BreakerFailureThreshold: defaultBreakerFailureThreshold,
			BreakerOpenSeconds:      defaultBreakerOpenSeconds,
		},
		Recommend: Recommend{
			Limit:           defaultRecommendLimit,
			DuplicateTitles: defaultDuplicateTitles,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
