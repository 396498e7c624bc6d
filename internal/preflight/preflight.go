package preflight

import (
	"context"
	"strings"

	"cinematch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional"`
	Detail   string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
// The live TMDB check only runs when an API key is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDatasetReadable("Dataset", cfg.Paths.Catalog),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if strings.TrimSpace(cfg.TMDB.APIKey) == "" {
		results = append(results, Result{
			Name:     "TMDB",
			Optional: true,
			Detail:   "API key missing (placeholder posters only)",
		})
		return results
	}
	results = append(results, CheckTMDB(ctx, cfg.TMDB.BaseURL, cfg.TMDB.APIKey))
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}
