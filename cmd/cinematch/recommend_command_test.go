package main

import (
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func TestRecommendPrintsTableWithPosters(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"recommend", "Movie", "3"}, env.configPath)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	requireContains(t, out, "Because you watched Movie 3")
	requireContains(t, out, "Movie 0")
	requireContains(t, out, env.cfg.TMDB.ImageBaseURL+"/poster-1000.jpg")
	if strings.Contains(out, "│ Movie 3 ") {
		t.Fatalf("query title listed as its own recommendation:\n%s", out)
	}
	if got := env.stub.Hits(); got != 10 {
		t.Fatalf("expected 10 poster lookups, got %d", got)
	}
}

func TestRecommendJSONWithoutPosters(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"recommend", "Movie 11", "--json", "--no-posters", "--limit", "3"}, env.configPath)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	var payload struct {
		Title           string `json:"title"`
		Recommendations []struct {
			Rank      int    `json:"rank"`
			Title     string `json:"title"`
			PosterURL string `json:"poster_url"`
		} `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if payload.Title != "Movie 11" || len(payload.Recommendations) != 3 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	for i, want := range []string{"Movie 0", "Movie 1", "Movie 2"} {
		if payload.Recommendations[i].Title != want || payload.Recommendations[i].PosterURL != "" {
			t.Fatalf("recommendation %d = %+v", i, payload.Recommendations[i])
		}
	}
	if env.stub.Hits() != 0 {
		t.Fatalf("--no-posters should not call TMDB, saw %d requests", env.stub.Hits())
	}
}

func TestRecommendUnknownTitleSuggests(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"recommend", "movie 4"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown title")
	}
	requireContains(t, err.Error(), `"movie 4" not found`)
	requireContains(t, err.Error(), "Did you mean")
	requireContains(t, err.Error(), "Movie 4")
}

func TestRecommendMissingKeyFallsBackToPlaceholder(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.TMDB.APIKey = ""
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"recommend", "Movie 0", "--limit", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if got := strings.Count(out, env.cfg.TMDB.PlaceholderURL); got != 2 {
		t.Fatalf("expected 2 placeholder posters, got %d:\n%s", got, out)
	}
	if env.stub.Hits() != 0 {
		t.Fatalf("expected no TMDB requests without a key, saw %d", env.stub.Hits())
	}
}

func TestPosterCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"poster", "1005"}, env.configPath)
	if err != nil {
		t.Fatalf("poster: %v", err)
	}
	if strings.TrimSpace(out) != env.cfg.TMDB.ImageBaseURL+"/poster-1005.jpg" {
		t.Fatalf("poster = %q", out)
	}

	out, _, err = runCLI(t, []string{"poster", "42"}, env.configPath)
	if err != nil {
		t.Fatalf("poster: %v", err)
	}
	if strings.TrimSpace(out) != env.cfg.TMDB.PlaceholderURL {
		t.Fatalf("expected placeholder for unknown id, got %q", out)
	}

	if _, _, err := runCLI(t, []string{"poster", "abc"}, env.configPath); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestTitlesSearch(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"titles", "--limit", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("titles: %v", err)
	}
	requireContains(t, out, "Movie 11")

	out, _, err = runCLI(t, []string{"titles", "movie 7", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("titles search: %v", err)
	}
	var entries []struct {
		Title   string `json:"title"`
		MovieID int64  `json:"movie_id"`
	}
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) == 0 || entries[0].Title != "Movie 7" || entries[0].MovieID != 1007 {
		t.Fatalf("unexpected search result %+v", entries)
	}
}
