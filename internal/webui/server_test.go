package webui_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"cinematch/internal/catalog"
	"cinematch/internal/recommend"
	"cinematch/internal/testsupport"
	"cinematch/internal/webui"
)

const placeholder = "https://example.com/placeholder.png"

type fakePosters struct {
	calls []int64
}

func (f *fakePosters) Resolve(_ context.Context, movieID int64) string {
	f.calls = append(f.calls, movieID)
	return fmt.Sprintf("https://img.example.com/%d.jpg", movieID)
}

func newTestServer(t *testing.T, ds *catalog.Dataset, opts ...recommend.Option) (*httptest.Server, *fakePosters) {
	t.Helper()
	rec, err := recommend.New(ds, opts...)
	if err != nil {
		t.Fatalf("recommend.New: %v", err)
	}
	posters := &fakePosters{}
	srv, err := webui.New(rec, posters, webui.Options{Placeholder: placeholder})
	if err != nil {
		t.Fatalf("webui.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, posters
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func TestRecommendationsReturnsTenCardsInRankOrder(t *testing.T) {
	ts, posters := newTestServer(t, testsupport.DecreasingDataset(t, 12))

	resp, body := get(t, ts.URL+"/api/recommendations?title=Movie+3")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	var payload struct {
		Title           string `json:"title"`
		Recommendations []struct {
			Rank      int    `json:"rank"`
			Title     string `json:"title"`
			MovieID   int64  `json:"movie_id"`
			PosterURL string `json:"poster_url"`
		} `json:"recommendations"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Recommendations) != 10 {
		t.Fatalf("expected 10 cards, got %d", len(payload.Recommendations))
	}
	wantTitles := []string{"Movie 0", "Movie 1", "Movie 2", "Movie 4", "Movie 5"}
	for i, want := range wantTitles {
		card := payload.Recommendations[i]
		if card.Title != want || card.Rank != i+1 {
			t.Fatalf("card %d = %+v, want %s", i, card, want)
		}
	}
	for _, card := range payload.Recommendations {
		if card.Title == "Movie 3" {
			t.Fatal("query title must not be recommended")
		}
		if card.PosterURL != fmt.Sprintf("https://img.example.com/%d.jpg", card.MovieID) {
			t.Fatalf("unexpected poster %q", card.PosterURL)
		}
	}
	if len(posters.calls) != 10 || posters.calls[0] != 1000 {
		t.Fatalf("expected posters resolved in rank order, got %v", posters.calls)
	}
}

func TestRecommendationsStatusCodes(t *testing.T) {
	dup := testsupport.MustDataset(t,
		[]catalog.Movie{{Title: "Twin", MovieID: 1}, {Title: "Twin", MovieID: 2}, {Title: "Other", MovieID: 3}},
		[][]float64{{1, 0.5, 0.2}, {0.5, 1, 0.3}, {0.2, 0.3, 1}},
	)
	single := testsupport.MustDataset(t, []catalog.Movie{{Title: "Solo", MovieID: 1}}, [][]float64{{1}})

	tests := []struct {
		name   string
		ds     *catalog.Dataset
		opts   []recommend.Option
		query  string
		status int
	}{
		{"missing title", testsupport.DecreasingDataset(t, 3), nil, "", http.StatusBadRequest},
		{"unknown title", testsupport.DecreasingDataset(t, 3), nil, "title=Nope", http.StatusNotFound},
		{"ambiguous", dup, []recommend.Option{recommend.WithDuplicatePolicy(recommend.DuplicatesError)}, "title=Twin", http.StatusConflict},
		{"duplicate first", dup, nil, "title=Twin", http.StatusOK},
		{"insufficient", single, nil, "title=Solo", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, tt.ds, tt.opts...)
			resp, body := get(t, ts.URL+"/api/recommendations?"+tt.query)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, tt.status, body)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
				t.Fatalf("content type = %q", ct)
			}
		})
	}
}

func TestRecommendationsNotFoundCarriesSuggestions(t *testing.T) {
	ds := testsupport.MustDataset(t,
		[]catalog.Movie{{Title: "Avatar", MovieID: 19995}, {Title: "Avengers", MovieID: 24428}, {Title: "Up", MovieID: 14160}},
		[][]float64{{1, 0.4, 0.1}, {0.4, 1, 0.2}, {0.1, 0.2, 1}},
	)
	ts, _ := newTestServer(t, ds)

	resp, body := get(t, ts.URL+"/api/recommendations?title=avatar")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var payload struct {
		Error       string   `json:"error"`
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Suggestions) == 0 || payload.Suggestions[0] != "Avatar" {
		t.Fatalf("expected Avatar suggested first, got %v", payload.Suggestions)
	}
}

func TestTitlesListAndSearch(t *testing.T) {
	ds := testsupport.MustDataset(t,
		[]catalog.Movie{{Title: "The Dark Knight", MovieID: 155}, {Title: "Inception", MovieID: 27205}, {Title: "Interstellar", MovieID: 157336}},
		[][]float64{{1, 0.5, 0.4}, {0.5, 1, 0.6}, {0.4, 0.6, 1}},
	)
	ts, _ := newTestServer(t, ds)

	var all struct {
		Titles []string `json:"titles"`
	}
	_, body := get(t, ts.URL+"/api/titles")
	if err := json.Unmarshal(body, &all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Join(all.Titles, "|") != "The Dark Knight|Inception|Interstellar" {
		t.Fatalf("titles = %v", all.Titles)
	}

	var search struct {
		Titles []string `json:"titles"`
	}
	_, body = get(t, ts.URL+"/api/titles?q=knight")
	if err := json.Unmarshal(body, &search); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(search.Titles) == 0 || search.Titles[0] != "The Dark Knight" {
		t.Fatalf("search = %v", search.Titles)
	}

	resp, _ := get(t, ts.URL+"/api/titles?q=in&limit=zero")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", resp.StatusCode)
	}
}

func TestRequestIDEchoedOrGenerated(t *testing.T) {
	ts, _ := newTestServer(t, testsupport.DecreasingDataset(t, 3))

	resp, _ := get(t, ts.URL+"/api/health")
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected generated request id")
	}

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/health", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("request id = %q", got)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts, _ := newTestServer(t, testsupport.DecreasingDataset(t, 4))

	resp, body := get(t, ts.URL+"/api/health")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"movies":4`) {
		t.Fatalf("health = %d %s", resp.StatusCode, body)
	}

	resp, body = get(t, ts.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "cinematch_http_requests_total") {
		t.Fatal("expected http request counter in metrics output")
	}
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	ts, _ := newTestServer(t, testsupport.DecreasingDataset(t, 3))
	resp, body := get(t, ts.URL+"/nope")
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(string(body), `"error"`) {
		t.Fatalf("got %d %s", resp.StatusCode, body)
	}
}

func TestIndexRendersPickerAndGrid(t *testing.T) {
	ts, _ := newTestServer(t, testsupport.DecreasingDataset(t, 12))

	resp, body := get(t, ts.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	page := string(body)
	if !strings.Contains(page, "<select") || !strings.Contains(page, "Show Recommendations") {
		t.Fatal("expected title picker and button")
	}
	if strings.Contains(page, `class="grid"`) {
		t.Fatal("grid should not render without a selection")
	}

	_, body = get(t, ts.URL+"/?title=Movie+0")
	page = string(body)
	if got := strings.Count(page, `class="grid"`); got != 2 {
		t.Fatalf("expected 2 grid rows, got %d", got)
	}
	if got := strings.Count(page, "<img "); got != 10 {
		t.Fatalf("expected 10 posters, got %d", got)
	}
	if !strings.Contains(page, `<option value="Movie 0" selected>`) {
		t.Fatal("expected the queried title to stay selected")
	}
}

func TestIndexFindsPaddedCatalogTitle(t *testing.T) {
	ds := testsupport.MustDataset(t,
		[]catalog.Movie{{Title: "Alien ", MovieID: 1}, {Title: "B", MovieID: 2}, {Title: "C", MovieID: 3}},
		[][]float64{{1.0, 0.4, 0.8}, {0.4, 1.0, 0.3}, {0.8, 0.3, 1.0}},
	)
	ts, _ := newTestServer(t, ds)

	resp, body := get(t, ts.URL+"/?title=Alien+")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if got := strings.Count(string(body), "<img "); got != 2 {
		t.Fatalf("expected 2 posters, got %d", got)
	}
	if !strings.Contains(string(body), `<option value="Alien " selected>`) {
		t.Fatal("expected the padded title to stay selected")
	}

	resp, body = get(t, ts.URL+"/api/recommendations?title=Alien+")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("api status = %d: %s", resp.StatusCode, body)
	}
}

func TestIndexUnknownTitleShowsSuggestions(t *testing.T) {
	ts, _ := newTestServer(t, testsupport.DecreasingDataset(t, 5))
	resp, body := get(t, ts.URL+"/?title=movie+2")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Did you mean") {
		t.Fatal("expected suggestions on the page")
	}
}

func TestNilPosterSourceUsesPlaceholder(t *testing.T) {
	rec, err := recommend.New(testsupport.DecreasingDataset(t, 3))
	if err != nil {
		t.Fatal(err)
	}
	srv, err := webui.New(rec, nil, webui.Options{Placeholder: placeholder})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	_, body := get(t, ts.URL+"/api/recommendations?title=Movie+0")
	if strings.Count(string(body), placeholder) != 2 {
		t.Fatalf("expected placeholder on both cards: %s", body)
	}
}

func TestRunHoldsLockAndStopsOnCancel(t *testing.T) {
	lockDir := t.TempDir()
	rec, err := recommend.New(testsupport.DecreasingDataset(t, 3))
	if err != nil {
		t.Fatal(err)
	}
	first, err := webui.New(rec, nil, webui.Options{Bind: "127.0.0.1:0", LockDir: lockDir})
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- first.Serve(ctx) }()

	resp, _ := get(t, "http://"+first.Addr()+"/api/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}

	second, err := webui.New(rec, nil, webui.Options{Bind: "127.0.0.1:0", LockDir: lockDir})
	if err != nil {
		t.Fatal(err)
	}
	if err := second.Listen(); !errors.Is(err, webui.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop after cancel")
	}

	if err := second.Listen(); err != nil {
		t.Fatalf("expected lock released after shutdown: %v", err)
	}
	stopCtx, stop := context.WithCancel(context.Background())
	stop()
	if err := second.Serve(stopCtx); err != nil {
		t.Fatalf("Serve: %v", err)
	}
}

func TestAPIRateLimitRejectsExcessRequests(t *testing.T) {
	rec, err := recommend.New(testsupport.DecreasingDataset(t, 3))
	if err != nil {
		t.Fatal(err)
	}
	srv, err := webui.New(rec, nil, webui.Options{RateLimit: 2})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	for i := 0; i < 2; i++ {
		if resp, _ := get(t, ts.URL+"/api/health"); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d status = %d", i, resp.StatusCode)
		}
	}
	resp, body := get(t, ts.URL+"/api/health")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if !strings.Contains(string(body), "rate limit exceeded") {
		t.Fatalf("unexpected body %s", body)
	}
	if resp, _ := get(t, ts.URL+"/"); resp.StatusCode != http.StatusOK {
		t.Fatalf("page should not be rate limited, got %d", resp.StatusCode)
	}
}
