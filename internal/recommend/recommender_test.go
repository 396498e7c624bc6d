package recommend_test

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"cinematch/internal/catalog"
	"cinematch/internal/recommend"
	"cinematch/internal/testsupport"
)

func mustRecommender(t *testing.T, ds *catalog.Dataset, opts ...recommend.Option) *recommend.Recommender {
	t.Helper()
	r, err := recommend.New(ds, opts...)
	if err != nil {
		t.Fatalf("recommend.New: %v", err)
	}
	return r
}

func indices(recs []recommend.Recommendation) []int {
	out := make([]int, len(recs))
	for i, rec := range recs {
		out[i] = rec.Index
	}
	return out
}

func TestRecommendSmallCatalogExample(t *testing.T) {
	ds := testsupport.MustDataset(t,
		[]catalog.Movie{{Title: "A", MovieID: 1}, {Title: "B", MovieID: 2}, {Title: "C", MovieID: 3}},
		[][]float64{{1.0, 0.5, 0.9}, {0.5, 1.0, 0.2}, {0.9, 0.2, 1.0}},
	)
	recs, err := mustRecommender(t, ds).Recommend("A")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	want := []recommend.Recommendation{
		{Rank: 1, Index: 2, Title: "C", MovieID: 3, Score: 0.9},
		{Rank: 2, Index: 1, Title: "B", MovieID: 2, Score: 0.5},
	}
	if !reflect.DeepEqual(recs, want) {
		t.Fatalf("Recommend(A) = %+v, want %+v", recs, want)
	}
}

func TestRecommendReturnsTenExcludingQuery(t *testing.T) {
	ds := testsupport.DecreasingDataset(t, 25)
	r := mustRecommender(t, ds)

	for _, idx := range []int{0, 3, 12, 24} {
		title := ds.Movie(idx).Title
		recs, err := r.Recommend(title)
		if err != nil {
			t.Fatalf("Recommend(%q): %v", title, err)
		}
		if len(recs) != 10 {
			t.Fatalf("Recommend(%q) returned %d entries", title, len(recs))
		}
		for i, rec := range recs {
			if rec.Index == idx {
				t.Fatalf("Recommend(%q) included the query index", title)
			}
			if rec.Rank != i+1 {
				t.Fatalf("unexpected rank %d at position %d", rec.Rank, i)
			}
			if i > 0 && rec.Score > recs[i-1].Score {
				t.Fatalf("scores not non-increasing: %v", recs)
			}
		}
	}
}

func TestRecommendDecreasingRowYieldsAscendingIndices(t *testing.T) {
	ds := testsupport.DecreasingDataset(t, 15)
	r := mustRecommender(t, ds)

	recs, err := r.RecommendIndex(4)
	if err != nil {
		t.Fatalf("RecommendIndex: %v", err)
	}
	want := []int{0, 1, 2, 3, 5, 6, 7, 8, 9, 10}
	if got := indices(recs); !reflect.DeepEqual(got, want) {
		t.Fatalf("indices = %v, want %v", got, want)
	}
}

func TestRecommendTiesKeepCatalogOrder(t *testing.T) {
	ds := testsupport.MustDataset(t,
		[]catalog.Movie{{Title: "Q", MovieID: 1}, {Title: "W", MovieID: 2}, {Title: "E", MovieID: 3}, {Title: "R", MovieID: 4}},
		[][]float64{{0.5, 0.5, 0.7, 0.5}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}},
	)
	recs, err := mustRecommender(t, ds).Recommend("Q")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if got := indices(recs); !reflect.DeepEqual(got, []int{2, 1, 3}) {
		t.Fatalf("indices = %v, want [2 1 3]", got)
	}
}

func TestRecommendExcludesQueryEvenWhenOutscored(t *testing.T) {
	ds := testsupport.MustDataset(t,
		[]catalog.Movie{{Title: "A", MovieID: 1}, {Title: "B", MovieID: 2}, {Title: "C", MovieID: 3}},
		[][]float64{{0.1, 0.9, 0.8}, {0.9, 1, 0}, {0.8, 0, 1}},
	)
	recs, err := mustRecommender(t, ds).Recommend("A")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if got := indices(recs); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("indices = %v, want [1 2]", got)
	}
}

func TestRecommendSortsNaNLast(t *testing.T) {
	nan := math.NaN()
	ds := testsupport.MustDataset(t,
		[]catalog.Movie{{Title: "A", MovieID: 1}, {Title: "B", MovieID: 2}, {Title: "C", MovieID: 3}, {Title: "D", MovieID: 4}},
		[][]float64{{1, nan, 0.1, 0.3}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}},
	)
	recs, err := mustRecommender(t, ds).Recommend("A")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if got := indices(recs); !reflect.DeepEqual(got, []int{3, 2, 1}) {
		t.Fatalf("indices = %v, want [3 2 1]", got)
	}
}

func TestRecommendUnknownTitle(t *testing.T) {
	ds := testsupport.MustDataset(t,
		[]catalog.Movie{{Title: "The Dark Knight", MovieID: 155}, {Title: "Avatar", MovieID: 19995}},
		[][]float64{{1, 0}, {0, 1}},
	)
	_, err := mustRecommender(t, ds).Recommend("dark knight")
	if !errors.Is(err, recommend.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var notFound *recommend.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *NotFoundError, got %T", err)
	}
	if !reflect.DeepEqual(notFound.Suggestions, []string{"The Dark Knight"}) {
		t.Fatalf("unexpected suggestions %v", notFound.Suggestions)
	}
}

func TestRecommendTrimsButMatchesCase(t *testing.T) {
	ds := testsupport.DecreasingDataset(t, 3)
	r := mustRecommender(t, ds)
	if _, err := r.Recommend("  Movie 1 "); err != nil {
		t.Fatalf("expected trimmed match, got %v", err)
	}
	if _, err := r.Recommend("movie 1"); !errors.Is(err, recommend.ErrNotFound) {
		t.Fatalf("expected case-sensitive miss, got %v", err)
	}
}

func TestRecommendMatchesPaddedCatalogTitle(t *testing.T) {
	ds := testsupport.MustDataset(t,
		[]catalog.Movie{{Title: "Alien ", MovieID: 1}, {Title: "B", MovieID: 2}, {Title: "C", MovieID: 3}},
		[][]float64{{1.0, 0.4, 0.8}, {0.4, 1.0, 0.3}, {0.8, 0.3, 1.0}},
	)
	r := mustRecommender(t, ds)

	recs, err := r.Recommend("Alien ")
	if err != nil {
		t.Fatalf("Recommend(%q): %v", "Alien ", err)
	}
	if got := indices(recs); !reflect.DeepEqual(got, []int{2, 1}) {
		t.Fatalf("indices = %v, want [2 1]", got)
	}
	if _, err := r.Recommend("Alien"); !errors.Is(err, recommend.ErrNotFound) {
		t.Fatalf("expected unpadded title to miss, got %v", err)
	}
	if idx, err := r.Lookup(" B "); err != nil || idx != 1 {
		t.Fatalf("Lookup(%q) = %d, %v; want trimmed fallback to index 1", " B ", idx, err)
	}
}

func TestRecommendSingleEntryCatalog(t *testing.T) {
	ds := testsupport.MustDataset(t, []catalog.Movie{{Title: "Solo", MovieID: 1}}, [][]float64{{1}})
	if _, err := mustRecommender(t, ds).Recommend("Solo"); !errors.Is(err, recommend.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestDuplicateTitlePolicies(t *testing.T) {
	ds := testsupport.MustDataset(t,
		[]catalog.Movie{{Title: "Dup", MovieID: 10}, {Title: "X", MovieID: 11}, {Title: "Dup", MovieID: 12}},
		[][]float64{{1, 0.2, 0.7}, {0.2, 1, 0.1}, {0.9, 0.3, 1}},
	)

	first := mustRecommender(t, ds)
	idx, err := first.Lookup("Dup")
	if err != nil || idx != 0 {
		t.Fatalf("Lookup with first policy = %d, %v", idx, err)
	}
	recs, err := first.Recommend("Dup")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if got := indices(recs); !reflect.DeepEqual(got, []int{2, 1}) {
		t.Fatalf("indices = %v, want [2 1]", got)
	}

	strict := mustRecommender(t, ds, recommend.WithDuplicatePolicy(recommend.DuplicatesError))
	_, err = strict.Recommend("Dup")
	var ambiguous *recommend.AmbiguousTitleError
	if !errors.As(err, &ambiguous) || !errors.Is(err, recommend.ErrAmbiguousTitle) {
		t.Fatalf("expected AmbiguousTitleError, got %v", err)
	}
	want := []recommend.Match{{Index: 0, MovieID: 10}, {Index: 2, MovieID: 12}}
	if !reflect.DeepEqual(ambiguous.Matches, want) {
		t.Fatalf("unexpected matches %v", ambiguous.Matches)
	}
	if _, err := strict.Recommend("X"); err != nil {
		t.Fatalf("unique title should still resolve: %v", err)
	}
}

func TestWithLimit(t *testing.T) {
	ds := testsupport.DecreasingDataset(t, 20)
	recs, err := mustRecommender(t, ds, recommend.WithLimit(3)).RecommendIndex(0)
	if err != nil {
		t.Fatalf("RecommendIndex: %v", err)
	}
	if got := indices(recs); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("indices = %v", got)
	}
}

func TestNewRejectsUnknownPolicy(t *testing.T) {
	ds := testsupport.DecreasingDataset(t, 2)
	if _, err := recommend.New(ds, recommend.WithDuplicatePolicy("last")); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestRecommendIndexOutOfRange(t *testing.T) {
	ds := testsupport.DecreasingDataset(t, 2)
	if _, err := mustRecommender(t, ds).RecommendIndex(5); err == nil {
		t.Fatal("expected out of range error")
	}
}
