package recommend

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"cinematch/internal/catalog"
	"cinematch/internal/logging"
	"cinematch/internal/metrics"
	"cinematch/internal/textutil"
)

// DefaultLimit is the number of recommendations returned per lookup.
const DefaultLimit = 10

// maxSuggestions bounds the "did you mean" list on a NotFoundError.
const maxSuggestions = 5

// Duplicate title policies.
const (
	DuplicatesFirst = "first"
	DuplicatesError = "error"
)

// Recommendation is one ranked catalog entry.
type Recommendation struct {
	Rank    int     `json:"rank"`
	Index   int     `json:"index"`
	Title   string  `json:"title"`
	MovieID int64   `json:"movie_id"`
	Score   float64 `json:"score"`
}

// Recommender answers similarity lookups against a Dataset.
type Recommender struct {
	dataset    *catalog.Dataset
	limit      int
	duplicates string
	logger     *slog.Logger
}

// Option configures a Recommender.
type Option func(*Recommender)

// WithLimit sets how many entries a lookup returns. Values <= 0 are ignored.
func WithLimit(limit int) Option {
	return func(r *Recommender) {
		if limit > 0 {
			r.limit = limit
		}
	}
}

// WithDuplicatePolicy selects how repeated titles resolve.
func WithDuplicatePolicy(policy string) Option {
	return func(r *Recommender) {
		r.duplicates = strings.ToLower(strings.TrimSpace(policy))
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recommender) {
		r.logger = logger
	}
}

// New builds a Recommender over ds.
func New(ds *catalog.Dataset, opts ...Option) (*Recommender, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, catalog.ErrEmptyCatalog
	}
	r := &Recommender{
		dataset:    ds,
		limit:      DefaultLimit,
		duplicates: DuplicatesFirst,
	}
	for _, opt := range opts {
		opt(r)
	}
	switch r.duplicates {
	case DuplicatesFirst, DuplicatesError:
	default:
		return nil, fmt.Errorf("unknown duplicate title policy %q", r.duplicates)
	}
	r.logger = logging.NewComponentLogger(r.logger, "recommend")
	return r, nil
}

// Dataset returns the dataset the recommender reads.
func (r *Recommender) Dataset() *catalog.Dataset {
	return r.dataset
}

// Limit returns the configured result size.
func (r *Recommender) Limit() int {
	return r.limit
}

// Lookup resolves title to a catalog index. The match is exact and
// case-sensitive. Input with surrounding whitespace that matches nothing
// as given is retried trimmed. Repeated titles resolve to their first
// position unless the duplicate policy is "error".
func (r *Recommender) Lookup(title string) (int, error) {
	indices := r.dataset.IndicesOf(title)
	if len(indices) == 0 {
		if trimmed := strings.TrimSpace(title); trimmed != title {
			title = trimmed
			indices = r.dataset.IndicesOf(title)
		}
	}
	switch {
	case len(indices) == 0:
		return -1, &NotFoundError{Title: title, Suggestions: r.Suggest(title, maxSuggestions)}
	case len(indices) > 1 && r.duplicates == DuplicatesError:
		return -1, newAmbiguousTitleError(title, r.dataset, indices)
	case len(indices) > 1:
		r.logger.Debug("title appears more than once; using first entry",
			logging.String(logging.FieldTitle, title),
			logging.Int("matches", len(indices)),
			logging.Int("index", indices[0]),
		)
	}
	return indices[0], nil
}

// Recommend returns the entries most similar to title.
func (r *Recommender) Recommend(title string) ([]Recommendation, error) {
	idx, err := r.Lookup(title)
	if err != nil {
		metrics.RecordRecommendation(outcomeFor(err))
		return nil, err
	}
	return r.RecommendIndex(idx)
}

// RecommendIndex returns the entries most similar to the catalog entry at idx.
func (r *Recommender) RecommendIndex(idx int) ([]Recommendation, error) {
	recs, err := r.rank(idx)
	metrics.RecordRecommendation(outcomeFor(err))
	if err != nil {
		return nil, err
	}
	r.logger.Debug("recommendations ranked",
		logging.String(logging.FieldTitle, r.dataset.Movie(idx).Title),
		logging.Int("index", idx),
		logging.Int("results", len(recs)),
	)
	return recs, nil
}

func (r *Recommender) rank(idx int) ([]Recommendation, error) {
	n := r.dataset.Len()
	if idx < 0 || idx >= n {
		return nil, fmt.Errorf("catalog index %d out of range [0,%d)", idx, n)
	}
	if n < 2 {
		return nil, ErrInsufficientData
	}

	order := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != idx {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scoreGreater(r.dataset.Score(idx, order[a]), r.dataset.Score(idx, order[b]))
	})

	limit := min(r.limit, len(order))
	out := make([]Recommendation, limit)
	for rank, pos := range order[:limit] {
		movie := r.dataset.Movie(pos)
		out[rank] = Recommendation{
			Rank:    rank + 1,
			Index:   pos,
			Title:   movie.Title,
			MovieID: movie.MovieID,
			Score:   r.dataset.Score(idx, pos),
		}
	}
	return out, nil
}

// scoreGreater orders scores descending with NaN after every number.
func scoreGreater(a, b float64) bool {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN:
		return false
	case bNaN:
		return true
	default:
		return a > b
	}
}

// Suggest returns up to limit catalog titles close to query, without repeats.
func (r *Recommender) Suggest(query string, limit int) []string {
	titles := r.dataset.Titles()
	seen := make(map[string]struct{})
	var out []string
	for _, idx := range textutil.RankTitles(query, titles, 0) {
		title := titles[idx]
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, title)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrAmbiguousTitle):
		return metrics.OutcomeAmbiguous
	case errors.Is(err, ErrInsufficientData):
		return metrics.OutcomeInsufficient
	default:
		return "error"
	}
}
