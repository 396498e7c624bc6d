package recommend

import (
	"errors"
	"fmt"
	"strings"

	"cinematch/internal/catalog"
)

var (
	// ErrNotFound matches any *NotFoundError.
	ErrNotFound = errors.New("title not found in catalog")
	// ErrInsufficientData indicates the catalog has no entry besides the query.
	ErrInsufficientData = errors.New("catalog has no other entries to recommend")
	// ErrAmbiguousTitle matches any *AmbiguousTitleError.
	ErrAmbiguousTitle = errors.New("title is ambiguous")
)

// NotFoundError reports a title absent from the catalog, with close matches.
type NotFoundError struct {
	Title       string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("title %q not found in catalog", e.Title)
	if len(e.Suggestions) > 0 {
		msg += " (did you mean: " + strings.Join(e.Suggestions, ", ") + "?)"
	}
	return msg
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AmbiguousTitleError reports a title shared by several catalog entries
// when the duplicate policy forbids picking the first.
type AmbiguousTitleError struct {
	Title   string
	Matches []Match
}

// Match is one catalog entry sharing an ambiguous title.
type Match struct {
	Index   int   `json:"index"`
	MovieID int64 `json:"movie_id"`
}

func (e *AmbiguousTitleError) Error() string {
	ids := make([]string, len(e.Matches))
	for i, m := range e.Matches {
		ids[i] = fmt.Sprintf("%d", m.MovieID)
	}
	return fmt.Sprintf("title %q matches %d catalog entries (movie ids %s)", e.Title, len(e.Matches), strings.Join(ids, ", "))
}

func (e *AmbiguousTitleError) Is(target error) bool { return target == ErrAmbiguousTitle }

func newAmbiguousTitleError(title string, ds *catalog.Dataset, indices []int) *AmbiguousTitleError {
	matches := make([]Match, len(indices))
	for i, idx := range indices {
		matches[i] = Match{Index: idx, MovieID: ds.Movie(idx).MovieID}
	}
	return &AmbiguousTitleError{Title: title, Matches: matches}
}
