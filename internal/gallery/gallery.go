// Package gallery pairs ranked recommendations with their poster images and
// lays them out for display.
package gallery

import (
	"context"

	"cinematch/internal/recommend"
)

// DefaultColumns is the number of cards per grid row.
const DefaultColumns = 5

// PosterSource resolves a movie id to an image URL and never fails.
type PosterSource interface {
	Resolve(ctx context.Context, movieID int64) string
}

// Card is a recommendation with its resolved poster.
type Card struct {
	recommend.Recommendation
	PosterURL string `json:"poster_url"`
}

// Build resolves posters one at a time in rank order. If ctx is cancelled
// partway, the remaining cards use fallback as their poster.
func Build(ctx context.Context, recs []recommend.Recommendation, posters PosterSource, fallback string) []Card {
	cards := make([]Card, len(recs))
	for i, rec := range recs {
		cards[i] = Card{Recommendation: rec, PosterURL: fallback}
		if posters == nil || ctx.Err() != nil {
			continue
		}
		cards[i].PosterURL = posters.Resolve(ctx, rec.MovieID)
	}
	return cards
}

// Grid splits cards into rows of columns entries; the last row may be short.
func Grid(cards []Card, columns int) [][]Card {
	if columns <= 0 {
		columns = DefaultColumns
	}
	var rows [][]Card
	for start := 0; start < len(cards); start += columns {
		end := min(start+columns, len(cards))
		rows = append(rows, cards[start:end])
	}
	return rows
}
