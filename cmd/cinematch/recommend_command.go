package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cinematch/internal/gallery"
	"cinematch/internal/recommend"
)

func newRecommendCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var noPosters bool
	var limit int

	cmd := &cobra.Command{
		Use:   "recommend <title>",
		Short: "Show the movies most similar to a catalog title",
		Long: `Look up a movie by its exact catalog title and list the most similar
entries from the precomputed similarity matrix, with their poster URLs.

Multi-word titles may be quoted or passed as separate arguments.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			title := strings.Join(args, " ")

			rec, err := ctx.newRecommender(cmd.Context(), limit)
			if err != nil {
				return err
			}
			recs, err := rec.Recommend(title)
			if err != nil {
				return explainRecommendError(err)
			}

			var posters gallery.PosterSource
			placeholder := ""
			if !noPosters {
				resolver, err := ctx.newResolver()
				if err != nil {
					return err
				}
				posters = resolver
				placeholder = resolver.Placeholder()
			}
			cards := gallery.Build(cmd.Context(), recs, posters, placeholder)

			if jsonOutput {
				return writeJSON(cmd, recommendationsOutput{Title: strings.TrimSpace(title), Recommendations: cards})
			}

			out := cmd.OutOrStdout()
			printHeading(out, fmt.Sprintf("Because you watched %s", strings.TrimSpace(title)))
			fmt.Fprint(out, renderTable(recommendationColumns(noPosters), recommendationRows(cards, noPosters)))
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noPosters, "no-posters", false, "Skip TMDB poster lookups")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of recommendations (default from config)")
	return cmd
}

type recommendationsOutput struct {
	Title           string         `json:"title"`
	Recommendations []gallery.Card `json:"recommendations"`
}

func recommendationColumns(noPosters bool) []column {
	cols := []column{
		{Header: "#", Numeric: true},
		{Header: "Title", Wrap: titleWrap},
		{Header: "Movie ID", Numeric: true},
		{Header: "Score", Numeric: true},
	}
	if !noPosters {
		cols = append(cols, column{Header: "Poster"})
	}
	return cols
}

func recommendationRows(cards []gallery.Card, noPosters bool) [][]string {
	rows := make([][]string, 0, len(cards))
	for _, card := range cards {
		row := []string{
			strconv.Itoa(card.Rank),
			card.Title,
			strconv.FormatInt(card.MovieID, 10),
			strconv.FormatFloat(card.Score, 'f', 4, 64),
		}
		if !noPosters {
			row = append(row, card.PosterURL)
		}
		rows = append(rows, row)
	}
	return rows
}

// explainRecommendError rewrites lookup failures into CLI guidance.
func explainRecommendError(err error) error {
	var notFound *recommend.NotFoundError
	var ambiguous *recommend.AmbiguousTitleError
	switch {
	case errors.As(err, &notFound):
		msg := fmt.Sprintf("title %q not found in catalog", notFound.Title)
		if len(notFound.Suggestions) > 0 {
			msg += "\nDid you mean:\n  " + strings.Join(notFound.Suggestions, "\n  ")
		} else {
			msg += "; run `cinematch titles <query>` to search"
		}
		return errors.New(msg)
	case errors.As(err, &ambiguous):
		return fmt.Errorf("%w; set recommend.duplicate_titles = \"first\" to use the first entry", err)
	default:
		return err
	}
}
