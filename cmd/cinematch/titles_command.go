package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cinematch/internal/textutil"
)

func newTitlesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var limit int

	cmd := &cobra.Command{
		Use:   "titles [query]",
		Short: "List catalog titles or fuzzy-search them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := ctx.loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			titles := ds.Titles()
			query := strings.TrimSpace(strings.Join(args, " "))

			indices := make([]int, 0, len(titles))
			if query == "" {
				for i := range titles {
					indices = append(indices, i)
				}
				if limit > 0 && len(indices) > limit {
					indices = indices[:limit]
				}
			} else {
				indices = textutil.RankTitles(query, titles, limit)
			}

			if jsonOutput {
				out := make([]titleEntry, 0, len(indices))
				for _, idx := range indices {
					movie := ds.Movie(idx)
					out = append(out, titleEntry{Index: idx, Title: movie.Title, MovieID: movie.MovieID})
				}
				return writeJSON(cmd, out)
			}

			if len(indices) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No titles match %q\n", query)
				return nil
			}
			rows := make([][]string, 0, len(indices))
			for _, idx := range indices {
				movie := ds.Movie(idx)
				rows = append(rows, []string{strconv.Itoa(idx), movie.Title, strconv.FormatInt(movie.MovieID, 10)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				{Header: "Index", Numeric: true},
				{Header: "Title", Wrap: titleWrap},
				{Header: "Movie ID", Numeric: true},
			}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum titles to show (0 for all)")
	return cmd
}

type titleEntry struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	MovieID int64  `json:"movie_id"`
}
