package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newPosterCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "poster <movie_id>",
		Short: "Resolve the poster URL for a TMDB movie id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			movieID, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || movieID <= 0 {
				return fmt.Errorf("invalid movie id %q", args[0])
			}
			resolver, err := ctx.newResolver()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resolver.Resolve(cmd.Context(), movieID))
			return nil
		},
	}
}
