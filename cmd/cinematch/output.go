package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printHeading writes a heading and a rule, coloured when out is a terminal.
func printHeading(out io.Writer, heading string) {
	rule := strings.Repeat("-", len([]rune(heading)))
	if shouldColorize(out) {
		heading = text.Colors{text.Bold, text.FgCyan}.Sprint(heading)
		rule = text.FgCyan.Sprint(rule)
	}
	fmt.Fprintln(out, heading)
	fmt.Fprintln(out, rule)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
