package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// titleWrap is the width at which movie titles wrap onto a second line.
const titleWrap = 48

// column describes one rendered table column. Numeric columns are right
// aligned, header included. Wrap > 0 soft-wraps cells at that width.
type column struct {
	Header  string
	Numeric bool
	Wrap    int
}

func textColumns(headers ...string) []column {
	cols := make([]column, len(headers))
	for i, h := range headers {
		cols[i] = column{Header: h}
	}
	return cols
}

func renderTable(cols []column, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, col := range cols {
		header[i] = col.Header
		cfg := table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if col.Numeric {
			cfg.Align = text.AlignRight
			cfg.AlignHeader = text.AlignRight
		}
		if col.Wrap > 0 {
			cfg.WidthMax = col.Wrap
			cfg.WidthMaxEnforcer = text.WrapSoft
		}
		configs[i] = cfg
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
