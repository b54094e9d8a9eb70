package main

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// renderKeyValues renders two-column rows, styled when writer is a terminal.
func renderKeyValues(writer io.Writer, title string, rows [][2]string) string {
	tw := table.NewWriter()
	if shouldColorize(writer) {
		tw.SetStyle(table.StyleRounded)
		tw.Style().Title.Colors = text.Colors{text.Bold}
	} else {
		tw.SetStyle(table.StyleDefault)
	}
	tw.SetTitle(title)
	for _, r := range rows {
		tw.AppendRow(table.Row{r[0], r[1]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
	})
	return tw.Render()
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
