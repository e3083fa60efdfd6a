package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sensorable/vocrecord"
)

// newTable returns a rounded table writer with the given header. Columns listed in numeric are
// right aligned.
func newTable(header table.Row, numeric ...int) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(header)

	configs := make([]table.ColumnConfig, 0, len(numeric))
	for _, column := range numeric {
		configs = append(configs, table.ColumnConfig{
			Number:      column,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw
}

// renderStats renders the statistics of a conversion run as a single row table.
func renderStats(stats vocrecord.Stats) string {
	tw := newTable(table.Row{"Images", "Records", "Objects", "Dropped boxes", "No annotation",
		"Bad image", "Bad annotation", "No known class"}, 1, 2, 3, 4, 5, 6, 7, 8)
	tw.AppendRow(table.Row{stats.Images, stats.Records, stats.Objects, stats.DroppedObjects,
		stats.MissingAnnotation, stats.BadImages, stats.BadAnnotations, stats.NoObjects})
	return tw.Render()
}

// renderRecords renders one row per record with its classes.
func renderRecords(summaries []recordSummary) string {
	tw := newTable(table.Row{"File", "Format", "Size", "Objects", "Classes"}, 3, 4)
	for _, s := range summaries {
		classes := make([]string, len(s.Objects))
		for i, o := range s.Objects {
			classes[i] = fmt.Sprintf("%s(%d)", o.Class, o.ClassID)
		}
		tw.AppendRow(table.Row{
			s.Filename,
			s.Format,
			fmt.Sprintf("%dx%d", s.Width, s.Height),
			len(s.Objects),
			strings.Join(classes, ", "),
		})
	}
	return tw.Render()
}
