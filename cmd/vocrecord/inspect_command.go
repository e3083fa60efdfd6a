package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sensorable/vocrecord"
)

// recordSummary is the inspect output for a single record.
type recordSummary struct {
	Filename string          `json:"filename"`
	Format   string          `json:"format"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Bytes    int             `json:"bytes"`
	Objects  []objectSummary `json:"objects"`
}

type objectSummary struct {
	Class   string     `json:"class"`
	ClassID int64      `json:"class_id"`
	Box     [4]float32 `json:"box"` // xmin, ymin, xmax, ymax
}

func newInspectCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Summarise the records in a TFRecord file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summaries, err := summariseRecords(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, summaries)
			}

			objects := 0
			for _, s := range summaries {
				objects += len(s.Objects)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderRecords(summaries))
			fmt.Fprintf(out, "%d records, %d objects\n", len(summaries), objects)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")
	return cmd
}

func summariseRecords(path string) ([]recordSummary, error) {
	summaries := make([]recordSummary, 0, 64)
	err := vocrecord.ReadRecords(path, func(r *vocrecord.Record) error {
		s := recordSummary{
			Filename: r.Filename,
			Format:   r.Format,
			Width:    r.Width,
			Height:   r.Height,
			Bytes:    len(r.Encoded),
			Objects:  make([]objectSummary, 0, r.NumObjects()),
		}
		for i := 0; i < r.NumObjects(); i++ {
			o := objectSummary{ClassID: r.Classes[i]}
			if i < len(r.ClassesText) {
				o.Class = r.ClassesText[i]
			}
			if i < len(r.XMins) && i < len(r.YMins) && i < len(r.XMaxs) && i < len(r.YMaxs) {
				o.Box = [4]float32{r.XMins[i], r.YMins[i], r.XMaxs[i], r.YMaxs[i]}
			}
			s.Objects = append(s.Objects, o)
		}
		summaries = append(summaries, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}
