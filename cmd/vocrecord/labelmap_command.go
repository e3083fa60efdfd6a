package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newLabelMapCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "labelmap [path]",
		Short: "Write the label map for the configured classes",
		Long: "Write the class catalog as a TF object detection label map. Without a path the map is" +
			" printed, or written to paths.label_map_file when it is configured.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			catalog, err := ctx.catalog()
			if err != nil {
				return err
			}

			target := cfg.Paths.LabelMapFile
			if len(args) == 1 {
				target = filepath.Clean(args[0])
			}
			if target == "" {
				return catalog.WriteLabelMap(cmd.OutOrStdout())
			}

			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create label map directory: %w", err)
			}
			if err := catalog.SaveLabelMap(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote label map with %d classes to %s\n", catalog.Len(), target)
			return nil
		},
	}
}
