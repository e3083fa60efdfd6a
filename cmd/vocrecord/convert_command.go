package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/sensorable/vocrecord"
	"github.com/sensorable/vocrecord/internal/logging"
)

func runConvert(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.logger()
	if err != nil {
		return err
	}
	catalog, err := ctx.catalog()
	if err != nil {
		return err
	}

	log := logging.WithRunID(logger)
	if ctx.cfgExists {
		log.WithField("config", ctx.cfgPath).Info("Loaded configuration")
	}

	converter, err := vocrecord.NewConverter(vocrecord.Options{
		ImageDir:      cfg.Paths.ImageDir,
		AnnotationDir: cfg.Paths.AnnotationDir,
		OutputPath:    cfg.Paths.OutputFile,
		LabelMapPath:  cfg.Paths.LabelMapFile,
		Catalog:       catalog,
		Image: vocrecord.ImageOptions{
			ResizeLonger:       cfg.Image.ResizeLonger,
			DownsamplingFilter: cfg.Image.DownsampleFilter,
			UpsamplingFilter:   cfg.Image.UpsampleFilter,
			JPEGQuality:        cfg.Image.JPEGQuality,
		},
	}, log)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	if stderrIsTerminal() {
		bar = progressbar.NewOptions(0,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Processing images"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		converter.SetProgress(bar)
	}

	runCtx := cmd.Context()
	stats, err := converter.Run(runCtx)
	if bar != nil {
		if err := bar.Finish(); err != nil {
			log.WithError(err).Debug("Failed to finish the progress bar")
		}
	}
	if err != nil {
		if runCtx.Err() != nil {
			return context.Canceled
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderStats(stats))
	fmt.Fprintf(out, "TFRecord written to %s\n", cfg.Paths.OutputFile)
	return nil
}

func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
