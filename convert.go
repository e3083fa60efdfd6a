package vocrecord

// The conversion run from image and annotation directories to a TFRecord file.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Options configures a conversion run.
type Options struct {
	ImageDir      string        // The input directory with the images.
	AnnotationDir string        // The input directory with the VOC annotation files.
	OutputPath    string        // The TFRecord output file.
	LabelMapPath  string        // Optional label map output file.
	Catalog       *ClassCatalog // The classes to keep.
	Image         ImageOptions
}

// Progress is advanced by one for every processed image. *progressbar.ProgressBar implements it.
type Progress interface {
	ChangeMax(max int)
	Add(num int) error
}

// Stats summarises a conversion run.
type Stats struct {
	Images            int // Image files found.
	Records           int // Records written.
	Objects           int // Objects written.
	DroppedObjects    int // Objects removed by bounding box validation.
	MissingAnnotation int // Images without an annotation file.
	BadImages         int // Unreadable or corrupt images.
	BadAnnotations    int // Unreadable or malformed annotation files.
	NoObjects         int // Images without any object of a known class.
}

// Skipped is the number of images that did not produce a record.
func (s Stats) Skipped() int {
	return s.MissingAnnotation + s.BadImages + s.BadAnnotations + s.NoObjects
}

// Converter converts a directory of images and VOC annotations into a TFRecord file.
type Converter struct {
	opts     Options
	builder  *Builder
	log      logrus.FieldLogger
	progress Progress
}

// NewConverter validates opts and returns a Converter.
func NewConverter(opts Options, log logrus.FieldLogger) (*Converter, error) {
	if opts.ImageDir == "" || opts.AnnotationDir == "" || opts.OutputPath == "" {
		return nil, fmt.Errorf("missing image, annotation or output path")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	builder, err := NewBuilder(opts.Catalog, opts.Image, log)
	if err != nil {
		return nil, err
	}

	return &Converter{opts: opts, builder: builder, log: log}, nil
}

// SetProgress sets the progress reporter for subsequent runs.
func (c *Converter) SetProgress(p Progress) {
	c.progress = p
}

// Run converts all images with a matching annotation file and writes the records to the output
// file.
//
// Problems with individual images are logged and the image is skipped. A missing input directory
// fails the run before any output is created. If the run fails or ctx is cancelled, a previously
// existing record file is left untouched. The label map is written before the record file is
// moved into place.
func (c *Converter) Run(ctx context.Context) (stats Stats, err error) {
	// Fail fast if an input directory is missing.
	for _, dir := range []string{c.opts.ImageDir, c.opts.AnnotationDir} {
		if err := requireDir(dir); err != nil {
			return stats, err
		}
	}

	imageFiles, err := filesByExtInDir(c.opts.ImageDir, imageExtensions...)
	if err != nil {
		return stats, err
	}
	c.log.WithFields(logrus.Fields{
		"images": len(imageFiles),
		"output": c.opts.OutputPath,
	}).Info("Creating the TFRecord file")
	c.log.WithField("classes", c.opts.Catalog.Names()).Debug("Using the class catalog")

	if err := os.MkdirAll(filepath.Dir(c.opts.OutputPath), 0o755); err != nil {
		return stats, fmt.Errorf("failed to create the output directory: %w", err)
	}
	w, err := NewRecordWriter(c.opts.OutputPath)
	if err != nil {
		return stats, err
	}
	defer func() {
		if err != nil {
			if abortErr := w.Abort(); abortErr != nil {
				c.log.WithError(abortErr).Warn("Failed to discard the incomplete record file")
			}
		}
	}()

	if c.progress != nil {
		c.progress.ChangeMax(len(imageFiles))
	}
	droppedBefore := c.builder.Dropped()
	for _, imagePath := range imageFiles {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.Images++
		if err := c.convertImage(w, imagePath, &stats); err != nil {
			return stats, err
		}
		if c.progress != nil {
			if err := c.progress.Add(1); err != nil {
				c.log.WithError(err).Debug("Failed to update the progress")
			}
		}
	}
	stats.DroppedObjects = c.builder.Dropped() - droppedBefore
	stats.Records = w.Count()

	if c.opts.LabelMapPath != "" {
		if err := os.MkdirAll(filepath.Dir(c.opts.LabelMapPath), 0o755); err != nil {
			return stats, fmt.Errorf("failed to create the label map directory: %w", err)
		}
		if err := c.opts.Catalog.SaveLabelMap(c.opts.LabelMapPath); err != nil {
			return stats, err
		}
	}

	if err := w.Close(); err != nil {
		return stats, err
	}

	c.log.WithFields(logrus.Fields{
		"records": stats.Records,
		"objects": stats.Objects,
		"skipped": stats.Skipped(),
		"output":  w.Path(),
	}).Info("Successfully wrote the TFRecord file")

	return stats, nil
}

// convertImage builds and writes the record for the image at imagePath. Only write errors are
// returned, all other problems are logged and counted in stats.
func (c *Converter) convertImage(w *RecordWriter, imagePath string, stats *Stats) error {
	log := c.log.WithField("image", imagePath)

	labelPath, err := annotationPathFor(imagePath, c.opts.AnnotationDir)
	if err != nil {
		stats.MissingAnnotation++
		log.WithError(err).Warn("Cannot derive the annotation file name, skipping")
		return nil
	}
	found, err := fileExists(labelPath)
	if err != nil || !found {
		stats.MissingAnnotation++
		log.WithField("annotation", labelPath).
			Warn("Annotation file not found, check that image and annotation names match; skipping")
		return nil
	}

	rec, err := c.builder.Build(imagePath, labelPath)
	switch {
	case errors.Is(err, ErrBadImage):
		stats.BadImages++
		log.WithError(err).Error("Failed to load the image, skipping")
		return nil
	case err != nil:
		stats.BadAnnotations++
		log.WithError(err).WithField("annotation", labelPath).
			Error("Failed to load the annotations, skipping")
		return nil
	case rec == nil:
		stats.NoObjects++
		log.Debug("No objects of known classes, skipping")
		return nil
	}

	if err := w.Write(rec); err != nil {
		return err
	}
	stats.Objects += rec.NumObjects()
	log.WithField("objects", rec.NumObjects()).Debug("Wrote record")

	return nil
}
