package vocrecord

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// ImageOptions configures the optional image processing while building records.
type ImageOptions struct {
	ResizeLonger       int    // Target length of the longer image side; zero keeps the image as is.
	DownsamplingFilter string // {nearest, box, linear, gaussian, lanczos}
	UpsamplingFilter   string // {nearest, box, linear, gaussian, lanczos}
	JPEGQuality        int    // JPEG quality for re-encoded JPEG images [1, 100].
}

// DefaultImageOptions keeps images unchanged. NewBuilder takes empty filters and a zero JPEG
// quality from here.
func DefaultImageOptions() ImageOptions {
	return ImageOptions{
		DownsamplingFilter: "box",
		UpsamplingFilter:   "linear",
		JPEGQuality:        90,
	}
}

// Builder converts pairs of images and VOC annotation files into records.
type Builder struct {
	catalog    *ClassCatalog
	opts       ImageOptions
	downsample imaging.ResampleFilter
	upsample   imaging.ResampleFilter
	log        logrus.FieldLogger

	dropped int // Objects removed by bounding box validation.
}

// NewBuilder returns a Builder for the classes in catalog.
func NewBuilder(catalog *ClassCatalog, opts ImageOptions, log logrus.FieldLogger) (*Builder, error) {
	if catalog == nil {
		return nil, fmt.Errorf("missing class catalog")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	def := DefaultImageOptions()
	if opts.DownsamplingFilter == "" {
		opts.DownsamplingFilter = def.DownsamplingFilter
	}
	if opts.UpsamplingFilter == "" {
		opts.UpsamplingFilter = def.UpsamplingFilter
	}
	if opts.JPEGQuality == 0 {
		opts.JPEGQuality = def.JPEGQuality
	}

	b := &Builder{catalog: catalog, opts: opts, log: log}
	if opts.ResizeLonger > 0 {
		var err error
		if b.downsample, err = resampleFilter(opts.DownsamplingFilter); err != nil {
			return nil, err
		}
		if b.upsample, err = resampleFilter(opts.UpsamplingFilter); err != nil {
			return nil, err
		}
		if opts.JPEGQuality < 1 || opts.JPEGQuality > 100 {
			return nil, fmt.Errorf("invalid JPEG quality %d", opts.JPEGQuality)
		}
	}

	return b, nil
}

// Dropped is the number of objects removed so far because their bounding boxes had no area inside
// the image.
func (b *Builder) Dropped() int {
	return b.dropped
}

// Build reads the image at imagePath and its annotations at labelPath and returns the record.
//
// Returns a nil record and a nil error if none of the annotated objects belongs to a class of the
// catalog. Errors wrap ErrBadImage or ErrBadAnnotation.
func (b *Builder) Build(imagePath, labelPath string) (*Record, error) {
	// Read the image data and get the image width and height.
	imgData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %q: %v", ErrBadImage, imagePath, err)
	}
	img, _, err := decodeImageConfig(imgData)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode the metadata of %q: %v", ErrBadImage, imagePath, err)
	}

	fileData, err := FromVOC(labelPath, imagePath, b.catalog)
	if err != nil {
		return nil, err
	}

	for _, a := range fileData.clampToImage(img.Width, img.Height) {
		b.dropped++
		b.log.WithFields(logrus.Fields{
			"image":  imagePath,
			"object": a.String(),
		}).Warn("Dropping an object with a bounding box outside the image")
	}
	if len(fileData.Annotations) == 0 {
		return nil, nil
	}

	width, height := img.Width, img.Height
	format := formatTag(imagePath)
	if b.opts.ResizeLonger > 0 && max(width, height) != b.opts.ResizeLonger {
		var scaleWidth, scaleHeight float64
		imgData, scaleWidth, scaleHeight, err = b.resize(imgData, format)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to resize %q: %v", ErrBadImage, imagePath, err)
		}
		fileData.scaleCoords(scaleWidth, scaleHeight)
		width = int(math.Round(float64(width) * scaleWidth))
		height = int(math.Round(float64(height) * scaleHeight))
	}

	return toTFRecord(fileData, filepath.Base(imagePath), width, height, imgData, format), nil
}

// resize resamples the encoded image so that its longer side matches the configured length and
// returns it encoded in format, along with the width and height scale factors.
func (b *Builder) resize(data []byte, format string) (
	resized []byte, scaleWidth, scaleHeight float64, err error) {

	img, err := loadImage(data)
	if err != nil {
		return nil, 0, 0, err
	}
	img, scaleWidth, scaleHeight, err = resizeImage(img, b.opts.ResizeLonger, 0, b.downsample,
		b.upsample)
	if err != nil {
		return nil, 0, 0, err
	}
	if resized, err = encodeImage(img, format, b.opts.JPEGQuality); err != nil {
		return nil, 0, 0, err
	}

	return resized, scaleWidth, scaleHeight, nil
}
