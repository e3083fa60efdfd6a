package vocrecord

// TFRecord object detection specific functionality.

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gofrs/flock"
	"github.com/golang/protobuf/proto"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
	"github.com/ryszard/tfutils/proto/tensorflow/core/example" // package tensorflow
)

// Feature keys of the object detection records.
const (
	featureHeight      = "image/height"
	featureWidth       = "image/width"
	featureFilename    = "image/filename"
	featureSourceID    = "image/source_id"
	featureEncoded     = "image/encoded"
	featureFormat      = "image/format"
	featureXMin        = "image/object/bbox/xmin"
	featureXMax        = "image/object/bbox/xmax"
	featureYMin        = "image/object/bbox/ymin"
	featureYMax        = "image/object/bbox/ymax"
	featureClassText   = "image/object/class/text"
	featureClassLabel  = "image/object/class/label"
	numRecordFeatures  = 12
	tempFileSuffix     = ".tmp"
	lockFileSuffix     = ".lock"
	recordBufferKBytes = 256
)

// TFFeatureMap maps feature names to their values. Values must be convertible to
// tensorflow.Feature.
type TFFeatureMap map[string]interface{}

// Record is a single object detection training example. The per object slices are aligned by
// index.
type Record struct {
	Height   int
	Width    int
	Filename string
	SourceID string
	Encoded  []byte
	Format   string // FormatPNG or FormatJPEG.

	XMins       []float32 // Normalised to [0, 1] by the image width.
	XMaxs       []float32
	YMins       []float32 // Normalised to [0, 1] by the image height.
	YMaxs       []float32
	ClassesText []string
	Classes     []int64
}

// NumObjects is the number of annotated objects in the record.
func (r *Record) NumObjects() int {
	return len(r.Classes)
}

// Features returns the feature map of the record.
func (r *Record) Features() TFFeatureMap {
	f := make(TFFeatureMap, numRecordFeatures)
	f[featureHeight] = r.Height
	f[featureWidth] = r.Width
	f[featureFilename] = r.Filename
	f[featureSourceID] = r.SourceID
	f[featureEncoded] = r.Encoded
	f[featureFormat] = r.Format
	f[featureXMin] = r.XMins
	f[featureXMax] = r.XMaxs
	f[featureYMin] = r.YMins
	f[featureYMax] = r.YMaxs
	f[featureClassText] = r.ClassesText
	f[featureClassLabel] = r.Classes
	return f
}

// toTFRecord converts the intermediate representation for a single image to a record. The
// bounding boxes are normalised by the image width and height.
func toTFRecord(fileData AnnotatedFile, name string, width, height int, encoded []byte,
	format string) *Record {

	numLabels := len(fileData.Annotations)
	r := &Record{
		Height:      height,
		Width:       width,
		Filename:    name,
		SourceID:    name,
		Encoded:     encoded,
		Format:      format,
		XMins:       make([]float32, numLabels),
		XMaxs:       make([]float32, numLabels),
		YMins:       make([]float32, numLabels),
		YMaxs:       make([]float32, numLabels),
		ClassesText: make([]string, numLabels),
		Classes:     make([]int64, numLabels),
	}
	for i, a := range fileData.Annotations {
		r.XMins[i] = float32(a.Coords[0] / float64(width))
		r.YMins[i] = float32(a.Coords[1] / float64(height))
		r.XMaxs[i] = float32(a.Coords[2] / float64(width))
		r.YMaxs[i] = float32(a.Coords[3] / float64(height))
		r.ClassesText[i] = a.Label
		r.Classes[i] = a.ClassID
	}

	return r
}

// ErrOutputLocked is returned when another process is writing to the same record file.
var ErrOutputLocked = errors.New("output file is locked by another run")

// RecordWriter does a streaming serialisation of records to a TFRecord file.
//
// Records are written to a temporary file next to the destination, which replaces the destination
// on Close. A lock file guards the destination while the writer is open.
type RecordWriter struct {
	path    string
	tmpPath string
	file    *os.File
	buf     *bufio.Writer
	lock    *flock.Flock
	count   int
}

// NewRecordWriter locks path and opens its temporary file for writing.
func NewRecordWriter(path string) (*RecordWriter, error) {
	lock := flock.New(path + lockFileSuffix)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %q: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, path)
	}

	tmpPath := path + tempFileSuffix
	file, err := os.Create(tmpPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to create %q: %w", tmpPath, err)
	}

	return &RecordWriter{
		path:    path,
		tmpPath: tmpPath,
		file:    file,
		buf:     bufio.NewWriterSize(file, recordBufferKBytes*1024),
		lock:    lock,
	}, nil
}

// Write converts r to a tensorflow.Example and appends it to the file.
func (w *RecordWriter) Write(r *Record) (err error) {
	if w.file == nil {
		return fmt.Errorf("write to closed record file %q", w.path)
	}
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("conversion to TensorFlow Example failed: %v", e)
		}
	}()

	if err := writeTFRecordExample(w.buf, example.New(r.Features())); err != nil {
		return fmt.Errorf("failed to write record for %q: %w", r.Filename, err)
	}
	w.count++
	return nil
}

// Count is the number of records written so far.
func (w *RecordWriter) Count() int {
	return w.count
}

// Path is the destination path of the record file.
func (w *RecordWriter) Path() string {
	return w.path
}

// Close flushes the records, moves the file to its destination and releases the lock.
func (w *RecordWriter) Close() (err error) {
	if w.file == nil {
		return nil
	}
	defer w.unlock(&err)

	err = w.buf.Flush()
	if err == nil {
		err = w.file.Sync()
	}
	closeWithErrCheck(w.file, &err)
	w.file = nil
	if err != nil {
		_ = os.Remove(w.tmpPath)
		return fmt.Errorf("failed to finish %q: %w", w.tmpPath, err)
	}

	if err := os.Rename(w.tmpPath, w.path); err != nil {
		_ = os.Remove(w.tmpPath)
		return fmt.Errorf("failed to move the records to %q: %w", w.path, err)
	}
	return nil
}

// Abort discards everything written so far and releases the lock. The destination is left
// untouched.
func (w *RecordWriter) Abort() (err error) {
	if w.file == nil {
		return nil
	}
	defer w.unlock(&err)

	_ = w.file.Close()
	w.file = nil
	if err := os.Remove(w.tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// unlock releases and removes the lock file. If this fails and (*e == nil), e is set to the error.
func (w *RecordWriter) unlock(e *error) {
	err := w.lock.Unlock()
	if err == nil {
		err = os.Remove(w.lock.Path())
		if errors.Is(err, os.ErrNotExist) {
			err = nil
		}
	}
	if err != nil && *e == nil {
		*e = fmt.Errorf("failed to release the lock for %q: %w", w.path, err)
	}
}

// writeTFRecordExample serialises the example and writes it as a TFRecord to w.
func writeTFRecordExample(w io.Writer, e *tensorflow.Example) error {
	enc, err := proto.Marshal(e)
	if err != nil {
		return err
	}

	return tfrecord.Write(w, enc)
}
