package vocrecord

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type countingProgress struct {
	max   int
	added int
	err   error
}

func (p *countingProgress) ChangeMax(max int) { p.max = max }

func (p *countingProgress) Add(num int) error {
	p.added += num
	return p.err
}

// newTestDirs creates the image and annotation directories and returns the conversion options
// with the output under a directory that does not exist yet.
func newTestDirs(t *testing.T) Options {
	t.Helper()
	root := t.TempDir()
	opts := Options{
		ImageDir:      filepath.Join(root, "images"),
		AnnotationDir: filepath.Join(root, "annotations"),
		OutputPath:    filepath.Join(root, "out", "train.record"),
		LabelMapPath:  filepath.Join(root, "out", "label_map.pbtxt"),
		Catalog:       testCatalog(t),
		Image:         DefaultImageOptions(),
	}
	require.NoError(t, os.Mkdir(opts.ImageDir, 0o755))
	require.NoError(t, os.Mkdir(opts.AnnotationDir, 0o755))
	return opts
}

func TestConverterRun(t *testing.T) {
	opts := newTestDirs(t)
	img := func(name string) string { return filepath.Join(opts.ImageDir, name) }
	ann := func(name string) string { return filepath.Join(opts.AnnotationDir, name) }

	writeTestImage(t, img("b.jpg"), 64, 32)
	writeVOC(t, ann("b.xml"), obj("CPU", 0, 0, 32, 16), obj("Teclado", 32, 16, 64, 32))
	writeTestImage(t, img("a.png"), 100, 100)
	writeVOC(t, ann("a.xml"), obj("Mesa", 10, 10, 20, 20))
	writeTestImage(t, img("c.png"), 10, 10) // No annotation file.
	require.NoError(t, os.WriteFile(img("d.png"), []byte("corrupt"), 0o644))
	writeVOC(t, ann("d.xml"), obj("CPU", 1, 1, 2, 2))
	writeTestImage(t, img("e.png"), 10, 10)
	writeVOC(t, ann("e.xml"), obj("Lamp", 1, 1, 2, 2))
	writeTestImage(t, img("f.png"), 10, 10)
	require.NoError(t, os.WriteFile(ann("f.xml"), []byte("<annotation>"), 0o644))
	require.NoError(t, os.WriteFile(img("notes.txt"), []byte("ignored"), 0o644))

	log, hook := testLogger()
	c, err := NewConverter(opts, log)
	require.NoError(t, err)
	progress := &countingProgress{}
	c.SetProgress(progress)

	stats, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Stats{
		Images:            6,
		Records:           2,
		Objects:           3,
		MissingAnnotation: 1,
		BadImages:         1,
		BadAnnotations:    1,
		NoObjects:         1,
	}, stats)
	require.Equal(t, 4, stats.Skipped())
	require.Equal(t, 6, progress.max)
	require.Equal(t, 6, progress.added)

	records := readAllRecords(t, opts.OutputPath)
	require.Len(t, records, 2)
	require.Equal(t, "a.png", records[0].Filename)
	require.Equal(t, []int64{2}, records[0].Classes)
	require.Equal(t, "b.jpg", records[1].Filename)
	require.Equal(t, FormatJPEG, records[1].Format)
	require.Equal(t, []string{"CPU", "Teclado"}, records[1].ClassesText)

	labelMap, err := os.ReadFile(opts.LabelMapPath)
	require.NoError(t, err)
	require.Contains(t, string(labelMap), "item {\n  id: 6\n  name: \"Teclado\"\n}\n")

	entries, err := os.ReadDir(filepath.Dir(opts.OutputPath))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.ElementsMatch(t, []string{"train.record", "label_map.pbtxt"}, names)

	require.Contains(t, entriesAt(hook, logrus.WarnLevel),
		"Annotation file not found, check that image and annotation names match; skipping")
}

func TestConverterRunMissingInputDir(t *testing.T) {
	for _, missing := range []string{"images", "annotations"} {
		t.Run(missing, func(t *testing.T) {
			opts := newTestDirs(t)
			if missing == "images" {
				require.NoError(t, os.Remove(opts.ImageDir))
			} else {
				require.NoError(t, os.Remove(opts.AnnotationDir))
			}

			c, err := NewConverter(opts, nil)
			require.NoError(t, err)
			_, err = c.Run(context.Background())
			require.ErrorIs(t, err, ErrMissingInputDir)

			_, err = os.Stat(filepath.Dir(opts.OutputPath))
			require.True(t, os.IsNotExist(err), "no output is created")
		})
	}
}

func TestConverterRunEmptyDirectory(t *testing.T) {
	opts := newTestDirs(t)
	log, _ := testLogger()
	c, err := NewConverter(opts, log)
	require.NoError(t, err)

	stats, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Stats{}, stats)

	info, err := os.Stat(opts.OutputPath)
	require.NoError(t, err)
	require.Zero(t, info.Size())
}

func TestConverterRunCancelledKeepsPreviousOutput(t *testing.T) {
	opts := newTestDirs(t)
	writeTestImage(t, filepath.Join(opts.ImageDir, "a.png"), 10, 10)
	writeVOC(t, filepath.Join(opts.AnnotationDir, "a.xml"), obj("CPU", 1, 1, 5, 5))
	require.NoError(t, os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755))
	require.NoError(t, os.WriteFile(opts.OutputPath, []byte("previous"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	log, _ := testLogger()
	c, err := NewConverter(opts, log)
	require.NoError(t, err)
	_, err = c.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	data, err := os.ReadFile(opts.OutputPath)
	require.NoError(t, err)
	require.Equal(t, "previous", string(data))
	_, err = os.Stat(opts.OutputPath + tempFileSuffix)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(opts.LabelMapPath)
	require.True(t, os.IsNotExist(err))
}

func TestConverterRunLabelMapFailureKeepsPreviousOutput(t *testing.T) {
	opts := newTestDirs(t)
	writeTestImage(t, filepath.Join(opts.ImageDir, "a.png"), 10, 10)
	writeVOC(t, filepath.Join(opts.AnnotationDir, "a.xml"), obj("CPU", 1, 1, 5, 5))
	require.NoError(t, os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755))
	require.NoError(t, os.WriteFile(opts.OutputPath, []byte("previous"), 0o644))

	// The label map directory is a regular file.
	blocker := filepath.Join(filepath.Dir(opts.OutputPath), "maps")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	opts.LabelMapPath = filepath.Join(blocker, "label_map.pbtxt")

	log, _ := testLogger()
	c, err := NewConverter(opts, log)
	require.NoError(t, err)
	_, err = c.Run(context.Background())
	require.ErrorContains(t, err, "failed to create the label map directory")

	data, err := os.ReadFile(opts.OutputPath)
	require.NoError(t, err)
	require.Equal(t, "previous", string(data))
	_, err = os.Stat(opts.OutputPath + tempFileSuffix)
	require.True(t, os.IsNotExist(err))
}

func TestConverterRunIgnoresProgressErrors(t *testing.T) {
	opts := newTestDirs(t)
	writeTestImage(t, filepath.Join(opts.ImageDir, "a.png"), 10, 10)
	writeVOC(t, filepath.Join(opts.AnnotationDir, "a.xml"), obj("CPU", 1, 1, 5, 5))

	log, hook := testLogger()
	c, err := NewConverter(opts, log)
	require.NoError(t, err)
	c.SetProgress(&countingProgress{err: errors.New("closed")})

	stats, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.Records)
	require.Contains(t, entriesAt(hook, logrus.DebugLevel), "Failed to update the progress")
}

func TestConverterRunLockedOutput(t *testing.T) {
	opts := newTestDirs(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755))

	lock := flock.New(opts.OutputPath + lockFileSuffix)
	locked, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = lock.Unlock() }()

	log, _ := testLogger()
	c, err := NewConverter(opts, log)
	require.NoError(t, err)
	_, err = c.Run(context.Background())
	require.ErrorIs(t, err, ErrOutputLocked)

	_, err = os.Stat(opts.OutputPath)
	require.True(t, os.IsNotExist(err))
}

func TestNewConverterRequiresPaths(t *testing.T) {
	_, err := NewConverter(Options{ImageDir: "images", Catalog: testCatalog(t)}, nil)
	require.Error(t, err)

	_, err = NewConverter(Options{ImageDir: "a", AnnotationDir: "b", OutputPath: "c"}, nil)
	require.ErrorContains(t, err, "missing class catalog")
}
