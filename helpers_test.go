package vocrecord

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// testObject is an object annotation written by writeVOC.
type testObject struct {
	name string
	box  [4]string // xmin, ymin, xmax, ymax
}

func obj(name string, xmin, ymin, xmax, ymax float64) testObject {
	f := func(v float64) string { return fmt.Sprint(v) }
	return testObject{name: name, box: [4]string{f(xmin), f(ymin), f(xmax), f(ymax)}}
}

// encodeTestImage returns a width x height image encoded as PNG or JPEG, depending on the
// extension of name.
func encodeTestImage(t *testing.T, name string, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		require.NoError(t, png.Encode(&buf, img))
	default:
		require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	}
	return buf.Bytes()
}

// writeTestImage writes an encoded test image to path and returns its bytes.
func writeTestImage(t *testing.T, path string, width, height int) []byte {
	t.Helper()
	data := encodeTestImage(t, path, width, height)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return data
}

// vocXML returns a VOC annotation document for filename with the given objects.
func vocXML(filename string, objects ...testObject) string {
	var b strings.Builder
	b.WriteString("<annotation>\n")
	b.WriteString("  <folder>images</folder>\n")
	fmt.Fprintf(&b, "  <filename>%s</filename>\n", filename)
	for _, o := range objects {
		fmt.Fprintf(&b, "  <object>\n    <name>%s</name>\n    <difficult>0</difficult>\n", o.name)
		fmt.Fprintf(&b, "    <bndbox>\n      <xmin>%s</xmin>\n      <ymin>%s</ymin>\n"+
			"      <xmax>%s</xmax>\n      <ymax>%s</ymax>\n    </bndbox>\n  </object>\n",
			o.box[0], o.box[1], o.box[2], o.box[3])
	}
	b.WriteString("</annotation>\n")
	return b.String()
}

// writeVOC writes a VOC annotation file to path.
func writeVOC(t *testing.T, path string, objects ...testObject) {
	t.Helper()
	doc := vocXML(strings.TrimSuffix(filepath.Base(path), ".xml")+".png", objects...)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
}

func testCatalog(t *testing.T, names ...string) *ClassCatalog {
	t.Helper()
	if len(names) == 0 {
		names = []string{"CPU", "Mesa", "Mouse", "Pantalla", "Silla", "Teclado"}
	}
	c, err := NewClassCatalog(names)
	require.NoError(t, err)
	return c
}

func testLogger() (*logrus.Logger, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

// entriesAt returns the logged messages at level.
func entriesAt(hook *logtest.Hook, level logrus.Level) []string {
	var msgs []string
	for _, e := range hook.AllEntries() {
		if e.Level == level {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

// readAllRecords reads every record of the TFRecord file at path.
func readAllRecords(t *testing.T, path string) []*Record {
	t.Helper()
	var records []*Record
	require.NoError(t, ReadRecords(path, func(r *Record) error {
		records = append(records, r)
		return nil
	}))
	return records
}
