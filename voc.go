package vocrecord

// Pascal VOC specific functionality.

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// VOCBndBox is the pixel space bounding box of a VOC object. The values are kept as text, since
// annotation tools write both integer and decimal coordinates.
type VOCBndBox struct {
	XMin string `xml:"xmin"`
	YMin string `xml:"ymin"`
	XMax string `xml:"xmax"`
	YMax string `xml:"ymax"`
}

// VOCObject is a single object annotation within a VOC file.
type VOCObject struct {
	Name   string     `xml:"name"`
	BndBox *VOCBndBox `xml:"bndbox"`
}

// VOCAnnotatedFile defines the VOC annotation structure for a single image.
type VOCAnnotatedFile struct {
	Folder   string      `xml:"folder"`
	Filename string      `xml:"filename"`
	Objects  []VOCObject `xml:"object"`
}

// ErrBadAnnotation is wrapped by all errors about unreadable or malformed annotation files.
var ErrBadAnnotation = errors.New("bad annotation")

// readVOCFile reads and parses the VOC annotation file at path.
//
// The file is first decoded using the encoding from its XML declaration (UTF-8 if undeclared). If
// that fails, it is decoded once more as UTF-8, ignoring the declaration and replacing invalid
// byte sequences.
func readVOCFile(path string) (VOCAnnotatedFile, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		return VOCAnnotatedFile{}, fmt.Errorf("%w: %v", ErrBadAnnotation, err)
	}

	voc, err := decodeVOC(bytes.NewReader(enc), charset.NewReaderLabel)
	if err == nil {
		return voc, nil
	}

	utf8Reader := transform.NewReader(bytes.NewReader(enc),
		unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	voc, retryErr := decodeVOC(utf8Reader, ignoreDeclaredCharset)
	if retryErr != nil {
		return VOCAnnotatedFile{}, fmt.Errorf("%w: failed to parse %q: %v (UTF-8 retry: %v)",
			ErrBadAnnotation, path, err, retryErr)
	}

	return voc, nil
}

// decodeVOC decodes the annotation root element from r.
func decodeVOC(r io.Reader, charsetReader func(string, io.Reader) (io.Reader, error)) (
	VOCAnnotatedFile, error) {

	var voc VOCAnnotatedFile
	d := xml.NewDecoder(r)
	d.CharsetReader = charsetReader
	if err := d.Decode(&voc); err != nil {
		return VOCAnnotatedFile{}, err
	}
	return voc, nil
}

// ignoreDeclaredCharset is an xml.Decoder CharsetReader that passes the input through unchanged.
func ignoreDeclaredCharset(_ string, input io.Reader) (io.Reader, error) {
	return input, nil
}

// toAnnotations converts the VOC objects whose class names are part of catalog to the intermediate
// representation. Objects of other classes are skipped.
func (v VOCAnnotatedFile) toAnnotations(catalog *ClassCatalog) ([]Annotation, error) {
	annotations := make([]Annotation, 0, len(v.Objects))
	for i, obj := range v.Objects {
		name := strings.TrimSpace(obj.Name)
		id, ok := catalog.ID(name)
		if !ok {
			continue
		}

		if obj.BndBox == nil {
			return nil, fmt.Errorf("%w: object %d (%s) has no bndbox", ErrBadAnnotation, i, name)
		}
		a := Annotation{Label: name, ClassID: id}
		values := [4]string{obj.BndBox.XMin, obj.BndBox.YMin, obj.BndBox.XMax, obj.BndBox.YMax}
		for j, s := range values {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: object %d (%s) has an invalid coordinate %q",
					ErrBadAnnotation, i, name, s)
			}
			a.Coords[j] = f
		}

		annotations = append(annotations, a)
	}

	return annotations, nil
}

// FromVOC reads the VOC annotation file at labelPath for the image at imagePath and returns the
// annotations for the classes in catalog.
func FromVOC(labelPath, imagePath string, catalog *ClassCatalog) (AnnotatedFile, error) {
	voc, err := readVOCFile(labelPath)
	if err != nil {
		return AnnotatedFile{}, err
	}

	annotations, err := voc.toAnnotations(catalog)
	if err != nil {
		return AnnotatedFile{}, fmt.Errorf("%s: %w", labelPath, err)
	}

	return AnnotatedFile{Annotations: annotations, FilePath: imagePath, LabelPath: labelPath}, nil
}
