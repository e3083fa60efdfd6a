package vocrecord

// The intermediate annotation metadata representation.

import (
	"fmt"
	"math"
)

// Annotation is the intermediate representation of an object label.
type Annotation struct {
	Coords  [4]float64 // Absolute x1, y1, x2, y2 offsets from the top-left corner.
	Label   string
	ClassID int64 // 1-indexed position of Label in the class catalog.
}

// Width is the object width from a.Coords.
func (a Annotation) Width() float64 {
	return a.Coords[2] - a.Coords[0]
}

// Height is the object height from a.Coords.
func (a Annotation) Height() float64 {
	return a.Coords[3] - a.Coords[1]
}

// String formats the label and the bounding box.
func (a Annotation) String() string {
	return fmt.Sprintf("%s (%g,%g)(%g,%g)", a.Label, a.Coords[0], a.Coords[1], a.Coords[2], a.Coords[3])
}

// clampToImage orders the coordinate pairs so that x1 <= x2 and y1 <= y2 and then clips the box to
// an image of the given width and height.
//
// Returns false if the clipped box has no area left (or the coordinates were not numbers).
func (a *Annotation) clampToImage(width, height int) bool {
	if a.Coords[0] > a.Coords[2] {
		a.Coords[0], a.Coords[2] = a.Coords[2], a.Coords[0]
	}
	if a.Coords[1] > a.Coords[3] {
		a.Coords[1], a.Coords[3] = a.Coords[3], a.Coords[1]
	}

	clamp := func(v, max float64) float64 {
		return math.Min(math.Max(v, 0), max)
	}
	w, h := float64(width), float64(height)
	a.Coords[0] = clamp(a.Coords[0], w)
	a.Coords[1] = clamp(a.Coords[1], h)
	a.Coords[2] = clamp(a.Coords[2], w)
	a.Coords[3] = clamp(a.Coords[3], h)

	return a.Width() > 0 && a.Height() > 0
}

// AnnotatedFile is the intermediate representation of file metadata.
type AnnotatedFile struct {
	Annotations []Annotation // The annotations.
	FilePath    string       // The annotated image.
	LabelPath   string       // The annotation file the annotations were read from.
}

// scaleCoords scales all Annotations.Coords by the given scale factors.
func (f *AnnotatedFile) scaleCoords(width, height float64) {
	for i := range f.Annotations {
		for j := 0; j < 4; j++ {
			if j&1 == 0 {
				f.Annotations[i].Coords[j] *= width
			} else {
				f.Annotations[i].Coords[j] *= height
			}
		}
	}
}

// clampToImage clips all bounding boxes to the image bounds and removes the annotations without
// any area left. The order of the remaining annotations is preserved.
//
// Returns the removed annotations.
func (f *AnnotatedFile) clampToImage(width, height int) (dropped []Annotation) {
	kept := f.Annotations[:0]
	for _, a := range f.Annotations {
		orig := a
		if !a.clampToImage(width, height) {
			dropped = append(dropped, orig)
			continue
		}
		kept = append(kept, a)
	}
	f.Annotations = kept

	return dropped
}
