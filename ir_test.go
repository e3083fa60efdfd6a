package vocrecord

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnnotationClampToImage(t *testing.T) {
	tests := []struct {
		name   string
		coords [4]float64
		want   [4]float64
		keep   bool
	}{
		{"inside", [4]float64{10, 20, 30, 40}, [4]float64{10, 20, 30, 40}, true},
		{"swapped", [4]float64{30, 40, 10, 20}, [4]float64{10, 20, 30, 40}, true},
		{"overlapping edges", [4]float64{-5, -5, 120, 60}, [4]float64{0, 0, 100, 50}, true},
		{"outside", [4]float64{110, 10, 150, 20}, [4]float64{100, 10, 100, 20}, false},
		{"zero width", [4]float64{10, 10, 10, 20}, [4]float64{10, 10, 10, 20}, false},
		{"zero height", [4]float64{10, 20, 30, 20}, [4]float64{10, 20, 30, 20}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Annotation{Coords: tt.coords}
			require.Equal(t, tt.keep, a.clampToImage(100, 50))
			require.Equal(t, tt.want, a.Coords)
		})
	}

	nan := Annotation{Coords: [4]float64{math.NaN(), 0, 10, 10}}
	require.False(t, nan.clampToImage(100, 50))
}

func TestAnnotatedFileClampToImage(t *testing.T) {
	f := AnnotatedFile{Annotations: []Annotation{
		{Coords: [4]float64{0, 0, 10, 10}, Label: "CPU"},
		{Coords: [4]float64{200, 200, 300, 300}, Label: "Mesa"},
		{Coords: [4]float64{90, 40, 110, 60}, Label: "Mouse"},
	}}

	dropped := f.clampToImage(100, 50)
	require.Equal(t, []Annotation{{Coords: [4]float64{200, 200, 300, 300}, Label: "Mesa"}}, dropped)
	require.Equal(t, []Annotation{
		{Coords: [4]float64{0, 0, 10, 10}, Label: "CPU"},
		{Coords: [4]float64{90, 40, 100, 50}, Label: "Mouse"},
	}, f.Annotations)
}

func TestAnnotatedFileScaleCoords(t *testing.T) {
	f := AnnotatedFile{Annotations: []Annotation{{Coords: [4]float64{10, 20, 30, 40}}}}
	f.scaleCoords(0.5, 2)
	require.Equal(t, [4]float64{5, 40, 15, 80}, f.Annotations[0].Coords)
}
