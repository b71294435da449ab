package imaging

import (
	"fmt"
)

// Image is a grid of normalized pixel values in [0, 1] stored row-major.
// Shape is [height, width] for grayscale or [height, width, channels].
type Image struct {
	Shape []int
	Pix   []float64
}

// DisplayImage is the 0-255 integer representation of an Image
type DisplayImage struct {
	Shape []int
	Pix   []uint8
}

// ShapeLen returns the number of elements described by shape
func ShapeLen(shape []int) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// ValidateShape rejects empty shapes and non-positive dimensions
func ValidateShape(shape []int) error {
	if len(shape) < 2 {
		return fmt.Errorf("image shape needs at least 2 dimensions, got %v", shape)
	}
	for _, d := range shape {
		if d <= 0 {
			return fmt.Errorf("image shape has non-positive dimension: %v", shape)
		}
	}
	return nil
}

// New creates a zero-valued image with the given shape
func New(shape []int) Image {
	return Image{
		Shape: append([]int(nil), shape...),
		Pix:   make([]float64, ShapeLen(shape)),
	}
}

// FromPix wraps pix as an image, checking that its length matches shape
func FromPix(shape []int, pix []float64) (Image, error) {
	if err := ValidateShape(shape); err != nil {
		return Image{}, err
	}
	if len(pix) != ShapeLen(shape) {
		return Image{}, fmt.Errorf("pixel count %d does not match shape %v", len(pix), shape)
	}
	return Image{Shape: append([]int(nil), shape...), Pix: pix}, nil
}

// Len returns the number of elements in the image
func (img Image) Len() int {
	return len(img.Pix)
}

// Clone returns a deep copy that shares no storage with img
func (img Image) Clone() Image {
	return Image{
		Shape: append([]int(nil), img.Shape...),
		Pix:   append([]float64(nil), img.Pix...),
	}
}

// SameShape reports whether both images have identical dimensions
func (img Image) SameShape(other Image) bool {
	return sameShape(img.Shape, other.Shape)
}

// NewDisplay creates a black display image with the given shape
func NewDisplay(shape []int) DisplayImage {
	return DisplayImage{
		Shape: append([]int(nil), shape...),
		Pix:   make([]uint8, ShapeLen(shape)),
	}
}

// FromRows builds a grayscale display image from a 2D grid.
// All rows must have the same length.
func FromRows(rows [][]uint8) (DisplayImage, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return DisplayImage{}, fmt.Errorf("cannot build image from empty grid")
	}
	h, w := len(rows), len(rows[0])
	d := NewDisplay([]int{h, w})
	for y, row := range rows {
		if len(row) != w {
			return DisplayImage{}, fmt.Errorf("row %d has %d columns, expected %d", y, len(row), w)
		}
		copy(d.Pix[y*w:(y+1)*w], row)
	}
	return d, nil
}

// Len returns the number of elements in the image
func (d DisplayImage) Len() int {
	return len(d.Pix)
}

// Height returns the number of rows
func (d DisplayImage) Height() int {
	return d.Shape[0]
}

// Width returns the number of columns
func (d DisplayImage) Width() int {
	return d.Shape[1]
}

// Channels returns 1 for grayscale images, otherwise the trailing dimension
func (d DisplayImage) Channels() int {
	if len(d.Shape) < 3 {
		return 1
	}
	return d.Shape[2]
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
