package imaging

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// ResizeToMaxPixels scales img down so that width*height does not exceed
// maxPixels, keeping the aspect ratio. Images already within the budget are
// returned unchanged with resized == false.
func ResizeToMaxPixels(img image.Image, maxPixels int) (out image.Image, resized bool, err error) {
	if maxPixels <= 0 {
		return nil, false, fmt.Errorf("max pixels must be positive, got %d", maxPixels)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w*h <= maxPixels {
		return img, false, nil
	}

	ratio := math.Sqrt(float64(maxPixels) / float64(w*h))
	nw := max(int(ratio*float64(w)), 1)
	nh := max(int(ratio*float64(h)), 1)

	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, true, nil
}
