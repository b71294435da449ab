package imaging

import (
	"math"

	"github.com/jgwall/proj-livia/internal/constants"
)

// ToNormalized converts a 0-255 image to the 0-1 working scale
func ToNormalized(d DisplayImage) Image {
	img := Image{
		Shape: append([]int(nil), d.Shape...),
		Pix:   make([]float64, len(d.Pix)),
	}
	for i, v := range d.Pix {
		img.Pix[i] = float64(v) / constants.MaxPixelValue
	}
	return img
}

// ToDisplay converts a 0-1 image back to 0-255.
// Values are scaled by 255 and rounded half to even, so 0.5/255 maps to 0
// and 1.5/255 maps to 2. Out of range values are clamped to [0, 255].
func ToDisplay(img Image) DisplayImage {
	d := DisplayImage{
		Shape: append([]int(nil), img.Shape...),
		Pix:   make([]uint8, len(img.Pix)),
	}
	for i, v := range img.Pix {
		d.Pix[i] = quantize(v)
	}
	return d
}

func quantize(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	scaled := math.RoundToEven(v * constants.MaxPixelValue)
	if scaled < 0 {
		return 0
	}
	if scaled > constants.MaxPixelValue {
		return constants.MaxPixelValue
	}
	return uint8(scaled)
}
