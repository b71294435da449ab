package imaging

import (
	"fmt"
	"image"
	"image/color"
)

// FromImage converts a decoded image into a display image.
// With grayscale set the result has shape [h, w] using the luma conversion of
// color.GrayModel; otherwise it has shape [h, w, 3] and alpha is dropped.
func FromImage(src image.Image, grayscale bool) DisplayImage {
	b := src.Bounds()
	h, w := b.Dy(), b.Dx()

	if grayscale {
		d := NewDisplay([]int{h, w})
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g := color.GrayModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				d.Pix[y*w+x] = g.Y
			}
		}
		return d
	}

	d := NewDisplay([]int{h, w, 3})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			off := (y*w + x) * 3
			d.Pix[off] = c.R
			d.Pix[off+1] = c.G
			d.Pix[off+2] = c.B
		}
	}
	return d
}

// ToImage converts a display image into a standard library image.
// Shapes [h, w] and [h, w, 1] become *image.Gray; [h, w, 3] and [h, w, 4]
// become *image.NRGBA.
func (d DisplayImage) ToImage() (image.Image, error) {
	if err := ValidateShape(d.Shape); err != nil {
		return nil, err
	}
	if len(d.Shape) > 3 {
		return nil, fmt.Errorf("unsupported image shape: %v", d.Shape)
	}

	h, w, c := d.Height(), d.Width(), d.Channels()
	rect := image.Rect(0, 0, w, h)

	switch c {
	case 1:
		out := image.NewGray(rect)
		for y := 0; y < h; y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+w], d.Pix[y*w:(y+1)*w])
		}
		return out, nil
	case 3, 4:
		out := image.NewNRGBA(rect)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				in := (y*w + x) * c
				o := y*out.Stride + x*4
				out.Pix[o] = d.Pix[in]
				out.Pix[o+1] = d.Pix[in+1]
				out.Pix[o+2] = d.Pix[in+2]
				if c == 4 {
					out.Pix[o+3] = d.Pix[in+3]
				} else {
					out.Pix[o+3] = 0xff
				}
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported channel count %d", c)
	}
}
