package imaging

import (
	"image"
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToNormalized(t *testing.T) {
	d, err := FromRows([][]uint8{{0, 255}, {51, 102}})
	require.NoError(t, err)

	img := ToNormalized(d)
	assert.Equal(t, []int{2, 2}, img.Shape)
	assert.Equal(t, []float64{0, 1, 0.2, 0.4}, img.Pix)
}

func TestToDisplayRounds(t *testing.T) {
	img, err := FromPix([]int{1, 5}, []float64{0, 0.25, 0.5, 0.75, 1})
	require.NoError(t, err)

	d := ToDisplay(img)
	assert.Equal(t, []uint8{0, 64, 128, 191, 255}, d.Pix)
}

func TestToDisplayClamps(t *testing.T) {
	img, err := FromPix([]int{1, 4}, []float64{-0.3, 1.7, math.NaN(), 1})
	require.NoError(t, err)

	d := ToDisplay(img)
	assert.Equal(t, []uint8{0, 255, 0, 255}, d.Pix)
}

func TestCodecRoundTrip(t *testing.T) {
	pix := make([]float64, 64)
	for i := range pix {
		pix[i] = float64(i) / 63
	}
	img, err := FromPix([]int{8, 8}, pix)
	require.NoError(t, err)

	back := ToNormalized(ToDisplay(img))
	require.Equal(t, img.Shape, back.Shape)
	for i := range pix {
		assert.InDelta(t, pix[i], back.Pix[i], 1.0/255)
	}
}

func TestImageCloneDoesNotAlias(t *testing.T) {
	img := New([]int{2, 3})
	clone := img.Clone()
	clone.Pix[0] = 0.9
	clone.Shape[0] = 7

	assert.Equal(t, 0.0, img.Pix[0])
	assert.Equal(t, 2, img.Shape[0])
}

func TestFromPixValidation(t *testing.T) {
	_, err := FromPix([]int{2, 2}, []float64{1, 2, 3})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "does not match shape")

	_, err = FromPix([]int{4}, []float64{1, 2, 3, 4})
	assert.Error(t, err)

	_, err = FromPix([]int{2, 0}, nil)
	assert.Error(t, err)
}

func TestFromRowsRagged(t *testing.T) {
	_, err := FromRows([][]uint8{{1, 2}, {3}})
	assert.Error(t, err)

	_, err = FromRows(nil)
	assert.Error(t, err)
}

func TestGrayscaleImageConversion(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 2))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 40)
	}

	d := FromImage(src, true)
	assert.Equal(t, []int{2, 3}, d.Shape)
	assert.Equal(t, src.Pix, d.Pix)

	out, err := d.ToImage()
	require.NoError(t, err)
	gray, ok := out.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, src.Pix, gray.Pix)
}

func TestColorImageConversion(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	d := FromImage(src, false)
	assert.Equal(t, []int{1, 2, 3}, d.Shape)
	assert.Equal(t, []uint8{10, 20, 30, 200, 100, 50}, d.Pix)

	out, err := d.ToImage()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 50, A: 255}, out.At(1, 0))
}

func TestToImageRejectsBadShape(t *testing.T) {
	d := NewDisplay([]int{2, 2, 2})
	_, err := d.ToImage()
	assert.Error(t, err)

	d = NewDisplay([]int{2, 2, 3, 1})
	_, err = d.ToImage()
	assert.Error(t, err)
}

func TestResizeToMaxPixels(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 100, 50))

	tests := []struct {
		name      string
		maxPixels int
		resized   bool
		maxArea   int
	}{
		{name: "already small", maxPixels: 5000, resized: false, maxArea: 5000},
		{name: "larger budget", maxPixels: 10000, resized: false, maxArea: 5000},
		{name: "shrink", maxPixels: 50, resized: true, maxArea: 50},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out, resized, err := ResizeToMaxPixels(src, test.maxPixels)
			require.NoError(t, err)
			assert.Equal(t, test.resized, resized)
			b := out.Bounds()
			assert.LessOrEqual(t, b.Dx()*b.Dy(), test.maxArea)
			assert.Greater(t, b.Dx(), b.Dy())
		})
	}

	_, _, err := ResizeToMaxPixels(src, 0)
	assert.Error(t, err)
	_, _, err = ResizeToMaxPixels(src, -3)
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	d, err := FromRows([][]uint8{{0, 64}, {128, 255}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "img.png")
	require.NoError(t, SaveDisplay(path, d))

	loaded, err := LoadTarget(path, true, 0)
	require.NoError(t, err)
	assert.Equal(t, d.Shape, loaded.Shape)
	assert.Equal(t, d.Pix, loaded.Pix)

	_, err = Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	err = SaveDisplay(filepath.Join(t.TempDir(), "img.bmp"), d)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported image extension")
}
