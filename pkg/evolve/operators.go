package evolve

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/jgwall/proj-livia/pkg/imaging"
	"github.com/jgwall/proj-livia/pkg/rng"
)

// InitializeRandom creates an image of the given shape filled with uniform
// noise in [0, 1)
func InitializeRandom(shape []int, src rng.Source) imaging.Image {
	img := imaging.New(shape)
	for i := range img.Pix {
		img.Pix[i] = src.Float64()
	}
	return img
}

// Mutate returns a mutated copy of img. Each pixel is picked with
// probability params.Rate and shifted by a Normal(Mean, Stddev) draw, then
// clamped to [0, 1]. img itself is never modified.
func Mutate(img imaging.Image, params MutationParams, src rng.Source) imaging.Image {
	out := img.Clone()
	if params.Rate <= 0 {
		return out
	}
	for i, v := range out.Pix {
		if !src.Bernoulli(params.Rate) {
			continue
		}
		out.Pix[i] = clamp01(v + src.Normal(params.Mean, params.Stddev))
	}
	return out
}

// Fitness scores candidate against target as 1 - mean absolute difference.
// Identical images score 1.
func Fitness(candidate, target imaging.Image) (float64, error) {
	if !candidate.SameShape(target) {
		return 0, fmt.Errorf("%w: candidate %v vs target %v", ErrShapeMismatch, candidate.Shape, target.Shape)
	}
	if target.Len() == 0 {
		return 0, fmt.Errorf("%w: target has no pixels", ErrEmptyInput)
	}
	n := float64(target.Len())
	return (n - floats.Distance(candidate.Pix, target.Pix, 1)) / n, nil
}

// Average returns the element-wise mean of images as a new image.
// The mean is accumulated incrementally, so k copies of one image average
// back to exactly that image.
func Average(images []imaging.Image) (imaging.Image, error) {
	if len(images) == 0 {
		return imaging.Image{}, fmt.Errorf("%w: cannot average zero images", ErrEmptyInput)
	}

	avg := images[0].Clone()
	diff := make([]float64, avg.Len())
	for i, img := range images[1:] {
		if !img.SameShape(avg) {
			return imaging.Image{}, fmt.Errorf("%w: image %d has shape %v, expected %v",
				ErrShapeMismatch, i+1, img.Shape, avg.Shape)
		}
		floats.SubTo(diff, img.Pix, avg.Pix)
		floats.AddScaled(avg.Pix, 1/float64(i+2), diff)
	}
	return avg, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
