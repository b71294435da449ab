package imaging

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// Load decodes an image file in any registered format (png, jpeg, gif)
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// LoadTarget loads an image file and returns it in display representation,
// shrunk to at most maxPixels pixels when maxPixels is positive.
func LoadTarget(path string, grayscale bool, maxPixels int) (DisplayImage, error) {
	img, err := Load(path)
	if err != nil {
		return DisplayImage{}, err
	}
	if maxPixels > 0 {
		img, _, err = ResizeToMaxPixels(img, maxPixels)
		if err != nil {
			return DisplayImage{}, err
		}
	}
	return FromImage(img, grayscale), nil
}

// Save encodes img to path, choosing the format from the file extension
func Save(path string, img image.Image) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg", ".png", "":
	default:
		return fmt.Errorf("unsupported image extension: %s", filepath.Ext(path))
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create image directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	if ext == ".jpg" || ext == ".jpeg" {
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	} else {
		err = png.Encode(f, img)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to encode image %s: %w", path, err)
	}
	return f.Close()
}

// SaveDisplay writes a display image to path
func SaveDisplay(path string, d DisplayImage) error {
	img, err := d.ToImage()
	if err != nil {
		return err
	}
	return Save(path, img)
}
