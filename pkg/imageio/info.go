package imageio

import (
	"fmt"
	"image"

	"github.com/menta2k/idphoto/pkg/types"
	"github.com/menta2k/idphoto/pkg/units"
)

// Info summarizes an image
type Info struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
	Area        int     `json:"area"`
	WidthMM     float64 `json:"width_mm"`
	HeightMM    float64 `json:"height_mm"`
}

// GetInfo returns basic information about img, with its printed size at dpi.
func GetInfo(img image.Image, dpi int) Info {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	info := Info{Width: w, Height: h, Area: w * h}
	if h > 0 {
		info.AspectRatio = float64(w) / float64(h)
	}
	if dpi > 0 {
		info.WidthMM = units.PixelsToMM(w, dpi)
		info.HeightMM = units.PixelsToMM(h, dpi)
	}
	return info
}

// Validate checks that img is at least minSize pixels on each side
func Validate(img image.Image, minSize int) error {
	if err := types.CheckImage(img); err != nil {
		return err
	}
	b := img.Bounds()
	if b.Dx() < minSize || b.Dy() < minSize {
		return fmt.Errorf("image too small: %dx%d (minimum: %d): %w",
			b.Dx(), b.Dy(), minSize, types.ErrInvalidParameter)
	}
	return nil
}
