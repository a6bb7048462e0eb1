// Package geometry provides the rotate, flip and crop operations used to
// frame a photo before retouching.
package geometry

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/idphoto/internal/raster"
	"github.com/menta2k/idphoto/pkg/types"
)

// MaxAngle bounds the free rotation in degrees
const MaxAngle = 45

// Fill is the colour exposed by a free rotation
var Fill = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// Rotate90 rotates img by a quarter turn without resampling.
func Rotate90(img image.Image, clockwise bool) (*image.NRGBA, error) {
	if err := types.CheckImage(img); err != nil {
		return nil, err
	}
	if clockwise {
		return imaging.Rotate270(img), nil
	}
	return imaging.Rotate90(img), nil
}

// Flip mirrors img left to right when horizontal is true, otherwise top to
// bottom.
func Flip(img image.Image, horizontal bool) (*image.NRGBA, error) {
	if err := types.CheckImage(img); err != nil {
		return nil, err
	}
	if horizontal {
		return imaging.FlipH(img), nil
	}
	return imaging.FlipV(img), nil
}

// RotatedSize returns the bounding box of a width x height image rotated by
// degrees, truncated to whole pixels.
func RotatedSize(width, height int, degrees float64) (int, int) {
	rad := degrees * math.Pi / 180
	sin := math.Abs(math.Sin(rad))
	cos := math.Abs(math.Cos(rad))
	w, h := float64(width), float64(height)
	return int(h*sin + w*cos), int(h*cos + w*sin)
}

// RotateByAngle rotates img clockwise by degrees (negative turns
// counter-clockwise) about its centre. The canvas grows to hold the whole
// rotated image and the uncovered corners are filled with white.
func RotateByAngle(img image.Image, degrees float64) (*image.NRGBA, error) {
	if err := types.CheckImage(img); err != nil {
		return nil, err
	}
	if math.IsNaN(degrees) || degrees < -MaxAngle || degrees > MaxAngle {
		return nil, fmt.Errorf("rotation %.2f outside [-%d, %d]: %w", degrees, MaxAngle, MaxAngle, types.ErrInvalidParameter)
	}
	src := raster.Clone(img)
	if degrees == 0 {
		return src, nil
	}

	w, h := src.Rect.Dx(), src.Rect.Dy()
	nw, nh := RotatedSize(w, h, degrees)
	cx, cy := float64(w/2), float64(h/2)
	ncx, ncy := float64(nw)/2, float64(nh)/2

	// inverse of the clockwise rotation: destination offset -> source offset
	rad := degrees * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	border := raster.ConstantBorder(Fill)
	out := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	raster.Rows(nh, func(y int) {
		dy := float64(y) - ncy
		for x := 0; x < nw; x++ {
			dx := float64(x) - ncx
			sx := cos*dx + sin*dy + cx
			sy := -sin*dx + cos*dy + cy
			raster.Set(out, x, y, raster.Sample(src, sx, sy, border))
		}
	})
	return out, nil
}
