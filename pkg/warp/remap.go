package warp

import (
	"fmt"
	"image"

	"github.com/menta2k/idphoto/internal/raster"
	"github.com/menta2k/idphoto/pkg/types"
)

// Remap resamples src through field with bilinear interpolation. Source
// coordinates outside the image take the nearest edge pixel.
func Remap(src image.Image, field Field) (*image.NRGBA, error) {
	if err := types.CheckImage(src); err != nil {
		return nil, err
	}
	b := src.Bounds()
	if b.Dx() != field.Width || b.Dy() != field.Height {
		return nil, fmt.Errorf("field %dx%d does not match image %dx%d: %w",
			field.Width, field.Height, b.Dx(), b.Dy(), types.ErrDimensionMismatch)
	}
	n := field.Width * field.Height
	if len(field.MapX) != n || len(field.MapY) != n {
		return nil, fmt.Errorf("field maps hold %d/%d entries, want %d: %w",
			len(field.MapX), len(field.MapY), n, types.ErrDimensionMismatch)
	}

	in := raster.Clone(src)
	out := image.NewNRGBA(in.Rect)
	raster.Rows(field.Height, func(y int) {
		row := y * field.Width
		for x := 0; x < field.Width; x++ {
			c := raster.Sample(in, float64(field.MapX[row+x]), float64(field.MapY[row+x]), raster.Replicate)
			raster.Set(out, x, y, c)
		}
	})
	return out, nil
}
