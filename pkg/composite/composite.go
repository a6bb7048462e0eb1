// Package composite blends a matted foreground over solid and gradient
// backgrounds.
package composite

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/menta2k/idphoto/internal/raster"
	"github.com/menta2k/idphoto/pkg/types"
)

// AlphaComposite places fg over bg using fg's alpha channel. The result is
// opaque. Channel values are truncated, not rounded.
func AlphaComposite(fg, bg image.Image) (*image.NRGBA, error) {
	if err := types.CheckImage(fg); err != nil {
		return nil, err
	}
	if err := types.CheckImage(bg); err != nil {
		return nil, err
	}
	fb, bb := fg.Bounds(), bg.Bounds()
	if fb.Dx() != bb.Dx() || fb.Dy() != bb.Dy() {
		return nil, fmt.Errorf("foreground %dx%d and background %dx%d differ: %w",
			fb.Dx(), fb.Dy(), bb.Dx(), bb.Dy(), types.ErrDimensionMismatch)
	}

	f := raster.Clone(fg)
	b := raster.Clone(bg)
	out := image.NewNRGBA(f.Rect)
	w := f.Rect.Dx()
	raster.Rows(f.Rect.Dy(), func(y int) {
		i := y * f.Stride
		j := y * b.Stride
		k := y * out.Stride
		for x := 0; x < w; x++ {
			a := float64(f.Pix[i+3]) / 255
			for c := 0; c < 3; c++ {
				v := float64(f.Pix[i+c])*a + float64(b.Pix[j+c])*(1-a)
				out.Pix[k+c] = raster.Truncate(v)
			}
			out.Pix[k+3] = 255
			i += 4
			j += 4
			k += 4
		}
	})
	return out, nil
}

// Solid returns an opaque image filled with c.
func Solid(width, height int, c color.NRGBA) (*image.NRGBA, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	c.A = 255
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	raster.Rows(height, func(y int) {
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for i := 0; i < len(row); i += 4 {
			row[i], row[i+1], row[i+2], row[i+3] = c.R, c.G, c.B, c.A
		}
	})
	return img, nil
}

// VerticalGradient blends from start at the top towards end at the bottom.
// strength in [-100,100] scales how far the blend goes; a negative strength
// runs the ramp bottom to top.
func VerticalGradient(width, height int, start, end color.NRGBA, strength int) (*image.NRGBA, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	if err := types.CheckRange("gradient strength", strength, -100, 100); err != nil {
		return nil, err
	}
	scale := math.Abs(float64(strength)) / 100
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	raster.Rows(height, func(y int) {
		var t float64
		if height > 1 {
			t = float64(y) / float64(height-1)
		}
		if strength < 0 {
			t = 1 - t
		}
		c := mix(start, end, t*scale)
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for i := 0; i < len(row); i += 4 {
			row[i], row[i+1], row[i+2], row[i+3] = c.R, c.G, c.B, 255
		}
	})
	return img, nil
}

// RadialGradient blends from start at the centre towards end at the
// corners. A negative strength inverts the ramp.
func RadialGradient(width, height int, start, end color.NRGBA, strength int) (*image.NRGBA, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	if err := types.CheckRange("gradient strength", strength, -100, 100); err != nil {
		return nil, err
	}
	scale := math.Abs(float64(strength)) / 100
	cx, cy := width/2, height/2
	maxDist := math.Hypot(float64(width)/2, float64(height)/2)

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	raster.Rows(height, func(y int) {
		dy := float64(y - cy)
		i := y * img.Stride
		for x := 0; x < width; x++ {
			d := math.Hypot(float64(x-cx), dy) / maxDist
			if strength < 0 {
				d = 1 - d
			}
			c := mix(start, end, math.Min(math.Max(d*scale, 0), 1))
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, 255
			i += 4
		}
	})
	return img, nil
}

func mix(a, b color.NRGBA, t float64) color.NRGBA {
	return color.NRGBA{
		R: raster.Truncate(float64(a.R)*(1-t) + float64(b.R)*t),
		G: raster.Truncate(float64(a.G)*(1-t) + float64(b.G)*t),
		B: raster.Truncate(float64(a.B)*(1-t) + float64(b.B)*t),
		A: 255,
	}
}

func checkSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("canvas size %dx%d: %w", width, height, types.ErrInvalidParameter)
	}
	return nil
}
