// Package raster holds the pixel-buffer plumbing shared by the image stages:
// normalising inputs to NRGBA, bilinear sampling and row-parallel loops.
package raster

import (
	"image"
	"image/color"
	"math"
	"runtime"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// Clone returns an NRGBA copy of img whose bounds start at (0,0).
func Clone(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// Rows calls fn for every y in [0, height), splitting the range into
// contiguous bands that run concurrently. fn must only write to row y.
func Rows(height int, fn func(y int)) {
	if height <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > height {
		workers = height
	}
	band := (height + workers - 1) / workers

	var g errgroup.Group
	for y0 := 0; y0 < height; y0 += band {
		y1 := min(y0+band, height)
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				fn(y)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Border selects how samples outside the source image are resolved.
type Border struct {
	// Constant, when true, makes out-of-range neighbours take Color.
	// Otherwise the nearest edge pixel is replicated.
	Constant bool
	Color    color.NRGBA
}

// Replicate is the edge-replicating border
var Replicate = Border{}

// ConstantBorder returns a border that fills with c
func ConstantBorder(c color.NRGBA) Border {
	return Border{Constant: true, Color: c}
}

// Sample bilinearly interpolates src at the fractional coordinate (x, y)
// and returns the four channels as floats in [0,255]. Integer coordinates
// inside the image return the source pixel exactly.
func Sample(src *image.NRGBA, x, y float64, border Border) [4]float64 {
	x0f := math.Floor(x)
	y0f := math.Floor(y)
	fx := x - x0f
	fy := y - y0f
	x0, y0 := int(x0f), int(y0f)

	c00 := pixel(src, x0, y0, border)
	if fx == 0 && fy == 0 {
		return c00
	}
	c10 := pixel(src, x0+1, y0, border)
	c01 := pixel(src, x0, y0+1, border)
	c11 := pixel(src, x0+1, y0+1, border)

	var out [4]float64
	for i := 0; i < 4; i++ {
		top := c00[i] + (c10[i]-c00[i])*fx
		bottom := c01[i] + (c11[i]-c01[i])*fx
		out[i] = top + (bottom-top)*fy
	}
	return out
}

func pixel(src *image.NRGBA, x, y int, border Border) [4]float64 {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if x < 0 || y < 0 || x >= w || y >= h {
		if border.Constant {
			c := border.Color
			return [4]float64{float64(c.R), float64(c.G), float64(c.B), float64(c.A)}
		}
		x = clampInt(x, 0, w-1)
		y = clampInt(y, 0, h-1)
	}
	i := y*src.Stride + x*4
	p := src.Pix[i : i+4 : i+4]
	return [4]float64{float64(p[0]), float64(p[1]), float64(p[2]), float64(p[3])}
}

// Set stores four channel values at (x, y), rounding and saturating them.
func Set(dst *image.NRGBA, x, y int, c [4]float64) {
	i := y*dst.Stride + x*4
	dst.Pix[i+0] = Round(c[0])
	dst.Pix[i+1] = Round(c[1])
	dst.Pix[i+2] = Round(c[2])
	dst.Pix[i+3] = Round(c[3])
}

// Round rounds v to the nearest integer and saturates it to [0,255].
func Round(v float64) uint8 {
	return Saturate(math.Round(v))
}

// Truncate drops the fractional part of v and saturates it to [0,255].
func Truncate(v float64) uint8 {
	return Saturate(math.Trunc(v))
}

// Saturate clamps v to [0,255] and converts it to a byte
func Saturate(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
