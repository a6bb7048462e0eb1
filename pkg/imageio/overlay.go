package imageio

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/idphoto/pkg/types"
)

var (
	// FaceColor outlines detected faces
	FaceColor = color.NRGBA{0, 255, 0, 255}
	// EyeColor outlines detected eyes
	EyeColor = color.NRGBA{255, 204, 0, 255}
	// CenterColor marks the image center
	CenterColor = color.NRGBA{0, 170, 255, 255}
)

// DebugOverlay returns a copy of img with the face and eye rects outlined
// and the image center marked.
func DebugOverlay(img image.Image, faces, eyes []types.Rect) *image.NRGBA {
	out := imaging.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	stroke := int(math.Max(2, 0.004*float64(min(w, h))))

	for _, f := range faces {
		drawBox(out, f, FaceColor, stroke)
	}
	for _, e := range eyes {
		drawBox(out, e, EyeColor, max(1, stroke/2))
	}

	ix, iy := w/2, h/2
	drawHLine(out, iy, ix-6, ix+6, CenterColor)
	drawVLine(out, ix, iy-6, iy+6, CenterColor)
	return out
}

func drawBox(img *image.NRGBA, r types.Rect, c color.NRGBA, stroke int) {
	if r.Empty() {
		return
	}
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.Width-1, r.Y+r.Height-1
	for i := 0; i < stroke; i++ {
		drawHLine(img, y0+i, x0, x1, c)
		drawHLine(img, y1-i, x0, x1, c)
		drawVLine(img, x0+i, y0, y1, c)
		drawVLine(img, x1-i, y0, y1, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0 = max(x0, b.Min.X)
	x1 = min(x1, b.Max.X-1)
	for x := x0; x <= x1; x++ {
		img.SetNRGBA(x, y, c)
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0 = max(y0, b.Min.Y)
	y1 = min(y1, b.Max.Y-1)
	for y := y0; y <= y1; y++ {
		img.SetNRGBA(x, y, c)
	}
}
