package layout

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Render plans the sheet and draws it on a white canvas. Blocks with an
// Image are resized into their slot, turned clockwise first when vertical.
// Blocks without one become grey placeholders labelled with their size.
func Render(spec Spec) (*Result, error) {
	res, err := Plan(spec)
	if err != nil {
		return nil, err
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, res.PaperWidth, res.PaperHeight))
	fillRect(canvas, canvas.Rect, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	if spec.ShowGridlines {
		strokeRect(canvas, res.Available, GridThickness, GridColor)
	}

	// resized photos are shared between copies of the same block
	scaled := make(map[int]*image.NRGBA)
	for _, p := range res.Placements {
		src := spec.Blocks[p.Block].Image
		if src == nil {
			drawPlaceholder(canvas, p)
			continue
		}
		photo, ok := scaled[p.Block]
		if !ok {
			if p.Vertical {
				src = imaging.Rotate270(src)
			}
			photo = imaging.Resize(src, p.Width, p.Height, imaging.Linear)
			scaled[p.Block] = photo
		}
		draw.Draw(canvas, p.Rectangle(), photo, image.Point{}, draw.Src)
	}

	if spec.ShowDividers {
		drawDividers(canvas, res)
	}

	res.Canvas = canvas
	return res, nil
}

func drawPlaceholder(canvas *image.NRGBA, p Placement) {
	fillRect(canvas, p.Rectangle(), PlaceholderColor)

	face := basicfont.Face7x13
	d := &font.Drawer{Dst: canvas, Src: image.NewUniform(LabelColor), Face: face}
	textW := d.MeasureString(p.Label).Ceil()
	textH := face.Metrics().Ascent.Ceil()
	x := p.X + (p.Width-textW)/2
	y := p.Y + (p.Height+textH)/2
	d.Dot = fixed.P(x, y)
	d.DrawString(p.Label)
}

// drawDividers puts a line in the middle of every gap: one across the
// printable width between rows and one between neighbours within a row.
func drawDividers(canvas *image.NRGBA, res *Result) {
	half := res.Spacing / 2
	for i := 0; i < len(res.Rows)-1; i++ {
		r := res.Rows[i]
		y := r.Y + r.Height + half
		fillRect(canvas, image.Rect(res.Available.Min.X, y, res.Available.Max.X, y+DividerThickness), DividerColor)
	}
	for _, r := range res.Rows {
		for i := r.First; i < r.First+r.Count-1; i++ {
			p := res.Placements[i]
			x := p.X + p.Width + half
			fillRect(canvas, image.Rect(x, r.Y, x+DividerThickness, r.Y+r.Height), DividerColor)
		}
	}
}

// strokeRect draws the outline of r with the given thickness inside r.
func strokeRect(canvas *image.NRGBA, r image.Rectangle, thickness int, c color.NRGBA) {
	fillRect(canvas, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness), c)
	fillRect(canvas, image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y), c)
	fillRect(canvas, image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y), c)
	fillRect(canvas, image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y), c)
}

func fillRect(canvas *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	draw.Draw(canvas, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// String summarises the packing for logs
func (r *Result) String() string {
	return fmt.Sprintf("%dx%dpx sheet, %d photos in %d rows, content %dx%d at (%d,%d)",
		r.PaperWidth, r.PaperHeight, len(r.Placements), len(r.Rows),
		r.ContentWidth, r.ContentHeight, r.OriginX, r.OriginY)
}
