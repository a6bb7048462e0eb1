// Package layout packs ID photos onto a sheet of paper for printing.
//
// Packing is a greedy row wrap: unit blocks are laid left to right and a
// new row starts when the next block would cross the printable width. The
// content is centred inside the margins. When the blocks do not fit, Plan
// and Render fail with types.ErrLayoutOverflow instead of returning a
// clipped sheet.
package layout

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/menta2k/idphoto/pkg/types"
	"github.com/menta2k/idphoto/pkg/units"
)

// PaperOrientation is portrait or landscape. Landscape swaps the paper
// width and height.
type PaperOrientation string

const (
	Portrait  PaperOrientation = "portrait"
	Landscape PaperOrientation = "landscape"
)

// Orientation of a photo block on the sheet. Vertical blocks are turned a
// quarter turn, so their width and height swap.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// Drawing colours
var (
	PlaceholderColor = color.NRGBA{R: 240, G: 240, B: 240, A: 255}
	LabelColor       = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	GridColor        = color.NRGBA{R: 150, G: 150, B: 150, A: 255}
	DividerColor     = color.NRGBA{R: 180, G: 180, B: 180, A: 255}
)

const (
	GridThickness    = 2
	DividerThickness = 1
)

// Margins in millimetres
type Margins struct {
	Top    float64 `json:"top" yaml:"top"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
	Right  float64 `json:"right" yaml:"right"`
}

// UniformMargins returns margins of mm on every side
func UniformMargins(mm float64) Margins {
	return Margins{Top: mm, Bottom: mm, Left: mm, Right: mm}
}

// PhotoBlock is Count copies of one photo size. Image is optional; without
// it the block is drawn as a labelled placeholder.
type PhotoBlock struct {
	WidthMM     float64
	HeightMM    float64
	Count       int
	Orientation Orientation
	Image       image.Image
}

// Spec describes one sheet
type Spec struct {
	PaperWidthMM  float64
	PaperHeightMM float64
	Orientation   PaperOrientation
	Margins       Margins
	SpacingMM     float64
	DPI           int
	Blocks        []PhotoBlock
	ShowGridlines bool
	ShowDividers  bool
}

// Placement is one unit block on the sheet, in canvas pixels.
type Placement struct {
	X, Y          int
	Width, Height int
	Row           int
	Block         int
	Label         string
	Vertical      bool
}

// Rectangle returns the placement as an image.Rectangle
func (p Placement) Rectangle() image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
}

// Row is one line of placements. First indexes Result.Placements.
type Row struct {
	Y      int
	Height int
	Width  int
	First  int
	Count  int
}

// Result is a planned, and optionally rendered, sheet.
type Result struct {
	PaperWidth    int
	PaperHeight   int
	Available     image.Rectangle
	Spacing       int
	OriginX       int
	OriginY       int
	ContentWidth  int
	ContentHeight int
	Rows          []Row
	Placements    []Placement

	// Canvas is nil for results returned by Plan
	Canvas *image.NRGBA
}

// unit is one expanded block in pixels
type unit struct {
	w, h     int
	block    int
	label    string
	vertical bool
}

// Plan computes the sheet geometry without drawing.
func Plan(spec Spec) (*Result, error) {
	dpi := spec.DPI
	if dpi <= 0 {
		dpi = units.DefaultDPI
	}
	if err := validate(spec); err != nil {
		return nil, err
	}

	pw := units.MMToPixels(spec.PaperWidthMM, dpi)
	ph := units.MMToPixels(spec.PaperHeightMM, dpi)
	if spec.Orientation == Landscape {
		pw, ph = ph, pw
	}
	left := units.MMToPixels(spec.Margins.Left, dpi)
	right := units.MMToPixels(spec.Margins.Right, dpi)
	top := units.MMToPixels(spec.Margins.Top, dpi)
	bottom := units.MMToPixels(spec.Margins.Bottom, dpi)
	spacing := units.MMToPixels(spec.SpacingMM, dpi)

	availW := pw - left - right
	availH := ph - top - bottom
	if availW <= 0 || availH <= 0 {
		return nil, fmt.Errorf("margins leave no printable area on %dx%dpx paper: %w", pw, ph, types.ErrLayoutOverflow)
	}

	us, err := expand(spec.Blocks, dpi)
	if err != nil {
		return nil, err
	}

	rows, membership, err := sizeRows(us, availW, availH, spacing)
	if err != nil {
		return nil, err
	}

	res := &Result{
		PaperWidth:  pw,
		PaperHeight: ph,
		Available:   image.Rect(left, top, left+availW, top+availH),
		Spacing:     spacing,
	}
	for i, r := range rows {
		res.ContentWidth = max(res.ContentWidth, r.Width)
		res.ContentHeight += r.Height
		if i > 0 {
			res.ContentHeight += spacing
		}
	}
	res.OriginX = left + (availW-res.ContentWidth)/2
	res.OriginY = top + (availH-res.ContentHeight)/2

	place(res, rows, membership, us)
	return res, nil
}

func validate(spec Spec) error {
	if spec.PaperWidthMM <= 0 || spec.PaperHeightMM <= 0 {
		return fmt.Errorf("paper %.1fx%.1fmm: %w", spec.PaperWidthMM, spec.PaperHeightMM, types.ErrInvalidParameter)
	}
	switch spec.Orientation {
	case Portrait, Landscape, "":
	default:
		return fmt.Errorf("paper orientation %q: %w", spec.Orientation, types.ErrInvalidParameter)
	}
	m := spec.Margins
	if m.Top < 0 || m.Bottom < 0 || m.Left < 0 || m.Right < 0 {
		return fmt.Errorf("negative margin %+v: %w", m, types.ErrInvalidParameter)
	}
	if spec.SpacingMM < 0 {
		return fmt.Errorf("negative spacing %.1fmm: %w", spec.SpacingMM, types.ErrInvalidParameter)
	}
	return nil
}

// expand turns blocks into unit blocks in input order, swapping the size of
// vertical ones. Blocks with Count <= 0 contribute nothing.
func expand(blocks []PhotoBlock, dpi int) ([]unit, error) {
	var out []unit
	for i, b := range blocks {
		if b.Count <= 0 {
			continue
		}
		switch b.Orientation {
		case Horizontal, Vertical, "":
		default:
			return nil, fmt.Errorf("block %d orientation %q: %w", i, b.Orientation, types.ErrInvalidParameter)
		}
		w := units.MMToPixels(b.WidthMM, dpi)
		h := units.MMToPixels(b.HeightMM, dpi)
		if w <= 0 || h <= 0 {
			return nil, fmt.Errorf("block %d size %.1fx%.1fmm: %w", i, b.WidthMM, b.HeightMM, types.ErrInvalidParameter)
		}
		vertical := b.Orientation == Vertical
		label := Label(b.WidthMM, b.HeightMM)
		if vertical {
			w, h = h, w
			label = Label(b.HeightMM, b.WidthMM)
		}
		for n := 0; n < b.Count; n++ {
			out = append(out, unit{w: w, h: h, block: i, label: label, vertical: vertical})
		}
	}
	return out, nil
}

// sizeRows assigns every unit to a row and returns the rows together with
// the row index of each unit. Placement walks exactly this membership.
func sizeRows(us []unit, availW, availH, spacing int) ([]Row, []int, error) {
	var rows []Row
	membership := make([]int, len(us))
	closedHeight := 0 // height of closed rows including the gap after each
	cur := Row{}

	for i, u := range us {
		if u.w > availW || u.h > availH {
			return nil, nil, fmt.Errorf("%dx%dpx photo exceeds %dx%dpx printable area: %w",
				u.w, u.h, availW, availH, types.ErrLayoutOverflow)
		}
		if cur.Count > 0 && cur.Width+spacing+u.w > availW {
			rows = append(rows, cur)
			closedHeight += cur.Height + spacing
			cur = Row{First: i}
		}
		if cur.Count > 0 {
			cur.Width += spacing
		}
		cur.Width += u.w
		cur.Height = max(cur.Height, u.h)
		cur.Count++
		membership[i] = len(rows)

		if closedHeight+cur.Height > availH {
			return nil, nil, fmt.Errorf("%d rows need %dpx, printable height is %dpx: %w",
				len(rows)+1, closedHeight+cur.Height, availH, types.ErrLayoutOverflow)
		}
	}
	if cur.Count > 0 {
		rows = append(rows, cur)
	}
	return rows, membership, nil
}

func place(res *Result, rows []Row, membership []int, us []unit) {
	res.Rows = make([]Row, len(rows))
	res.Placements = make([]Placement, len(us))

	y := res.OriginY
	x := res.OriginX
	row := -1
	for i, u := range us {
		if r := membership[i]; r != row {
			if row >= 0 {
				y += rows[row].Height + res.Spacing
			}
			row = r
			x = res.OriginX
			res.Rows[row] = rows[row]
			res.Rows[row].Y = y
		}
		res.Placements[i] = Placement{
			X: x, Y: y,
			Width: u.w, Height: u.h,
			Row: row, Block: u.block,
			Label: u.label, Vertical: u.vertical,
		}
		x += u.w + res.Spacing
	}
}

// Label formats a print size the way it is shown on placeholders
func Label(widthMM, heightMM float64) string {
	return formatMM(widthMM) + "x" + formatMM(heightMM) + "mm"
}

func formatMM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
