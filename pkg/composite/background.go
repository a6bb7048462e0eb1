package composite

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/menta2k/idphoto/pkg/types"
)

// Mode selects how a background is rendered
type Mode string

const (
	ModeSolid    Mode = "solid"
	ModeVertical Mode = "vertical"
	ModeRadial   Mode = "radial"
)

// Standard ID photo background colours
var (
	Red       = color.NRGBA{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF}
	Blue      = color.NRGBA{R: 0x43, G: 0x8E, B: 0xDB, A: 0xFF}
	White     = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	DarkBlue  = color.NRGBA{R: 0x00, G: 0x04, B: 0x7B, A: 0xFF}
	LightGray = color.NRGBA{R: 0xF0, G: 0xF0, B: 0xF0, A: 0xFF}
)

var namedColors = map[string]color.NRGBA{
	"red":       Red,
	"blue":      Blue,
	"white":     White,
	"darkblue":  DarkBlue,
	"lightgray": LightGray,
}

// ColorNames lists the accepted colour names in display order.
func ColorNames() []string {
	return []string{"red", "blue", "white", "darkblue", "lightgray"}
}

// Background describes the backdrop a cutout is placed on. Solid uses
// Color; the gradients run from Start to End.
type Background struct {
	Mode     Mode
	Color    color.NRGBA
	Start    color.NRGBA
	End      color.NRGBA
	Strength int
}

// Render draws the background at the given size.
func (b Background) Render(width, height int) (*image.NRGBA, error) {
	switch b.Mode {
	case ModeSolid, "":
		return Solid(width, height, b.Color)
	case ModeVertical:
		return VerticalGradient(width, height, b.Start, b.End, b.Strength)
	case ModeRadial:
		return RadialGradient(width, height, b.Start, b.End, b.Strength)
	default:
		return nil, fmt.Errorf("unknown background mode %q: %w", b.Mode, types.ErrInvalidParameter)
	}
}

// ReplaceBackground renders bg at the size of fg and composites fg on top.
func ReplaceBackground(fg image.Image, bg Background) (*image.NRGBA, error) {
	if err := types.CheckImage(fg); err != nil {
		return nil, err
	}
	canvas, err := bg.Render(fg.Bounds().Dx(), fg.Bounds().Dy())
	if err != nil {
		return nil, fmt.Errorf("failed to render background: %w", err)
	}
	return AlphaComposite(fg, canvas)
}

// ParseHex parses "#RRGGBB" or "RRGGBB" into an opaque colour.
func ParseHex(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("hex colour %q: %w", s, types.ErrInvalidParameter)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("hex colour %q: %w", s, types.ErrInvalidParameter)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}

// Hex formats c as "#RRGGBB"
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// NamedColor resolves a palette name or a hex string.
func NamedColor(name string) (color.NRGBA, error) {
	key := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(name))
	if c, ok := namedColors[key]; ok {
		return c, nil
	}
	return ParseHex(name)
}
