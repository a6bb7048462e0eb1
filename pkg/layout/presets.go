package layout

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/menta2k/idphoto/pkg/types"
)

// Size is a named print size in millimetres
type Size struct {
	Name     string  `json:"name" yaml:"name"`
	Title    string  `json:"title" yaml:"title"`
	WidthMM  float64 `json:"width_mm" yaml:"width_mm"`
	HeightMM float64 `json:"height_mm" yaml:"height_mm"`
}

// PaperSizes are the supported photo paper formats
var PaperSizes = []Size{
	{Name: "4r", Title: "4R (102x152mm)", WidthMM: 102, HeightMM: 152},
	{Name: "a4", Title: "A4 (210x297mm)", WidthMM: 210, HeightMM: 297},
	{Name: "a5", Title: "A5 (148x210mm)", WidthMM: 148, HeightMM: 210},
	{Name: "a6", Title: "A6 (105x148mm)", WidthMM: 105, HeightMM: 148},
	{Name: "b5", Title: "B5 (176x250mm)", WidthMM: 176, HeightMM: 250},
	{Name: "5inch", Title: "5 inch (127x178mm)", WidthMM: 127, HeightMM: 178},
	{Name: "6inch", Title: "6 inch (152x102mm)", WidthMM: 152, HeightMM: 102},
	{Name: "7inch", Title: "7 inch (178x127mm)", WidthMM: 178, HeightMM: 127},
	{Name: "8inch", Title: "8 inch (203x152mm)", WidthMM: 203, HeightMM: 152},
}

// PhotoSizes are the standard ID photo formats
var PhotoSizes = []Size{
	{Name: "1inch", Title: "1 inch (25x35mm)", WidthMM: 25, HeightMM: 35},
	{Name: "2inch", Title: "2 inch (35x49mm)", WidthMM: 35, HeightMM: 49},
	{Name: "small-1inch", Title: "small 1 inch (22x32mm)", WidthMM: 22, HeightMM: 32},
	{Name: "small-2inch", Title: "small 2 inch (35x45mm)", WidthMM: 35, HeightMM: 45},
	{Name: "large-1inch", Title: "large 1 inch (33x48mm)", WidthMM: 33, HeightMM: 48},
	{Name: "large-2inch", Title: "large 2 inch (35x53mm)", WidthMM: 35, HeightMM: 53},
	{Name: "5inch", Title: "5 inch (89x127mm)", WidthMM: 89, HeightMM: 127},
	{Name: "passport", Title: "passport (33x48mm)", WidthMM: 33, HeightMM: 48},
	{Name: "visa", Title: "visa (35x45mm)", WidthMM: 35, HeightMM: 45},
	{Name: "driver", Title: "driving licence (21x26mm)", WidthMM: 21, HeightMM: 26},
	{Name: "qualification", Title: "qualification (25x35mm)", WidthMM: 25, HeightMM: 35},
	{Name: "social-security", Title: "social security (26x32mm)", WidthMM: 26, HeightMM: 32},
	{Name: "diploma", Title: "diploma (33x48mm)", WidthMM: 33, HeightMM: 48},
	{Name: "health", Title: "health certificate (32x40mm)", WidthMM: 32, HeightMM: 40},
}

// StylePhoto is one block of a style. Size is a photo size name or "WxH"
// in millimetres.
type StylePhoto struct {
	Size        string      `json:"size" yaml:"size"`
	Orientation Orientation `json:"orientation" yaml:"orientation"`
	Count       int         `json:"count" yaml:"count"`
}

// Style is a reusable sheet layout. Paper is a paper size name or "WxH".
type Style struct {
	Name          string           `json:"name" yaml:"name"`
	Paper         string           `json:"paper" yaml:"paper"`
	Orientation   PaperOrientation `json:"orientation" yaml:"orientation"`
	Margins       Margins          `json:"margins" yaml:"margins"`
	Photos        []StylePhoto     `json:"photos" yaml:"photos"`
	SpacingMM     float64          `json:"spacing_mm" yaml:"spacing_mm"`
	ShowGridlines bool             `json:"show_gridlines" yaml:"show_gridlines"`
	ShowDividers  bool             `json:"show_dividers" yaml:"show_dividers"`
}

// DefaultStyles returns the built-in sheet layouts
func DefaultStyles() []Style {
	return []Style{
		{
			Name:        "1inch-9",
			Paper:       "4r",
			Orientation: Portrait,
			Margins:     UniformMargins(5),
			Photos: []StylePhoto{
				{Size: "1inch", Orientation: Horizontal, Count: 3},
				{Size: "1inch", Orientation: Horizontal, Count: 3},
				{Size: "1inch", Orientation: Horizontal, Count: 3},
			},
			SpacingMM:    2,
			ShowDividers: true,
		},
		{
			Name:        "2inch-8",
			Paper:       "4r",
			Orientation: Landscape,
			Margins:     Margins{Top: 1, Bottom: 1, Left: 3, Right: 3},
			Photos: []StylePhoto{
				{Size: "2inch", Orientation: Horizontal, Count: 4},
				{Size: "2inch", Orientation: Horizontal, Count: 2},
				{Size: "2inch", Orientation: Horizontal, Count: 2},
			},
			SpacingMM:    1,
			ShowDividers: true,
		},
		{
			Name:        "1inch-5-2inch-4",
			Paper:       "4r",
			Orientation: Landscape,
			Margins:     Margins{Top: 5, Bottom: 5, Left: 4, Right: 4},
			Photos: []StylePhoto{
				{Size: "1inch", Orientation: Horizontal, Count: 5},
				{Size: "2inch", Orientation: Horizontal, Count: 2},
				{Size: "2inch", Orientation: Horizontal, Count: 2},
			},
			SpacingMM:    1,
			ShowDividers: true,
		},
	}
}

// FindStyle looks a style up by name among styles
func FindStyle(styles []Style, name string) (Style, bool) {
	for _, s := range styles {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Style{}, false
}

// Spec resolves the style's size names into a packable Spec.
func (s Style) Spec(dpi int) (Spec, error) {
	paper, err := LookupSize(PaperSizes, s.Paper)
	if err != nil {
		return Spec{}, fmt.Errorf("style %q paper: %w", s.Name, err)
	}
	spec := Spec{
		PaperWidthMM:  paper.WidthMM,
		PaperHeightMM: paper.HeightMM,
		Orientation:   s.Orientation,
		Margins:       s.Margins,
		SpacingMM:     s.SpacingMM,
		DPI:           dpi,
		ShowGridlines: s.ShowGridlines,
		ShowDividers:  s.ShowDividers,
	}
	for i, p := range s.Photos {
		size, err := LookupSize(PhotoSizes, p.Size)
		if err != nil {
			return Spec{}, fmt.Errorf("style %q photo %d: %w", s.Name, i, err)
		}
		spec.Blocks = append(spec.Blocks, PhotoBlock{
			WidthMM:     size.WidthMM,
			HeightMM:    size.HeightMM,
			Count:       p.Count,
			Orientation: p.Orientation,
		})
	}
	return spec, nil
}

// LookupSize finds name in catalog, falling back to a literal "WxH" size.
func LookupSize(catalog []Size, name string) (Size, error) {
	for _, s := range catalog {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return ParseSize(name)
}

// ParseSize parses "25x35" or "25x35mm" into a Size.
func ParseSize(s string) (Size, error) {
	v := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "mm")
	parts := strings.Split(strings.ReplaceAll(v, "×", "x"), "x")
	if len(parts) != 2 {
		return Size{}, fmt.Errorf("unknown size %q: %w", s, types.ErrInvalidParameter)
	}
	w, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	h, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return Size{}, fmt.Errorf("invalid size %q: %w", s, types.ErrInvalidParameter)
	}
	return Size{Name: s, Title: Label(w, h), WidthMM: w, HeightMM: h}, nil
}

// SortedNames returns the names in catalog, alphabetically
func SortedNames(catalog []Size) []string {
	names := make([]string, 0, len(catalog))
	for _, s := range catalog {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}
