package types

import (
	"fmt"
	"image"
)

// Rect is an axis-aligned box in image pixel coordinates.
type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// NewRect converts an image.Rectangle into a Rect
func NewRect(r image.Rectangle) Rect {
	return Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Center returns the integer center of the rect, rounding towards the origin.
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Area returns the area of the rect
func (r Rect) Area() int {
	return r.Width * r.Height
}

// Empty reports whether the rect has no area
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Rectangle converts the rect to an image.Rectangle
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Translate returns the rect moved by (dx, dy)
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Clamp intersects the rect with bounds. The result may be empty.
func (r Rect) Clamp(bounds image.Rectangle) Rect {
	return NewRect(r.Rectangle().Intersect(bounds))
}

// Validate rejects rects with negative dimensions.
func (r Rect) Validate() error {
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("rect %dx%d at (%d,%d) has negative size: %w", r.Width, r.Height, r.X, r.Y, ErrInvalidParameter)
	}
	return nil
}

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// ToRect converts a normalized box into pixel coordinates for an image of
// the given size.
func (b Box) ToRect(width, height int) Rect {
	fw, fh := float64(width), float64(height)
	x0 := int(clamp01(b.X)*fw + 0.5)
	y0 := int(clamp01(b.Y)*fh + 0.5)
	x1 := int(clamp01(b.X+b.W)*fw + 0.5)
	y1 := int(clamp01(b.Y+b.H)*fh + 0.5)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Levels is the input/output level remap applied by the levels editor.
type Levels struct {
	InputBlack  int     `json:"input_black" yaml:"input_black"`
	InputWhite  int     `json:"input_white" yaml:"input_white"`
	Gamma       float64 `json:"gamma" yaml:"gamma"`
	OutputBlack int     `json:"output_black" yaml:"output_black"`
	OutputWhite int     `json:"output_white" yaml:"output_white"`
}

// IdentityLevels returns levels that leave every channel value unchanged.
func IdentityLevels() Levels {
	return Levels{InputBlack: 0, InputWhite: 255, Gamma: 1.0, OutputBlack: 0, OutputWhite: 255}
}

// OrIdentity returns IdentityLevels for the zero value, which stands for
// "no levels set", and l otherwise.
func (l Levels) OrIdentity() Levels {
	if l == (Levels{}) {
		return IdentityLevels()
	}
	return l
}

// IsIdentity reports whether l maps every value onto itself. The zero value
// counts as identity.
func (l Levels) IsIdentity() bool {
	return l.OrIdentity() == IdentityLevels()
}

// ToneParams is a snapshot of the colour adjustments applied to a photo.
type ToneParams struct {
	Brightness int    `json:"brightness" yaml:"brightness"`
	Contrast   int    `json:"contrast" yaml:"contrast"`
	Saturation int    `json:"saturation" yaml:"saturation"`
	Hue        int    `json:"hue" yaml:"hue"`
	Sharpness  int    `json:"sharpness" yaml:"sharpness"`
	Levels     Levels `json:"levels" yaml:"levels"`
}

// NeutralTone returns tone parameters that leave an image unchanged.
func NeutralTone() ToneParams {
	return ToneParams{Levels: IdentityLevels()}
}

// IsNeutral reports whether applying p is a no-op
func (p ToneParams) IsNeutral() bool {
	return p.Brightness == 0 && p.Contrast == 0 && p.Saturation == 0 &&
		p.Hue == 0 && p.Sharpness == 0 && p.Levels.IsIdentity()
}

// BeautyParams holds local retouching strengths, each in [0,100].
type BeautyParams struct {
	Smoothing   int `json:"smoothing" yaml:"smoothing"`
	Whitening   int `json:"whitening" yaml:"whitening"`
	SlimFace    int `json:"slim_face" yaml:"slim_face"`
	EnlargeEyes int `json:"enlarge_eyes" yaml:"enlarge_eyes"`
}

// IsZero reports whether no retouching is requested
func (p BeautyParams) IsZero() bool {
	return p == BeautyParams{}
}

// FaceAnalysis is the structured answer a vision model gives when asked to
// locate faces in an image.
type FaceAnalysis struct {
	Faces       []DetectedFace `json:"faces"`
	Description string         `json:"description"`
}

// DetectedFace is one face returned by a vision model
type DetectedFace struct {
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
	Eyes       []Box   `json:"eyes,omitempty"`
}
