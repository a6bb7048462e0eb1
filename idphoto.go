// Package idphoto turns a portrait into print-ready ID photos.
//
// The processing stages live in their own packages and are usable on their
// own:
//
//  1. Geometry (pkg/geometry): rotate, flip and crop to a print size
//  2. Beauty (pkg/beauty, pkg/warp): skin smoothing, whitening, face slimming
//     and eye enlargement
//  3. Tone (pkg/tone): brightness, contrast, saturation, hue, sharpness and
//     levels
//  4. Composite (pkg/composite): put a cutout on a solid or gradient
//     background
//  5. Layout (pkg/layout): pack copies of the photo onto a sheet of paper
//
// Studio chains them in that order. Face and eye positions come from a
// vision.Detector: the pigo cascades (pkg/vision), a vision model behind
// Ollama or llama.cpp (pkg/detection), or fixed rects.
//
// Basic usage:
//
//	studio := idphoto.New()
//	img, err := studio.Load(ctx, "portrait.jpg")
//	if err != nil {
//		log.Fatal(err)
//	}
//	photo, err := studio.Process(ctx, img, idphoto.Request{
//		Geometry: idphoto.Geometry{CenterCrop: &idphoto.PrintSize{WidthMM: 25, HeightMM: 35}},
//		Tone:     types.ToneParams{Brightness: 10, Levels: types.IdentityLevels()},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	style, _ := layout.FindStyle(layout.DefaultStyles(), "1inch-9")
//	sheet, err := studio.Sheet(photo, style)
package idphoto

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/menta2k/idphoto/internal/config"
	"github.com/menta2k/idphoto/internal/raster"
	"github.com/menta2k/idphoto/pkg/beauty"
	"github.com/menta2k/idphoto/pkg/composite"
	"github.com/menta2k/idphoto/pkg/detection"
	"github.com/menta2k/idphoto/pkg/geometry"
	"github.com/menta2k/idphoto/pkg/imageio"
	"github.com/menta2k/idphoto/pkg/layout"
	"github.com/menta2k/idphoto/pkg/llamacpp"
	"github.com/menta2k/idphoto/pkg/ollama"
	"github.com/menta2k/idphoto/pkg/tone"
	"github.com/menta2k/idphoto/pkg/types"
	"github.com/menta2k/idphoto/pkg/units"
	"github.com/menta2k/idphoto/pkg/vision"
)

// Version of the idphoto library
const Version = "1.0.0"

// Studio runs the ID photo pipeline
type Studio struct {
	codec      *imageio.Codec
	detector   vision.Detector
	beautifier beauty.Beautifier
	logger     zerolog.Logger
	dpi        int
}

// Option configures a Studio
type Option func(*Studio)

// WithDetector sets the face and eye detector used by the beauty stage
func WithDetector(d vision.Detector) Option {
	return func(s *Studio) { s.detector = d }
}

// WithBeautifier replaces the local beauty chain, for example with a
// remote retouching service.
func WithBeautifier(b beauty.Beautifier) Option {
	return func(s *Studio) { s.beautifier = b }
}

// WithLogger sets the logger for stage timings
func WithLogger(l zerolog.Logger) Option {
	return func(s *Studio) { s.logger = l }
}

// WithDPI sets the print resolution used for mm sizes
func WithDPI(dpi int) Option {
	return func(s *Studio) { s.dpi = dpi }
}

// WithCodec sets the image loader
func WithCodec(c *imageio.Codec) Option {
	return func(s *Studio) { s.codec = c }
}

// New creates a Studio. Without a detector, face-dependent retouching is
// skipped.
func New(opts ...Option) *Studio {
	s := &Studio{
		codec:    imageio.New(),
		detector: vision.None{},
		logger:   zerolog.Nop(),
		dpi:      units.DefaultDPI,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.detector == nil {
		s.detector = vision.None{}
	}
	s.detector = loggedDetector{Detector: s.detector, logger: s.logger}
	if s.beautifier == nil {
		s.beautifier = beauty.NewLocal(s.detector, s.detector)
	}
	return s
}

// NewWithConfig creates a Studio with the detector and DPI from cfg.
func NewWithConfig(cfg *config.Config, opts ...Option) (*Studio, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	detector, err := NewDetector(cfg.Detection)
	if err != nil {
		return nil, err
	}
	base := []Option{WithDetector(detector), WithDPI(cfg.Layout.DPI)}
	return New(append(base, opts...)...), nil
}

// NewDetector builds the detector selected by cfg.Backend.
func NewDetector(cfg config.DetectionConfig) (vision.Detector, error) {
	switch cfg.Backend {
	case config.BackendNone, "":
		return vision.None{}, nil
	case config.BackendPigo:
		return vision.LoadPigoDetector(cfg.FaceCascade, cfg.PuplocCascade, cfg.Pigo)
	case config.BackendOllama:
		c, err := ollama.NewClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return detection.NewFaceLocator(c, cfg.Locator), nil
	case config.BackendLlamaCpp:
		c, err := llamacpp.NewClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		return detection.NewFaceLocator(c, cfg.Locator), nil
	default:
		return nil, fmt.Errorf("unknown detection backend %q: %w", cfg.Backend, types.ErrInvalidParameter)
	}
}

// PrintSize is a physical photo size
type PrintSize struct {
	WidthMM  float64 `json:"width_mm" yaml:"width_mm"`
	HeightMM float64 `json:"height_mm" yaml:"height_mm"`
}

// Geometry lists the geometric corrections, applied in field order:
// quarter turns, flips, fine rotation, then at most one crop.
type Geometry struct {
	QuarterTurns   int                   `json:"quarter_turns" yaml:"quarter_turns"`
	FlipHorizontal bool                  `json:"flip_horizontal" yaml:"flip_horizontal"`
	FlipVertical   bool                  `json:"flip_vertical" yaml:"flip_vertical"`
	Angle          float64               `json:"angle" yaml:"angle"`
	Crop           *geometry.CropRequest `json:"crop,omitempty" yaml:"crop,omitempty"`
	CenterCrop     *PrintSize            `json:"center_crop,omitempty" yaml:"center_crop,omitempty"`
}

// Request is one pass through the pipeline. A nil Background keeps the
// photo's own background.
type Request struct {
	Geometry   Geometry              `json:"geometry" yaml:"geometry"`
	Beauty     types.BeautyParams    `json:"beauty" yaml:"beauty"`
	Tone       types.ToneParams      `json:"tone" yaml:"tone"`
	Background *composite.Background `json:"-" yaml:"-"`
}

// Load reads an image from a file path or http(s) URL
func (s *Studio) Load(ctx context.Context, source string) (image.Image, error) {
	start := time.Now()
	img, err := s.codec.LoadSmart(ctx, source)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("source", source).
		Int("width", img.Bounds().Dx()).Int("height", img.Bounds().Dy()).
		Dur("elapsed", time.Since(start)).Msg("image loaded")
	return img, nil
}

// Save writes img to path. With maxKB > 0 the image is written as JPEG
// compressed to at most maxKB kilobytes where possible.
func (s *Studio) Save(img image.Image, path string, opts imageio.Options, maxKB int) error {
	if maxKB <= 0 {
		return imageio.Save(img, path, opts)
	}
	data, quality, err := imageio.CompressJPEG(img, maxKB)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	s.logger.Debug().Str("path", path).Int("quality", quality).Int("bytes", len(data)).Msg("compressed jpeg written")
	return nil
}

// DetectFaces runs the configured face detector
func (s *Studio) DetectFaces(ctx context.Context, img image.Image) ([]types.Rect, error) {
	return s.detector.DetectFaces(ctx, img)
}

// PrimaryFace returns the largest detected face, or false when there is
// none.
func (s *Studio) PrimaryFace(ctx context.Context, img image.Image) (types.Rect, bool, error) {
	faces, err := s.DetectFaces(ctx, img)
	if err != nil {
		return types.Rect{}, false, err
	}
	face, ok := vision.Largest(faces)
	return face, ok, nil
}

// DetectEyes finds eyes inside each face and returns them in image
// coordinates. The detector sees each face as its own image with origin
// (0,0).
func (s *Studio) DetectEyes(ctx context.Context, img image.Image, faces []types.Rect) ([]types.Rect, error) {
	src := raster.Clone(img)
	var eyes []types.Rect
	for _, face := range faces {
		face = face.Clamp(src.Bounds())
		if face.Empty() {
			continue
		}
		found, err := s.detector.DetectEyes(ctx, imaging.Crop(src, face.Rectangle()))
		if err != nil {
			return nil, fmt.Errorf("failed to detect eyes in face %v: %w", face, err)
		}
		for _, e := range found {
			eyes = append(eyes, e.Translate(face.X, face.Y))
		}
	}
	return eyes, nil
}

// Transform applies the geometric corrections in g
func (s *Studio) Transform(img image.Image, g Geometry) (*image.NRGBA, error) {
	defer s.timed("geometry")()

	if err := types.CheckImage(img); err != nil {
		return nil, err
	}
	out := raster.Clone(img)
	var err error
	for i := 0; i < ((g.QuarterTurns%4)+4)%4; i++ {
		if out, err = geometry.Rotate90(out, true); err != nil {
			return nil, err
		}
	}
	if g.FlipHorizontal {
		if out, err = geometry.Flip(out, true); err != nil {
			return nil, err
		}
	}
	if g.FlipVertical {
		if out, err = geometry.Flip(out, false); err != nil {
			return nil, err
		}
	}
	if g.Angle != 0 {
		if out, err = geometry.RotateByAngle(out, g.Angle); err != nil {
			return nil, err
		}
	}

	switch {
	case g.Crop != nil:
		req := *g.Crop
		if req.DPI <= 0 {
			req.DPI = s.dpi
		}
		return geometry.CropToAspect(out, req)
	case g.CenterCrop != nil:
		return geometry.CenterCrop(out, g.CenterCrop.WidthMM, g.CenterCrop.HeightMM, s.dpi)
	}
	return out, nil
}

// Beautify runs the retouching chain
func (s *Studio) Beautify(ctx context.Context, img image.Image, p types.BeautyParams) (*image.NRGBA, error) {
	defer s.timed("beauty")()
	return s.beautifier.Beautify(ctx, img, p)
}

// Tone applies the colour adjustments
func (s *Studio) Tone(img image.Image, p types.ToneParams) (*image.NRGBA, error) {
	defer s.timed("tone")()
	return tone.Adjust(img, p)
}

// Background composites img over bg
func (s *Studio) Background(img image.Image, bg composite.Background) (*image.NRGBA, error) {
	defer s.timed("composite")()
	return composite.ReplaceBackground(img, bg)
}

// Process runs geometry, beauty, tone and background replacement in order.
func (s *Studio) Process(ctx context.Context, img image.Image, req Request) (*image.NRGBA, error) {
	out, err := s.Transform(img, req.Geometry)
	if err != nil {
		return nil, fmt.Errorf("geometry stage failed: %w", err)
	}
	if !req.Beauty.IsZero() {
		if out, err = s.Beautify(ctx, out, req.Beauty); err != nil {
			return nil, fmt.Errorf("beauty stage failed: %w", err)
		}
	}
	if out, err = s.Tone(out, req.Tone); err != nil {
		return nil, fmt.Errorf("tone stage failed: %w", err)
	}
	if req.Background != nil {
		if out, err = s.Background(out, *req.Background); err != nil {
			return nil, fmt.Errorf("background stage failed: %w", err)
		}
	}
	return out, nil
}

// Sheet lays photo out on paper following style. A nil photo renders
// labelled placeholders.
func (s *Studio) Sheet(photo image.Image, style layout.Style) (*layout.Result, error) {
	defer s.timed("layout")()
	spec, err := style.Spec(s.dpi)
	if err != nil {
		return nil, err
	}
	for i := range spec.Blocks {
		spec.Blocks[i].Image = photo
	}
	res, err := layout.Render(spec)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("style", style.Name).Int("photos", len(res.Placements)).Int("rows", len(res.Rows)).Msg("sheet rendered")
	return res, nil
}

func (s *Studio) timed(stage string) func() {
	start := time.Now()
	return func() {
		s.logger.Debug().Str("stage", stage).Dur("elapsed", time.Since(start)).Msg("stage finished")
	}
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}

// loggedDetector reports detection counts
type loggedDetector struct {
	vision.Detector
	logger zerolog.Logger
}

func (d loggedDetector) DetectFaces(ctx context.Context, img image.Image) ([]types.Rect, error) {
	faces, err := d.Detector.DetectFaces(ctx, img)
	if err == nil {
		d.logger.Debug().Int("faces", len(faces)).Msg("faces detected")
	}
	return faces, err
}

func (d loggedDetector) DetectEyes(ctx context.Context, face image.Image) ([]types.Rect, error) {
	eyes, err := d.Detector.DetectEyes(ctx, face)
	if err == nil {
		d.logger.Debug().Int("eyes", len(eyes)).Msg("eyes detected")
	}
	return eyes, err
}
