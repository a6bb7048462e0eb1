package vision

import (
	"context"
	"fmt"
	"image"
	"os"
	"sort"

	pigo "github.com/esimov/pigo/core"

	"github.com/menta2k/idphoto/internal/raster"
	"github.com/menta2k/idphoto/pkg/types"
)

// Config holds the cascade parameters of the pigo detector
type Config struct {
	MinSize          int     `json:"min_size" yaml:"min_size"`
	MaxSize          int     `json:"max_size" yaml:"max_size"`
	ShiftFactor      float64 `json:"shift_factor" yaml:"shift_factor"`
	ScaleFactor      float64 `json:"scale_factor" yaml:"scale_factor"`
	IoUThreshold     float64 `json:"iou_threshold" yaml:"iou_threshold"`
	QualityThreshold float32 `json:"quality_threshold" yaml:"quality_threshold"`
	Angle            float64 `json:"angle" yaml:"angle"`
	Perturbs         int     `json:"perturbs" yaml:"perturbs"`
}

// DefaultConfig returns parameters tuned for portrait photos
func DefaultConfig() Config {
	return Config{
		MinSize:          20,
		MaxSize:          2000,
		ShiftFactor:      0.1,
		ScaleFactor:      1.1,
		IoUThreshold:     0.18,
		QualityThreshold: 5.0,
		Angle:            0,
		Perturbs:         63,
	}
}

// PigoDetector finds faces with the pigo facefinder cascade and eyes with the
// puploc pupil cascade.
type PigoDetector struct {
	config Config
	faces  *pigo.Pigo
	pupils *pigo.PuplocCascade
}

// NewPigoDetector unpacks the cascades. puplocCascade may be nil, in which
// case DetectEyes finds nothing.
func NewPigoDetector(faceCascade, puplocCascade []byte, config Config) (*PigoDetector, error) {
	if len(faceCascade) == 0 {
		return nil, fmt.Errorf("empty face cascade: %w", types.ErrInvalidParameter)
	}
	classifier, err := pigo.NewPigo().Unpack(faceCascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack face cascade: %w", err)
	}

	d := &PigoDetector{config: config, faces: classifier}
	if len(puplocCascade) > 0 {
		plc, err := pigo.NewPuplocCascade().UnpackCascade(puplocCascade)
		if err != nil {
			return nil, fmt.Errorf("failed to unpack puploc cascade: %w", err)
		}
		d.pupils = plc
	}
	return d, nil
}

// LoadPigoDetector reads the cascade files from disk. An empty puplocPath
// disables eye detection.
func LoadPigoDetector(facePath, puplocPath string, config Config) (*PigoDetector, error) {
	faceCascade, err := os.ReadFile(facePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read face cascade: %w", err)
	}
	var puplocCascade []byte
	if puplocPath != "" {
		if puplocCascade, err = os.ReadFile(puplocPath); err != nil {
			return nil, fmt.Errorf("failed to read puploc cascade: %w", err)
		}
	}
	return NewPigoDetector(faceCascade, puplocCascade, config)
}

// DetectFaces returns the face squares above the quality threshold, best
// scoring first.
func (d *PigoDetector) DetectFaces(ctx context.Context, img image.Image) ([]types.Rect, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := types.CheckImage(img); err != nil {
		return nil, err
	}

	params := imageParams(img)
	dets := d.run(params)

	bounds := image.Rect(0, 0, params.Cols, params.Rows)
	faces := make([]types.Rect, 0, len(dets))
	for _, det := range dets {
		r := detectionRect(det).Clamp(bounds)
		if !r.Empty() {
			faces = append(faces, r)
		}
	}
	return faces, nil
}

// DetectEyes treats face as a tight face crop and searches for both pupils
// at their expected offsets. Each found pupil becomes a square eye rect.
func (d *PigoDetector) DetectEyes(ctx context.Context, face image.Image) ([]types.Rect, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := types.CheckImage(face); err != nil {
		return nil, err
	}
	if d.pupils == nil {
		return nil, nil
	}

	params := imageParams(face)
	det := pigo.Detection{
		Row:   params.Rows / 2,
		Col:   params.Cols / 2,
		Scale: min(params.Rows, params.Cols),
	}

	bounds := image.Rect(0, 0, params.Cols, params.Rows)
	var eyes []types.Rect
	for _, pl := range pupilSeeds(det, d.config.Perturbs) {
		found := d.pupils.RunDetector(pl, params, d.config.Angle, false)
		if found == nil || found.Row <= 0 || found.Col <= 0 {
			continue
		}
		r := pupilRect(found).Clamp(bounds)
		if !r.Empty() {
			eyes = append(eyes, r)
		}
	}
	return eyes, nil
}

func (d *PigoDetector) run(params pigo.ImageParams) []pigo.Detection {
	cParams := pigo.CascadeParams{
		MinSize:     d.config.MinSize,
		MaxSize:     d.config.MaxSize,
		ShiftFactor: d.config.ShiftFactor,
		ScaleFactor: d.config.ScaleFactor,
		ImageParams: params,
	}
	dets := d.faces.RunCascade(cParams, d.config.Angle)
	dets = d.faces.ClusterDetections(dets, d.config.IoUThreshold)

	kept := dets[:0]
	for _, det := range dets {
		if det.Q > d.config.QualityThreshold {
			kept = append(kept, det)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Q > kept[j].Q })
	return kept
}

func imageParams(img image.Image) pigo.ImageParams {
	src := raster.Clone(img)
	cols, rows := src.Rect.Dx(), src.Rect.Dy()
	return pigo.ImageParams{
		Pixels: pigo.RgbToGrayscale(src),
		Rows:   rows,
		Cols:   cols,
		Dim:    cols,
	}
}

// pupilSeeds places the left and right pupil search windows relative to a
// face detection.
func pupilSeeds(det pigo.Detection, perturbs int) []pigo.Puploc {
	scale := float32(det.Scale)
	row := det.Row - int(0.075*scale)
	return []pigo.Puploc{
		{Row: row, Col: det.Col - int(0.175*scale), Scale: scale * 0.25, Perturbs: perturbs},
		{Row: row, Col: det.Col + int(0.185*scale), Scale: scale * 0.25, Perturbs: perturbs},
	}
}

func detectionRect(det pigo.Detection) types.Rect {
	return types.Rect{X: det.Col - det.Scale/2, Y: det.Row - det.Scale/2, Width: det.Scale, Height: det.Scale}
}

func pupilRect(pl *pigo.Puploc) types.Rect {
	side := int(pl.Scale)
	return types.Rect{X: pl.Col - side/2, Y: pl.Row - side/2, Width: side, Height: side}
}
