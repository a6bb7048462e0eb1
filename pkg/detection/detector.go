// Package detection locates faces and eyes by asking a vision model.
package detection

import (
	"context"
	"fmt"
	"image"
	"sort"

	"github.com/menta2k/idphoto/pkg/client"
	"github.com/menta2k/idphoto/pkg/imageio"
	"github.com/menta2k/idphoto/pkg/types"
	"github.com/menta2k/idphoto/pkg/vision"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// DefaultPrompt asks for every face with its eyes
const DefaultPrompt = `You are a face locator for ID photos.

Return JSON only:
{
  "faces": [
    {
      "confidence": 0.0,
      "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0},
      "eyes": [
        {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0},
        {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}
      ]
    }
  ],
  "description": "short neutral sentence (≤ 20 words)"
}

HARD RULES
- All coordinates are normalized to [0,1] of the whole image (NOT pixels).
- "box" tightly covers the face from hairline to chin and ear to ear.
- "eyes" holds one box per visible eye; omit it when the eyes are not visible.
- Order faces from most to least confident.
- Do not guess real identities.
- If no face is found, return {"faces": [], "description": "no face"}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Config controls a FaceLocator
type Config struct {
	Model         string  `json:"model" yaml:"model"`
	Prompt        string  `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	MaxDimension  int     `json:"max_dimension" yaml:"max_dimension"`
	Quality       int     `json:"quality" yaml:"quality"`
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
}

// DefaultConfig returns the locator defaults
func DefaultConfig() Config {
	return Config{
		Model:         "minicpm-v",
		Prompt:        DefaultPrompt,
		MaxDimension:  1024,
		Quality:       90,
		MinConfidence: 0.3,
	}
}

// FaceLocator adapts a VisionClient to vision.Detector.
type FaceLocator struct {
	client client.VisionClient
	config Config
}

var _ vision.Detector = (*FaceLocator)(nil)

// NewFaceLocator creates a locator using the given client
func NewFaceLocator(c client.VisionClient, config Config) *FaceLocator {
	if config.Prompt == "" {
		config.Prompt = DefaultPrompt
	}
	return &FaceLocator{client: c, config: config}
}

// Locate sends img to the model and returns its faces with normalized,
// confidence-filtered boxes, most confident first.
func (l *FaceLocator) Locate(ctx context.Context, img image.Image) (*types.FaceAnalysis, error) {
	if err := types.CheckImage(img); err != nil {
		return nil, err
	}
	imgB64, err := imageio.EncodeBase64(img, "jpg", l.config.MaxDimension, l.config.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare image: %w", err)
	}

	result, err := l.client.LocateFaces(ctx, l.config.Model, l.config.Prompt, imgB64)
	if err != nil {
		return nil, err
	}

	sentW, sentH := sentSize(img.Bounds().Dx(), img.Bounds().Dy(), l.config.MaxDimension)
	faces := make([]types.DetectedFace, 0, len(result.Faces))
	for _, f := range result.Faces {
		if f.Confidence < l.config.MinConfidence {
			continue
		}
		f.Box = normalizeBox(f.Box, sentW, sentH)
		if f.Box.W <= 0 || f.Box.H <= 0 {
			continue
		}
		var eyes []types.Box
		for _, e := range f.Eyes {
			if e = normalizeBox(e, sentW, sentH); e.W > 0 && e.H > 0 {
				eyes = append(eyes, e)
			}
		}
		f.Eyes = eyes
		faces = append(faces, f)
	}
	sort.SliceStable(faces, func(i, j int) bool { return faces[i].Confidence > faces[j].Confidence })
	result.Faces = faces
	return result, nil
}

// DetectFaces returns pixel face rects, most confident first.
func (l *FaceLocator) DetectFaces(ctx context.Context, img image.Image) ([]types.Rect, error) {
	result, err := l.Locate(ctx, img)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	rects := make([]types.Rect, 0, len(result.Faces))
	for _, f := range result.Faces {
		if r := f.Box.ToRect(b.Dx(), b.Dy()); !r.Empty() {
			rects = append(rects, r)
		}
	}
	return rects, nil
}

// DetectEyes treats face as a face crop and returns the eyes of the most
// confident face the model finds in it, in crop coordinates.
func (l *FaceLocator) DetectEyes(ctx context.Context, face image.Image) ([]types.Rect, error) {
	result, err := l.Locate(ctx, face)
	if err != nil {
		return nil, err
	}
	if len(result.Faces) == 0 {
		return nil, nil
	}
	b := face.Bounds()
	eyes := make([]types.Rect, 0, len(result.Faces[0].Eyes))
	for _, e := range result.Faces[0].Eyes {
		if r := e.ToRect(b.Dx(), b.Dy()); !r.Empty() {
			eyes = append(eyes, r)
		}
	}
	return eyes, nil
}

// TestVision tests if the model can actually see the image with a simple prompt
func (l *FaceLocator) TestVision(ctx context.Context, img image.Image) (string, error) {
	imgB64, err := imageio.EncodeBase64(img, "jpg", l.config.MaxDimension, l.config.Quality)
	if err != nil {
		return "", fmt.Errorf("failed to prepare image: %w", err)
	}
	return l.client.SimpleQuery(ctx, l.config.Model, SimpleTestPrompt, imgB64)
}

// sentSize is the size of the image after EncodeBase64's downscale.
func sentSize(w, h, maxDim int) (int, int) {
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return w, h
	}
	if w >= h {
		return maxDim, max(1, int(float64(h)*float64(maxDim)/float64(w)+0.5))
	}
	return max(1, int(float64(w)*float64(maxDim)/float64(h)+0.5)), maxDim
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox clamps a box to [0,1]. Models sometimes answer in pixels of
// the image they were sent; any coordinate above 1 is taken as that.
func normalizeBox(b types.Box, imgW, imgH int) types.Box {
	if imgW > 0 && imgH > 0 && (b.X > 1 || b.Y > 1 || b.W > 1 || b.H > 1) {
		b = types.Box{
			X: b.X / float64(imgW),
			Y: b.Y / float64(imgH),
			W: b.W / float64(imgW),
			H: b.H / float64(imgH),
		}
	}
	x := clamp(b.X, 0, 1)
	y := clamp(b.Y, 0, 1)
	return types.Box{
		X: x,
		Y: y,
		W: clamp(b.X+b.W, 0, 1) - x,
		H: clamp(b.Y+b.H, 0, 1) - y,
	}
}
