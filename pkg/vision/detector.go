// Package vision defines the face and eye detection capabilities consumed by
// the warp and beauty stages, plus detectors that implement them.
package vision

import (
	"context"
	"image"

	"github.com/menta2k/idphoto/pkg/types"
)

// FaceDetector locates faces in an image. Rects are in the pixel space of img.
// Finding no faces is not an error.
type FaceDetector interface {
	DetectFaces(ctx context.Context, img image.Image) ([]types.Rect, error)
}

// EyeDetector locates eyes inside a face crop. The crop is passed with its
// bounds starting at (0,0) and rects are in that space.
type EyeDetector interface {
	DetectEyes(ctx context.Context, face image.Image) ([]types.Rect, error)
}

// Detector is a face detector that can also find eyes
type Detector interface {
	FaceDetector
	EyeDetector
}

// Static returns fixed detections. It is used by callers that already know
// where the faces are.
type Static struct {
	Faces []types.Rect
	Eyes  []types.Rect
}

// DetectFaces returns a copy of s.Faces
func (s Static) DetectFaces(ctx context.Context, img image.Image) ([]types.Rect, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]types.Rect(nil), s.Faces...), nil
}

// DetectEyes returns a copy of s.Eyes
func (s Static) DetectEyes(ctx context.Context, face image.Image) ([]types.Rect, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]types.Rect(nil), s.Eyes...), nil
}

// None never finds anything
type None struct{}

func (None) DetectFaces(context.Context, image.Image) ([]types.Rect, error) { return nil, nil }

func (None) DetectEyes(context.Context, image.Image) ([]types.Rect, error) { return nil, nil }

// Largest returns the face with the biggest area, or false when faces is empty.
func Largest(faces []types.Rect) (types.Rect, bool) {
	if len(faces) == 0 {
		return types.Rect{}, false
	}
	best := faces[0]
	for _, f := range faces[1:] {
		if f.Area() > best.Area() {
			best = f
		}
	}
	return best, true
}
