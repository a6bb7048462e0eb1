package beauty

import (
	"context"
	"fmt"
	"image"

	"github.com/menta2k/idphoto/internal/raster"
	"github.com/menta2k/idphoto/pkg/types"
	"github.com/menta2k/idphoto/pkg/vision"
	"github.com/menta2k/idphoto/pkg/warp"
)

// Beautifier retouches a portrait. Remote retouching services implement it
// as well as the local chain.
type Beautifier interface {
	Beautify(ctx context.Context, img image.Image, params types.BeautyParams) (*image.NRGBA, error)
}

// Local runs smoothing, whitening, face slimming and eye enlargement in that
// order, in process. Faces is required for the two warps; without it they
// are skipped. Eyes may be nil.
type Local struct {
	Faces vision.FaceDetector
	Eyes  vision.EyeDetector
}

// NewLocal creates a local beautifier
func NewLocal(faces vision.FaceDetector, eyes vision.EyeDetector) *Local {
	return &Local{Faces: faces, Eyes: eyes}
}

// Validate checks every strength is within [0,100]
func Validate(p types.BeautyParams) error {
	checks := []struct {
		name string
		v    int
	}{
		{"smoothing", p.Smoothing},
		{"whitening", p.Whitening},
		{"slim_face", p.SlimFace},
		{"enlarge_eyes", p.EnlargeEyes},
	}
	for _, c := range checks {
		if err := types.CheckRange(c.name, c.v, 0, 100); err != nil {
			return err
		}
	}
	return nil
}

// Beautify applies params to img. Faces are detected once, after the
// colour passes, and shared by both warps.
func (l *Local) Beautify(ctx context.Context, img image.Image, params types.BeautyParams) (*image.NRGBA, error) {
	if err := types.CheckImage(img); err != nil {
		return nil, err
	}
	if err := Validate(params); err != nil {
		return nil, err
	}

	out := raster.Clone(img)
	var err error
	if params.Smoothing > 0 {
		if out, err = SmoothSkin(out, params.Smoothing); err != nil {
			return nil, err
		}
	}
	if params.Whitening > 0 {
		if out, err = WhitenSkin(out, params.Whitening); err != nil {
			return nil, err
		}
	}
	if (params.SlimFace == 0 && params.EnlargeEyes == 0) || l.Faces == nil {
		return out, nil
	}

	faces, err := l.Faces.DetectFaces(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("failed to detect faces: %w", err)
	}
	if len(faces) == 0 {
		return out, nil
	}
	if params.SlimFace > 0 {
		if out, err = warp.SlimFace(out, faces, params.SlimFace); err != nil {
			return nil, err
		}
	}
	if params.EnlargeEyes > 0 {
		if out, err = warp.EnlargeEyes(ctx, out, faces, l.Eyes, params.EnlargeEyes); err != nil {
			return nil, err
		}
	}
	return out, nil
}
