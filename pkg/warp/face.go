package warp

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/idphoto/internal/raster"
	"github.com/menta2k/idphoto/pkg/types"
	"github.com/menta2k/idphoto/pkg/vision"
)

// SlimFace narrows every face in faces, one after another, each pass
// warping the output of the previous one.
func SlimFace(img image.Image, faces []types.Rect, strength int) (*image.NRGBA, error) {
	if err := types.CheckImage(img); err != nil {
		return nil, err
	}
	if err := types.CheckRange("slim strength", strength, 0, 100); err != nil {
		return nil, err
	}
	out := raster.Clone(img)
	if strength == 0 {
		return out, nil
	}

	regions, err := clampRegions(faces, out.Rect)
	if err != nil {
		return nil, err
	}
	for _, face := range regions {
		field, err := SlimFaceField(out.Rect.Dx(), out.Rect.Dy(), face, strength)
		if err != nil {
			return nil, err
		}
		if out, err = Remap(out, field); err != nil {
			return nil, fmt.Errorf("failed to slim face at %v: %w", face, err)
		}
	}
	return out, nil
}

// EnlargeEyes magnifies the eyes of every face. Eyes are searched in crops
// of the unmodified input, then applied one at a time to the running result.
// A nil detector leaves the image unchanged.
func EnlargeEyes(ctx context.Context, img image.Image, faces []types.Rect, detector vision.EyeDetector, strength int) (*image.NRGBA, error) {
	if err := types.CheckImage(img); err != nil {
		return nil, err
	}
	if err := types.CheckRange("eye strength", strength, 0, 100); err != nil {
		return nil, err
	}
	src := raster.Clone(img)
	if strength == 0 || detector == nil {
		return src, nil
	}

	regions, err := clampRegions(faces, src.Rect)
	if err != nil {
		return nil, err
	}

	out := src
	for _, face := range regions {
		crop := imaging.Crop(src, face.Rectangle())
		eyes, err := detector.DetectEyes(ctx, crop)
		if err != nil {
			return nil, fmt.Errorf("failed to detect eyes in face %v: %w", face, err)
		}
		for _, eye := range eyes {
			if eye.Empty() {
				continue
			}
			cx := face.X + eye.X + eye.Width/2
			cy := face.Y + eye.Y + eye.Height/2
			radius := max(eye.Width, eye.Height)

			field, err := EnlargeEyeField(out.Rect.Dx(), out.Rect.Dy(), cx, cy, radius, strength)
			if err != nil {
				return nil, err
			}
			if out, err = Remap(out, field); err != nil {
				return nil, fmt.Errorf("failed to enlarge eye at (%d,%d): %w", cx, cy, err)
			}
		}
	}
	return out, nil
}

// clampRegions validates faces and intersects them with bounds, dropping
// the ones left without area.
func clampRegions(faces []types.Rect, bounds image.Rectangle) ([]types.Rect, error) {
	out := make([]types.Rect, 0, len(faces))
	for _, f := range faces {
		if err := f.Validate(); err != nil {
			return nil, err
		}
		if c := f.Clamp(bounds); !c.Empty() {
			out = append(out, c)
		}
	}
	return out, nil
}
