package geometry

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/muesli/smartcrop"

	"github.com/menta2k/idphoto/internal/raster"
	"github.com/menta2k/idphoto/pkg/types"
	"github.com/menta2k/idphoto/pkg/units"
)

// CropRequest describes a user crop rectangle and the print size the crop
// is scaled to.
type CropRequest struct {
	Rect       types.Rect `json:"rect" yaml:"rect"`
	WidthMM    float64    `json:"width_mm" yaml:"width_mm"`
	HeightMM   float64    `json:"height_mm" yaml:"height_mm"`
	LockAspect bool       `json:"lock_aspect" yaml:"lock_aspect"`
	DPI        int        `json:"dpi" yaml:"dpi"`
}

// TargetSize returns the output pixel size of the request
func (r CropRequest) TargetSize() (int, int) {
	return units.MMToPixels(r.WidthMM, r.DPI), units.MMToPixels(r.HeightMM, r.DPI)
}

// CropToAspect cuts req.Rect out of img and resizes it to the print size.
// With LockAspect the rect is first reshaped about its centre to the
// WidthMM:HeightMM ratio.
func CropToAspect(img image.Image, req CropRequest) (*image.NRGBA, error) {
	if err := types.CheckImage(img); err != nil {
		return nil, err
	}
	if err := req.Rect.Validate(); err != nil {
		return nil, err
	}
	tw, th := req.TargetSize()
	if tw <= 0 || th <= 0 {
		return nil, fmt.Errorf("print size %.1fx%.1fmm is below one pixel: %w", req.WidthMM, req.HeightMM, types.ErrInvalidParameter)
	}

	src := raster.Clone(img)
	rect := req.Rect.Clamp(src.Rect)
	if rect.Empty() {
		return nil, fmt.Errorf("crop %v outside %dx%d image: %w", req.Rect, src.Rect.Dx(), src.Rect.Dy(), types.ErrDimensionMismatch)
	}
	if req.LockAspect {
		rect = lockAspect(rect, req.WidthMM/req.HeightMM).Clamp(src.Rect)
		if rect.Empty() {
			return nil, fmt.Errorf("aspect-locked crop collapsed: %w", types.ErrDimensionMismatch)
		}
	}

	cropped := imaging.Crop(src, rect.Rectangle())
	return imaging.Resize(cropped, tw, th, imaging.Linear), nil
}

// lockAspect shrinks whichever side of r is too long for ratio (w/h),
// keeping the centre.
func lockAspect(r types.Rect, ratio float64) types.Rect {
	cx, cy := r.Center()
	w, h := r.Width, r.Height
	if float64(w)/float64(h) > ratio {
		w = int(float64(h) * ratio)
	} else {
		h = int(float64(w) / ratio)
	}
	return types.Rect{X: cx - w/2, Y: cy - h/2, Width: w, Height: h}
}

// CenterCrop takes the largest centred region with the print ratio and
// resizes it to widthMM x heightMM at dpi.
func CenterCrop(img image.Image, widthMM, heightMM float64, dpi int) (*image.NRGBA, error) {
	if err := types.CheckImage(img); err != nil {
		return nil, err
	}
	tw, th := units.MMToPixels(widthMM, dpi), units.MMToPixels(heightMM, dpi)
	if tw <= 0 || th <= 0 {
		return nil, fmt.Errorf("print size %.1fx%.1fmm is below one pixel: %w", widthMM, heightMM, types.ErrInvalidParameter)
	}
	b := img.Bounds()
	iw, ih := b.Dx(), b.Dy()
	scale := min(float64(iw)/float64(tw), float64(ih)/float64(th))
	cw, ch := max(int(float64(tw)*scale), 1), max(int(float64(th)*scale), 1)

	return CropToAspect(img, CropRequest{
		Rect:     types.Rect{X: (iw - cw) / 2, Y: (ih - ch) / 2, Width: cw, Height: ch},
		WidthMM:  widthMM,
		HeightMM: heightMM,
		DPI:      dpi,
	})
}

// SuggestCrop proposes a crop rect with the print ratio, placed on the most
// interesting part of the image.
func SuggestCrop(ctx context.Context, img image.Image, widthMM, heightMM float64, dpi int) (types.Rect, error) {
	if err := types.CheckImage(img); err != nil {
		return types.Rect{}, err
	}
	tw, th := units.MMToPixels(widthMM, dpi), units.MMToPixels(heightMM, dpi)
	if tw <= 0 || th <= 0 {
		return types.Rect{}, fmt.Errorf("print size %.1fx%.1fmm is below one pixel: %w", widthMM, heightMM, types.ErrInvalidParameter)
	}
	src := raster.Clone(img)
	analyzer := smartcrop.NewAnalyzer(resizer{filter: imaging.Linear})

	type cropResult struct {
		crop image.Rectangle
		err  error
	}
	resultChan := make(chan cropResult, 1)
	go func() {
		crop, err := analyzer.FindBestCrop(src, tw, th)
		resultChan <- cropResult{crop: crop, err: err}
	}()

	select {
	case <-ctx.Done():
		return types.Rect{}, ctx.Err()
	case result := <-resultChan:
		if result.err != nil {
			return types.Rect{}, fmt.Errorf("failed to find best crop: %w", result.err)
		}
		return types.NewRect(result.crop).Clamp(src.Rect), nil
	}
}

// resizer adapts imaging to the smartcrop.Resizer interface
type resizer struct {
	filter imaging.ResampleFilter
}

func (r resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.filter)
}
