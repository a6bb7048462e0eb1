// Package tone implements the colour and level adjustments of the photo
// editor: brightness, contrast, saturation, hue, unsharp-mask sharpening
// and histogram levels.
//
// Every function returns a new *image.NRGBA and leaves its input untouched.
// A neutral parameter value returns an exact copy. Alpha is never modified.
package tone

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/menta2k/idphoto/internal/raster"
	"github.com/menta2k/idphoto/pkg/types"
)

const (
	// HueDamping scales the hue slider value before it is added to the
	// 8-bit hue channel.
	HueDamping = 0.5

	// SharpenSigma is the Gaussian sigma of the unsharp mask
	SharpenSigma = 3.0

	// SharpenDivisor maps the sharpness slider to the unsharp mask amount.
	SharpenDivisor = 30.0
)

// AdjustBrightness scales every colour channel by 1+v/100, v in [-100,100].
func AdjustBrightness(img image.Image, v int) (*image.NRGBA, error) {
	if err := check(img, "brightness", v, -100, 100); err != nil {
		return nil, err
	}
	if v == 0 {
		return raster.Clone(img), nil
	}
	scale := 1 + float64(v)/100
	var lut [256]uint8
	for i := range lut {
		lut[i] = raster.Round(float64(i) * scale)
	}
	return applyLUT(img, &lut), nil
}

// AdjustContrast stretches channels around mid-grey: out = in*s + 128*(1-s)
// with s = 1+v/100, v in [-100,100].
func AdjustContrast(img image.Image, v int) (*image.NRGBA, error) {
	if err := check(img, "contrast", v, -100, 100); err != nil {
		return nil, err
	}
	if v == 0 {
		return raster.Clone(img), nil
	}
	scale := 1 + float64(v)/100
	offset := 128 * (1 - scale)
	var lut [256]uint8
	for i := range lut {
		lut[i] = raster.Round(float64(i)*scale + offset)
	}
	return applyLUT(img, &lut), nil
}

// AdjustSaturation scales the HSV saturation channel by 1+v/100, v in [-100,100].
func AdjustSaturation(img image.Image, v int) (*image.NRGBA, error) {
	if err := check(img, "saturation", v, -100, 100); err != nil {
		return nil, err
	}
	if v == 0 {
		return raster.Clone(img), nil
	}
	return hsvPass(raster.Clone(img), 0, 1+float64(v)/100), nil
}

// AdjustHue rotates the hue by v*HueDamping steps of the 180-step 8-bit
// hue wheel, v in [-180,180].
func AdjustHue(img image.Image, v int) (*image.NRGBA, error) {
	if err := check(img, "hue", v, -180, 180); err != nil {
		return nil, err
	}
	if v == 0 {
		return raster.Clone(img), nil
	}
	return hsvPass(raster.Clone(img), float64(v)*HueDamping, 1), nil
}

// AdjustSharpness applies an unsharp mask: in*(1+v/30) - blur*(v/30), v in [0,100].
func AdjustSharpness(img image.Image, v int) (*image.NRGBA, error) {
	if err := check(img, "sharpness", v, 0, 100); err != nil {
		return nil, err
	}
	if v == 0 {
		return raster.Clone(img), nil
	}
	return unsharp(raster.Clone(img), float64(v)/SharpenDivisor), nil
}

// Adjust runs the combined editor pipeline. Hue and saturation are applied
// together in HSV, then brightness, contrast, sharpening and finally levels.
func Adjust(img image.Image, p types.ToneParams) (*image.NRGBA, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	if err := types.CheckImage(img); err != nil {
		return nil, err
	}

	out := raster.Clone(img)
	if p.IsNeutral() {
		return out, nil
	}

	if p.Hue != 0 || p.Saturation != 0 {
		out = hsvPass(out, float64(p.Hue)*HueDamping, 1+float64(p.Saturation)/100)
	}

	var err error
	if p.Brightness != 0 {
		if out, err = AdjustBrightness(out, p.Brightness); err != nil {
			return nil, err
		}
	}
	if p.Contrast != 0 {
		if out, err = AdjustContrast(out, p.Contrast); err != nil {
			return nil, err
		}
	}
	if p.Sharpness != 0 {
		out = unsharp(out, float64(p.Sharpness)/SharpenDivisor)
	}
	if !p.Levels.IsIdentity() {
		if out, err = ApplyLevels(out, p.Levels); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Validate checks every field of p against its documented range.
func Validate(p types.ToneParams) error {
	checks := []struct {
		name   string
		v      int
		lo, hi int
	}{
		{"brightness", p.Brightness, -100, 100},
		{"contrast", p.Contrast, -100, 100},
		{"saturation", p.Saturation, -100, 100},
		{"hue", p.Hue, -180, 180},
		{"sharpness", p.Sharpness, 0, 100},
	}
	for _, c := range checks {
		if err := types.CheckRange(c.name, c.v, c.lo, c.hi); err != nil {
			return err
		}
	}
	return ValidateLevels(p.Levels)
}

func check(img image.Image, name string, v, lo, hi int) error {
	if err := types.CheckImage(img); err != nil {
		return err
	}
	if err := types.CheckRange(name, v, lo, hi); err != nil {
		return fmt.Errorf("tone: %w", err)
	}
	return nil
}

// applyLUT maps R, G and B through lut and keeps alpha.
func applyLUT(img image.Image, lut *[256]uint8) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: lut[c.R], G: lut[c.G], B: lut[c.B], A: c.A}
	})
}

// unsharp sharpens img in place against a Gaussian-blurred copy.
func unsharp(img *image.NRGBA, amount float64) *image.NRGBA {
	blur := imaging.Blur(img, SharpenSigma)
	w, h := img.Rect.Dx(), img.Rect.Dy()
	raster.Rows(h, func(y int) {
		i := y * img.Stride
		j := y * blur.Stride
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				v := float64(img.Pix[i+c])*(1+amount) - float64(blur.Pix[j+c])*amount
				img.Pix[i+c] = raster.Round(v)
			}
			i += 4
			j += 4
		}
	})
	return img
}
