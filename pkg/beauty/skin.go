// Package beauty implements the portrait retouching chain: skin smoothing,
// skin whitening, face slimming and eye enlargement.
package beauty

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/idphoto/internal/raster"
	"github.com/menta2k/idphoto/pkg/types"
)

const (
	// bilateral and Gaussian results are mixed in this ratio before blending
	bilateralWeight = 0.6
	gaussianWeight  = 0.4

	// WhitenGain is the L* lift per unit of whitening strength, in 8-bit
	// lightness steps.
	WhitenGain = 1.5
)

// SmoothSkin softens skin texture while keeping edges. strength in [0,100]
// sets both the filter size (sigma = strength/10) and how much of the
// filtered image is blended over the original.
func SmoothSkin(img image.Image, strength int) (*image.NRGBA, error) {
	if err := types.CheckImage(img); err != nil {
		return nil, err
	}
	if err := types.CheckRange("smoothing", strength, 0, 100); err != nil {
		return nil, err
	}
	src := raster.Clone(img)
	if strength == 0 {
		return src, nil
	}

	sigma := float64(strength) / 10
	d := int(sigma * 5)
	bilateral := bilateralFilter(src, d, sigma*2, sigma)
	gaussian := imaging.Blur(src, sigma)

	mixed := addWeighted(bilateral, bilateralWeight, gaussian, gaussianWeight)
	s := float64(strength) / 100
	return addWeighted(src, 1-s, mixed, s), nil
}

// WhitenSkin brightens the image in L*a*b* space by lifting lightness by
// WhitenGain*strength and blends the result by strength/100.
func WhitenSkin(img image.Image, strength int) (*image.NRGBA, error) {
	if err := types.CheckImage(img); err != nil {
		return nil, err
	}
	if err := types.CheckRange("whitening", strength, 0, 100); err != nil {
		return nil, err
	}
	src := raster.Clone(img)
	if strength == 0 {
		return src, nil
	}

	lift := int(float64(strength) * WhitenGain)
	bright := image.NewNRGBA(src.Rect)
	w := src.Rect.Dx()
	raster.Rows(src.Rect.Dy(), func(y int) {
		i := y * src.Stride
		for x := 0; x < w; x++ {
			l, a, b := RGBToLab(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
			l = raster.Saturate(float64(int(l) + lift))
			bright.Pix[i], bright.Pix[i+1], bright.Pix[i+2] = LabToRGB(l, a, b)
			bright.Pix[i+3] = src.Pix[i+3]
			i += 4
		}
	})

	s := float64(strength) / 100
	return addWeighted(src, 1-s, bright, s), nil
}

// addWeighted returns a*wa + b*wb per colour channel, rounded. Alpha is
// taken from a.
func addWeighted(a *image.NRGBA, wa float64, b *image.NRGBA, wb float64) *image.NRGBA {
	out := image.NewNRGBA(a.Rect)
	w := a.Rect.Dx()
	raster.Rows(a.Rect.Dy(), func(y int) {
		i := y * a.Stride
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				out.Pix[i+c] = raster.Round(float64(a.Pix[i+c])*wa + float64(b.Pix[i+c])*wb)
			}
			out.Pix[i+3] = a.Pix[i+3]
			i += 4
		}
	})
	return out
}

// bilateralFilter smooths src with a circular window of diameter d. The
// range weight uses the summed absolute channel difference. A
// non-positive d derives the radius from sigmaSpace.
func bilateralFilter(src *image.NRGBA, d int, sigmaColor, sigmaSpace float64) *image.NRGBA {
	if sigmaColor <= 0 {
		sigmaColor = 1
	}
	if sigmaSpace <= 0 {
		sigmaSpace = 1
	}
	radius := d / 2
	if d <= 0 {
		radius = int(math.Round(sigmaSpace * 1.5))
	}
	radius = max(radius, 1)

	type tap struct {
		dx, dy int
		weight float64
	}
	spaceCoeff := -0.5 / (sigmaSpace * sigmaSpace)
	var taps []tap
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r2 := float64(dx*dx + dy*dy)
			if math.Sqrt(r2) > float64(radius) {
				continue
			}
			taps = append(taps, tap{dx, dy, math.Exp(r2 * spaceCoeff)})
		}
	}

	// range weights indexed by summed channel distance
	colorCoeff := -0.5 / (sigmaColor * sigmaColor)
	var colorWeight [3*255 + 1]float64
	for i := range colorWeight {
		colorWeight[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewNRGBA(src.Rect)
	raster.Rows(h, func(y int) {
		for x := 0; x < w; x++ {
			ci := y*src.Stride + x*4
			r0, g0, b0 := int(src.Pix[ci]), int(src.Pix[ci+1]), int(src.Pix[ci+2])

			var sr, sg, sb, sw float64
			for _, t := range taps {
				nx := min(max(x+t.dx, 0), w-1)
				ny := min(max(y+t.dy, 0), h-1)
				ni := ny*src.Stride + nx*4
				r, g, b := int(src.Pix[ni]), int(src.Pix[ni+1]), int(src.Pix[ni+2])
				wt := t.weight * colorWeight[absInt(r-r0)+absInt(g-g0)+absInt(b-b0)]
				sr += float64(r) * wt
				sg += float64(g) * wt
				sb += float64(b) * wt
				sw += wt
			}
			out.Pix[ci] = raster.Round(sr / sw)
			out.Pix[ci+1] = raster.Round(sg / sw)
			out.Pix[ci+2] = raster.Round(sb / sw)
			out.Pix[ci+3] = src.Pix[ci+3]
		}
	})
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
