package tone

import (
	"image"
	"math"

	"github.com/menta2k/idphoto/internal/raster"
)

// HueRange is the size of the 8-bit hue wheel (two degrees per step).
const HueRange = 180

// RGBToHSV converts an 8-bit RGB triple to 8-bit HSV with H in [0,180)
// and S, V in [0,255].
func RGBToHSV(r, g, b uint8) (h, s, v uint8) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	maxC := math.Max(rf, math.Max(gf, bf))
	minC := math.Min(rf, math.Min(gf, bf))
	diff := maxC - minC

	v = uint8(maxC)
	if maxC == 0 {
		return 0, 0, v
	}
	s = raster.Round(diff * 255 / maxC)
	if diff == 0 {
		return 0, s, v
	}

	var hue float64
	switch maxC {
	case rf:
		hue = 60 * (gf - bf) / diff
	case gf:
		hue = 120 + 60*(bf-rf)/diff
	default:
		hue = 240 + 60*(rf-gf)/diff
	}
	if hue < 0 {
		hue += 360
	}
	hh := int(math.Round(hue / 2))
	if hh >= HueRange {
		hh -= HueRange
	}
	return uint8(hh), s, v
}

// HSVToRGB converts 8-bit HSV (H in [0,180)) back to RGB.
func HSVToRGB(h, s, v uint8) (r, g, b uint8) {
	if s == 0 {
		return v, v, v
	}
	hue := math.Mod(float64(h)*2, 360) / 60
	sf := float64(s) / 255
	vf := float64(v) / 255

	sector := math.Floor(hue)
	f := hue - sector
	p := vf * (1 - sf)
	q := vf * (1 - sf*f)
	t := vf * (1 - sf*(1-f))

	var rf, gf, bf float64
	switch int(sector) % 6 {
	case 0:
		rf, gf, bf = vf, t, p
	case 1:
		rf, gf, bf = q, vf, p
	case 2:
		rf, gf, bf = p, vf, t
	case 3:
		rf, gf, bf = p, q, vf
	case 4:
		rf, gf, bf = t, p, vf
	default:
		rf, gf, bf = vf, p, q
	}
	return raster.Round(rf * 255), raster.Round(gf * 255), raster.Round(bf * 255)
}

// hsvPass shifts the hue by hueShift wheel steps and scales saturation by
// satScale, in place. The shifted hue is truncated back to 8 bits.
func hsvPass(img *image.NRGBA, hueShift, satScale float64) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	raster.Rows(h, func(y int) {
		i := y * img.Stride
		for x := 0; x < w; x++ {
			p := img.Pix[i : i+3 : i+3]
			hh, ss, vv := RGBToHSV(p[0], p[1], p[2])
			if hueShift != 0 {
				shifted := math.Mod(float64(hh)+hueShift, HueRange)
				if shifted < 0 {
					shifted += HueRange
				}
				hh = uint8(shifted)
			}
			if satScale != 1 {
				ss = raster.Round(float64(ss) * satScale)
			}
			p[0], p[1], p[2] = HSVToRGB(hh, ss, vv)
			i += 4
		}
	})
	return img
}
