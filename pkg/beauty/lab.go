package beauty

import (
	"math"

	"github.com/menta2k/idphoto/internal/raster"
)

// D65 reference white
const (
	whiteX = 0.950456
	whiteZ = 1.088754
)

// RGBToLab converts sRGB to 8-bit L*a*b*: L scaled to [0,255], a and b
// offset by 128.
func RGBToLab(r, g, b uint8) (l, a, bb uint8) {
	rl, gl, bl := linear(r), linear(g), linear(b)
	x := (0.412453*rl + 0.357580*gl + 0.180423*bl) / whiteX
	y := 0.212671*rl + 0.715160*gl + 0.072169*bl
	z := (0.019334*rl + 0.119193*gl + 0.950227*bl) / whiteZ

	fx, fy, fz := labF(x), labF(y), labF(z)
	var lv float64
	if y > 0.008856 {
		lv = 116*fy - 16
	} else {
		lv = 903.3 * y
	}
	av := 500 * (fx - fy)
	bv := 200 * (fy - fz)
	return raster.Round(lv * 255 / 100), raster.Round(av + 128), raster.Round(bv + 128)
}

// LabToRGB is the inverse of RGBToLab.
func LabToRGB(l, a, b uint8) (r, g, bb uint8) {
	lv := float64(l) * 100 / 255
	av := float64(a) - 128
	bv := float64(b) - 128

	fy := (lv + 16) / 116
	var y float64
	if lv > 903.3*0.008856 {
		y = fy * fy * fy
	} else {
		y = lv / 903.3
	}
	fx := fy + av/500
	fz := fy - bv/200
	x := labFInv(fx) * whiteX
	z := labFInv(fz) * whiteZ

	rl := 3.240479*x - 1.537150*y - 0.498535*z
	gl := -0.969256*x + 1.875991*y + 0.041556*z
	bl := 0.055648*x - 0.204043*y + 1.057311*z
	return gammaByte(rl), gammaByte(gl), gammaByte(bl)
}

func linear(c uint8) float64 {
	v := float64(c) / 255
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func gammaByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v <= 0.0031308 {
		return raster.Round(v * 12.92 * 255)
	}
	return raster.Round((1.055*math.Pow(v, 1/2.4) - 0.055) * 255)
}

func labF(t float64) float64 {
	if t > 0.008856 {
		return math.Cbrt(t)
	}
	return 7.787*t + 16.0/116
}

func labFInv(f float64) float64 {
	if t := f * f * f; t > 0.008856 {
		return t
	}
	return (f - 16.0/116) / 7.787
}
