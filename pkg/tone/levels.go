package tone

import (
	"fmt"
	"image"
	"math"

	"github.com/menta2k/idphoto/internal/raster"
	"github.com/menta2k/idphoto/pkg/types"
)

// Gamma limits of the levels midtone control
const (
	MinGamma = 0.1
	MaxGamma = 10.0
)

// ValidateLevels checks the level points and gamma. The zero value is
// accepted as identity.
func ValidateLevels(l types.Levels) error {
	l = l.OrIdentity()
	points := []struct {
		name string
		v    int
	}{
		{"input_black", l.InputBlack},
		{"input_white", l.InputWhite},
		{"output_black", l.OutputBlack},
		{"output_white", l.OutputWhite},
	}
	for _, p := range points {
		if err := types.CheckRange("levels "+p.name, p.v, 0, 255); err != nil {
			return err
		}
	}
	if math.IsNaN(l.Gamma) || l.Gamma < MinGamma || l.Gamma > MaxGamma {
		return fmt.Errorf("levels gamma %.3f outside [%.1f, %.1f]: %w", l.Gamma, MinGamma, MaxGamma, types.ErrInvalidParameter)
	}
	return nil
}

// BuildLUT returns the 256-entry lookup table for l.
//
// Inputs at or below InputBlack map to OutputBlack, inputs at or above
// InputWhite map to OutputWhite, and the range between follows the gamma
// curve. When InputWhite <= InputBlack the open range is empty and the table
// becomes a hard threshold at InputBlack.
func BuildLUT(l types.Levels) [256]uint8 {
	l = l.OrIdentity()
	var lut [256]uint8
	span := float64(l.InputWhite - l.InputBlack)
	outSpan := float64(l.OutputWhite - l.OutputBlack)

	for i := range lut {
		var value float64
		switch {
		case i <= l.InputBlack:
			value = 0
		case i >= l.InputWhite:
			value = 255
		default:
			normalized := float64(i-l.InputBlack) / span
			value = math.Pow(normalized, l.Gamma) * 255
		}
		value = float64(l.OutputBlack) + (value/255)*outSpan
		// epsilon absorbs float noise such as 56.99999999 before truncation
		lut[i] = raster.Truncate(value + 1e-9)
	}
	return lut
}

// ApplyLevels remaps R, G and B through the levels lookup table.
func ApplyLevels(img image.Image, l types.Levels) (*image.NRGBA, error) {
	if err := types.CheckImage(img); err != nil {
		return nil, err
	}
	if err := ValidateLevels(l); err != nil {
		return nil, err
	}
	if l.IsIdentity() {
		return raster.Clone(img), nil
	}
	lut := BuildLUT(l)
	return applyLUT(img, &lut), nil
}

// Histogram counts R, G and B values over the whole image.
func Histogram(img image.Image) [3][256]int {
	var hist [3][256]int
	src := raster.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	for y := 0; y < h; y++ {
		i := y * src.Stride
		for x := 0; x < w; x++ {
			hist[0][src.Pix[i]]++
			hist[1][src.Pix[i+1]]++
			hist[2][src.Pix[i+2]]++
			i += 4
		}
	}
	return hist
}

// HistogramMax returns the largest bin across all channels, for scaling a
// histogram display.
func HistogramMax(hist [3][256]int) int {
	m := 0
	for c := range hist {
		for _, n := range hist[c] {
			if n > m {
				m = n
			}
		}
	}
	return m
}
