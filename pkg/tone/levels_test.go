package tone

import (
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/idphoto/pkg/types"
)

func TestBuildLUT(t *testing.T) {
	tests := []struct {
		name   string
		levels types.Levels
		checks map[int]uint8
	}{
		{"identity", types.IdentityLevels(), map[int]uint8{0: 0, 1: 1, 128: 128, 254: 254, 255: 255}},
		{"output range", types.Levels{InputWhite: 255, Gamma: 1, OutputBlack: 50, OutputWhite: 200}, map[int]uint8{0: 50, 255: 200}},
		{"input clip", types.Levels{InputBlack: 20, InputWhite: 220, Gamma: 1, OutputWhite: 255}, map[int]uint8{0: 0, 20: 0, 220: 255, 240: 255}},
		{"gamma", types.Levels{InputWhite: 255, Gamma: 2, OutputWhite: 255}, map[int]uint8{128: 64, 255: 255}},
		{"inverted output", types.Levels{InputWhite: 255, Gamma: 1, OutputBlack: 255, OutputWhite: 0}, map[int]uint8{0: 255, 255: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lut := BuildLUT(tt.levels)
			for in, want := range tt.checks {
				assert.Equal(t, want, lut[in], "input %d", in)
			}
		})
	}
}

func TestBuildLUTMonotonic(t *testing.T) {
	for white := 1; white <= 255; white++ {
		lut := BuildLUT(types.Levels{InputWhite: white, Gamma: 1, OutputWhite: 255})
		for i := 1; i < 256; i++ {
			if lut[i] < lut[i-1] {
				t.Fatalf("input_white %d: lut[%d]=%d < lut[%d]=%d", white, i, lut[i], i-1, lut[i-1])
			}
		}
	}
}

func TestUnsetLevelsAreIdentity(t *testing.T) {
	assert.NoError(t, ValidateLevels(types.Levels{}))
	assert.Equal(t, BuildLUT(types.IdentityLevels()), BuildLUT(types.Levels{}))

	img := flat(3, 3, color.NRGBA{100, 150, 200, 90})
	out, err := ApplyLevels(img, types.Levels{})
	require.NoError(t, err)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestBuildLUTThresholdWhenWhiteNotAboveBlack(t *testing.T) {
	for _, l := range []types.Levels{
		{InputBlack: 100, InputWhite: 100, Gamma: 1, OutputBlack: 10, OutputWhite: 240},
		{InputBlack: 150, InputWhite: 50, Gamma: 1, OutputBlack: 10, OutputWhite: 240},
	} {
		lut := BuildLUT(l)
		for i := 0; i < 256; i++ {
			if i <= l.InputBlack {
				assert.Equal(t, uint8(10), lut[i], "input %d", i)
			} else {
				assert.Equal(t, uint8(240), lut[i], "input %d", i)
			}
		}
	}
}

func TestApplyLevelsKeepsAlpha(t *testing.T) {
	img := flat(3, 3, color.NRGBA{100, 150, 200, 90})
	out, err := ApplyLevels(img, types.Levels{InputBlack: 100, InputWhite: 200, Gamma: 1, OutputWhite: 255})
	require.NoError(t, err)

	// 150 sits halfway between 100 and 200
	assert.Equal(t, color.NRGBA{0, 127, 255, 90}, out.NRGBAAt(1, 1))
}

func TestValidateLevels(t *testing.T) {
	assert.NoError(t, ValidateLevels(types.IdentityLevels()))

	bad := []types.Levels{
		{InputBlack: -1, InputWhite: 255, Gamma: 1, OutputWhite: 255},
		{InputWhite: 256, Gamma: 1, OutputWhite: 255},
		{InputWhite: 255, Gamma: 0.05, OutputWhite: 255},
		{InputWhite: 255, Gamma: 11, OutputWhite: 255},
		{InputWhite: 255, Gamma: 1, OutputBlack: 300},
	}
	for _, l := range bad {
		assert.True(t, errors.Is(ValidateLevels(l), types.ErrInvalidParameter), "%+v", l)
	}
}

func TestHistogram(t *testing.T) {
	img := flat(4, 2, color.NRGBA{10, 20, 30, 255})
	img.SetNRGBA(0, 0, color.NRGBA{255, 20, 0, 255})

	hist := Histogram(img)
	assert.Equal(t, 7, hist[0][10])
	assert.Equal(t, 1, hist[0][255])
	assert.Equal(t, 8, hist[1][20])
	assert.Equal(t, 1, hist[2][0])
	assert.Equal(t, 8, HistogramMax(hist))
}
