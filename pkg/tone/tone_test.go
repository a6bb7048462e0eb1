package tone

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/idphoto/pkg/types"
)

// createTestImage creates a gradient with every channel exercised
func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			b := uint8(((x + y) * 127) / (width + height))
			img.SetNRGBA(x, y, color.NRGBA{r, g, b, 255})
		}
	}
	return img
}

func flat(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestNeutralValuesAreIdentity(t *testing.T) {
	img := createTestImage(40, 30)

	ops := map[string]func(image.Image, int) (*image.NRGBA, error){
		"brightness": AdjustBrightness,
		"contrast":   AdjustContrast,
		"saturation": AdjustSaturation,
		"hue":        AdjustHue,
		"sharpness":  AdjustSharpness,
	}
	for name, op := range ops {
		out, err := op(img, 0)
		require.NoError(t, err, name)
		assert.Equal(t, img.Pix, out.Pix, name)
	}

	out, err := ApplyLevels(img, types.IdentityLevels())
	require.NoError(t, err)
	assert.Equal(t, img.Pix, out.Pix)

	out, err = Adjust(img, types.NeutralTone())
	require.NoError(t, err)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestInputIsNotModified(t *testing.T) {
	img := createTestImage(20, 20)
	before := append([]uint8(nil), img.Pix...)

	_, err := Adjust(img, types.ToneParams{Brightness: 30, Contrast: 20, Saturation: 40, Hue: 10, Sharpness: 20, Levels: types.IdentityLevels()})
	require.NoError(t, err)
	assert.Equal(t, before, img.Pix)
}

func TestAdjustBrightnessGray(t *testing.T) {
	out, err := AdjustBrightness(flat(4, 4, color.NRGBA{128, 128, 128, 255}), 50)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{192, 192, 192, 255}, out.NRGBAAt(2, 2))

	out, err = AdjustBrightness(flat(4, 4, color.NRGBA{200, 200, 200, 255}), 50)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, out.NRGBAAt(0, 0))
}

func TestAdjustContrastPivotsAroundMidGrey(t *testing.T) {
	img := flat(2, 1, color.NRGBA{128, 128, 128, 255})
	img.SetNRGBA(1, 0, color.NRGBA{200, 50, 128, 255})

	out, err := AdjustContrast(img, 50)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{128, 128, 128, 255}, out.NRGBAAt(0, 0))
	// 200*1.5 - 64 = 236, 50*1.5 - 64 = 11
	assert.Equal(t, color.NRGBA{236, 11, 128, 255}, out.NRGBAAt(1, 0))
}

func TestBrightnessContrastStayInRange(t *testing.T) {
	img := createTestImage(32, 32)
	for v := -100; v <= 100; v += 25 {
		for _, op := range []func(image.Image, int) (*image.NRGBA, error){AdjustBrightness, AdjustContrast} {
			out, err := op(img, v)
			require.NoError(t, err)
			assert.Equal(t, img.Bounds(), out.Bounds())
			for i := 3; i < len(out.Pix); i += 4 {
				assert.Equal(t, uint8(255), out.Pix[i])
			}
		}
	}
}

func TestOutOfRangeParameters(t *testing.T) {
	img := createTestImage(4, 4)

	_, err := AdjustBrightness(img, 101)
	assert.True(t, errors.Is(err, types.ErrInvalidParameter))

	_, err = AdjustSharpness(img, -1)
	assert.True(t, errors.Is(err, types.ErrInvalidParameter))

	_, err = AdjustHue(img, 181)
	assert.True(t, errors.Is(err, types.ErrInvalidParameter))

	_, err = AdjustBrightness(nil, 10)
	assert.True(t, errors.Is(err, types.ErrInvalidParameter))

	_, err = Adjust(img, types.ToneParams{Contrast: -200, Levels: types.IdentityLevels()})
	assert.True(t, errors.Is(err, types.ErrInvalidParameter))
}

func TestAdjustHueRotatesRedToYellow(t *testing.T) {
	out, err := AdjustHue(flat(2, 2, color.NRGBA{255, 0, 0, 255}), 60)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{255, 255, 0, 255}, out.NRGBAAt(0, 0))
}

func TestAdjustHueWrapsNegative(t *testing.T) {
	// red is hue 0; -60 * 0.5 = -30 wraps to 150 (300 degrees, magenta)
	out, err := AdjustHue(flat(1, 1, color.NRGBA{255, 0, 0, 255}), -60)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{255, 0, 255, 255}, out.NRGBAAt(0, 0))
}

func TestAdjustSaturation(t *testing.T) {
	out, err := AdjustSaturation(flat(2, 2, color.NRGBA{200, 100, 100, 255}), -100)
	require.NoError(t, err)
	c := out.NRGBAAt(0, 0)
	assert.Equal(t, c.R, c.G)
	assert.Equal(t, c.G, c.B)

	grey := flat(2, 2, color.NRGBA{90, 90, 90, 255})
	out, err = AdjustSaturation(grey, 80)
	require.NoError(t, err)
	assert.Equal(t, grey.Pix, out.Pix)
}

func TestAdjustSharpnessFlatImageUnchanged(t *testing.T) {
	out, err := AdjustSharpness(flat(16, 16, color.NRGBA{120, 60, 30, 255}), 60)
	require.NoError(t, err)
	c := out.NRGBAAt(8, 8)
	assert.InDelta(t, 120, int(c.R), 1)
	assert.InDelta(t, 60, int(c.G), 1)
	assert.InDelta(t, 30, int(c.B), 1)
}

func TestAdjustSharpnessBoostsEdges(t *testing.T) {
	img := flat(20, 20, color.NRGBA{100, 100, 100, 255})
	for y := 0; y < 20; y++ {
		for x := 10; x < 20; x++ {
			img.SetNRGBA(x, y, color.NRGBA{160, 160, 160, 255})
		}
	}
	out, err := AdjustSharpness(img, 90)
	require.NoError(t, err)
	assert.Less(t, out.NRGBAAt(9, 10).R, uint8(100))
	assert.Greater(t, out.NRGBAAt(10, 10).R, uint8(160))
}

func TestAlphaPreserved(t *testing.T) {
	img := flat(6, 6, color.NRGBA{100, 150, 200, 77})
	params := types.ToneParams{Brightness: 20, Contrast: -10, Saturation: 30, Hue: 20, Sharpness: 10,
		Levels: types.Levels{InputBlack: 10, InputWhite: 240, Gamma: 1.2, OutputBlack: 5, OutputWhite: 250}}
	out, err := Adjust(img, params)
	require.NoError(t, err)
	for i := 3; i < len(out.Pix); i += 4 {
		assert.Equal(t, uint8(77), out.Pix[i])
	}
}

func TestRGBToHSVRoundTripPrimaries(t *testing.T) {
	for _, c := range []color.NRGBA{
		{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255},
		{255, 255, 0, 255}, {0, 0, 0, 255}, {255, 255, 255, 255},
	} {
		h, s, v := RGBToHSV(c.R, c.G, c.B)
		r, g, b := HSVToRGB(h, s, v)
		assert.Equal(t, [3]uint8{c.R, c.G, c.B}, [3]uint8{r, g, b})
	}
	h, _, _ := RGBToHSV(0, 0, 255)
	assert.Equal(t, uint8(120), h)
}

func BenchmarkAdjust(b *testing.B) {
	img := createTestImage(640, 480)
	params := types.ToneParams{Brightness: 10, Contrast: 10, Saturation: 10, Hue: 10, Sharpness: 10, Levels: types.IdentityLevels()}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Adjust(img, params)
	}
}

func TestAdjustWithoutLevels(t *testing.T) {
	img := createTestImage(12, 8)
	want, err := AdjustBrightness(img, 10)
	require.NoError(t, err)

	got, err := Adjust(img, types.ToneParams{Brightness: 10})
	require.NoError(t, err)
	assert.Equal(t, want.Pix, got.Pix)

	same, err := Adjust(img, types.ToneParams{})
	require.NoError(t, err)
	assert.Equal(t, img.Pix, same.Pix)
}
